package service

import (
	"context"
	"sync"
	"time"

	"anypay-go/internal/core/ports"
)

const (
	upstreamPingTimeout = 5 * time.Second

	// DefaultHealthCacheTTL is how long an AnyPay ping result is reused.
	DefaultHealthCacheTTL = 15 * time.Second
)

// AnyPayHealthCheck implements ports.HealthChecker by fetching the AnyPay
// notification IP list, which exercises credentials and signing. The
// outcome is cached for ttl so /health traffic does not turn into signed
// upstream calls; concurrent pings wait for the one in flight.
type AnyPayHealthCheck struct {
	api ports.AnyPayAPI
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	lastErr   error
}

// NewAnyPayHealthCheck creates an AnyPay health checker. A non-positive
// ttl selects DefaultHealthCacheTTL.
func NewAnyPayHealthCheck(api ports.AnyPayAPI, ttl time.Duration) *AnyPayHealthCheck {
	if ttl <= 0 {
		ttl = DefaultHealthCacheTTL
	}
	return &AnyPayHealthCheck{api: api, ttl: ttl, now: time.Now}
}

// Ping checks that AnyPay answers a signed request.
func (h *AnyPayHealthCheck) Ping(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.checkedAt.IsZero() && h.now().Sub(h.checkedAt) < h.ttl {
		return h.lastErr
	}

	pingCtx, cancel := context.WithTimeout(ctx, upstreamPingTimeout)
	defer cancel()
	_, err := h.api.ServiceIPs(pingCtx)

	// A caller that gave up says nothing about AnyPay.
	if ctx.Err() != nil {
		return err
	}
	h.checkedAt = h.now()
	h.lastErr = err
	return err
}

// Name returns the dependency name.
func (h *AnyPayHealthCheck) Name() string {
	return "anypay"
}
