package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreatePayment AuditAction = "CREATE_PAYMENT"
	AuditActionCreatePayout  AuditAction = "CREATE_PAYOUT"
	AuditActionCheckout      AuditAction = "CHECKOUT"
)

// AuditLog records a single write call forwarded to AnyPay.
// It never holds payment state, only who asked for what and the outcome.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Subject      string      `json:"subject"` // JWT subject of the caller
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	RequestID    string      `json:"request_id"`
	StatusCode   int         `json:"status_code"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Succeeded reports whether the audited call returned a 2xx status.
func (a *AuditLog) Succeeded() bool {
	return a.StatusCode >= 200 && a.StatusCode < 300
}

// AuditFilter narrows an audit trail listing.
type AuditFilter struct {
	Subject string
	Action  AuditAction
	Limit   int
}

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// Normalize clamps Limit into (0, MaxAuditLimit].
func (f AuditFilter) Normalize() AuditFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultAuditLimit
	}
	if f.Limit > MaxAuditLimit {
		f.Limit = MaxAuditLimit
	}
	return f
}
