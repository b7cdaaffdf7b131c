package anypay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// API endpoint names. They are part of the URL and of every signature.
const (
	EndpointBalance       = "balance"
	EndpointRates         = "rates"
	EndpointCommissions   = "commissions"
	EndpointCreatePayment = "create-payment"
	EndpointPayments      = "payments"
	EndpointCreatePayout  = "create-payout"
	EndpointPayouts       = "payouts"
	EndpointServiceIPs    = "ip-notification"
)

// Config holds the account credentials. Keys and secrets are never logged.
type Config struct {
	APIID         string
	APIKey        string
	ProjectID     int64  // default project for project-scoped calls, 0 = none
	ProjectSecret string // used only to sign hosted bill URLs
	UseMD5        bool   // account is switched to MD5 signatures
	NoCheck       bool   // skip the credential check in New
	BaseURL       string // defaults to DefaultBaseURL
}

// Algorithm returns the signature algorithm selected by the config.
func (c Config) Algorithm() Algorithm {
	if c.UseMD5 {
		return MD5
	}
	return SHA256
}

// Option customises a Client.
type Option func(*options)

type options struct {
	httpClient HTTPClient
	log        zerolog.Logger
}

// WithHTTPClient replaces the default *http.Client. The client is shared by
// all calls and must be safe for concurrent use.
func WithHTTPClient(hc HTTPClient) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// Client is an AnyPay API client. It is safe for concurrent use.
type Client struct {
	cfg        Config
	dispatcher *Dispatcher
	log        zerolog.Logger
}

// New creates a client. Unless cfg.NoCheck is set it makes one blocking
// ip-notification call so that rejected credentials fail here rather than
// on first use; that call's error is returned unchanged.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIID == "" || cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	o := options{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log.With().Str("component", "anypay").Logger()
	c := &Client{
		cfg:        cfg,
		dispatcher: NewDispatcher(cfg.BaseURL, cfg.APIID, cfg.APIKey, cfg.Algorithm(), o.httpClient, log),
		log:        log,
	}

	if !cfg.NoCheck {
		if _, err := c.dispatcher.Call(ctx, EndpointServiceIPs, "", nil); err != nil {
			log.Warn().Err(err).Msg("anypay credential check failed")
			return nil, err
		}
	}

	return c, nil
}

// Dispatcher exposes the underlying dispatcher for endpoints the client
// does not wrap.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// ProjectID returns the default project ID.
func (c *Client) ProjectID() int64 {
	return c.cfg.ProjectID
}

// call runs a request on the shared session and waits for its reply.
func (c *Client) call(ctx context.Context, endpoint, template string, params Params) (json.RawMessage, error) {
	select {
	case reply := <-c.dispatcher.CallAsync(ctx, endpoint, template, params):
		return reply.Result, reply.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// project resolves an explicit project ID against the configured default.
// It returns nil when neither is set.
func (c *Client) project(id int64) any {
	if id == 0 {
		id = c.cfg.ProjectID
	}
	if id == 0 {
		return nil
	}
	return id
}

// Balance returns the account balance.
// Docs: https://anypay.io/doc/api/balance
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	raw, err := c.call(ctx, EndpointBalance, "", nil)
	if err != nil {
		return decimal.Zero, err
	}

	var wire balanceWire
	if err := decodeRecord(EndpointBalance, raw, &wire); err != nil {
		return decimal.Zero, err
	}
	return *wire.Balance, nil
}

// Rates returns the current incoming and outgoing conversion rates.
// Docs: https://anypay.io/doc/api/rates
func (c *Client) Rates(ctx context.Context) (*Rates, error) {
	raw, err := c.call(ctx, EndpointRates, "", nil)
	if err != nil {
		return nil, err
	}

	var wire ratesWire
	if err := decodeRecord(EndpointRates, raw, &wire); err != nil {
		return nil, err
	}
	return &Rates{Incoming: wire.In, Outgoing: wire.Out}, nil
}

// Commissions returns the commission table of a project. A zero projectID
// selects the configured default.
// Docs: https://anypay.io/doc/api/commissions
func (c *Client) Commissions(ctx context.Context, projectID int64) (Commissions, error) {
	raw, err := c.call(ctx, EndpointCommissions, "%(project_id)s", Params{
		"project_id": c.project(projectID),
	})
	if err != nil {
		return nil, err
	}

	commissions := Commissions{}
	if isEmpty(raw) {
		return commissions, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&commissions); err != nil {
		return nil, malformed(EndpointCommissions, err)
	}
	return commissions, nil
}

// ServiceIPs returns the addresses AnyPay sends notifications from.
// Docs: https://anypay.io/doc/api/ip-notification
func (c *Client) ServiceIPs(ctx context.Context) ([]string, error) {
	raw, err := c.call(ctx, EndpointServiceIPs, "", nil)
	if err != nil {
		return nil, err
	}

	ips := []string{}
	if isEmpty(raw) {
		return ips, nil
	}
	if err := json.Unmarshal(raw, &ips); err != nil {
		return nil, malformed(EndpointServiceIPs, err)
	}
	return ips, nil
}

// requireParams reports the first key of params that has no value.
func requireParams(params Params, keys ...string) error {
	for _, key := range keys {
		if v, ok := params[key]; !ok || isNil(v) {
			return fmt.Errorf("%w: %q", ErrMissingParam, key)
		}
	}
	return nil
}

// optional maps the zero value to nil so the parameter is omitted.
func optional[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}
