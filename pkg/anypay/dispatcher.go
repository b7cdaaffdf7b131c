package anypay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the production AnyPay host.
	DefaultBaseURL = "https://anypay.io"

	// DefaultTimeout bounds every API call.
	DefaultTimeout = 60 * time.Second

	// HeaderRequestID carries a per-call id for log correlation.
	HeaderRequestID = "X-Request-Id"
)

// HTTPClient interface for testability. *http.Client satisfies it and is
// safe for concurrent use.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Reply is the outcome of a non-blocking call.
type Reply struct {
	Result json.RawMessage
	Err    error
}

// Dispatcher signs, sends and unwraps API calls.
type Dispatcher struct {
	baseURL string
	apiID   string
	apiKey  string
	algo    Algorithm
	session HTTPClient // keep-alive, used by CallAsync
	oneShot HTTPClient // no keep-alive, used by Call
	log     zerolog.Logger
}

// NewDispatcher creates a dispatcher that sends requests through session.
func NewDispatcher(baseURL, apiID, apiKey string, algo Algorithm, session HTTPClient, log zerolog.Logger) *Dispatcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiID:   apiID,
		apiKey:  apiKey,
		algo:    algo,
		session: session,
		oneShot: oneShotClient(session),
		log:     log,
	}
}

// oneShotClient derives a client that dials a fresh connection per request
// and never parks it in the shared pool. Clients other than *http.Client
// are used as they are, with Request.Close set on each blocking call.
func oneShotClient(session HTTPClient) HTTPClient {
	hc, ok := session.(*http.Client)
	if !ok {
		return session
	}
	rt := hc.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	tr, ok := rt.(*http.Transport)
	if !ok {
		return session
	}
	tr = tr.Clone()
	tr.DisableKeepAlives = true
	return &http.Client{
		Transport:     tr,
		CheckRedirect: hc.CheckRedirect,
		Jar:           hc.Jar,
		Timeout:       hc.Timeout,
	}
}

// Call performs a blocking API call on a connection of its own and returns
// the "result" member of the response, or nil when the response has none.
func (d *Dispatcher) Call(ctx context.Context, endpoint, template string, params Params) (json.RawMessage, error) {
	return d.do(ctx, endpoint, template, params, true)
}

// CallAsync starts the call on the shared keep-alive session and returns a
// channel that receives exactly one Reply.
func (d *Dispatcher) CallAsync(ctx context.Context, endpoint, template string, params Params) <-chan Reply {
	replies := make(chan Reply, 1)
	go func() {
		result, err := d.do(ctx, endpoint, template, params, false)
		replies <- Reply{Result: result, Err: err}
	}()
	return replies
}

// URL returns the endpoint URL for the configured API ID.
func (d *Dispatcher) URL(endpoint string) string {
	return fmt.Sprintf("%s/api/%s/%s", d.baseURL, endpoint, url.PathEscape(d.apiID))
}

// Query builds the signed query string values for a call.
func (d *Dispatcher) Query(endpoint, template string, params Params) (url.Values, error) {
	sign, err := Sign(endpoint, d.apiID, template, params, d.apiKey, d.algo)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("sign", sign)
	for key, value := range params {
		if isNil(value) {
			continue
		}
		query.Set(key, formatValue(value))
	}
	return query, nil
}

func (d *Dispatcher) do(ctx context.Context, endpoint, template string, params Params, oneShot bool) (json.RawMessage, error) {
	query, err := d.Query(endpoint, template, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL(endpoint)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	req.Close = oneShot

	client := d.session
	if oneShot {
		client = d.oneShot
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		d.log.Debug().Err(err).
			Str("endpoint", endpoint).
			Str("request_id", requestID).
			Msg("anypay request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	d.log.Debug().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Bool("one_shot", oneShot).
		Msg("anypay request")

	return unwrapEnvelope(endpoint, body)
}

// envelope is the top-level shape of every API response.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *APIError       `json:"error"`
}

// unwrapEnvelope returns the result member or the API error. The HTTP
// status is not consulted: the error member alone decides failure.
func unwrapEnvelope(endpoint string, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed(endpoint, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if isNull(env.Result) {
		return nil, nil
	}
	return env.Result, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
