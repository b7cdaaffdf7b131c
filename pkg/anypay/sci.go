package anypay

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// BillURLRequest describes a hosted bill. Zero ProjectID and empty
// ProjectSecret fall back to the client config.
type BillURLRequest struct {
	ProjectID     int64
	ProjectSecret string
	PayID         int64
	Amount        decimal.Decimal
	Currency      string // defaults to RUB
	Desc          string
	Method        string
	Email         string
	Phone         string
	SuccessURL    string
	FailURL       string
	Lang          string
	Extra         map[string]string // passed through to the payment page
}

// sciNone stands in for absent values inside hosted bill signatures.
const sciNone = "None"

// BillURL returns a pre-signed hosted bill URL for the payer's browser.
// Nothing is validated locally: bad project credentials surface on the
// AnyPay page the payer is redirected to.
func (c *Client) BillURL(req BillURLRequest) string {
	if req.ProjectID == 0 {
		req.ProjectID = c.cfg.ProjectID
	}
	if req.ProjectSecret == "" {
		req.ProjectSecret = c.cfg.ProjectSecret
	}
	return BuildBillURL(c.cfg.BaseURL, req, c.cfg.Algorithm())
}

// BuildBillURL builds a hosted bill URL against baseURL.
func BuildBillURL(baseURL string, req BillURLRequest, algo Algorithm) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}

	query := url.Values{}
	for key, value := range req.Extra {
		query.Set(key, value)
	}
	fields := Params{
		"merchant_id": optional(req.ProjectID),
		"pay_id":      optional(req.PayID),
		"amount":      req.Amount,
		"currency":    req.Currency,
		"desc":        optional(req.Desc),
		"method":      optional(req.Method),
		"email":       optional(req.Email),
		"phone":       optional(req.Phone),
		"success_url": optional(req.SuccessURL),
		"fail_url":    optional(req.FailURL),
		"lang":        optional(req.Lang),
	}
	for key, value := range fields {
		if isNil(value) {
			continue
		}
		query.Set(key, formatValue(value))
	}
	query.Set("sign", BillSignature(req, algo))

	return strings.TrimRight(baseURL, "/") + "/merchant?" + query.Encode()
}

// BillSignature signs a hosted bill.
//
//	MD5:    currency:amount:secret:project_id:pay_id
//	SHA256: project_id:pay_id:amount:currency:desc:success_url:fail_url:secret
func BillSignature(req BillURLRequest, algo Algorithm) string {
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}
	var parts []any
	if algo == MD5 {
		parts = []any{
			req.Currency, req.Amount, optional(req.ProjectSecret),
			optional(req.ProjectID), optional(req.PayID),
		}
	} else {
		parts = []any{
			optional(req.ProjectID), optional(req.PayID), req.Amount, req.Currency,
			optional(req.Desc), optional(req.SuccessURL), optional(req.FailURL),
			optional(req.ProjectSecret),
		}
	}

	rendered := make([]string, len(parts))
	for i, p := range parts {
		if isNil(p) {
			rendered[i] = sciNone
			continue
		}
		rendered[i] = formatValue(p)
	}
	return digest(algo, strings.Join(rendered, ":"))
}
