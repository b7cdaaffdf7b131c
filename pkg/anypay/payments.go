package anypay

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a request leaves the currency empty.
const DefaultCurrency = "RUB"

// CreatePaymentRequest describes a bill to create through the API.
type CreatePaymentRequest struct {
	ProjectID      int64 // 0 selects the configured project
	PayID          int64
	Amount         decimal.Decimal
	Currency       string // defaults to RUB
	Desc           string
	Method         string
	Email          string
	MethodCurrency string
	Phone          string
	Tail           string // last card digits, card method only
	SuccessURL     string
	FailURL        string
	Lang           string
}

func (r CreatePaymentRequest) params(projectID any) Params {
	currency := r.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return Params{
		"project_id":      projectID,
		"pay_id":          optional(r.PayID),
		"amount":          r.Amount,
		"currency":        currency,
		"desc":            r.Desc,
		"method":          optional(r.Method),
		"method_currency": optional(r.MethodCurrency),
		"email":           optional(r.Email),
		"phone":           optional(r.Phone),
		"tail":            optional(r.Tail),
		"success_url":     optional(r.SuccessURL),
		"fail_url":        optional(r.FailURL),
		"lang":            optional(r.Lang),
	}
}

// CreatePayment creates a bill and returns the URL to send the payer to.
// Docs: https://anypay.io/doc/api/create-payment
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Bill, error) {
	params := req.params(c.project(req.ProjectID))
	if err := requireParams(params, "project_id", "pay_id", "method", "email"); err != nil {
		return nil, err
	}

	raw, err := c.call(ctx, EndpointCreatePayment,
		"%(project_id)s%(amount)s%(currency)s%(desc)s%(method)s", params)
	if err != nil {
		return nil, err
	}

	var wire billWire
	if err := decodeRecord(EndpointCreatePayment, raw, &wire); err != nil {
		return nil, err
	}
	return wire.record(), nil
}

// PaymentsFilter narrows the payment history. Zero fields are not sent.
type PaymentsFilter struct {
	ProjectID     int64 // 0 selects the configured project
	TransactionID int64
	PayID         int64
	Offset        int
}

// Payments lists payments in the order the API returns them. An empty
// history yields an empty slice.
// Docs: https://anypay.io/doc/api/payments
func (c *Client) Payments(ctx context.Context, filter PaymentsFilter) ([]Payment, error) {
	raw, err := c.call(ctx, EndpointPayments, "%(project_id)s", Params{
		"project_id":     c.project(filter.ProjectID),
		"transaction_id": optional(filter.TransactionID),
		"pay_id":         optional(filter.PayID),
		"offset":         filter.Offset,
	})
	if err != nil {
		return nil, err
	}

	member, err := collectionMember(EndpointPayments, raw, "payments")
	if err != nil {
		return nil, err
	}
	values, err := keyedValues(member)
	if err != nil {
		return nil, malformed(EndpointPayments, err)
	}

	payments := make([]Payment, 0, len(values))
	for _, v := range values {
		var wire paymentWire
		if err := decodeRecord(EndpointPayments, v, &wire); err != nil {
			return nil, err
		}
		payments = append(payments, wire.record())
	}
	return payments, nil
}
