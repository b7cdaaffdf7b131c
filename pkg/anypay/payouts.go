package anypay

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreatePayoutRequest describes a withdrawal to an external wallet.
type CreatePayoutRequest struct {
	PayoutID       int64
	PayoutType     string // qiwi, ym, card, ...
	Amount         decimal.Decimal
	Wallet         string
	WalletCurrency string
	CommissionType string // "payment" or "balance"
	StatusURL      string
}

// CreatePayout creates a payout.
// Docs: https://anypay.io/doc/api/create-payout
func (c *Client) CreatePayout(ctx context.Context, req CreatePayoutRequest) (*Payout, error) {
	params := Params{
		"payout_id":       optional(req.PayoutID),
		"payout_type":     optional(req.PayoutType),
		"amount":          req.Amount,
		"wallet":          optional(req.Wallet),
		"wallet_currency": optional(req.WalletCurrency),
		"commission_type": optional(req.CommissionType),
		"status_url":      optional(req.StatusURL),
	}

	raw, err := c.call(ctx, EndpointCreatePayout,
		"%(payout_id)s%(payout_type)s%(amount)s%(wallet)s", params)
	if err != nil {
		return nil, err
	}

	var wire payoutWire
	if err := decodeRecord(EndpointCreatePayout, raw, &wire); err != nil {
		return nil, err
	}
	payout := wire.record()
	return &payout, nil
}

// PayoutsFilter narrows the payout history. Zero fields are not sent.
type PayoutsFilter struct {
	TransactionID int64
	PayoutID      int64
	Offset        int
}

// Payouts lists payouts in the order the API returns them.
// Docs: https://anypay.io/doc/api/payouts
func (c *Client) Payouts(ctx context.Context, filter PayoutsFilter) ([]Payout, error) {
	raw, err := c.call(ctx, EndpointPayouts, "", Params{
		"transaction_id": optional(filter.TransactionID),
		"payout_id":      optional(filter.PayoutID),
		"offset":         filter.Offset,
	})
	if err != nil {
		return nil, err
	}

	member, err := collectionMember(EndpointPayouts, raw, "payouts")
	if err != nil {
		return nil, err
	}
	values, err := keyedValues(member)
	if err != nil {
		return nil, malformed(EndpointPayouts, err)
	}

	payouts := make([]Payout, 0, len(values))
	for _, v := range values {
		var wire payoutWire
		if err := decodeRecord(EndpointPayouts, v, &wire); err != nil {
			return nil, err
		}
		payouts = append(payouts, wire.record())
	}
	return payouts, nil
}
