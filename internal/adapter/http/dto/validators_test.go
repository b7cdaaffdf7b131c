package dto

import (
	"testing"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validPayment() CreatePaymentRequest {
	return CreatePaymentRequest{
		PayID:  10,
		Amount: decimal.RequireFromString("100.50"),
		Method: "card",
		Email:  "payer@example.com",
	}
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"card",
		"ym",
		"qiwi_wallet",
		"a.b.c",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"card 001",    // space
		"card<001>",   // angle brackets
		"card;DROP",   // semicolon
		"",            // empty
		"hello world", // space
		"card\n001",   // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestCreatePaymentRequest_Valid(t *testing.T) {
	req := validPayment()
	req.SuccessURL = "https://shop.example.com/ok"
	req.Lang = "en"
	assert.NoError(t, binding.Validator.ValidateStruct(&req))
}

func TestCreatePaymentRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreatePaymentRequest)
	}{
		{"missing pay_id", func(r *CreatePaymentRequest) { r.PayID = 0 }},
		{"missing method", func(r *CreatePaymentRequest) { r.Method = "" }},
		{"unsafe method", func(r *CreatePaymentRequest) { r.Method = "card;drop" }},
		{"bad email", func(r *CreatePaymentRequest) { r.Email = "nope" }},
		{"bad currency", func(r *CreatePaymentRequest) { r.Currency = "RUBLE" }},
		{"javascript url", func(r *CreatePaymentRequest) { r.SuccessURL = "javascript:alert(1)" }},
		{"relative url", func(r *CreatePaymentRequest) { r.FailURL = "/fail" }},
		{"bad tail", func(r *CreatePaymentRequest) { r.Tail = "12ab" }},
		{"bad lang", func(r *CreatePaymentRequest) { r.Lang = "de" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPayment()
			tt.mutate(&req)
			assert.Error(t, binding.Validator.ValidateStruct(&req))
		})
	}
}

func TestCreatePayoutRequest_Validation(t *testing.T) {
	req := CreatePayoutRequest{
		PayoutID:   7,
		PayoutType: "qiwi",
		Amount:     decimal.NewFromInt(500),
		Wallet:     "79001234567",
	}
	assert.NoError(t, binding.Validator.ValidateStruct(&req))

	req.CommissionType = "merchant"
	assert.Error(t, binding.Validator.ValidateStruct(&req))

	req.CommissionType = "balance"
	req.Wallet = ""
	assert.Error(t, binding.Validator.ValidateStruct(&req))
}

func TestCheckoutRequest_ExtraKeys(t *testing.T) {
	req := CheckoutRequest{
		PayID:  1,
		Amount: decimal.NewFromInt(1),
		Extra:  map[string]string{"order_ref": "A-1"},
	}
	assert.NoError(t, binding.Validator.ValidateStruct(&req))

	req.Extra = map[string]string{"bad key": "x"}
	assert.Error(t, binding.Validator.ValidateStruct(&req))
}

func TestCreatePaymentRequest_ToAnyPay(t *testing.T) {
	req := validPayment()
	req.ProjectID = 42
	req.Desc = "Order #10"

	out := req.ToAnyPay()
	assert.Equal(t, int64(42), out.ProjectID)
	assert.Equal(t, int64(10), out.PayID)
	assert.True(t, out.Amount.Equal(decimal.RequireFromString("100.5")))
	assert.Equal(t, "Order #10", out.Desc)
	assert.Equal(t, "card", out.Method)
}

func TestCheckoutRequest_ToAnyPay_NoSecret(t *testing.T) {
	req := CheckoutRequest{PayID: 3, Amount: decimal.NewFromInt(9), Currency: "USD"}
	out := req.ToAnyPay()
	assert.Empty(t, out.ProjectSecret)
	assert.Equal(t, "USD", out.Currency)
}

func TestMaskWallet(t *testing.T) {
	assert.Equal(t, "*******4567", MaskWallet("79001234567"))
	assert.Equal(t, "***", MaskWallet("abc"))
	assert.Equal(t, "", MaskWallet(""))
}

func TestMaskWallet_Multibyte(t *testing.T) {
	masked := MaskWallet("кошелёк-№42")
	assert.True(t, utf8.ValidString(masked))
	assert.Equal(t, "*******-№42", masked)
	assert.Equal(t, "**", MaskWallet("ёж"))
}

func TestNewListResponse_NilBecomesEmpty(t *testing.T) {
	resp := NewListResponse[string](nil, 20)
	assert.NotNil(t, resp.Items)
	assert.Equal(t, 0, resp.Count)
	assert.Equal(t, 20, resp.Offset)
}

func TestPayoutAuditDetails_MasksWallet(t *testing.T) {
	req := CreatePayoutRequest{PayoutID: 7, PayoutType: "card", Amount: decimal.NewFromInt(5), Wallet: "4111111111111111"}
	details := req.AuditDetails()
	assert.Equal(t, "************1111", details["wallet"])
	assert.Equal(t, "7", details["payout_id"])
}
