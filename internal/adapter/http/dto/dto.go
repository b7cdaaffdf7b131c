package dto

import (
	"strconv"

	"anypay-go/pkg/anypay"

	"github.com/shopspring/decimal"
)

// CreatePaymentRequest is the request body for bill creation.
type CreatePaymentRequest struct {
	ProjectID      int64           `json:"project_id" binding:"omitempty,gte=0"`
	PayID          int64           `json:"pay_id" binding:"required,gt=0"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" binding:"omitempty,len=3,alpha"`
	Desc           string          `json:"desc" binding:"max=150"`
	Method         string          `json:"method" binding:"required,safe_id"`
	Email          string          `json:"email" binding:"required,email"`
	MethodCurrency string          `json:"method_currency" binding:"omitempty,len=3,alpha"`
	Phone          string          `json:"phone" binding:"omitempty,max=20"`
	Tail           string          `json:"tail" binding:"omitempty,len=4,numeric"`
	SuccessURL     string          `json:"success_url" binding:"omitempty,safe_url"`
	FailURL        string          `json:"fail_url" binding:"omitempty,safe_url"`
	Lang           string          `json:"lang" binding:"omitempty,oneof=ru en"`
}

// ToAnyPay converts the body to a client request.
func (r CreatePaymentRequest) ToAnyPay() anypay.CreatePaymentRequest {
	return anypay.CreatePaymentRequest{
		ProjectID:      r.ProjectID,
		PayID:          r.PayID,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Desc:           r.Desc,
		Method:         r.Method,
		Email:          r.Email,
		MethodCurrency: r.MethodCurrency,
		Phone:          r.Phone,
		Tail:           r.Tail,
		SuccessURL:     r.SuccessURL,
		FailURL:        r.FailURL,
		Lang:           r.Lang,
	}
}

// AuditDetails returns the fields worth keeping in the audit trail.
func (r CreatePaymentRequest) AuditDetails() map[string]string {
	return map[string]string{
		"pay_id":   strconv.FormatInt(r.PayID, 10),
		"amount":   r.Amount.String(),
		"currency": r.Currency,
		"method":   r.Method,
	}
}

// CreatePayoutRequest is the request body for payout creation.
type CreatePayoutRequest struct {
	PayoutID       int64           `json:"payout_id" binding:"required,gt=0"`
	PayoutType     string          `json:"payout_type" binding:"required,safe_id"`
	Amount         decimal.Decimal `json:"amount"`
	Wallet         string          `json:"wallet" binding:"required,max=100"`
	WalletCurrency string          `json:"wallet_currency" binding:"omitempty,len=3,alpha"`
	CommissionType string          `json:"commission_type" binding:"omitempty,oneof=payment balance"`
	StatusURL      string          `json:"status_url" binding:"omitempty,safe_url"`
}

// ToAnyPay converts the body to a client request.
func (r CreatePayoutRequest) ToAnyPay() anypay.CreatePayoutRequest {
	return anypay.CreatePayoutRequest{
		PayoutID:       r.PayoutID,
		PayoutType:     r.PayoutType,
		Amount:         r.Amount,
		Wallet:         r.Wallet,
		WalletCurrency: r.WalletCurrency,
		CommissionType: r.CommissionType,
		StatusURL:      r.StatusURL,
	}
}

// AuditDetails returns the fields worth keeping in the audit trail.
// The wallet is masked to its last four characters.
func (r CreatePayoutRequest) AuditDetails() map[string]string {
	return map[string]string{
		"payout_id":   strconv.FormatInt(r.PayoutID, 10),
		"payout_type": r.PayoutType,
		"amount":      r.Amount.String(),
		"wallet":      MaskWallet(r.Wallet),
	}
}

// CheckoutRequest is the request body for a hosted bill URL.
type CheckoutRequest struct {
	ProjectID  int64             `json:"project_id" binding:"omitempty,gte=0"`
	PayID      int64             `json:"pay_id" binding:"required,gt=0"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency" binding:"omitempty,len=3,alpha"`
	Desc       string            `json:"desc" binding:"max=150"`
	Method     string            `json:"method" binding:"omitempty,safe_id"`
	Email      string            `json:"email" binding:"omitempty,email"`
	Phone      string            `json:"phone" binding:"omitempty,max=20"`
	SuccessURL string            `json:"success_url" binding:"omitempty,safe_url"`
	FailURL    string            `json:"fail_url" binding:"omitempty,safe_url"`
	Lang       string            `json:"lang" binding:"omitempty,oneof=ru en"`
	Extra      map[string]string `json:"extra" binding:"omitempty,max=20,dive,keys,safe_id,endkeys,max=255"`
}

// ToAnyPay converts the body to a bill URL request. The project secret
// always comes from configuration.
func (r CheckoutRequest) ToAnyPay() anypay.BillURLRequest {
	return anypay.BillURLRequest{
		ProjectID:  r.ProjectID,
		PayID:      r.PayID,
		Amount:     r.Amount,
		Currency:   r.Currency,
		Desc:       r.Desc,
		Method:     r.Method,
		Email:      r.Email,
		Phone:      r.Phone,
		SuccessURL: r.SuccessURL,
		FailURL:    r.FailURL,
		Lang:       r.Lang,
		Extra:      r.Extra,
	}
}

// AuditDetails returns the fields worth keeping in the audit trail.
func (r CheckoutRequest) AuditDetails() map[string]string {
	return map[string]string{
		"pay_id":   strconv.FormatInt(r.PayID, 10),
		"amount":   r.Amount.String(),
		"currency": r.Currency,
	}
}

// CommissionsQuery holds the query of GET /commissions.
type CommissionsQuery struct {
	ProjectID int64 `form:"project_id" binding:"omitempty,gte=0"`
}

// PaymentsQuery holds the query of GET /payments.
type PaymentsQuery struct {
	ProjectID     int64 `form:"project_id" binding:"omitempty,gte=0"`
	TransactionID int64 `form:"transaction_id" binding:"omitempty,gte=0"`
	PayID         int64 `form:"pay_id" binding:"omitempty,gte=0"`
	Offset        int   `form:"offset" binding:"omitempty,gte=0"`
}

// ToAnyPay converts the query to a client filter.
func (q PaymentsQuery) ToAnyPay() anypay.PaymentsFilter {
	return anypay.PaymentsFilter{
		ProjectID:     q.ProjectID,
		TransactionID: q.TransactionID,
		PayID:         q.PayID,
		Offset:        q.Offset,
	}
}

// PayoutsQuery holds the query of GET /payouts.
type PayoutsQuery struct {
	TransactionID int64 `form:"transaction_id" binding:"omitempty,gte=0"`
	PayoutID      int64 `form:"payout_id" binding:"omitempty,gte=0"`
	Offset        int   `form:"offset" binding:"omitempty,gte=0"`
}

// ToAnyPay converts the query to a client filter.
func (q PayoutsQuery) ToAnyPay() anypay.PayoutsFilter {
	return anypay.PayoutsFilter{
		TransactionID: q.TransactionID,
		PayoutID:      q.PayoutID,
		Offset:        q.Offset,
	}
}

// AuditQuery holds the query of GET /audit.
type AuditQuery struct {
	Subject string `form:"subject" binding:"omitempty,max=100"`
	Action  string `form:"action" binding:"omitempty,oneof=CREATE_PAYMENT CREATE_PAYOUT CHECKOUT"`
	Limit   int    `form:"limit" binding:"omitempty,gte=1,lte=500"`
}

// BalanceResponse is the response for GET /balance.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// CheckoutResponse is the response for POST /checkout.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// ServiceIPsResponse is the response for GET /service-ips.
type ServiceIPsResponse struct {
	IPs []string `json:"ips"`
}

// ListResponse wraps a list returned by AnyPay.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

// NewListResponse builds a ListResponse; a nil slice renders as [].
func NewListResponse[T any](items []T, offset int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items), Offset: offset}
}
