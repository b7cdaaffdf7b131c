package anypay

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of date fields in payment and payout records.
const DateLayout = "02.01.2006 15:04:05"

// BillStatusWaiting is the status a freshly created bill reports.
const BillStatusWaiting = "waiting"

// Bill is a payment request created with CreatePayment.
// Status only reflects the creation call, not settlement.
type Bill struct {
	ID            int64  `json:"id"`
	TransactionID *int64 `json:"transaction_id,omitempty"`
	Status        string `json:"status"`
	URL           string `json:"url"`
}

// Payment is one entry of the payment history.
type Payment struct {
	ID          int64           `json:"id"`
	PayID       int64           `json:"pay_id"`
	Status      string          `json:"status"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Profit      decimal.Decimal `json:"profit"`
	Email       string          `json:"email"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	PayDate     string          `json:"pay_date"`
}

// Paid reports whether the payment has a pay date.
func (p Payment) Paid() bool {
	return p.PayDate != ""
}

// CreatedAt parses Date in the given location.
func (p Payment) CreatedAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, p.Date, loc)
}

// PaidAt parses PayDate in the given location. It returns the zero time
// for unpaid payments.
func (p Payment) PaidAt(loc *time.Location) (time.Time, error) {
	if !p.Paid() {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, p.PayDate, loc)
}

// Payout is a withdrawal to an external wallet.
// ExchangeRate is nil when the payout settled in its own currency.
type Payout struct {
	ID             int64            `json:"id"`
	PayoutID       int64            `json:"payout_id"`
	PayoutType     string           `json:"payout_type"`
	Status         string           `json:"status"`
	Amount         decimal.Decimal  `json:"amount"`
	Commission     decimal.Decimal  `json:"commission"`
	CommissionType string           `json:"commission_type"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate"`
	Wallet         string           `json:"wallet"`
	Date           string           `json:"date"`
	CompleteDate   string           `json:"complete_date"`
}

// CompletedAt parses CompleteDate in the given location. It returns the
// zero time while the payout is still in progress.
func (p Payout) CompletedAt(loc *time.Location) (time.Time, error) {
	if p.CompleteDate == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, p.CompleteDate, loc)
}

// Rates maps currency codes to conversion rates.
type Rates struct {
	Incoming map[string]decimal.Decimal `json:"in"`
	Outgoing map[string]decimal.Decimal `json:"out"`
}

// Commissions is the commission table of a project as returned by the API.
// Numbers are kept as json.Number.
type Commissions map[string]any
