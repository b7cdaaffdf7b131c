package ports

import (
	"context"
	"time"

	"anypay-go/internal/core/domain"
	"anypay-go/pkg/anypay"

	"github.com/shopspring/decimal"
)

// AnyPayAPI is the part of *anypay.Client the gateway forwards to.
type AnyPayAPI interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
	Rates(ctx context.Context) (*anypay.Rates, error)
	Commissions(ctx context.Context, projectID int64) (anypay.Commissions, error)
	CreatePayment(ctx context.Context, req anypay.CreatePaymentRequest) (*anypay.Bill, error)
	Payments(ctx context.Context, filter anypay.PaymentsFilter) ([]anypay.Payment, error)
	CreatePayout(ctx context.Context, req anypay.CreatePayoutRequest) (*anypay.Payout, error)
	Payouts(ctx context.Context, filter anypay.PayoutsFilter) ([]anypay.Payout, error)
	ServiceIPs(ctx context.Context) ([]string, error)
	BillURL(req anypay.BillURLRequest) string
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// AuditService records forwarded write calls.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, error)
}

// --- Service Ports (Business Logic) ---

// PaymentService forwards gateway calls to AnyPay and maps failures to
// apperror codes.
type PaymentService interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
	Rates(ctx context.Context) (*anypay.Rates, error)
	Commissions(ctx context.Context, projectID int64) (anypay.Commissions, error)
	CreatePayment(ctx context.Context, req anypay.CreatePaymentRequest) (*anypay.Bill, error)
	Payments(ctx context.Context, filter anypay.PaymentsFilter) ([]anypay.Payment, error)
	CreatePayout(ctx context.Context, req anypay.CreatePayoutRequest) (*anypay.Payout, error)
	Payouts(ctx context.Context, filter anypay.PayoutsFilter) ([]anypay.Payout, error)
	ServiceIPs(ctx context.Context) ([]string, error)
	Checkout(ctx context.Context, req anypay.BillURLRequest) (string, error)
}
