package service

import (
	"context"

	"anypay-go/internal/core/ports"
	"anypay-go/pkg/anypay"
	"anypay-go/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentServiceImpl implements ports.PaymentService on top of the AnyPay client.
// It holds no payment state; every call goes to AnyPay.
type PaymentServiceImpl struct {
	api ports.AnyPayAPI
	log zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(api ports.AnyPayAPI, log zerolog.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		api: api,
		log: log,
	}
}

// Balance returns the account balance.
func (s *PaymentServiceImpl) Balance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := s.api.Balance(ctx)
	if err != nil {
		return decimal.Zero, s.upstream(anypay.EndpointBalance, err)
	}
	return balance, nil
}

// Rates returns the current conversion rates.
func (s *PaymentServiceImpl) Rates(ctx context.Context) (*anypay.Rates, error) {
	rates, err := s.api.Rates(ctx)
	if err != nil {
		return nil, s.upstream(anypay.EndpointRates, err)
	}
	return rates, nil
}

// Commissions returns the commission table of a project.
func (s *PaymentServiceImpl) Commissions(ctx context.Context, projectID int64) (anypay.Commissions, error) {
	if projectID < 0 {
		return nil, apperror.Validation("project_id must not be negative")
	}
	commissions, err := s.api.Commissions(ctx, projectID)
	if err != nil {
		return nil, s.upstream(anypay.EndpointCommissions, err)
	}
	return commissions, nil
}

// CreatePayment creates a bill.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req anypay.CreatePaymentRequest) (*anypay.Bill, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}

	bill, err := s.api.CreatePayment(ctx, req)
	if err != nil {
		return nil, s.upstream(anypay.EndpointCreatePayment, err)
	}

	s.log.Info().
		Int64("pay_id", bill.ID).
		Str("amount", req.Amount.String()).
		Str("method", req.Method).
		Msg("bill created")

	return bill, nil
}

// Payments lists payments.
func (s *PaymentServiceImpl) Payments(ctx context.Context, filter anypay.PaymentsFilter) ([]anypay.Payment, error) {
	if filter.Offset < 0 {
		return nil, apperror.Validation("offset must not be negative")
	}
	payments, err := s.api.Payments(ctx, filter)
	if err != nil {
		return nil, s.upstream(anypay.EndpointPayments, err)
	}
	return payments, nil
}

// CreatePayout creates a payout.
func (s *PaymentServiceImpl) CreatePayout(ctx context.Context, req anypay.CreatePayoutRequest) (*anypay.Payout, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}

	payout, err := s.api.CreatePayout(ctx, req)
	if err != nil {
		return nil, s.upstream(anypay.EndpointCreatePayout, err)
	}

	s.log.Info().
		Int64("payout_id", payout.PayoutID).
		Int64("transaction_id", payout.ID).
		Str("status", payout.Status).
		Msg("payout created")

	return payout, nil
}

// Payouts lists payouts.
func (s *PaymentServiceImpl) Payouts(ctx context.Context, filter anypay.PayoutsFilter) ([]anypay.Payout, error) {
	if filter.Offset < 0 {
		return nil, apperror.Validation("offset must not be negative")
	}
	payouts, err := s.api.Payouts(ctx, filter)
	if err != nil {
		return nil, s.upstream(anypay.EndpointPayouts, err)
	}
	return payouts, nil
}

// ServiceIPs returns the AnyPay notification addresses.
func (s *PaymentServiceImpl) ServiceIPs(ctx context.Context) ([]string, error) {
	ips, err := s.api.ServiceIPs(ctx)
	if err != nil {
		return nil, s.upstream(anypay.EndpointServiceIPs, err)
	}
	return ips, nil
}

// Checkout returns a signed hosted bill URL. AnyPay is not contacted.
func (s *PaymentServiceImpl) Checkout(ctx context.Context, req anypay.BillURLRequest) (string, error) {
	if req.PayID <= 0 {
		return "", apperror.Validation("pay_id must be positive")
	}
	if !req.Amount.IsPositive() {
		return "", apperror.Validation("amount must be positive")
	}
	if err := ctx.Err(); err != nil {
		return "", apperror.InternalError(err)
	}

	url := s.api.BillURL(req)
	s.log.Debug().Int64("pay_id", req.PayID).Msg("checkout url built")
	return url, nil
}

// upstream logs a failed AnyPay call and maps it to an AppError.
func (s *PaymentServiceImpl) upstream(endpoint string, err error) error {
	appErr := apperror.FromUpstream(err)
	s.log.Warn().
		Err(err).
		Str("endpoint", endpoint).
		Str("error_code", appErr.Code).
		Msg("anypay call failed")
	return appErr
}
