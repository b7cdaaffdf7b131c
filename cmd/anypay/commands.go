package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"anypay-go/internal/service"
	"anypay-go/pkg/anypay"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

type command struct {
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, e *env) (any, error)
}

var commands = map[string]command{
	"balance": {
		summary: "account balance",
		run: func(ctx context.Context, e *env) (any, error) {
			client, err := e.client(ctx)
			if err != nil {
				return nil, err
			}
			balance, err := client.Balance(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]decimal.Decimal{"balance": balance}, nil
		},
	},
	"rates": {
		summary: "conversion rates",
		run: func(ctx context.Context, e *env) (any, error) {
			client, err := e.client(ctx)
			if err != nil {
				return nil, err
			}
			return client.Rates(ctx)
		},
	},
	"commissions": {
		summary: "commissions of --project-id",
		run: func(ctx context.Context, e *env) (any, error) {
			client, err := e.client(ctx)
			if err != nil {
				return nil, err
			}
			return client.Commissions(ctx, 0)
		},
	},
	"payments": {
		summary: "payment history",
		flags: func(fs *pflag.FlagSet) {
			fs.Int64("transaction-id", 0, "filter by AnyPay transaction ID")
			fs.Int64("pay-id", 0, "filter by merchant pay ID")
			fs.Int("offset", 0, "skip this many records")
		},
		run: func(ctx context.Context, e *env) (any, error) {
			client, err := e.client(ctx)
			if err != nil {
				return nil, err
			}
			transactionID, _ := e.fs.GetInt64("transaction-id")
			payID, _ := e.fs.GetInt64("pay-id")
			offset, _ := e.fs.GetInt("offset")
			return client.Payments(ctx, anypay.PaymentsFilter{
				TransactionID: transactionID,
				PayID:         payID,
				Offset:        offset,
			})
		},
	},
	"payouts": {
		summary: "payout history",
		flags: func(fs *pflag.FlagSet) {
			fs.Int64("transaction-id", 0, "filter by AnyPay transaction ID")
			fs.Int64("payout-id", 0, "filter by merchant payout ID")
			fs.Int("offset", 0, "skip this many records")
		},
		run: func(ctx context.Context, e *env) (any, error) {
			client, err := e.client(ctx)
			if err != nil {
				return nil, err
			}
			transactionID, _ := e.fs.GetInt64("transaction-id")
			payoutID, _ := e.fs.GetInt64("payout-id")
			offset, _ := e.fs.GetInt("offset")
			return client.Payouts(ctx, anypay.PayoutsFilter{
				TransactionID: transactionID,
				PayoutID:      payoutID,
				Offset:        offset,
			})
		},
	},
	"create-payment": {
		summary: "create a bill and print its payment URL",
		flags: func(fs *pflag.FlagSet) {
			fs.Int64("pay-id", 0, "merchant pay ID (required)")
			fs.String("amount", "", "amount (required)")
			fs.String("currency", anypay.DefaultCurrency, "currency")
			fs.String("desc", "", "description")
			fs.String("method", "", "payment method (required)")
			fs.String("email", "", "payer email (required)")
			fs.String("method-currency", "", "currency of the payment method")
			fs.String("phone", "", "payer phone")
			fs.String("tail", "", "last four card digits, card method only")
			fs.String("success-url", "", "redirect after payment")
			fs.String("fail-url", "", "redirect after failure")
			fs.String("lang", "", "page language, ru or en")
		},
		run: runCreatePayment,
	},
	"create-payout": {
		summary: "send a payout to a wallet",
		flags: func(fs *pflag.FlagSet) {
			fs.Int64("payout-id", 0, "merchant payout ID (required)")
			fs.String("payout-type", "", "payout system, e.g. card or qiwi (required)")
			fs.String("amount", "", "amount (required)")
			fs.String("wallet", "", "recipient wallet (required)")
			fs.String("wallet-currency", "", "currency of the wallet")
			fs.String("commission-type", "", "payment or balance")
			fs.String("status-url", "", "status notification URL")
		},
		run: runCreatePayout,
	},
	"ips": {
		summary: "AnyPay notification addresses",
		run: func(ctx context.Context, e *env) (any, error) {
			client, err := e.client(ctx)
			if err != nil {
				return nil, err
			}
			return client.ServiceIPs(ctx)
		},
	},
	"bill-url": {
		summary: "signed hosted bill URL (offline)",
		flags: func(fs *pflag.FlagSet) {
			fs.Int64("pay-id", 0, "merchant pay ID (required)")
			fs.String("amount", "", "amount (required)")
			fs.String("currency", anypay.DefaultCurrency, "currency")
			fs.String("desc", "", "description")
			fs.String("method", "", "payment method")
			fs.String("email", "", "payer email")
			fs.String("phone", "", "payer phone")
			fs.String("success-url", "", "redirect after payment")
			fs.String("fail-url", "", "redirect after failure")
			fs.String("lang", "", "page language, ru or en")
			fs.StringToString("extra", nil, "extra pass-through parameters, key=value")
		},
		run: runBillURL,
	},
	"token": {
		summary: "issue a gateway bearer token",
		flags: func(fs *pflag.FlagSet) {
			fs.String("subject", "", "token subject (required)")
			fs.Duration("expiry", 0, "lifetime (config jwt.expiry)")
		},
		run: runToken,
	},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *env) str(name string) string {
	v, _ := e.fs.GetString(name)
	return v
}

// amount parses --amount, which must be positive.
func (e *env) amount() (decimal.Decimal, error) {
	raw := e.str("amount")
	if raw == "" {
		return decimal.Zero, errors.New("--amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --amount: %w", err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.New("--amount must be positive")
	}
	return amount, nil
}

func runCreatePayment(ctx context.Context, e *env) (any, error) {
	payID, _ := e.fs.GetInt64("pay-id")
	if payID <= 0 {
		return nil, errors.New("--pay-id is required")
	}
	amount, err := e.amount()
	if err != nil {
		return nil, err
	}
	if e.str("method") == "" || e.str("email") == "" {
		return nil, errors.New("--method and --email are required")
	}

	client, err := e.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.CreatePayment(ctx, anypay.CreatePaymentRequest{
		PayID:          payID,
		Amount:         amount,
		Currency:       e.str("currency"),
		Desc:           e.str("desc"),
		Method:         e.str("method"),
		Email:          e.str("email"),
		MethodCurrency: e.str("method-currency"),
		Phone:          e.str("phone"),
		Tail:           e.str("tail"),
		SuccessURL:     e.str("success-url"),
		FailURL:        e.str("fail-url"),
		Lang:           e.str("lang"),
	})
}

func runCreatePayout(ctx context.Context, e *env) (any, error) {
	payoutID, _ := e.fs.GetInt64("payout-id")
	if payoutID <= 0 {
		return nil, errors.New("--payout-id is required")
	}
	amount, err := e.amount()
	if err != nil {
		return nil, err
	}
	if e.str("payout-type") == "" || e.str("wallet") == "" {
		return nil, errors.New("--payout-type and --wallet are required")
	}

	client, err := e.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.CreatePayout(ctx, anypay.CreatePayoutRequest{
		PayoutID:       payoutID,
		PayoutType:     e.str("payout-type"),
		Amount:         amount,
		Wallet:         e.str("wallet"),
		WalletCurrency: e.str("wallet-currency"),
		CommissionType: e.str("commission-type"),
		StatusURL:      e.str("status-url"),
	})
}

func runBillURL(_ context.Context, e *env) (any, error) {
	payID, _ := e.fs.GetInt64("pay-id")
	if payID <= 0 {
		return nil, errors.New("--pay-id is required")
	}
	amount, err := e.amount()
	if err != nil {
		return nil, err
	}

	extra, _ := e.fs.GetStringToString("extra")

	cfg := e.cfg.AnyPay.Client()
	url := anypay.BuildBillURL(cfg.BaseURL, anypay.BillURLRequest{
		ProjectID:     cfg.ProjectID,
		ProjectSecret: cfg.ProjectSecret,
		PayID:         payID,
		Amount:        amount,
		Currency:      e.str("currency"),
		Desc:          e.str("desc"),
		Method:        e.str("method"),
		Email:         e.str("email"),
		Phone:         e.str("phone"),
		SuccessURL:    e.str("success-url"),
		FailURL:       e.str("fail-url"),
		Lang:          e.str("lang"),
		Extra:         extra,
	}, cfg.Algorithm())
	return map[string]string{"url": url}, nil
}

func runToken(_ context.Context, e *env) (any, error) {
	subject, _ := e.fs.GetString("subject")
	if subject == "" {
		return nil, errors.New("--subject is required")
	}
	if e.cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret is not set (--jwt-secret or ANYPAY_JWT_SECRET)")
	}
	expiry, _ := e.fs.GetDuration("expiry")
	if expiry <= 0 {
		expiry = e.cfg.JWT.Expiry
	}

	token, expiresAt, err := service.NewJWTTokenService(e.cfg.JWT.Secret, expiry, e.cfg.JWT.Issuer).Generate(subject)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"token":      token,
		"subject":    subject,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}, nil
}
