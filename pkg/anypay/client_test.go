package anypay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIID  = "test-api-id"
	testAPIKey = "test-api-key"
)

// testTemplates mirrors the signature templates the service verifies.
var testTemplates = map[string]string{
	EndpointBalance:       "",
	EndpointRates:         "",
	EndpointCommissions:   "%(project_id)s",
	EndpointCreatePayment: "%(project_id)s%(amount)s%(currency)s%(desc)s%(method)s",
	EndpointPayments:      "%(project_id)s",
	EndpointCreatePayout:  "%(payout_id)s%(payout_type)s%(amount)s%(wallet)s",
	EndpointPayouts:       "",
	EndpointServiceIPs:    "",
}

// apiHandler returns the response body for a verified request.
type apiHandler func(query url.Values) string

// fakeAnyPay is a test server that validates signatures like the real service.
type fakeAnyPay struct {
	*httptest.Server

	mu     sync.Mutex
	calls  map[string]int
	closed map[string][]bool
}

func newFakeAnyPay(t *testing.T, algo Algorithm, handlers map[string]apiHandler) *fakeAnyPay {
	f := &fakeAnyPay{calls: map[string]int{}, closed: map[string][]bool{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "api" || parts[2] != testAPIID {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		endpoint := parts[1]

		f.mu.Lock()
		f.calls[endpoint]++
		f.closed[endpoint] = append(f.closed[endpoint], r.Close)
		f.mu.Unlock()

		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}

		query := r.URL.Query()
		params := Params{}
		for key := range query {
			if key != "sign" {
				params[key] = query.Get(key)
			}
		}
		want, err := Sign(endpoint, testAPIID, testTemplates[endpoint], params, testAPIKey, algo)
		if err != nil || query.Get("sign") != want {
			t.Errorf("signature mismatch for %s: got %s, want %s (%v)", endpoint, query.Get("sign"), want, err)
			io.WriteString(w, `{"error":{"code":400,"message":"invalid signature"}}`)
			return
		}

		handler, ok := handlers[endpoint]
		if !ok {
			io.WriteString(w, `{"error":{"code":404,"message":"unknown method"}}`)
			return
		}
		io.WriteString(w, handler(query))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAnyPay) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeAnyPay) connectionClosed(endpoint string) []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.closed[endpoint]...)
}

func fixed(body string) apiHandler {
	return func(url.Values) string { return body }
}

// newTestClient creates a client configured for testing.
func newTestClient(t *testing.T, baseURL string, mutate ...func(*Config)) *Client {
	cfg := Config{
		APIID:         testAPIID,
		APIKey:        testAPIKey,
		ProjectID:     42,
		ProjectSecret: "project-secret",
		NoCheck:       true,
		BaseURL:       baseURL,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return client
}

func TestNew_ChecksCredentialsOnOwnConnection(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointServiceIPs: fixed(`{"result":["185.162.128.38"]}`),
	})

	_, err := New(context.Background(), Config{APIID: testAPIID, APIKey: testAPIKey, BaseURL: server.URL})
	require.NoError(t, err)

	assert.Equal(t, 1, server.callCount(EndpointServiceIPs))
	assert.Equal(t, []bool{true}, server.connectionClosed(EndpointServiceIPs))
}

func TestNew_RejectedCredentials(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointServiceIPs: fixed(`{"error":{"code":401,"message":"bad sign"}}`),
	})

	client, err := New(context.Background(), Config{APIID: testAPIID, APIKey: testAPIKey, BaseURL: server.URL})
	assert.Nil(t, client)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
}

func TestNew_NoCheckSkipsCredentialCheck(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, nil)

	newTestClient(t, server.URL)
	assert.Equal(t, 0, server.callCount(EndpointServiceIPs))
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{APIID: "id"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNew_MD5Account(t *testing.T) {
	server := newFakeAnyPay(t, MD5, map[string]apiHandler{
		EndpointServiceIPs: fixed(`{"result":[]}`),
		EndpointBalance:    fixed(`{"result":{"balance":3}}`),
	})

	client, err := New(context.Background(), Config{APIID: testAPIID, APIKey: testAPIKey, UseMD5: true, BaseURL: server.URL})
	require.NoError(t, err)

	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(balance))
}

func TestBalance_Success(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointBalance: fixed(`{"result":{"balance":100.5}}`),
	})
	client := newTestClient(t, server.URL)

	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100.5", balance.String())
	assert.Equal(t, []bool{false}, server.connectionClosed(EndpointBalance))
}

func TestBalance_APIError(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointBalance: fixed(`{"error":{"code":401,"message":"bad sign"}}`),
	})
	client := newTestClient(t, server.URL)

	_, err := client.Balance(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
	assert.Equal(t, "bad sign", apiErr.Message)
}

func TestBalance_MissingField(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointBalance: fixed(`{"result":{"amount":1}}`),
	})
	client := newTestClient(t, server.URL)

	_, err := client.Balance(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), `"balance"`)
}

func TestRates_Success(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointRates: fixed(`{"result":{"in":{"usd":92.15,"eur":"99.9"},"out":{"usd":95.4}}}`),
	})
	client := newTestClient(t, server.URL)

	rates, err := client.Rates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates.Incoming, 2)
	assert.Equal(t, "92.15", rates.Incoming["usd"].String())
	assert.Equal(t, "99.9", rates.Incoming["eur"].String())
	assert.Equal(t, "95.4", rates.Outgoing["usd"].String())
}

func TestRates_MissingDirection(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointRates: fixed(`{"result":{"in":{"usd":92.15}}}`),
	})
	client := newTestClient(t, server.URL)

	_, err := client.Rates(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), `"out"`)
}

func TestCommissions_DefaultAndExplicitProject(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointCommissions: func(q url.Values) string {
			mu.Lock()
			seen = append(seen, q.Get("project_id"))
			mu.Unlock()
			return `{"result":{"card":{"commission":4.5,"currency":"RUB"}}}`
		},
	})
	client := newTestClient(t, server.URL)

	commissions, err := client.Commissions(context.Background(), 0)
	require.NoError(t, err)
	card, ok := commissions["card"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "4.5", fmt.Sprint(card["commission"]))

	_, err = client.Commissions(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"42", "7"}, seen)
}

func TestCommissions_NoProjectConfigured(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, nil)
	client := newTestClient(t, server.URL, func(c *Config) { c.ProjectID = 0 })

	_, err := client.Commissions(context.Background(), 0)
	assert.ErrorIs(t, err, ErrMissingParam)
	assert.Equal(t, 0, server.callCount(EndpointCommissions))
}

func TestCreatePayment_Success(t *testing.T) {
	var query url.Values
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointCreatePayment: func(q url.Values) string {
			query = q
			return `{"result":{"transaction_id":9001,"pay_id":1001,"status":"waiting","payment_url":"https://anypay.io/pay/abc"}}`
		},
	})
	client := newTestClient(t, server.URL)

	bill, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		PayID:      1001,
		Amount:     decimal.RequireFromString("150.50"),
		Desc:       "Order #1001",
		Method:     "card",
		Email:      "payer@example.com",
		SuccessURL: "https://shop.example.com/ok",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1001), bill.ID)
	require.NotNil(t, bill.TransactionID)
	assert.Equal(t, int64(9001), *bill.TransactionID)
	assert.Equal(t, "waiting", bill.Status)
	assert.Equal(t, "https://anypay.io/pay/abc", bill.URL)

	assert.Equal(t, "42", query.Get("project_id"))
	assert.Equal(t, "1001", query.Get("pay_id"))
	assert.Equal(t, "150.5", query.Get("amount"))
	assert.Equal(t, "RUB", query.Get("currency"))
	assert.Equal(t, "Order #1001", query.Get("desc"))
	assert.Equal(t, "https://shop.example.com/ok", query.Get("success_url"))
	for _, key := range []string{"method_currency", "phone", "tail", "fail_url", "lang"} {
		_, present := query[key]
		assert.False(t, present, "%s should be omitted", key)
	}
}

func TestCreatePayment_DefaultStatusAndOptionalTransaction(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointCreatePayment: fixed(`{"result":{"pay_id":"5","payment_url":"https://anypay.io/pay/x"}}`),
	})
	client := newTestClient(t, server.URL)

	bill, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		PayID: 5, Amount: decimal.NewFromInt(10), Method: "qiwi", Email: "a@b.c", Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), bill.ID)
	assert.Nil(t, bill.TransactionID)
	assert.Equal(t, BillStatusWaiting, bill.Status)
}

func TestCreatePayment_MissingRequired(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, nil)
	client := newTestClient(t, server.URL)

	tests := []struct {
		name string
		req  CreatePaymentRequest
		key  string
	}{
		{"pay id", CreatePaymentRequest{Method: "card", Email: "a@b.c"}, "pay_id"},
		{"method", CreatePaymentRequest{PayID: 1, Email: "a@b.c"}, "method"},
		{"email", CreatePaymentRequest{PayID: 1, Method: "card"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreatePayment(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrMissingParam)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
	assert.Equal(t, 0, server.callCount(EndpointCreatePayment))
}

func TestCreatePayment_MissingPaymentURL(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointCreatePayment: fixed(`{"result":{"pay_id":5}}`),
	})
	client := newTestClient(t, server.URL)

	_, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		PayID: 5, Amount: decimal.NewFromInt(10), Method: "qiwi", Email: "a@b.c",
	})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "payment_url")
}

const paymentsFixture = `{"result":{"total":2,"payments":{
	"9002":{"transaction_id":9002,"pay_id":12,"status":"paid","method":"card","amount":250,"currency":"RUB","profit":241.25,"email":"b@example.com","desc":"Order 12","date":"02.03.2024 10:00:00","pay_date":"02.03.2024 10:05:00"},
	"9001":{"transaction_id":9001,"pay_id":11,"status":"waiting","method":"qiwi","amount":100.5,"currency":"RUB","profit":97,"email":"a@example.com","desc":"Order 11","date":"01.03.2024 09:00:00","pay_date":""}
}}}`

func TestPayments_Success(t *testing.T) {
	var query url.Values
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointPayments: func(q url.Values) string {
			query = q
			return paymentsFixture
		},
	})
	client := newTestClient(t, server.URL)

	payments, err := client.Payments(context.Background(), PaymentsFilter{})
	require.NoError(t, err)
	require.Len(t, payments, 2)

	assert.Equal(t, int64(9002), payments[0].ID)
	assert.Equal(t, int64(12), payments[0].PayID)
	assert.Equal(t, "Order 12", payments[0].Description)
	assert.Equal(t, "241.25", payments[0].Profit.String())
	assert.True(t, payments[0].Paid())

	assert.Equal(t, int64(9001), payments[1].ID)
	assert.Equal(t, "100.5", payments[1].Amount.String())
	assert.False(t, payments[1].Paid())

	assert.Equal(t, "42", query.Get("project_id"))
	assert.Equal(t, "0", query.Get("offset"))
	_, hasPayID := query["pay_id"]
	assert.False(t, hasPayID)
}

func TestPayments_Filters(t *testing.T) {
	var query url.Values
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointPayments: func(q url.Values) string {
			query = q
			return `{"result":{"total":0,"payments":[]}}`
		},
	})
	client := newTestClient(t, server.URL)

	_, err := client.Payments(context.Background(), PaymentsFilter{ProjectID: 3, TransactionID: 77, PayID: 5, Offset: 100})
	require.NoError(t, err)
	assert.Equal(t, "3", query.Get("project_id"))
	assert.Equal(t, "77", query.Get("transaction_id"))
	assert.Equal(t, "5", query.Get("pay_id"))
	assert.Equal(t, "100", query.Get("offset"))
}

func TestPayments_EmptyCollections(t *testing.T) {
	bodies := []string{
		`{"result":{"total":0,"payments":{}}}`,
		`{"result":{"total":0,"payments":[]}}`,
		`{"result":{"total":0,"payments":null}}`,
		`{"result":{"total":0}}`,
		`{"result":[]}`,
		`{"result":null}`,
		`{}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			server := newFakeAnyPay(t, SHA256, map[string]apiHandler{EndpointPayments: fixed(body)})
			client := newTestClient(t, server.URL)

			payments, err := client.Payments(context.Background(), PaymentsFilter{})
			require.NoError(t, err)
			assert.NotNil(t, payments)
			assert.Empty(t, payments)
		})
	}
}

func TestPayments_MissingRequiredField(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointPayments: fixed(`{"result":{"payments":{"1":{"transaction_id":1,"status":"paid"}}}}`),
	})
	client := newTestClient(t, server.URL)

	_, err := client.Payments(context.Background(), PaymentsFilter{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), `"pay_id"`)
}

func TestCreatePayout_Success(t *testing.T) {
	var query url.Values
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointCreatePayout: func(q url.Values) string {
			query = q
			return `{"result":{"transaction_id":501,"payout_id":77,"payout_type":"card","status":"in_process","amount":1000,"commission":25.5,"commission_type":"balance","rate":null,"wallet":"4111111111111111","date":"05.03.2024 12:00:00","complete_date":""}}`
		},
	})
	client := newTestClient(t, server.URL)

	payout, err := client.CreatePayout(context.Background(), CreatePayoutRequest{
		PayoutID:       77,
		PayoutType:     "card",
		Amount:         decimal.NewFromInt(1000),
		Wallet:         "4111111111111111",
		CommissionType: "balance",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(501), payout.ID)
	assert.Equal(t, int64(77), payout.PayoutID)
	assert.Equal(t, "25.5", payout.Commission.String())
	assert.Nil(t, payout.ExchangeRate)
	assert.Equal(t, "4111111111111111", payout.Wallet)

	assert.Equal(t, "balance", query.Get("commission_type"))
	_, hasStatusURL := query["status_url"]
	assert.False(t, hasStatusURL)
}

func TestCreatePayout_MissingWallet(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, nil)
	client := newTestClient(t, server.URL)

	_, err := client.CreatePayout(context.Background(), CreatePayoutRequest{PayoutID: 1, PayoutType: "card", Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrMissingParam)
	assert.Contains(t, err.Error(), "wallet")
}

func TestPayouts_Success(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointPayouts: fixed(`{"result":{"total":1,"payouts":{"501":{"transaction_id":501,"payout_id":77,"payout_type":"qiwi","status":"paid","amount":10,"commission":0.2,"commission_type":"payment","rate":92.1,"wallet":79990000000,"date":"05.03.2024 12:00:00","complete_date":"05.03.2024 12:01:00"}}}}`),
	})
	client := newTestClient(t, server.URL)

	payouts, err := client.Payouts(context.Background(), PayoutsFilter{})
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	require.NotNil(t, payouts[0].ExchangeRate)
	assert.Equal(t, "92.1", payouts[0].ExchangeRate.String())
	assert.Equal(t, "79990000000", payouts[0].Wallet)

	completed, err := payouts[0].CompletedAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 1, 0, 0, time.UTC), completed)
}

func TestPayouts_Empty(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointPayouts: fixed(`{"result":{"total":0}}`),
	})
	client := newTestClient(t, server.URL)

	payouts, err := client.Payouts(context.Background(), PayoutsFilter{PayoutID: 3})
	require.NoError(t, err)
	assert.NotNil(t, payouts)
	assert.Empty(t, payouts)
}

func TestServiceIPs(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointServiceIPs: fixed(`{"result":["185.162.128.38","185.162.128.39"]}`),
	})
	client := newTestClient(t, server.URL)

	ips, err := client.ServiceIPs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"185.162.128.38", "185.162.128.39"}, ips)
}

func TestClient_ConcurrentCallsDoNotMix(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointPayments: func(q url.Values) string {
			payID := q.Get("pay_id")
			return fmt.Sprintf(`{"result":{"payments":{"%[1]s":{"transaction_id":%[1]s,"pay_id":%[1]s,"status":"paid","method":"card","amount":1,"currency":"RUB","profit":1,"email":"x@example.com","desc":"d","date":"01.01.2024 00:00:00","pay_date":""}}}}`, payID)
		},
	})
	client := newTestClient(t, server.URL)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(payID int64) {
			defer wg.Done()
			payments, err := client.Payments(context.Background(), PaymentsFilter{PayID: payID})
			if assert.NoError(t, err) && assert.Len(t, payments, 1) {
				assert.Equal(t, payID, payments[0].PayID, "pay id %s", strconv.FormatInt(payID, 10))
			}
		}(int64(i))
	}
	wg.Wait()
}

func TestClient_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.Balance(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAsync(t *testing.T) {
	server := newFakeAnyPay(t, SHA256, map[string]apiHandler{
		EndpointBalance: fixed(`{"result":{"balance":7}}`),
		EndpointRates:   fixed(`{"result":{"in":{},"out":{}}}`),
	})
	client := newTestClient(t, server.URL)

	balance := Async(context.Background(), client.Balance)
	rates := Async(context.Background(), client.Rates)

	b := <-balance
	require.NoError(t, b.Err)
	assert.Equal(t, "7", b.Value.String())

	r := <-rates
	require.NoError(t, r.Err)
	assert.Empty(t, r.Value.Incoming)
}
