// Package anypay provides a client for the AnyPay merchant API.
//
// Every API call is a signed GET request to
// https://anypay.io/api/<endpoint>/<api_id>. The signature is a SHA-256
// (or MD5, when the account is switched to it) digest over the endpoint
// name, the API ID, an endpoint-specific parameter template and the API key.
//
// # Basic Usage
//
//	client, err := anypay.New(ctx, anypay.Config{
//	    APIID:     "your-api-id",
//	    APIKey:    "your-api-key",
//	    ProjectID: 1234,
//	})
//	if err != nil {
//	    // credentials were rejected or the service is unreachable
//	}
//
//	balance, err := client.Balance(ctx)
//
//	bill, err := client.CreatePayment(ctx, anypay.CreatePaymentRequest{
//	    PayID:  1001,
//	    Amount: decimal.RequireFromString("150.00"),
//	    Method: "card",
//	    Email:  "payer@example.com",
//	})
//	// redirect the payer to bill.URL
//
// # Error Handling
//
// Three failure kinds are kept apart:
//
//	_, err := client.Balance(ctx)
//	var apiErr *anypay.APIError
//	switch {
//	case errors.As(err, &apiErr):
//	    // the service rejected the request: apiErr.Code, apiErr.Message
//	case errors.Is(err, anypay.ErrMalformedResponse):
//	    // body was not JSON or a required field was missing
//	case err != nil:
//	    // transport error from the HTTP client, returned as-is
//	}
//
// # Hosted Bills
//
// BillURL builds a pre-signed redirect to the AnyPay payment page without
// calling the API. Bad project credentials are not detected locally; the
// payer sees the error on the AnyPay page instead.
package anypay
