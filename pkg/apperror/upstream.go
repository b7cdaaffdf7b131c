package apperror

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"anypay-go/pkg/anypay"
)

// FromUpstream maps an error returned by the AnyPay client to an AppError.
// AppErrors pass through unchanged.
func FromUpstream(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var apiErr *anypay.APIError
	if errors.As(err, &apiErr) {
		return ErrUpstreamAPI(apiErr.Code, apiErr.Message, err)
	}
	if errors.Is(err, anypay.ErrMalformedResponse) {
		return ErrUpstreamMalformed(err)
	}
	if errors.Is(err, anypay.ErrMissingParam) {
		return Wrap("VAL_001", "Missing required parameter", http.StatusBadRequest, err)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrUpstreamUnavailable(err)
	}

	return InternalError(err)
}
