package anypay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMalformedResponse matches every *MalformedResponseError via errors.Is.
	ErrMalformedResponse = errors.New("anypay: malformed response")

	// ErrMissingParam is returned before any request is sent when a
	// required parameter or signature placeholder has no value.
	ErrMissingParam = errors.New("anypay: missing parameter")

	// ErrMissingCredentials is returned by New when the API ID or key is empty.
	ErrMissingCredentials = errors.New("anypay: api id and api key are required")
)

// APIError is the error object returned by the AnyPay API.
// Codes are listed at https://anypay.io/doc/api/errors.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anypay: [%d] %s", e.Code, e.Message)
}

// UnmarshalJSON accepts the code both as a number and as a numeric string.
func (e *APIError) UnmarshalJSON(data []byte) error {
	var aux struct {
		Code    json.Number `json:"code"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Code != "" {
		code, err := strconv.Atoi(aux.Code.String())
		if err != nil {
			return fmt.Errorf("error code %q: %w", aux.Code, err)
		}
		e.Code = code
	}
	e.Message = aux.Message
	return nil
}

// MalformedResponseError reports a response body that is not valid JSON or
// lacks a field the record requires.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("anypay: malformed %s response: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func malformed(endpoint string, err error) error {
	return &MalformedResponseError{Endpoint: endpoint, Err: err}
}
