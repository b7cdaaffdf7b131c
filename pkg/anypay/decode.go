package anypay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate checks the required fields of wire records. Field names in
// errors are the JSON keys.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var errNoResult = errors.New("response has no result")

// flexInt decodes an integer sent either as a JSON number or a numeric string.
type flexInt int64

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	*n = flexInt(v)
	return nil
}

// flexString decodes a JSON string or number into its text form.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// Wire records: JSON key -> field, required keys are tagged.

type balanceWire struct {
	Balance *decimal.Decimal `json:"balance" validate:"required"`
}

type ratesWire struct {
	In  map[string]decimal.Decimal `json:"in" validate:"required"`
	Out map[string]decimal.Decimal `json:"out" validate:"required"`
}

type billWire struct {
	PayID         *flexInt `json:"pay_id" validate:"required"`
	TransactionID *flexInt `json:"transaction_id"`
	Status        *string  `json:"status"`
	PaymentURL    *string  `json:"payment_url" validate:"required"`
}

func (w *billWire) record() *Bill {
	bill := &Bill{
		ID:     int64(*w.PayID),
		Status: BillStatusWaiting,
		URL:    *w.PaymentURL,
	}
	if w.TransactionID != nil {
		id := int64(*w.TransactionID)
		bill.TransactionID = &id
	}
	if w.Status != nil && *w.Status != "" {
		bill.Status = *w.Status
	}
	return bill
}

type paymentWire struct {
	TransactionID *flexInt         `json:"transaction_id" validate:"required"`
	PayID         *flexInt         `json:"pay_id" validate:"required"`
	Status        *string          `json:"status" validate:"required"`
	Method        *string          `json:"method" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	Currency      *string          `json:"currency" validate:"required"`
	Profit        *decimal.Decimal `json:"profit" validate:"required"`
	Email         *string          `json:"email" validate:"required"`
	Desc          *string          `json:"desc" validate:"required"`
	Date          *string          `json:"date" validate:"required"`
	PayDate       *string          `json:"pay_date" validate:"required"`
}

func (w *paymentWire) record() Payment {
	return Payment{
		ID:          int64(*w.TransactionID),
		PayID:       int64(*w.PayID),
		Status:      *w.Status,
		Method:      *w.Method,
		Amount:      *w.Amount,
		Currency:    *w.Currency,
		Profit:      *w.Profit,
		Email:       *w.Email,
		Description: *w.Desc,
		Date:        *w.Date,
		PayDate:     *w.PayDate,
	}
}

type payoutWire struct {
	TransactionID  *flexInt         `json:"transaction_id" validate:"required"`
	PayoutID       *flexInt         `json:"payout_id" validate:"required"`
	PayoutType     *string          `json:"payout_type" validate:"required"`
	Status         *string          `json:"status" validate:"required"`
	Amount         *decimal.Decimal `json:"amount" validate:"required"`
	Commission     *decimal.Decimal `json:"commission" validate:"required"`
	CommissionType *string          `json:"commission_type" validate:"required"`
	Rate           *decimal.Decimal `json:"rate"`
	Wallet         *flexString      `json:"wallet" validate:"required"`
	Date           *string          `json:"date" validate:"required"`
	CompleteDate   *string          `json:"complete_date" validate:"required"`
}

func (w *payoutWire) record() Payout {
	return Payout{
		ID:             int64(*w.TransactionID),
		PayoutID:       int64(*w.PayoutID),
		PayoutType:     *w.PayoutType,
		Status:         *w.Status,
		Amount:         *w.Amount,
		Commission:     *w.Commission,
		CommissionType: *w.CommissionType,
		ExchangeRate:   w.Rate,
		Wallet:         string(*w.Wallet),
		Date:           *w.Date,
		CompleteDate:   *w.CompleteDate,
	}
}

// decodeRecord unmarshals a single result object into wire and checks its
// required fields.
func decodeRecord(endpoint string, raw json.RawMessage, wire any) error {
	if isNull(raw) {
		return malformed(endpoint, errNoResult)
	}
	if err := json.Unmarshal(raw, wire); err != nil {
		return malformed(endpoint, err)
	}
	if err := validate.Struct(wire); err != nil {
		return malformed(endpoint, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strconv.Quote(fe.Field()))
	}
	return fmt.Errorf("missing required field %s", strings.Join(fields, ", "))
}

// collectionMember returns the named member of a list result. A missing
// result, an empty result or a missing member all yield nil.
func collectionMember(endpoint string, raw json.RawMessage, member string) (json.RawMessage, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, malformed(endpoint, err)
	}
	return members[member], nil
}

// keyedValues returns the values of a keyed collection in document order.
// Empty collections may arrive as [] and are accepted as arrays too.
func keyedValues(raw json.RawMessage) ([]json.RawMessage, error) {
	if isEmpty(raw) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	var values []json.RawMessage
	switch tok {
	case json.Delim('{'):
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			var v json.RawMessage
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	case json.Delim('['):
		for dec.More() {
			var v json.RawMessage
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	default:
		return nil, fmt.Errorf("expected object or array, got %v", tok)
	}
	return values, nil
}

func isEmpty(raw json.RawMessage) bool {
	if isNull(raw) {
		return true
	}
	trimmed := bytes.TrimSpace(raw)
	return bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("{}"))
}
