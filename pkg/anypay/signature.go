package anypay

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"reflect"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// Algorithm selects the digest used for request signatures.
type Algorithm int

const (
	SHA256 Algorithm = iota
	MD5
)

func (a Algorithm) String() string {
	if a == MD5 {
		return "md5"
	}
	return "sha256"
}

// Params holds the query parameters of one API call.
// Entries with a nil value are left out of the query string.
type Params map[string]any

// placeholderRe matches %(key)s placeholders in signature templates.
var placeholderRe = regexp.MustCompile(`%\(([A-Za-z0-9_]+)\)s`)

// Sign computes the request signature: the lowercase hex digest of
// endpoint + apiID + expanded template + apiKey.
func Sign(endpoint, apiID, template string, params Params, apiKey string, algo Algorithm) (string, error) {
	expanded, err := expandTemplate(template, params)
	if err != nil {
		return "", err
	}
	return digest(algo, endpoint+apiID+expanded+apiKey), nil
}

// expandTemplate substitutes every placeholder with its rendered param value.
func expandTemplate(template string, params Params) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := params[key]
		if !ok || isNil(v) {
			if missing == "" {
				missing = key
			}
			return ""
		}
		return formatValue(v)
	})
	if missing != "" {
		return "", fmt.Errorf("%w: %q", ErrMissingParam, missing)
	}
	return out, nil
}

func digest(algo Algorithm, payload string) string {
	var h hash.Hash
	switch algo {
	case MD5:
		h = md5.New()
	default:
		h = sha256.New()
	}
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// formatValue renders a param the same way for the signature and the query.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case decimal.Decimal:
		return x.String()
	case *decimal.Decimal:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
