// Package payment implements the payment microservice: it wraps a
// third-party payment processor and fetches the authoritative payable
// amount from the core service instead of trusting client input.
package payment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUpstreamUnavailable indicates the authoritative amount could not
// be fetched from the core service.  It is always fatal to the
// payment-intent request; falling back to a client-supplied amount is
// never permitted.
var ErrUpstreamUnavailable = errors.New("authoritative amount unavailable")

// ParseDecimalToCents converts a decimal money string such as
// "660.00" into integer cents using exact integer arithmetic.  At
// most two fraction digits are accepted; floats never enter the
// conversion.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fraction digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	var cents int64
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("malformed amount %q", s)
			}
			cents = cents*10 + int64(r-'0')
		}
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}
