package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts a user-entered amount to a decimal rounded to paise.
//
// It accepts dot (12.34) and comma (12,34) decimal separators, an optional
// leading sign, a leading rupee symbol and comma thousands grouping when a dot
// is also present (1,00,000.50). Rounding is half away from zero on the third
// decimal place.
//
// Examples:
//
//	ParseAmount("12.34")       -> 12.34
//	ParseAmount("12,34")       -> 12.34
//	ParseAmount("₹1,250.505")  -> 1250.51
//	ParseAmount("-40")         -> -40
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	sign := ""
	if s[0] == '+' || s[0] == '-' {
		sign, s = s[:1], s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 || (parts[0] == "" && (len(parts) == 1 || parts[1] == "")) {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}

	d, err := decimal.NewFromString(sign + s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// ParsePositiveAmount is ParseAmount restricted to values greater than zero.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
