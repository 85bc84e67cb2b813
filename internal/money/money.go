// Package money converts between the rupee strings users type, the paise
// integers the API stores, and the en-IN display format.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMoney = errors.New("invalid money amount")
)

var hundred = decimal.NewFromInt(100)

// ParseRupees parses a user-entered rupee amount such as "250", "250.5" or
// " 1,250.00 ". Thousands separators are accepted and ignored.
func ParseRupees(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, ErrInvalidMoney
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidMoney
	}
	return d, nil
}

// IsPositive reports whether s parses to an amount that is still strictly
// greater than 0 once rounded to whole paise, the precision it is sent at.
func IsPositive(s string) bool {
	d, err := ParseRupees(s)
	return err == nil && d.Round(2).IsPositive()
}

// NormalizeRupees returns s as a two-decimal rupee string ("250" -> "250.00").
func NormalizeRupees(s string) (string, error) {
	d, err := ParseRupees(s)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2), nil
}

// ToPaise converts rupees to paise, rounding half to even like the API does.
func ToPaise(rupees decimal.Decimal) int64 {
	return rupees.Mul(hundred).RoundBank(0).IntPart()
}

// FromPaise converts paise to rupees.
func FromPaise(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}

// FormatINR renders an amount the way en-IN currency formatting does:
// rupee sign, lakh/crore digit grouping, two decimals ("₹1,23,456.70").
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// groupIndian inserts separators after the last three digits and then every
// two digits.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
