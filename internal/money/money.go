// Package money renders integer minor-unit amounts for people. Amounts are
// always stored and summed as int64 minor units; decimals only appear at the
// display edge.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders cents with exponent decimal places and thousands separators,
// prefixed by label when it is non-empty. Format(1234550, 2, "Rp") is
// "Rp 12,345.50".
func Format(cents int64, exponent int32, label string) string {
	if exponent < 0 {
		exponent = 0
	}
	amount := decimal.New(cents, -exponent)
	text := groupThousands(amount.StringFixed(exponent))
	if label == "" {
		return text
	}
	return label + " " + text
}

// Decimal converts minor units to a major-unit decimal, for CSV export.
func Decimal(cents int64, exponent int32) string {
	if exponent < 0 {
		exponent = 0
	}
	return decimal.New(cents, -exponent).StringFixed(exponent)
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	whole, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
