package cli

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CurrencySuffix is appended to every formatted amount.
const CurrencySuffix = "원"

// FormatCurrency renders an amount with thousands separators, e.g. 1,234원.
func FormatCurrency(amount int64) string {
	return FormatNumber(amount) + CurrencySuffix
}

// FormatNumber renders an integer with thousands separators.
func FormatNumber(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if digits[0] == '-' {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	out := make([]byte, 0, len(digits)+len(digits)/3)
	lead := len(digits) % 3
	if lead > 0 {
		out = append(out, digits[:lead]...)
	}
	for i := lead; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	return sign + string(out)
}

// FormatRate renders a percentage with two decimals.
func FormatRate(rate float64) string {
	return decimal.NewFromFloat(rate).StringFixed(2) + "%"
}
