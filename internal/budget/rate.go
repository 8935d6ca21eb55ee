// Package budget derives the ERP and RCMS execution tables from expense
// records, reconciles the two views and detects material edits.
package budget

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Rate returns num/den as a percentage, or 0 when den is not positive.
func Rate(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	r, _ := decimal.NewFromInt(num).Mul(hundred).Div(decimal.NewFromInt(den)).Float64()
	return r
}

// RoundedRate is Rate rounded half away from zero to two decimal places.
func RoundedRate(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	r, _ := decimal.NewFromInt(num).Mul(hundred).Div(decimal.NewFromInt(den)).Round(2).Float64()
	return r
}
