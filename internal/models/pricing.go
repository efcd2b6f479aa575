package models

import "github.com/shopspring/decimal"

// LineTotal returns price × quantity without binary floating point drift.
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// SumAmounts adds monetary amounts with decimal precision.
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(decimal.NewFromFloat(amount))
	}
	return total.InexactFloat64()
}
