package decimalx

import "github.com/shopspring/decimal"

// ChangeRatio returns the signed relative change from prev to next.
// prev must be non-zero.
func ChangeRatio(prev, next decimal.Decimal) decimal.Decimal {
	return next.Sub(prev).Div(prev)
}

// ChangePercent returns the signed relative change as a percentage.
func ChangePercent(prev, next decimal.Decimal) decimal.Decimal {
	return ChangeRatio(prev, next).Mul(decimal.NewFromInt(100))
}
