// README: Common money helpers shared by pricing and quotes; all amounts are decimal.
package types

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept for monetary amounts.
const MoneyPlaces = 2

var (
	One     = decimal.NewFromInt(1)
	Hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds half away from zero to cents. Amounts in this service are never
// negative, so this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// IsCents reports whether d has no precision below one cent.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

// Percent returns d * pct / 100 without going through decimal division.
func Percent(d, pct decimal.Decimal) decimal.Decimal {
	return d.Mul(pct).Shift(-2)
}

// FitsNumeric reports whether d is storable in a NUMERIC(precision, scale) column without
// rounding or overflow.
func FitsNumeric(d decimal.Decimal, precision, scale int32) bool {
	return d.Equal(d.Round(scale)) && d.Abs().LessThan(decimal.New(1, precision-scale))
}
