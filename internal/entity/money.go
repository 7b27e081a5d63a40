package entity

import (
	"github.com/shopspring/decimal"
)

const (
	CurrencyUSD = "usd"

	_minorUnitExp = 2
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ValidAmount reports whether amount is positive and expressible in minor units.
func ValidAmount(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	return amount.Equal(amount.Truncate(_minorUnitExp))
}

// MinorUnits converts a major-unit amount to the processor's integer minor units.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(_minorUnitExp).Round(0).IntPart()
}
