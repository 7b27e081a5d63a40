package service

import (
	"github.com/shopspring/decimal"
)

const _feePlaces = 2

// SplitFee rounds the fee half away from zero and gives the vendor the remainder, so
// fee + net always equals amount exactly.
func SplitFee(amount, rate decimal.Decimal) (fee, net decimal.Decimal) {
	fee = amount.Mul(rate).Round(_feePlaces)
	net = amount.Sub(fee)
	return fee, net
}
