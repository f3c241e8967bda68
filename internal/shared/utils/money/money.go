// Package money keeps currency arithmetic at two decimal places, matching
// the numeric(12,2) columns amounts are stored in. Wallet providers charge
// whole units only; WholeUnits is the single conversion to their amounts.
package money

import "math"

func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

func Sum(values ...float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return Round(total)
}

// WholeUnits returns v as an integer amount. ok is false when v carries a
// fractional part, which a wallet cannot charge.
func WholeUnits(v float64) (units int64, ok bool) {
	r := Round(v)
	units = int64(math.Round(r))
	return units, float64(units) == r
}
