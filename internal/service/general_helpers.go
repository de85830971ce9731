package service

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// RoundingPrecision is the number of decimal places kept in every reported
// monetary and percentage value.
const RoundingPrecision = 2

// round rounds a float64 value to two decimal places.
// This function is used throughout the service layer to ensure consistent rounding of monetary
// values and percentages in API responses. It is applied only when building output;
// intermediate sums always use the unrounded values.
//
// Rounding works on the exact binary value of the input and breaks exact ties
// to the even digit. 2.675 is stored slightly below 2.675, so it becomes 2.67.
// Non-finite inputs yield 0.
//
// Example:
//
//	round(123.456789)  // returns 123.46
//	round(0.125)       // returns 0.12
//	round(-1.005)      // returns -1
func round(value float64) float64 {
	return roundTo(value, RoundingPrecision)
}

// roundTo rounds value to places decimals with the same rules as round.
func roundTo(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return exactDecimal(value).RoundBank(places).InexactFloat64()
}

// exactDecimal converts a finite float64 to the decimal holding exactly the same
// value. decimal.NewFromFloat would pick the shortest representation instead.
func exactDecimal(value float64) decimal.Decimal {
	frac, exp := math.Frexp(value)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53

	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	// m * 2^-k == m * 5^k * 10^-k
	k := int64(-exp)
	pow5 := new(big.Int).Exp(big.NewInt(5), big.NewInt(k), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, pow5), int32(-k))
}

// percentage returns part as a percentage of base, or 0 when base is not positive.
func percentage(part, base float64) float64 {
	if !(base > 0) {
		return 0
	}
	return part / base * 100
}
