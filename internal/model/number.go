package model

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// maxInt64Digits is the digit count of math.MaxInt64 and math.MinInt64.
const maxInt64Digits = 19

// IntSpan places d on the int64 line. over is -1 when d < MinInt64, +1 when
// d > MaxInt64 and 0 otherwise; floor and ceil are set only when over is 0.
//
// The magnitude is read from the digit count and exponent first, so values
// such as 1e999999999 never reach a rescale.
func IntSpan(d decimal.Decimal) (floor, ceil int64, over int) {
	if d.IsZero() {
		return 0, 0, 0
	}
	coef := d.Coefficient()
	digits := len(coef.Abs(coef).String())
	// |d| < 10^mag and, for mag > 0, |d| >= 10^(mag-1).
	mag := int64(digits) + int64(d.Exponent())
	switch {
	case mag > maxInt64Digits:
		return 0, 0, d.Sign()
	case mag <= 0:
		if d.Sign() > 0 {
			return 0, 1, 0
		}
		return -1, 0, 0
	}
	// From here the exponent is bounded by the digit count.
	if d.GreaterThan(maxInt64) {
		return 0, 0, 1
	}
	if d.LessThan(minInt64) {
		return 0, 0, -1
	}
	return d.Floor().IntPart(), d.Ceil().IntPart(), 0
}
