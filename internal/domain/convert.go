package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PercentFromBasisPoints converts an on-chain basis-point weight to percent:
// 7000 -> 70.0. Nil weights count as zero.
func PercentFromBasisPoints(w *big.Int) float64 {
	if w == nil {
		return 0
	}
	return decimal.NewFromBigInt(w, 0).Div(hundred).InexactFloat64()
}

// PercentFromBasisPointsInt is PercentFromBasisPoints for decoded small
// integers (Euler LTVs fit in uint16): 8000 -> 80.0.
func PercentFromBasisPointsInt(w int64) float64 {
	return decimal.NewFromInt(w).Div(hundred).InexactFloat64()
}

// PercentFromWadString converts an unscaled fixed-point ratio string (the
// Morpho LLTV encoding, a bare digit run like "860000000000000000") to
// percent. The digits are read as the fractional part of a number below one,
// truncated to 15 digits, then scaled: "860000000000000000" -> 86.0.
func PercentFromWadString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty ratio string")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("ratio string %q is not a digit run", s)
		}
	}

	digits := s
	if len(digits) > 15 {
		digits = digits[:15]
	}

	frac, err := decimal.NewFromString("0." + digits)
	if err != nil {
		return 0, fmt.Errorf("parse ratio %q: %w", s, err)
	}
	return frac.Mul(hundred).InexactFloat64(), nil
}

// PercentFromFraction converts a fractional rate to percent: 0.05 -> 5.0.
func PercentFromFraction(f float64) float64 {
	return f * 100
}
