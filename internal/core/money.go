// Package core holds the domain model of the ledger: money arithmetic,
// customers and their accounts, and the immutable audit records.
//
// Money is fixed-point: amounts are int64 cents, never floats. All rounding
// is half-up to the cent so that fee and interest computations are
// reproducible bit-for-bit.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a fixed-point monetary amount in cents (scale 2).
type Money struct {
	Cents int64 `json:"cents"`
}

// Rates are expressed in basis points (1 bp = 0.01%).
const (
	// FeeRateBP is the 0.05% fee charged on external payments and
	// transfers to another customer.
	FeeRateBP = 5
	// InterestRateBP is the 0.5% interest credited on amounts moved
	// into Savings and on administrative interest application.
	InterestRateBP = 50

	basisPointScale = 10000
)

// Zero is the zero amount.
var Zero = Money{}

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Sub returns m - o. Negative results are representable; callers must
// reject them before committing a balance.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Neg returns the amount with the opposite sign.
func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

// Less reports whether m < o.
func (m Money) Less(o Money) bool { return m.Cents < o.Cents }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Cents < 0 }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// MulBasisPoints multiplies a non-negative amount by bp/10000, rounding
// half-up to the cent.
func (m Money) MulBasisPoints(bp int64) Money {
	return Money{Cents: (m.Cents*bp + basisPointScale/2) / basisPointScale}
}

// FeeOn returns the 0.05% fee on amount, rounded half-up to the cent.
func FeeOn(amount Money) Money { return amount.MulBasisPoints(FeeRateBP) }

// InterestOn returns the 0.5% interest on amount, rounded half-up to the cent.
func InterestOn(amount Money) Money { return amount.MulBasisPoints(InterestRateBP) }

// String formats the amount with two decimals, e.g. "899.95" or "-0.05".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Only
// strictly positive amounts are accepted; zero, negative or malformed input
// returns ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64 = 0
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracCents++
				}
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}
