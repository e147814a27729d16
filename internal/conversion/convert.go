// Package conversion derives the displayed amounts from the entered amount
// and the current rate.
package conversion

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimal places shown for converted amounts.
const DisplayPlaces = 2

// Result holds the two derived amounts. Nil means absent.
type Result struct {
	True     *string
	MarkedUp *string
}

// Complete reports whether both amounts are present.
func (r Result) Complete() bool {
	return r.True != nil && r.MarkedUp != nil
}

// Amounts are limited so that formatting stays cheap: exponent notation
// such as "1e999999999" would otherwise expand to that many digits.
const (
	maxExponent = 15
	minExponent = -32
)

var maxAmount = decimal.New(1, maxExponent)

// ParseAmount parses free-text amount input. ok is false for anything the
// decimal parser rejects, including empty input, and for magnitudes above
// 1e15 or with more than 32 fractional digits.
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	// Check the exponent before comparing values: Cmp rescales both sides.
	if exp := d.Exponent(); exp > maxExponent || exp < minExponent {
		return decimal.Zero, false
	}
	if d.Abs().GreaterThan(maxAmount) {
		return decimal.Zero, false
	}
	return d, true
}

// Recompute derives the converted amounts.
//
// An unparseable amount clears both outputs. A nil rate leaves prev
// untouched, so amounts computed against an earlier rate stay on screen.
// Otherwise both outputs are rounded half away from zero.
func Recompute(amount string, rate *float64, prev Result, markup decimal.Decimal) Result {
	value, ok := ParseAmount(amount)
	if !ok {
		return Result{}
	}
	if rate == nil {
		return prev
	}

	r := decimal.NewFromFloat(*rate)
	trueAmount := value.Mul(r)
	markedUp := trueAmount.Mul(decimal.NewFromInt(1).Sub(markup))

	return Result{
		True:     format(trueAmount),
		MarkedUp: format(markedUp),
	}
}

func format(d decimal.Decimal) *string {
	s := d.Round(DisplayPlaces).StringFixed(DisplayPlaces)
	return &s
}
