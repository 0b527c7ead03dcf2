/*
money.go - Parsing raw amounts into minor currency units

PURPOSE:
  Converts client-supplied values into exact int64 minor units (cents).
  Two input shapes are accepted:

    "11"     integer        -> already minor units -> 11
    "0.5"    decimal        -> major units, quantized to 2 places -> 50

  Decimal input is quantized half-up. Everything downstream is exact
  integer arithmetic - no floating point ever touches a balance.

WHY decimal.Decimal:
  Parsing via float64 would corrupt amounts like 0.29 (0.28999...).
  shopspring/decimal parses the literal digits and shifts exactly.

SEE ALSO:
  - engine.go: Calls ParseValue as step one of a post
  - balance.go: Reuses roundHalfUp for the average balance
*/
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

var half = decimal.New(5, -1) // 0.5

// ParseValue parses a raw amount into minor currency units.
//
// Integer input is taken as minor units verbatim. Decimal input is taken as
// major units, quantized half-up to two decimal places and shifted into
// minor units. Unparsable input yields an InvalidValueError.
//
// The integer/decimal split is decided by the SHAPE of the input, not its
// numeric value: "2.00" is a decimal string and means 2.00 major units
// (200), the same as "2.01" means 201. Classifying by value would put a
// 100x discontinuity between the two.
func ParseValue(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, &InvalidValueError{Raw: raw}
	}

	if !strings.ContainsAny(trimmed, ".eE") {
		return d.IntPart(), nil
	}

	// Major units: shift to cents, then quantize half-up.
	return roundHalfUp(d.Shift(2)).IntPart(), nil
}

// roundHalfUp rounds to the nearest integer, ties toward positive infinity:
// 0.5 -> 1, -0.5 -> 0. Implemented as floor(x + 0.5) with exact decimals.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}
