/*
Package money provides parsing and formatting of pt-BR formatted
currency amounts.

PURPOSE:
  Every monetary value in the system crosses a boundary as a string at
  some point: goal documents store floor guarantees as "1.500,00",
  agents type TPV amounts as "12.345,67", and the UI renders payouts
  the same way. This package is the single codec for that format.

FORMAT:
  "." is the thousands separator, "," is the decimal separator:

    "1.234,56"  -> 1234.56
    "900,00"    -> 900.00
    "R$ 12,50"  -> 12.50

PRECISION:
  All values are decimal.Decimal. Amounts are never held in binary
  floats, so repeated parse/format cycles do not drift by cents.
  The round-trip contract: Parse(Format(x)) == x for any value with
  at most two fraction digits.

LENIENT PARSING:
  Parse never returns an error. Empty input and non-numeric residue
  both yield zero. Upstream data for these fields is free-typed, and
  a missing amount and a zero amount mean the same thing to every
  caller of this package. (Missing GOALS are a different matter - the
  engine reports those as typed errors, see engine/errors.go.)

SEE ALSO:
  - engine/: consumes decimals produced here
  - factory/: parses goal documents whose floor fields use this format
*/
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PARSING
// =============================================================================

// Parse interprets a pt-BR formatted amount. Empty or non-numeric
// input yields zero; Parse never fails.
func Parse(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	// "1.234,56": dots are grouping, the comma is the decimal point.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// FORMATTING
// =============================================================================

// Format renders an amount with exactly two fraction digits, thousands
// grouped: 1234.5 -> "1.234,50".
func Format(value decimal.Decimal) string {
	fixed := value.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart := fixed[:len(fixed)-3]
	fracPart := fixed[len(fixed)-2:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(group(intPart))
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// FormatBRL is Format with the currency symbol: "R$ 1.234,56".
func FormatBRL(value decimal.Decimal) string {
	return "R$ " + Format(value)
}

// group inserts "." every three digits from the right.
func group(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
