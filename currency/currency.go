/*
Package currency provides an exact-cents monetary scalar.

PURPOSE:
  Every dollar amount that flows through a projection — account value,
  cost of insurance, a premium payment — is an Amount. Amount stores a
  signed count of subunits (cents) as an int64, never a float64, so that
  addition, subtraction, negation and integer scaling are exact.

DESIGN PRINCIPLES:
  1. Exactness: the wire/storage representation is an integer. Arithmetic
     that can be done in integers (Add, Sub, Neg, MulInt) is exact.
  2. Explicit real conversion: anything that needs a fraction (an interest
     rate, a solver candidate) must go through FromFraction, which rounds
     half-away-from-zero at the subunit boundary, or Value.
  3. No thousands separators, no currency symbol: the text form is
     "[-]U.SS" and nothing else.

SEE ALSO:
  - stratified: tiered/banded rate tables built on top of Amount
  - loads, interest, mortality: per-year rate vectors expressed in Amount
*/
package currency

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// SubunitsPerUnit is the number of subunits (cents) in one whole unit (dollar).
const SubunitsPerUnit = 100

// maxUnits bounds Amount so that total_subunits() fits in an int64; there
// is no headroom left for a further multiplication.
const maxUnits = (1<<63 - 1) / SubunitsPerUnit

// Amount is an exact count of subunits (cents). The zero value is zero.
type Amount struct {
	subunits int64
}

// Zero is the additive identity.
var Zero = Amount{}

// FromUnits builds an Amount from a non-negative-or-negative whole-unit
// count and a subunit count in [0,100). Fails (returns an error) if units
// falls outside (-maxUnits, maxUnits) or subunits outside [0,100).
func FromUnits(units int64, subunits int64) (Amount, error) {
	if subunits < 0 || subunits >= SubunitsPerUnit {
		return Amount{}, fmt.Errorf("currency: subunits %d out of range [0,%d)", subunits, SubunitsPerUnit)
	}
	if units >= maxUnits || units <= -maxUnits {
		return Amount{}, fmt.Errorf("currency: units %d overflow", units)
	}
	total := units*SubunitsPerUnit + subunits
	if units < 0 {
		total = units*SubunitsPerUnit - subunits
	}
	return Amount{subunits: total}, nil
}

// FromSubunits builds an Amount directly from a subunit count. This is the
// identity constructor used by code that already works in cents.
func FromSubunits(subunits int64) Amount {
	return Amount{subunits: subunits}
}

// FromFraction builds an Amount from a real value, rounding half-away-from-
// -zero at the subunit. Fails if |x| would overflow total_subunits.
func FromFraction(x float64) (Amount, error) {
	if x >= float64(maxUnits) || x <= -float64(maxUnits) {
		return Amount{}, fmt.Errorf("currency: fraction %v overflows", x)
	}
	d := decimal.NewFromFloat(x).Mul(decimal.NewFromInt(SubunitsPerUnit))
	return Amount{subunits: roundHalfAwayFromZero(d)}, nil
}

// FromDecimal is FromFraction for callers that already hold a decimal.Decimal
// (e.g. a value accumulated through other decimal-backed arithmetic).
func FromDecimal(x decimal.Decimal) (Amount, error) {
	bound := decimal.NewFromInt(int64(maxUnits))
	if x.GreaterThanOrEqual(bound) || x.LessThanOrEqual(bound.Neg()) {
		return Amount{}, fmt.Errorf("currency: decimal %s overflows", x.String())
	}
	d := x.Mul(decimal.NewFromInt(SubunitsPerUnit))
	return Amount{subunits: roundHalfAwayFromZero(d)}, nil
}

// roundHalfAwayFromZero rounds a decimal that is already scaled to subunits
// (i.e. an integer-valued target) to the nearest integer, ties away from
// zero. decimal.Decimal.Round uses half-to-even, which is why this is
// implemented directly over the unscaled representation instead of calling
// .Round(0).
func roundHalfAwayFromZero(d decimal.Decimal) int64 {
	floor := d.Floor()
	frac := d.Sub(floor)
	half := decimal.NewFromFloat(0.5)
	if d.IsNegative() {
		// Floor already rounds toward -inf; compare the fractional remainder.
		// At the exact half, away-from-zero means staying at floor (the more
		// negative value), symmetric with the positive branch below.
		if frac.LessThanOrEqual(half) {
			v, _ := floor.Float64()
			return int64(v)
		}
		v, _ := floor.Add(decimal.NewFromInt(1)).Float64()
		return int64(v)
	}
	if frac.GreaterThanOrEqual(half) {
		v, _ := floor.Add(decimal.NewFromInt(1)).Float64()
		return int64(v)
	}
	v, _ := floor.Float64()
	return int64(v)
}

// Units returns the whole-unit part (truncated toward zero).
func (a Amount) Units() int64 { return a.subunits / SubunitsPerUnit }

// Subunits returns the subunit remainder in [0,100), regardless of sign.
func (a Amount) Subunits() int64 {
	r := a.subunits % SubunitsPerUnit
	if r < 0 {
		r = -r
	}
	return r
}

// TotalSubunits returns the exact signed subunit count.
func (a Amount) TotalSubunits() int64 { return a.subunits }

// Value returns the real-valued equivalent, as a decimal.Decimal so callers
// needing further exact decimal arithmetic are not forced through float64.
func (a Amount) Value() decimal.Decimal {
	return decimal.New(a.subunits, 0).Div(decimal.NewFromInt(SubunitsPerUnit))
}

// Float64 returns the real-valued equivalent as a float64, for callers (e.g.
// the solver) that must interoperate with float-based numeric routines.
func (a Amount) Float64() float64 {
	f, _ := a.Value().Float64()
	return f
}

func (a Amount) Add(b Amount) Amount  { return Amount{subunits: a.subunits + b.subunits} }
func (a Amount) Sub(b Amount) Amount  { return Amount{subunits: a.subunits - b.subunits} }
func (a Amount) Neg() Amount          { return Amount{subunits: -a.subunits} }
func (a Amount) MulInt(n int64) Amount { return Amount{subunits: a.subunits * n} }

// MulFraction multiplies by a real factor, rounding half-away-from-zero at
// the subunit. This is an explicit real-valued operation, per spec: it does
// not pretend to be exact.
func (a Amount) MulFraction(x float64) Amount {
	d := decimal.New(a.subunits, 0).Mul(decimal.NewFromFloat(x))
	return Amount{subunits: roundHalfAwayFromZero(d)}
}

func (a Amount) IsZero() bool       { return a.subunits == 0 }
func (a Amount) IsNegative() bool   { return a.subunits < 0 }
func (a Amount) IsPositive() bool   { return a.subunits > 0 }
func (a Amount) GreaterThan(b Amount) bool { return a.subunits > b.subunits }
func (a Amount) LessThan(b Amount) bool    { return a.subunits < b.subunits }
func (a Amount) GTE(b Amount) bool  { return a.subunits >= b.subunits }
func (a Amount) LTE(b Amount) bool  { return a.subunits <= b.subunits }
func (a Amount) Equal(b Amount) bool { return a.subunits == b.subunits }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a.subunits < 0 {
		return a.Neg()
	}
	return a
}

// Sum adds a slice of Amounts; the zero-length sum is Zero.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String renders "[-]U.SS": zero-padded subunits, no thousands separator,
// no currency symbol.
func (a Amount) String() string {
	sign := ""
	units := a.Units()
	subunits := a.Subunits()
	if a.subunits < 0 {
		sign = "-"
		if units < 0 {
			units = -units
		}
	}
	return fmt.Sprintf("%s%d.%02d", sign, units, subunits)
}

// Parse reads "[-]?[0-9]+\.[0-9]{2}". Any other form, or subunits outside
// [0,100), fails.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("currency: empty string")
	}
	neg := false
	rest := s
	if rest[0] == '-' {
		neg = true
		rest = rest[1:]
	}
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return Amount{}, fmt.Errorf("currency: missing decimal point in %q", s)
	}
	intPart := rest[:dot]
	fracPart := rest[dot+1:]
	if intPart == "" || len(fracPart) != 2 {
		return Amount{}, fmt.Errorf("currency: malformed amount %q", s)
	}
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return Amount{}, fmt.Errorf("currency: malformed amount %q", s)
		}
	}
	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("currency: malformed amount %q: %w", s, err)
	}
	subunits, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil || subunits < 0 || subunits >= SubunitsPerUnit {
		return Amount{}, fmt.Errorf("currency: subunits out of range in %q", s)
	}
	total := units*SubunitsPerUnit + subunits
	if neg {
		total = -total
	}
	return Amount{subunits: total}, nil
}
