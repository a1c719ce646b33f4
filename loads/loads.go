/*
Package loads stores the per-policy-year load vectors spec.md §4.5
describes: policy fee, specified-amount load, separate-account load,
target/excess premium load, sales load, premium-tax load, and DAC-tax
load, each exposed by basis (current/midpoint/guaranteed), plus the
basis-independent refundable-sales-load proportion.

GROUNDED ON:
  generic/balance.go's per-period Balance snapshot (a small struct of
  named numeric fields addressed by accessor, not a map), generalized
  from "one balance per period" to "one load vector per basis, indexed
  by policy year". Midpoint-as-mean-of-current-and-guaranteed is
  computed once at construction, the same way the teacher's Balance
  derives summary fields once from its ledger rather than recomputing
  on every read.
*/
package loads

import (
	"fmt"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
)

// YearRow is one policy year's load figures under a single basis.
type YearRow struct {
	PolicyFeeMonthly   currency.Amount
	PolicyFeeAnnual    currency.Amount
	SpecAmtLoad        float64 // rate per dollar of specamt
	SepAcctLoad        float64 // rate per dollar of separate-account assets
	TargetPremiumLoad  float64 // rate applied to premium up to the annual target
	ExcessPremiumLoad  float64 // rate applied to premium beyond the annual target
	SalesLoad          float64
	PremiumTaxLoad     float64 // scalar pass-through load; zero if this state is tiered (C4)
	DACTaxLoad         float64
}

// Vector holds one basis's load rows across all policy years.
type Vector struct {
	rows []YearRow
}

// NewVector builds a Vector from a caller-supplied row-per-year slice.
// The slice is copied; callers must supply exactly one row per projected
// policy year.
func NewVector(rows []YearRow) Vector {
	cp := make([]YearRow, len(rows))
	copy(cp, rows)
	return Vector{rows: cp}
}

// Len returns the number of policy years covered.
func (v Vector) Len() int { return len(v.rows) }

// Row returns the load row for policy year y (0-based), failing if y is
// out of range.
func (v Vector) Row(y int) (YearRow, error) {
	if y < 0 || y >= len(v.rows) {
		return YearRow{}, fmt.Errorf("loads: policy year %d out of range [0,%d)", y, len(v.rows))
	}
	return v.rows[y], nil
}

// Midpoint builds the midpoint-basis vector as the arithmetic mean,
// field by field, of the current and guaranteed vectors. Monetary fields
// average via currency's exact Add/MulFraction; rate fields average as
// plain float64.
func Midpoint(current, guaranteed Vector) (Vector, error) {
	if current.Len() != guaranteed.Len() {
		return Vector{}, fmt.Errorf("loads: current/guaranteed vector length mismatch (%d vs %d)", current.Len(), guaranteed.Len())
	}
	rows := make([]YearRow, current.Len())
	for y := range rows {
		c := current.rows[y]
		g := guaranteed.rows[y]
		rows[y] = YearRow{
			PolicyFeeMonthly:  meanAmount(c.PolicyFeeMonthly, g.PolicyFeeMonthly),
			PolicyFeeAnnual:   meanAmount(c.PolicyFeeAnnual, g.PolicyFeeAnnual),
			SpecAmtLoad:       meanRate(c.SpecAmtLoad, g.SpecAmtLoad),
			SepAcctLoad:       meanRate(c.SepAcctLoad, g.SepAcctLoad),
			TargetPremiumLoad: meanRate(c.TargetPremiumLoad, g.TargetPremiumLoad),
			ExcessPremiumLoad: meanRate(c.ExcessPremiumLoad, g.ExcessPremiumLoad),
			SalesLoad:         meanRate(c.SalesLoad, g.SalesLoad),
			PremiumTaxLoad:    meanRate(c.PremiumTaxLoad, g.PremiumTaxLoad),
			DACTaxLoad:        meanRate(c.DACTaxLoad, g.DACTaxLoad),
		}
	}
	return Vector{rows: rows}, nil
}

func meanAmount(a, b currency.Amount) currency.Amount {
	return a.Add(b).MulFraction(0.5)
}

func meanRate(a, b float64) float64 {
	return (a + b) / 2
}

// ByBasis holds one Vector per general-account basis (current, midpoint,
// guaranteed), the small dense enum-indexed array spec.md §9 calls for.
type ByBasis struct {
	vectors [3]Vector // indexed by basis.GenBasis
}

// NewByBasis builds a ByBasis from current and guaranteed vectors,
// deriving midpoint automatically.
func NewByBasis(current, guaranteed Vector) (ByBasis, error) {
	mid, err := Midpoint(current, guaranteed)
	if err != nil {
		return ByBasis{}, err
	}
	var bb ByBasis
	bb.vectors[basis.Current] = current
	bb.vectors[basis.Guaranteed] = guaranteed
	bb.vectors[basis.Midpoint] = mid
	return bb, nil
}

// Vector returns the load vector for the given basis.
func (bb ByBasis) Vector(b basis.GenBasis) (Vector, error) {
	if err := b.Validate(); err != nil {
		return Vector{}, err
	}
	return bb.vectors[b], nil
}

// RefundableSalesLoadProportion is basis-independent (spec.md §4.5): the
// fraction of sales load refunded on early surrender, constant across
// current/midpoint/guaranteed.
type RefundableSalesLoadProportion struct {
	proportion float64
}

// NewRefundableSalesLoadProportion validates the proportion lies in [0,1].
func NewRefundableSalesLoadProportion(p float64) (RefundableSalesLoadProportion, error) {
	if p < 0 || p > 1 {
		return RefundableSalesLoadProportion{}, fmt.Errorf("loads: refundable sales load proportion %v out of [0,1]", p)
	}
	return RefundableSalesLoadProportion{proportion: p}, nil
}

// Value returns the proportion.
func (r RefundableSalesLoadProportion) Value() float64 { return r.proportion }
