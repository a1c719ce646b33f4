/*
Package mortality stores the per-year mortality tables spec.md §4.7
requires: a COI base rate banded by specified amount, rider rates (ADB,
WP, child, spouse), a substandard multiplier, flat extra, the 7702-
specific q, CVAT corridor factors and net single premium, and 7-pay
rates — plus the annual-to-monthly COI conversion formula.

GROUNDED ON:
  stratified.BandedSchedule (C3) for "COI base rate (possibly three
  bands by specamt)": a band lookup keyed on NAAR/specamt is exactly the
  step-function shape BandedSchedule already implements, reused here
  instead of building a second band lookup type. The per-year vector
  shape follows generic/balance.go's construct-once array-of-structs
  idiom, generalized from one snapshot per ledger period to one row per
  policy year.
*/
package mortality

import (
	"fmt"
	"math"

	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/stratified"
)

// MonthlyCOIRate implements spec.md §4.7's conversion:
//
//	q_mly = 1 - (1 - min(q_ann*mult, max_mly))^(1/12)   when the source q is annual
//	q_mly = min(q*mult, max_mly)                         when the source q is already monthly
func MonthlyCOIRate(q float64, alreadyMonthly bool, multiplier, maxMonthly float64) float64 {
	capped := math.Min(q*multiplier, maxMonthly)
	if alreadyMonthly {
		return capped
	}
	return 1 - math.Pow(1-capped, 1.0/12)
}

// YearRow is one policy year's mortality figures.
type YearRow struct {
	COIBands              stratified.BandedSchedule // annual q selected by NAAR/specamt band
	RiderADBRate          float64
	RiderWPRate           float64
	RiderChildRate        float64
	RiderSpouseRate       float64
	SubstandardMultiplier float64
	FlatExtra             currency.Amount // per $1000 of specamt, flat annual charge
	SevenSevenZeroTwoQ    float64
	CVATCorridorFactor    float64
	CVATNSP               float64 // net single premium, per $1 of specamt
	SevenPayRate          float64 // net level premium rate for the 7-pay test, per $1 of specamt
}

// Table holds one row per projected policy year (length years-to-maturity).
type Table struct {
	rows []YearRow
}

// NewTable builds a Table from a caller-supplied row-per-year slice.
func NewTable(rows []YearRow) Table {
	cp := make([]YearRow, len(rows))
	copy(cp, rows)
	return Table{rows: cp}
}

// Len is the number of projected policy years (years-to-maturity).
func (t Table) Len() int { return len(t.rows) }

// Row returns the mortality row for policy year y (0-based).
func (t Table) Row(y int) (YearRow, error) {
	if y < 0 || y >= len(t.rows) {
		return YearRow{}, fmt.Errorf("mortality: policy year %d out of range [0,%d)", y, len(t.rows))
	}
	return t.rows[y], nil
}

// COIAnnualQ returns the banded COI base annual q for the given policy
// year and current net-amount-at-risk (or specamt, per product design).
func (t Table) COIAnnualQ(y int, naar currency.Amount) (float64, error) {
	row, err := t.Row(y)
	if err != nil {
		return 0, err
	}
	return row.COIBands.RateFor(naar), nil
}
