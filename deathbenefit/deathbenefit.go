/*
Package deathbenefit holds the two specified-amount vectors and the
parallel death-benefit-option vector spec.md §4.8 describes: specamt[y]
and supplamt[y], each length N (years to maturity), plus dbopt[y]
(level/increasing/ROP/minimum-DB). Writers replace a contiguous
[fromYear, toYear) range; readers get a read-only view.

GROUNDED ON:
  generic/projection.go's "validate against a period, not a point" style
  of exposing narrow read accessors over a slice the caller otherwise
  cannot mutate, adapted here to a simple copy-on-read view rather than
  the teacher's period-validation logic (this package has no validation
  concern of its own — that's C10/C11's job — it is purely a vector
  store with contiguous-range writers).
*/
package deathbenefit

import (
	"fmt"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
)

// Vectors holds the specified-amount, supplemental-amount, and
// death-benefit-option vectors for one contract.
type Vectors struct {
	specamt  []currency.Amount
	supplamt []currency.Amount
	dbopt    []basis.DBOption
}

// New allocates vectors of length n (years to maturity), all zero/level.
func New(n int) *Vectors {
	return &Vectors{
		specamt:  make([]currency.Amount, n),
		supplamt: make([]currency.Amount, n),
		dbopt:    make([]basis.DBOption, n),
	}
}

// Len is the number of projected policy years.
func (v *Vectors) Len() int { return len(v.specamt) }

func (v *Vectors) checkRange(from, to int) error {
	if from < 0 || to > len(v.specamt) || from > to {
		return fmt.Errorf("deathbenefit: range [%d,%d) out of bounds for length %d", from, to, len(v.specamt))
	}
	return nil
}

// SetSpecAmt replaces specamt for every year in [from, to) with amt,
// which must already be pre-rounded by the caller.
func (v *Vectors) SetSpecAmt(from, to int, amt currency.Amount) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	for y := from; y < to; y++ {
		v.specamt[y] = amt
	}
	return nil
}

// SetSupplAmt replaces supplamt for every year in [from, to) with amt.
func (v *Vectors) SetSupplAmt(from, to int, amt currency.Amount) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	for y := from; y < to; y++ {
		v.supplamt[y] = amt
	}
	return nil
}

// SetDBOption replaces the death-benefit option for every year in
// [from, to).
func (v *Vectors) SetDBOption(from, to int, opt basis.DBOption) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	for y := from; y < to; y++ {
		v.dbopt[y] = opt
	}
	return nil
}

// SpecAmt returns the specified amount in force for policy year y.
func (v *Vectors) SpecAmt(y int) (currency.Amount, error) {
	if y < 0 || y >= len(v.specamt) {
		return currency.Zero, fmt.Errorf("deathbenefit: policy year %d out of range [0,%d)", y, len(v.specamt))
	}
	return v.specamt[y], nil
}

// SupplAmt returns the supplemental amount in force for policy year y.
func (v *Vectors) SupplAmt(y int) (currency.Amount, error) {
	if y < 0 || y >= len(v.supplamt) {
		return currency.Zero, fmt.Errorf("deathbenefit: policy year %d out of range [0,%d)", y, len(v.supplamt))
	}
	return v.supplamt[y], nil
}

// DBOption returns the death-benefit option in force for policy year y.
func (v *Vectors) DBOption(y int) (basis.DBOption, error) {
	if y < 0 || y >= len(v.dbopt) {
		return 0, fmt.Errorf("deathbenefit: policy year %d out of range [0,%d)", y, len(v.dbopt))
	}
	return v.dbopt[y], nil
}

// SpecAmtView returns a read-only copy of the full specamt vector.
func (v *Vectors) SpecAmtView() []currency.Amount {
	cp := make([]currency.Amount, len(v.specamt))
	copy(cp, v.specamt)
	return cp
}

// SupplAmtView returns a read-only copy of the full supplamt vector.
func (v *Vectors) SupplAmtView() []currency.Amount {
	cp := make([]currency.Amount, len(v.supplamt))
	copy(cp, v.supplamt)
	return cp
}

// DBOptionView returns a read-only copy of the full dbopt vector.
func (v *Vectors) DBOptionView() []basis.DBOption {
	cp := make([]basis.DBOption, len(v.dbopt))
	copy(cp, v.dbopt)
	return cp
}
