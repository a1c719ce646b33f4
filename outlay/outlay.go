/*
Package outlay holds the per-policy-year outlay vectors spec.md §4.9
describes: employee and employer modal premium (each with its own mode
vector), withdrawals, loans, and dump-in/1035-exchange amounts. Writers
replace a contiguous year-slice and apply the caller's rounding rule
before storing, so every stored value is already pre-rounded per
spec.md §4.9 ("round_gross_premium", "round_withdrawal", "round_loan").

GROUNDED ON:
  deathbenefit.Vectors' contiguous-range-writer shape, generalized here
  to cover both currency vectors (which round on write) and mode
  vectors (which don't); the per-year array-of-values idiom traces to
  generic/balance.go's construct-once-read-many pattern common across
  this package family.
*/
package outlay

import (
	"fmt"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
)

// AmountRounder applies a configured rounding rule to a raw amount
// before it is stored (e.g. round_gross_premium, round_withdrawal,
// round_loan). A nil AmountRounder stores the value unchanged.
type AmountRounder func(currency.Amount) currency.Amount

func apply(r AmountRounder, a currency.Amount) currency.Amount {
	if r == nil {
		return a
	}
	return r(a)
}

// Vectors holds one contract's outlay schedule.
type Vectors struct {
	eePremium    []currency.Amount
	erPremium    []currency.Amount
	eeMode       []basis.Mode
	erMode       []basis.Mode
	withdrawal   []currency.Amount
	loan         []currency.Amount
	dumpIn       []currency.Amount
	exchange1035 []currency.Amount
}

// New allocates vectors of length n (years to maturity), all zero/annual.
func New(n int) *Vectors {
	return &Vectors{
		eePremium:    make([]currency.Amount, n),
		erPremium:    make([]currency.Amount, n),
		eeMode:       make([]basis.Mode, n),
		erMode:       make([]basis.Mode, n),
		withdrawal:   make([]currency.Amount, n),
		loan:         make([]currency.Amount, n),
		dumpIn:       make([]currency.Amount, n),
		exchange1035: make([]currency.Amount, n),
	}
}

// Len is the number of projected policy years.
func (v *Vectors) Len() int { return len(v.eePremium) }

func (v *Vectors) checkRange(from, to int) error {
	if from < 0 || to > len(v.eePremium) || from > to {
		return fmt.Errorf("outlay: range [%d,%d) out of bounds for length %d", from, to, len(v.eePremium))
	}
	return nil
}

// SetEEPremium replaces employee modal premium over [from, to), rounded
// via round_gross_premium.
func (v *Vectors) SetEEPremium(from, to int, amt currency.Amount, round AmountRounder) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	rounded := apply(round, amt)
	for y := from; y < to; y++ {
		v.eePremium[y] = rounded
	}
	return nil
}

// SetERPremium replaces employer modal premium over [from, to), rounded
// via round_gross_premium.
func (v *Vectors) SetERPremium(from, to int, amt currency.Amount, round AmountRounder) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	rounded := apply(round, amt)
	for y := from; y < to; y++ {
		v.erPremium[y] = rounded
	}
	return nil
}

// SetEEMode replaces the employee payment mode over [from, to).
func (v *Vectors) SetEEMode(from, to int, mode basis.Mode) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	for y := from; y < to; y++ {
		v.eeMode[y] = mode
	}
	return nil
}

// SetERMode replaces the employer payment mode over [from, to).
func (v *Vectors) SetERMode(from, to int, mode basis.Mode) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	for y := from; y < to; y++ {
		v.erMode[y] = mode
	}
	return nil
}

// SetWithdrawal replaces the withdrawal amount over [from, to), rounded
// via round_withdrawal.
func (v *Vectors) SetWithdrawal(from, to int, amt currency.Amount, round AmountRounder) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	rounded := apply(round, amt)
	for y := from; y < to; y++ {
		v.withdrawal[y] = rounded
	}
	return nil
}

// SetLoan replaces the loan amount over [from, to), rounded via
// round_loan.
func (v *Vectors) SetLoan(from, to int, amt currency.Amount, round AmountRounder) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	rounded := apply(round, amt)
	for y := from; y < to; y++ {
		v.loan[y] = rounded
	}
	return nil
}

// SetDumpIn replaces the dump-in amount over [from, to).
func (v *Vectors) SetDumpIn(from, to int, amt currency.Amount, round AmountRounder) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	rounded := apply(round, amt)
	for y := from; y < to; y++ {
		v.dumpIn[y] = rounded
	}
	return nil
}

// SetExchange1035 replaces the 1035-exchange amount over [from, to).
func (v *Vectors) SetExchange1035(from, to int, amt currency.Amount, round AmountRounder) error {
	if err := v.checkRange(from, to); err != nil {
		return err
	}
	rounded := apply(round, amt)
	for y := from; y < to; y++ {
		v.exchange1035[y] = rounded
	}
	return nil
}

func (v *Vectors) checkYear(y int) error {
	if y < 0 || y >= len(v.eePremium) {
		return fmt.Errorf("outlay: policy year %d out of range [0,%d)", y, len(v.eePremium))
	}
	return nil
}

// EEPremium, ERPremium, EEMode, ERMode, Withdrawal, Loan, DumpIn, and
// Exchange1035 each read one policy year's value.
func (v *Vectors) EEPremium(y int) (currency.Amount, error) {
	if err := v.checkYear(y); err != nil {
		return currency.Zero, err
	}
	return v.eePremium[y], nil
}

func (v *Vectors) ERPremium(y int) (currency.Amount, error) {
	if err := v.checkYear(y); err != nil {
		return currency.Zero, err
	}
	return v.erPremium[y], nil
}

func (v *Vectors) EEMode(y int) (basis.Mode, error) {
	if err := v.checkYear(y); err != nil {
		return 0, err
	}
	return v.eeMode[y], nil
}

func (v *Vectors) ERMode(y int) (basis.Mode, error) {
	if err := v.checkYear(y); err != nil {
		return 0, err
	}
	return v.erMode[y], nil
}

func (v *Vectors) Withdrawal(y int) (currency.Amount, error) {
	if err := v.checkYear(y); err != nil {
		return currency.Zero, err
	}
	return v.withdrawal[y], nil
}

func (v *Vectors) Loan(y int) (currency.Amount, error) {
	if err := v.checkYear(y); err != nil {
		return currency.Zero, err
	}
	return v.loan[y], nil
}

func (v *Vectors) DumpIn(y int) (currency.Amount, error) {
	if err := v.checkYear(y); err != nil {
		return currency.Zero, err
	}
	return v.dumpIn[y], nil
}

func (v *Vectors) Exchange1035(y int) (currency.Amount, error) {
	if err := v.checkYear(y); err != nil {
		return currency.Zero, err
	}
	return v.exchange1035[y], nil
}

// TotalModalPremium returns EE+ER premium for the year (the "gross
// premium" the engine's TxPmt step draws on).
func (v *Vectors) TotalModalPremium(y int) (currency.Amount, error) {
	ee, err := v.EEPremium(y)
	if err != nil {
		return currency.Zero, err
	}
	er, err := v.ERPremium(y)
	if err != nil {
		return currency.Zero, err
	}
	return ee.Add(er), nil
}
