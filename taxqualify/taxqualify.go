/*
Package taxqualify implements the IRC §7702/§7702A tax-qualification
tests spec.md §4.10 requires: the guideline premium test (GPT) with its
GLP/GSP maintenance and forceout, the cash value accumulation test
(CVAT) corridor, and the seven-pay test (7702A) with its rolling
material-change window, MEC detection, and deemed cash value.

GROUNDED ON:
  generic/policy.go's ReconciliationEngine (trigger -> action at a
  period boundary: a scheduled event fires, state is recomputed,
  a side effect - here a forceout or a MEC flag - is produced),
  generalized from "reconcile a resource policy at period end" to
  "reconcile a contract's tax-qualification state whenever specamt, DB
  option, rider set, or cumulative premium changes."
*/
package taxqualify

import (
	"fmt"

	"github.com/soa-illustrations/lmi/currency"
)

// GPTState tracks the guideline premium test's running limits and
// cumulative premium for one contract.
type GPTState struct {
	GLP                currency.Amount
	GSP                currency.Amount
	CumulativePremium  currency.Amount
}

// Recompute updates GLP/GSP after a specamt, DB-option, or rider-set
// change (spec.md §4.10: "whenever specamt, death-benefit option, or
// rider set changes, recompute limits").
func (s *GPTState) Recompute(glp, gsp currency.Amount) {
	s.GLP = glp
	s.GSP = gsp
}

// TestAndForceout accumulates a payment against the greater of GLP or
// GSP and returns any amount that must be forced out (returned to the
// payer) to stay within limits.
func (s *GPTState) TestAndForceout(payment currency.Amount) currency.Amount {
	limit := s.GLP.Max(s.GSP)
	newCum := s.CumulativePremium.Add(payment)
	if newCum.GreaterThan(limit) {
		forceout := newCum.Sub(limit)
		s.CumulativePremium = limit
		return forceout
	}
	s.CumulativePremium = newCum
	return currency.Zero
}

// CorridorTable maps attained age to the CVAT minimum DB/AV ratio
// ("corridor factor"). Index 0 corresponds to MinAge.
type CorridorTable struct {
	MinAge  int
	Factors []float64
}

// FactorAt returns the corridor factor for the given attained age.
func (c CorridorTable) FactorAt(age int) (float64, error) {
	idx := age - c.MinAge
	if idx < 0 || idx >= len(c.Factors) {
		return 0, fmt.Errorf("taxqualify: age %d outside corridor table range", age)
	}
	return c.Factors[idx], nil
}

// RequiredDB returns max(specamtDB, corridorFactor x AV), the CVAT-driven
// death benefit floor (spec.md §4.10: "DB is raised to corridor_factor x
// AV when needed").
func (c CorridorTable) RequiredDB(age int, specamtDB, av currency.Amount) (currency.Amount, error) {
	factor, err := c.FactorAt(age)
	if err != nil {
		return currency.Zero, err
	}
	minDB := av.MulFraction(factor)
	return specamtDB.Max(minDB), nil
}

// SevenPayState tracks the seven-pay test's rolling material-change
// window, MEC status, and deemed cash value.
type SevenPayState struct {
	SevenPayAnnualPremium     currency.Amount
	WindowStartYear           int
	CumulativePremiumInWindow currency.Amount
	IsMec                     bool
	MecYear                   int
	MecMonth                  int
	DeemedCashValue           currency.Amount
}

// RecognizePayment updates the rolling 7-pay window and flags a MEC the
// first time cumulative premium in the window exceeds 7 x the annualized
// 7-pay premium. A contract that is already a MEC cannot become "more"
// MEC; RecognizePayment is then a no-op for MEC detection (spec.md
// §4.10 only ever detects the transition, it never resets it).
func (s *SevenPayState) RecognizePayment(year, month int, payment currency.Amount) {
	if s.IsMec {
		return
	}
	s.CumulativePremiumInWindow = s.CumulativePremiumInWindow.Add(payment)
	limit := s.SevenPayAnnualPremium.MulInt(7)
	if s.CumulativePremiumInWindow.GreaterThan(limit) {
		s.IsMec = true
		s.MecYear = year
		s.MecMonth = month
	}
}

// MaterialChange restarts the 7-pay window and redefines the 7-pay
// premium (spec.md §4.10: "a material change restarts the window and
// redefines the 7-pay"). It does not clear an already-set MEC flag: a
// MEC contract stays a MEC regardless of subsequent material changes.
func (s *SevenPayState) MaterialChange(year int, newSevenPayAnnualPremium currency.Amount) {
	s.SevenPayAnnualPremium = newSevenPayAnnualPremium
	s.WindowStartYear = year
	s.CumulativePremiumInWindow = currency.Zero
}

// AccrueDCV updates the deemed cash value with its own interest credit,
// COI charge, and premium — the DCV rows spec.md §4.11 references run
// independently of the contract's actual account value.
func (s *SevenPayState) AccrueDCV(premium, interestCredit, coiCharge currency.Amount) {
	s.DeemedCashValue = s.DeemedCashValue.Add(premium).Add(interestCredit).Sub(coiCharge)
}
