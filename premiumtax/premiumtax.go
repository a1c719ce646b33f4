/*
Package premiumtax implements the per-payment premium-tax load: retaliation
between a contract's tax state and domicile, scalar-vs-tiered computation,
year-to-date accumulation per state, and the incremental load a single
payment owes.

GROUNDED ON:
  spec.md §4.4 verbatim for the retaliation rule and the five-step
  per-payment algorithm; the year-to-date accumulation shape (independent
  running totals consumed by a tiered schedule on the next increment) is
  the same "distribute against running state, carry the remainder"
  pattern stratified.TieredSchedule.Charge already implements, so this
  package is a thin policy layer over stratified plus a State->rule map,
  mirroring how generic/policy.go layers contract-specific rules over the
  generic ledger/balance primitives rather than reimplementing them.
*/
package premiumtax

import (
	"fmt"

	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/stratified"
)

// State is a two-letter state/jurisdiction code (plus the fictitious "XX").
type State string

// reciprocal is the set of states that never retaliate against each other.
var reciprocal = map[State]bool{
	"AZ": true, "MA": true, "MN": true, "NY": true, "RI": true,
}

// neverRetaliate are jurisdictions that never retaliate regardless of the
// other side.
var neverRetaliate = map[State]bool{
	"HI": true, "XX": true,
}

// firstTierOnly are AK and SD: they retaliate only on the bottom tier,
// which this core models as non-retaliatory with an adjusted first-tier
// rate baked directly into their StateRule rather than implementing
// genuine both-tiers retaliation arithmetic — the same approach the
// premium-tax source this was ported from describes for exactly these
// two states.
var firstTierOnly = map[State]bool{
	"AK": true, "SD": true,
}

// Retaliates reports whether domicile tax must also be computed and
// max'd against tax-state tax for this (taxState, domicile) pair.
func Retaliates(taxState, domicile State) bool {
	if reciprocal[taxState] && reciprocal[domicile] {
		return false
	}
	if neverRetaliate[taxState] || neverRetaliate[domicile] {
		return false
	}
	if firstTierOnly[taxState] || firstTierOnly[domicile] {
		return false
	}
	return true
}

// StateRule is one jurisdiction's premium-tax computation: either a flat
// scalar rate, or a tiered schedule keyed on year-to-date taxable premium.
type StateRule struct {
	State  State
	Scalar bool
	Rate   float64 // used when Scalar
	Tiers  stratified.TieredSchedule
}

// Validate checks internal consistency of a single rule.
func (r StateRule) Validate() error {
	if r.Scalar {
		if r.Rate < 0 {
			return fmt.Errorf("premiumtax: state %s has negative scalar rate %v", r.State, r.Rate)
		}
		return nil
	}
	return r.Tiers.Validate()
}

// Tax computes this state's tax on `payment`, given the payer's
// year-to-date taxable premium already on file with this state.
func (r StateRule) Tax(payment, ytdTaxablePremium currency.Amount) (currency.Amount, error) {
	if r.Scalar {
		return payment.MulFraction(r.Rate), nil
	}
	return r.Tiers.Charge(payment, ytdTaxablePremium)
}

// ValidateLoadConsistency enforces spec.md §4.4's configuration invariant:
// a scalar premium-tax load exposed elsewhere (C5) must equal this state's
// scalar rate (pass-through); a tiered state's scalar load must be zero.
// Violations are fatal configuration errors per spec.md §7.
func ValidateLoadConsistency(exposedScalarLoad float64, rule StateRule) error {
	if rule.Scalar {
		if exposedScalarLoad != rule.Rate {
			return fmt.Errorf("premiumtax: state %s exposed scalar load %v does not match rate %v", rule.State, exposedScalarLoad, rule.Rate)
		}
		return nil
	}
	if exposedScalarLoad != 0 {
		return fmt.Errorf("premiumtax: tiered state %s must expose a zero scalar load, got %v", rule.State, exposedScalarLoad)
	}
	return nil
}

// Table maps a jurisdiction code to its rule.
type Table map[State]StateRule

// Rule looks up a jurisdiction's rule, failing if the table has no entry
// for it (an unconfigured jurisdiction is a fatal configuration error).
func (t Table) Rule(s State) (StateRule, error) {
	r, ok := t[s]
	if !ok {
		return StateRule{}, fmt.Errorf("premiumtax: no rule configured for state %s", s)
	}
	return r, nil
}

// Accumulator tracks one contract's running premium-tax state across
// payments: year-to-date tax accrued per jurisdiction, year-to-date load
// charged, and year-to-date taxable premium.
type Accumulator struct {
	ytdTaxByState     map[State]currency.Amount
	ytdLoad           currency.Amount
	ytdTaxablePremium currency.Amount
}

// NewAccumulator returns a fresh accumulator with all running totals zero.
func NewAccumulator() *Accumulator {
	return &Accumulator{ytdTaxByState: make(map[State]currency.Amount)}
}

// YtdTaxablePremium returns the running taxable-premium total.
func (a *Accumulator) YtdTaxablePremium() currency.Amount { return a.ytdTaxablePremium }

// YtdLoad returns the running premium-tax load total.
func (a *Accumulator) YtdLoad() currency.Amount { return a.ytdLoad }

// Reset clears all running totals (called at policy-year boundary, per
// spec.md §4.4's "YTD" framing: the per-payment totals this package
// tracks reset each policy year, unlike ledger-level cumulative totals).
func (a *Accumulator) Reset() {
	a.ytdTaxByState = make(map[State]currency.Amount)
	a.ytdLoad = currency.Zero
	a.ytdTaxablePremium = currency.Zero
}

// ApplyPayment runs spec.md §4.4's five-step algorithm for one payment and
// returns the incremental premium-tax load this payment owes.
func (a *Accumulator) ApplyPayment(table Table, taxState, domicile State, payment currency.Amount) (currency.Amount, error) {
	taxRule, err := table.Rule(taxState)
	if err != nil {
		return currency.Zero, err
	}
	taxInTaxState, err := taxRule.Tax(payment, a.ytdTaxablePremium)
	if err != nil {
		return currency.Zero, fmt.Errorf("premiumtax: tax_state %s: %w", taxState, err)
	}

	retaliates := Retaliates(taxState, domicile)

	var domRule StateRule
	var taxInDomicile currency.Amount
	if retaliates {
		domRule, err = table.Rule(domicile)
		if err != nil {
			return currency.Zero, err
		}
		taxInDomicile, err = domRule.Tax(payment, a.ytdTaxablePremium)
		if err != nil {
			return currency.Zero, fmt.Errorf("premiumtax: domicile %s: %w", domicile, err)
		}
	}

	anyTiered := !taxRule.Scalar || (retaliates && !domRule.Scalar)

	var incremental currency.Amount
	if anyTiered {
		newYtdTaxState := a.ytdTaxByState[taxState].Add(taxInTaxState)
		ytdReflectingRetaliation := newYtdTaxState
		if retaliates {
			newYtdDomicile := a.ytdTaxByState[domicile].Add(taxInDomicile)
			ytdReflectingRetaliation = ytdReflectingRetaliation.Max(newYtdDomicile)
		}
		incremental = ytdReflectingRetaliation.Sub(a.ytdLoad)
	} else if retaliates {
		incremental = taxInTaxState.Max(taxInDomicile)
	} else {
		incremental = taxInTaxState
	}

	a.ytdTaxByState[taxState] = a.ytdTaxByState[taxState].Add(taxInTaxState)
	if retaliates {
		a.ytdTaxByState[domicile] = a.ytdTaxByState[domicile].Add(taxInDomicile)
	}
	a.ytdLoad = a.ytdLoad.Add(incremental)
	a.ytdTaxablePremium = a.ytdTaxablePremium.Add(payment)

	return incremental, nil
}
