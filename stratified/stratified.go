/*
Package stratified implements the tiered and banded rate algebra spec.md
§3/§4.3 requires: tiered (piecewise-linear, incremental) schedules used
for separate-account asset charges and premium-tax brackets, banded
(step-function, cumulative) schedules used for M&E lookups, and the two
priority-ordered balance-adjustment primitives (ProgressivelyLimit,
ProgressivelyReduce) the monthly engine uses to drain or cap a pair of
preference-ordered account balances.

PURPOSE:
  Tiered and banded schedules look superficially similar (both are
  ordered (limit, rate) pairs) but have distinct semantics and must not be
  conflated: a tiered schedule integrates a rate across brackets as the
  amount grows ("the first $10,000 is taxed at 2%, the next $40,000 at
  1%..."); a banded schedule picks a single rate based on which bracket
  the total amount falls into ("if total assets >= $50M, the M&E charge
  is 35bp").

GROUNDED ON:
  generic/assignment.go's ConsumptionDistributor.Distribute, which drains
  a requested amount against multiple prioritized balances in order,
  taking min(remaining, available) from each and carrying the remainder
  forward — exactly the shape ProgressivelyLimit/ProgressivelyReduce need,
  generalized from "distribute a draw across policies" to "push a
  decrement (or absorb a credit) across two preference-ordered accounts".
*/
package stratified

import (
	"fmt"

	"github.com/soa-illustrations/lmi/currency"
)

// Tier is one bracket of a tiered (incremental) schedule: Width is the
// amount of room in this bracket (not a cumulative limit); the final tier
// in a schedule has Unbounded set instead of a finite Width.
type Tier struct {
	Width     currency.Amount
	Unbounded bool
	Rate      float64
}

// TieredSchedule is an ordered sequence of tiers whose final tier is
// unbounded; it implements a piecewise-linear continuous mapping from
// amount to charge.
type TieredSchedule struct {
	Tiers []Tier
}

// Validate checks spec.md §3's invariants: non-empty, all widths
// non-negative, at least one strictly positive, and the final (and only
// the final) tier unbounded.
func (s TieredSchedule) Validate() error {
	if len(s.Tiers) == 0 {
		return fmt.Errorf("stratified: tiered schedule has no tiers")
	}
	sawPositive := false
	for i, t := range s.Tiers {
		last := i == len(s.Tiers)-1
		if t.Unbounded != last {
			return fmt.Errorf("stratified: tier %d unbounded=%v, want unbounded only on the last tier", i, t.Unbounded)
		}
		if !t.Unbounded {
			if t.Width.IsNegative() {
				return fmt.Errorf("stratified: tier %d has negative width %s", i, t.Width)
			}
			if t.Width.IsPositive() {
				sawPositive = true
			}
		}
	}
	if !sawPositive {
		return fmt.Errorf("stratified: tiered schedule has no positive-width tier")
	}
	return nil
}

// Charge computes the tiered charge on `incremental`, given `priorUsed`
// already consumed from the schedule by earlier increments in the same
// cumulative sequence (e.g. year-to-date taxable premium before this
// payment). Both arguments must be non-negative.
func (s TieredSchedule) Charge(incremental, priorUsed currency.Amount) (currency.Amount, error) {
	if incremental.IsNegative() {
		return currency.Zero, fmt.Errorf("stratified: negative incremental %s", incremental)
	}
	if priorUsed.IsNegative() {
		return currency.Zero, fmt.Errorf("stratified: negative priorUsed %s", priorUsed)
	}

	remaining := incremental
	priorRemaining := priorUsed
	var charge currency.Amount

	for _, t := range s.Tiers {
		if remaining.IsZero() {
			break
		}
		var room currency.Amount
		if t.Unbounded {
			usedInBracket := priorRemaining
			priorRemaining = currency.Zero
			_ = usedInBracket
			room = remaining // unlimited room: consume all of what's left
		} else {
			usedInBracket := priorRemaining.Min(t.Width)
			priorRemaining = priorRemaining.Sub(usedInBracket)
			room = t.Width.Sub(usedInBracket)
		}
		consumed := remaining.Min(room)
		charge = charge.Add(consumed.MulFraction(t.Rate))
		remaining = remaining.Sub(consumed)
	}
	return charge, nil
}

// Rate returns the effective average rate tiered_rate(x) such that
// Charge(x, 0) == x * Rate(x) (the testable property in spec.md §8).
// Returns 0 for a zero or negative amount.
func (s TieredSchedule) Rate(amount currency.Amount) (float64, error) {
	if !amount.IsPositive() {
		return 0, nil
	}
	charge, err := s.Charge(amount, currency.Zero)
	if err != nil {
		return 0, err
	}
	return charge.Float64() / amount.Float64(), nil
}

// Band is one bracket of a banded (step-function) schedule: Limit is the
// cumulative ceiling of this bracket; the final band has Unbounded set.
type Band struct {
	Limit     currency.Amount
	Unbounded bool
	Rate      float64
}

// BandedSchedule is an ordered, non-decreasing sequence of cumulative
// limits whose final entry is unbounded; RateFor selects exactly one
// rate based on the total amount.
type BandedSchedule struct {
	Bands []Band
}

// Validate checks non-empty, non-decreasing cumulative limits, at least
// one strictly positive limit, and exactly the last band unbounded.
func (s BandedSchedule) Validate() error {
	if len(s.Bands) == 0 {
		return fmt.Errorf("stratified: banded schedule has no bands")
	}
	sawPositive := false
	var prev currency.Amount
	for i, b := range s.Bands {
		last := i == len(s.Bands)-1
		if b.Unbounded != last {
			return fmt.Errorf("stratified: band %d unbounded=%v, want unbounded only on the last band", i, b.Unbounded)
		}
		if !b.Unbounded {
			if b.Limit.IsNegative() {
				return fmt.Errorf("stratified: band %d has negative limit %s", i, b.Limit)
			}
			if i > 0 && b.Limit.LessThan(prev) {
				return fmt.Errorf("stratified: band %d limit %s is less than prior band's limit %s", i, b.Limit, prev)
			}
			if b.Limit.IsPositive() {
				sawPositive = true
			}
			prev = b.Limit
		}
	}
	if !sawPositive {
		return fmt.Errorf("stratified: banded schedule has no positive limit")
	}
	return nil
}

// RateFor returns the single rate selected by total amount, via an
// upper-bound search over cumulative limits.
func (s BandedSchedule) RateFor(amount currency.Amount) float64 {
	for _, b := range s.Bands {
		if b.Unbounded || amount.LTE(b.Limit) {
			return b.Rate
		}
	}
	// Unreachable if Validate passed (last band is always unbounded).
	return s.Bands[len(s.Bands)-1].Rate
}

// ProgressivelyLimit reduces a and/or b so that a+b <= limit, taking
// reductions from a first and never driving a positive input negative.
func ProgressivelyLimit(a, b, limit currency.Amount) (currency.Amount, currency.Amount) {
	total := a.Add(b)
	if !total.GreaterThan(limit) {
		return a, b
	}
	excess := total.Sub(limit)

	reduceA := a.Min(excess)
	if reduceA.IsNegative() {
		reduceA = currency.Zero
	}
	newA := a.Sub(reduceA)
	excess = excess.Sub(reduceA)

	reduceB := b.Min(excess)
	if reduceB.IsNegative() {
		reduceB = currency.Zero
	}
	newB := b.Sub(reduceB)

	return newA, newB
}

// ProgressivelyReduce moves a decrement d across two preference-ordered
// accounts a (first) and b (second) and returns the updated (a, b) and
// the unabsorbed residual (always >= 0).
//
//   - d == 0: no-op, residual 0.
//   - d > 0 (a decrement/consumption): only the positive portion of each
//     account, in order a then b, is drawn down (floored at zero); any
//     shortfall becomes the residual.
//   - d < 0 (a credit): the credit first raises negative accounts to
//     zero, in order a then b; any credit left over after both are
//     non-negative returns to a. The credit direction is always fully
//     absorbed (residual 0).
//
// When a == d exactly (the draw-down case), integer subtraction yields
// an exact zero: there is no floating-point cancellation to guard
// against with an int64-subunit representation.
func ProgressivelyReduce(a, b, d currency.Amount) (newA, newB, residual currency.Amount) {
	switch {
	case d.IsZero():
		return a, b, currency.Zero

	case d.IsPositive():
		drawA := a.Max(currency.Zero).Min(d)
		newA = a.Sub(drawA)
		remaining := d.Sub(drawA)

		drawB := b.Max(currency.Zero).Min(remaining)
		newB = b.Sub(drawB)
		remaining = remaining.Sub(drawB)

		return newA, newB, remaining

	default: // d < 0: a credit of magnitude -d
		m := d.Neg()

		raiseA := currency.Zero.Sub(a).Max(currency.Zero).Min(m)
		newA = a.Add(raiseA)
		remaining := m.Sub(raiseA)

		raiseB := currency.Zero.Sub(b).Max(currency.Zero).Min(remaining)
		newB = b.Add(raiseB)
		remaining = remaining.Sub(raiseB)

		// Any credit left over after zeroing both accounts returns to the
		// preference-first account (a), uncapped.
		newA = newA.Add(remaining)

		return newA, newB, currency.Zero
	}
}
