/*
Package interest stores the per-basis, per-rate-period interest rates
spec.md §4.6 requires: general account, separate account (net and
gross of M&E/IMF), honeymoon and post-honeymoon, regular and preferred
loan (credited and due), and the 7702 guideline rate — plus the dynamic
M&E lookup that re-derives the effective separate-account rate from
case-level assets.

GROUNDED ON:
  generic/balance.go / generic/types.go for the small-struct-of-named-
  fields idiom (a Rate pairs an annual input with its once-computed
  monthly equivalent, the same way the teacher derives summary fields at
  construction rather than on every read); stratified.BandedSchedule
  (C3) for the dynamic M&E step-function lookup.
*/
package interest

import (
	"math"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/stratified"
)

// Rounder rounds a rate per the engine's configured rounding rule
// (injected by config, per spec.md §9's "treat configurable settings as
// an injected dependency").
type Rounder func(float64) float64

// AnnualToMonthly derives the monthly-equivalent rate from an annual
// rate via (1+i)^(1/12)-1, applying the configured rounding rule once.
func AnnualToMonthly(annual float64, round Rounder) float64 {
	monthly := math.Pow(1+annual, 1.0/12) - 1
	if round != nil {
		monthly = round(monthly)
	}
	return monthly
}

// Rate pairs an annual rate with its monthly equivalent, computed once.
type Rate struct {
	Annual  float64
	Monthly float64
}

// NewRate builds a Rate from an annual input.
func NewRate(annual float64, round Rounder) Rate {
	return Rate{Annual: annual, Monthly: AnnualToMonthly(annual, round)}
}

// ForPeriod returns the rate for the given RatePeriod.
func (r Rate) ForPeriod(p basis.RatePeriod) float64 {
	if p == basis.Monthly {
		return r.Monthly
	}
	return r.Annual
}

// Schedule is a small dense array of Rate indexed by general-account
// basis (spec.md §9's enum-indexed-array guidance).
type Schedule [3]Rate

// NewSchedule builds a Schedule from annual current/midpoint/guaranteed
// inputs.
func NewSchedule(current, midpoint, guaranteed float64, round Rounder) Schedule {
	var s Schedule
	s[basis.Current] = NewRate(current, round)
	s[basis.Midpoint] = NewRate(midpoint, round)
	s[basis.Guaranteed] = NewRate(guaranteed, round)
	return s
}

// At returns the Rate for the given basis.
func (s Schedule) At(b basis.GenBasis) (Rate, error) {
	if err := b.Validate(); err != nil {
		return Rate{}, err
	}
	return s[b], nil
}

// Table holds every named rate series a projection needs, by basis.
type Table struct {
	GeneralAccount         Schedule
	SeparateAccountNet     Schedule
	SeparateAccountGross   Schedule
	Honeymoon              Schedule
	PostHoneymoon          Schedule
	RegularLoanCredited    Schedule
	RegularLoanDue         Schedule
	PreferredLoanCredited  Schedule
	PreferredLoanDue       Schedule
	GuidelineRate          Rate // the IRC §7702 guideline annual/monthly rate; statutory, not basis-varying
}

// MEComponents breaks a dynamic M&E lookup's result into its named
// pieces (spec.md §4.6: "expose both the resulting monthly rate and its
// components").
type MEComponents struct {
	ME          float64
	IMF         float64
	Misc        float64
	StableValue float64
}

// Total sums the components to the total annual charge deducted from
// the gross separate-account rate.
func (c MEComponents) Total() float64 {
	return c.ME + c.IMF + c.Misc + c.StableValue
}

// DynamicMESchedule re-derives the effective monthly separate-account
// rate from case-level assets via a banded (step-function) M&E table,
// layered over flat IMF/misc/stable-value charges and a gross base rate.
type DynamicMESchedule struct {
	MEBands         stratified.BandedSchedule
	IMF             float64
	Misc            float64
	StableValue     float64
	BaseGrossAnnual float64
	Round           Rounder
}

// EffectiveMonthlyRate returns the net monthly separate-account rate for
// the given case-level separate-account assets, along with the charge
// components that were subtracted from the gross annual rate.
func (d DynamicMESchedule) EffectiveMonthlyRate(caseAssets currency.Amount) (monthly float64, components MEComponents) {
	components = MEComponents{
		ME:          d.MEBands.RateFor(caseAssets),
		IMF:         d.IMF,
		Misc:        d.Misc,
		StableValue: d.StableValue,
	}
	netAnnual := d.BaseGrossAnnual - components.Total()
	monthly = AnnualToMonthly(netAnnual, d.Round)
	return monthly, components
}
