/*
Package strategy implements the pluggable payment and specified-amount
resolvers spec.md §4.12 describes: a named strategy plus a
(year, reference_year, explicit_value) tuple maps to a monetary amount.
A solve-target year always bypasses the strategy and takes the
solver's candidate value directly; that bypass is the caller's
responsibility (C11's annual entry step), not this package's.

GROUNDED ON:
  generic/policy.go's ConsumptionMode/ReconciliationRule pattern: a
  named string enum selects behavior, and the struct carrying the enum
  also carries the small amount of configuration that behavior needs
  (MaxCarryover for ActionCarryover, here a scalar multiplier for Table
  or an offset for Salary). PaymentStrategy/SpecAmtStrategy generalize
  that "enum plus inline config, resolved by a dispatching method" idiom
  from leave-accrual reconciliation actions to premium/specamt
  resolution. The dependencies each strategy needs (minimum premium,
  target premium, MEP ceiling, GLP/GSP, corridor DB, table lookup,
  salary) are supplied through the narrow Resolver interfaces rather
  than imported directly, the same inversion generic/store.go uses to
  keep policy logic independent of a concrete persistence layer.
*/
package strategy

import (
	"fmt"

	"github.com/soa-illustrations/lmi/currency"
)

// PaymentStrategyKind names a payment-resolution rule (spec.md §4.12).
type PaymentStrategyKind string

const (
	PaymentInputScalar PaymentStrategyKind = "input_scalar"
	PaymentMinimum     PaymentStrategyKind = "minimum"
	PaymentTarget       PaymentStrategyKind = "target"
	PaymentMep          PaymentStrategyKind = "mep"
	PaymentGlp          PaymentStrategyKind = "glp"
	PaymentGsp          PaymentStrategyKind = "gsp"
	PaymentCorridor     PaymentStrategyKind = "corridor"
	PaymentTable        PaymentStrategyKind = "table"
)

// SpecAmtStrategyKind names a specified-amount resolution rule.
type SpecAmtStrategyKind string

const (
	SpecAmtInputScalar SpecAmtStrategyKind = "input_scalar"
	SpecAmtMaximum     SpecAmtStrategyKind = "maximum"
	SpecAmtTarget      SpecAmtStrategyKind = "target"
	SpecAmtMep         SpecAmtStrategyKind = "mep"
	SpecAmtGlp         SpecAmtStrategyKind = "glp"
	SpecAmtGsp         SpecAmtStrategyKind = "gsp"
	SpecAmtCorridor    SpecAmtStrategyKind = "corridor"
	SpecAmtSalary      SpecAmtStrategyKind = "salary"
)

// PaymentResolver supplies the small set of computed values a payment
// strategy may need. The engine (C11) implements this against its own
// per-basis, per-year state; strategy itself has no dependency on the
// engine.
type PaymentResolver interface {
	// ModalMinimumPremium is the modal minimum premium for the given
	// policy year, split between employee and employer according to
	// the product's split (the split itself is the caller's concern;
	// this returns the combined modal minimum).
	ModalMinimumPremium(year int) (currency.Amount, error)
	// TargetPremium is the target premium for the reference year's
	// specified amount.
	TargetPremium(referenceYear int) (currency.Amount, error)
	// LargestNonMecPremium is the largest premium payable at the
	// initial mode, in the initial policy year, without causing a MEC.
	LargestNonMecPremium() (currency.Amount, error)
	// GuidelineLevelPremium and GuidelineSinglePremium are the §7702
	// GPT bounds for the current specified amount.
	GuidelineLevelPremium() (currency.Amount, error)
	GuidelineSinglePremium() (currency.Amount, error)
	// CorridorPremium is the annualized premium that produces exactly
	// the corridor-required death benefit for the given year.
	CorridorPremium(year int) (currency.Amount, error)
	// TableProxyPremium is the proxy-table premium for the given year,
	// before the caller applies its scalar multiplier.
	TableProxyPremium(year int) (currency.Amount, error)
}

// SpecAmtResolver supplies the computed values a specified-amount
// strategy may need, mirroring PaymentResolver's inversion.
type SpecAmtResolver interface {
	MinimumSpecAmt(year int) (currency.Amount, error)
	// SpecAmtForAnnualizedPayment derives a specified amount from an
	// annualized payment under the named rule (maximum, target, mep,
	// glp, gsp, or corridor — the same vocabulary as PaymentStrategyKind
	// minus input_scalar and table).
	SpecAmtForAnnualizedPayment(rule SpecAmtStrategyKind, annualizedPayment currency.Amount, year int) (currency.Amount, error)
	Salary(year int) (currency.Amount, error)
}

// PaymentStrategy is a payment strategy plus the inline configuration
// the Table rule needs.
type PaymentStrategy struct {
	Kind           PaymentStrategyKind
	ExplicitValue  currency.Amount // for input_scalar
	TableMultiplier float64         // for table
}

// Resolve maps (year, referenceYear) to a monetary payment under this
// strategy.
func (s PaymentStrategy) Resolve(r PaymentResolver, year, referenceYear int) (currency.Amount, error) {
	switch s.Kind {
	case PaymentInputScalar:
		return s.ExplicitValue, nil
	case PaymentMinimum:
		return r.ModalMinimumPremium(year)
	case PaymentTarget:
		return r.TargetPremium(referenceYear)
	case PaymentMep:
		return r.LargestNonMecPremium()
	case PaymentGlp:
		return r.GuidelineLevelPremium()
	case PaymentGsp:
		return r.GuidelineSinglePremium()
	case PaymentCorridor:
		return r.CorridorPremium(year)
	case PaymentTable:
		base, err := r.TableProxyPremium(year)
		if err != nil {
			return currency.Zero, err
		}
		return base.MulFraction(s.TableMultiplier), nil
	default:
		return currency.Zero, fmt.Errorf("strategy: unknown payment strategy %q", s.Kind)
	}
}

// SpecAmtStrategy is a specified-amount strategy plus the inline
// configuration the Salary rule needs.
type SpecAmtStrategy struct {
	Kind          SpecAmtStrategyKind
	ExplicitValue currency.Amount // for input_scalar
	Multiplier    float64          // for salary
	Offset        currency.Amount  // for salary
	// AnnualizedPayment is the payment the maximum/target/mep/glp/gsp/
	// corridor rules derive a specified amount from.
	AnnualizedPayment currency.Amount
}

// Resolve maps (year) to a specified amount under this strategy,
// clamping input_scalar (only) to the contemporaneous minimum per
// spec.md §4.12.
func (s SpecAmtStrategy) Resolve(r SpecAmtResolver, year int) (currency.Amount, error) {
	min, err := r.MinimumSpecAmt(year)
	if err != nil {
		return currency.Zero, err
	}
	switch s.Kind {
	case SpecAmtInputScalar:
		return s.ExplicitValue.Max(min), nil
	case SpecAmtMaximum, SpecAmtTarget, SpecAmtMep, SpecAmtGlp, SpecAmtGsp, SpecAmtCorridor:
		rule := toPaymentVocabulary(s.Kind)
		return r.SpecAmtForAnnualizedPayment(rule, s.AnnualizedPayment, year)
	case SpecAmtSalary:
		salary, err := r.Salary(year)
		if err != nil {
			return currency.Zero, err
		}
		return salary.MulFraction(s.Multiplier).Sub(s.Offset), nil
	default:
		return currency.Zero, fmt.Errorf("strategy: unknown specamt strategy %q", s.Kind)
	}
}

func toPaymentVocabulary(k SpecAmtStrategyKind) SpecAmtStrategyKind {
	// SpecAmtMaximum has no payment-strategy analogue (there is no
	// "maximum" payment rule); it is passed through verbatim and left
	// to the resolver implementation to interpret, same as every other
	// derive-from-annualized-payment rule.
	return k
}

// MinimumViolation records an inforce first-year minimum shortfall
// (spec.md §4.12: "raise a warning but do not alter the override").
type MinimumViolation struct {
	Year     int
	Required currency.Amount
	Actual   currency.Amount
}

func (v MinimumViolation) Warning() string {
	return fmt.Sprintf("strategy: inforce year %d premium %s below minimum %s", v.Year, v.Actual, v.Required)
}

// CheckInforceMinimum returns a non-nil *MinimumViolation when an
// inforce first-year payment falls short of the minimum, without
// altering either value.
func CheckInforceMinimum(year int, actual, required currency.Amount) *MinimumViolation {
	if actual.GTE(required) {
		return nil
	}
	return &MinimumViolation{Year: year, Required: required, Actual: actual}
}
