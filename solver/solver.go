/*
Package solver implements the bracketed root-finder spec.md §4.13
describes: given a candidate scalar value, run one full basis
projection with lapse suppressed, reduce the resulting ledger to a
single objective number, and search for the value that drives that
number to zero.

GROUNDED ON:
  other_examples' newton/bisect pair (the kontoo package's root-finding
  helper) for the bracket-expand-then-bisect shape: grow the interval
  geometrically until the sign of f(x)-target changes at both ends,
  then narrow down. meenmo-molib/bond/yield.go's ComputeForwardYield
  (Newton-Raphson with an iteration cap and a "fail the whole
  computation rather than silently return a bad root" posture) grounds
  the clamp-to-bracket and hard iteration-cap discipline this package
  carries over; the derivative-based step itself is swapped for a
  Brent-style hybrid (inverse quadratic / secant with a bisection
  fallback) because the objective spec.md §4.13 describes is only
  piecewise monotone (a plateau at the no-lapse floor, a step at MEC
  boundaries), which breaks Newton's linearization assumption and would
  make a pure bisection converge too slowly for the precision a solved
  premium or specified amount needs.
*/
package solver

import (
	"math"

	"github.com/soa-illustrations/lmi/contract"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/lmierr"
)

// Objective evaluates the solve's objective function at a candidate
// scalar value and returns value-minus-target (spec.md §4.13 step 4).
// Implementations apply the candidate via the strategy-specific
// setter, run one full basis projection with lapse suppressed, and
// reduce the resulting ledger down to a single float64.
type Objective func(candidate float64) (float64, error)

// Params configures one root-find.
type Params struct {
	Lower, Upper float64 // initial bracket
	Precision    float64 // convergence tolerance on x (spec.md's "configured decimal precision")
	MaxIter      int
}

// DefaultMaxIter mirrors Brent's usual practical ceiling; the
// objective here is at most piecewise-monotone, never pathological,
// so convergence well within this budget is expected.
const DefaultMaxIter = 100

// Result carries the converged value and the number of objective
// evaluations the search needed.
type Result struct {
	Value  float64
	Evals  int
}

// expandBracket grows [lo, hi] outward (doubling the step each time)
// until f changes sign across the interval, or gives up after a bound
// number of doublings. Mirrors the teacher's bisect helper's dynamic
// boundary adjustment, generalized to expand in both directions.
func expandBracket(lo, hi float64, f func(float64) (float64, error)) (float64, float64, float64, float64, error) {
	flo, err := f(lo)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	fhi, err := f(hi)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	step := hi - lo
	if step <= 0 {
		return 0, 0, 0, 0, lmierr.InvariantViolation("solver: invalid bracket [%v, %v]", lo, hi)
	}
	for i := 0; i < 50 && sameSign(flo, fhi); i++ {
		if math.Abs(flo) < math.Abs(fhi) {
			lo -= step
			flo, err = f(lo)
		} else {
			hi += step
			fhi, err = f(hi)
		}
		if err != nil {
			return 0, 0, 0, 0, err
		}
		step *= 2
	}
	if sameSign(flo, fhi) {
		return 0, 0, 0, 0, lmierr.ConvergenceFailure("solver: failed to bracket a root from [%v, %v]", lo, hi)
	}
	return lo, hi, flo, fhi, nil
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// Solve runs Brent's method (inverse-quadratic interpolation, falling
// back to secant, falling back to bisection whenever an interpolant
// steps outside the current bracket or the denominator is numerically
// zero) to find x such that objective(x) == 0, within params.Precision.
func Solve(p Params, objective Objective) (Result, error) {
	maxIter := p.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	precision := p.Precision
	if precision <= 0 {
		precision = 1e-6
	}

	evals := 0
	wrapped := func(x float64) (float64, error) {
		evals++
		return objective(x)
	}

	a, b, fa, fb, err := expandBracket(p.Lower, p.Upper, wrapped)
	if err != nil {
		return Result{}, err
	}
	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}
	c, fc := a, fa
	mflag := true
	var d float64

	for i := 0; i < maxIter; i++ {
		if fb == 0 || math.Abs(b-a) < precision {
			return Result{Value: b, Evals: evals}, nil
		}

		var s float64
		if fa != fc && fb != fc {
			// Inverse quadratic interpolation.
			s = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else if fa != fb {
			// Secant.
			s = b - fb*(b-a)/(fb-fa)
		} else {
			return Result{}, lmierr.ConvergenceFailure("solver: zero denominator with no distinct bracket points at iteration %d", i)
		}

		lo, hi := (3*a+b)/4, b
		if lo > hi {
			lo, hi = hi, lo
		}
		needBisect := s < lo || s > hi ||
			(mflag && math.Abs(s-b) >= math.Abs(b-c)/2) ||
			(!mflag && math.Abs(s-b) >= math.Abs(c-d)/2) ||
			(mflag && math.Abs(b-c) < precision) ||
			(!mflag && math.Abs(c-d) < precision)

		if needBisect {
			s = (a + b) / 2
			mflag = true
		} else {
			mflag = false
		}

		fs, err := wrapped(s)
		if err != nil {
			return Result{}, err
		}
		d, c, fc = c, b, fb

		if sameSign(fa, fs) {
			a, fa = s, fs
		} else {
			b, fb = s, fs
		}

		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}
	return Result{}, lmierr.ConvergenceFailure("solver: failed to converge after %d iterations", maxIter)
}

// SolveTargetValue derives the scalar target the objective compares
// its computed value against, per spec.md §4.13's per-solve-type
// table. specAmtAtSolveYear/taxBasisAtSolveYear/userTargetCSV are read
// from the candidate run the caller already produced for the solve
// year in question. TargetNonMec has no case here and returns
// userTargetCSV like TargetUserCSV; NonMecObjective supplies the
// non-MEC target's bistable value.
func SolveTargetValue(solveType SolveTarget, specAmtAtSolveYear, taxBasisAtSolveYear, userTargetCSV currency.Amount) currency.Amount {
	switch solveType {
	case TargetEndowment:
		return specAmtAtSolveYear
	case TargetTaxBasis:
		return taxBasisAtSolveYear
	default:
		return userTargetCSV
	}
}

// SolveTarget names what the objective's `target` resolves against
// (spec.md §4.13: endowment, tax_basis, non_mec, or a user-supplied
// CSV). This is distinct from contract.SolveType, which names the free
// variable the solver perturbs.
type SolveTarget int

const (
	TargetUserCSV SolveTarget = iota
	TargetEndowment
	TargetTaxBasis
	TargetNonMec
)

// NonMecObjective implements the non-MEC target's bistable rule:
// return -epsilon if the run is a MEC, +epsilon otherwise, so the root
// finder treats "became a MEC" and "stayed non-MEC" as the two sides
// of a sign change at the boundary premium.
func NonMecObjective(isMec bool, epsilon float64) float64 {
	if isMec {
		return -epsilon
	}
	return epsilon
}

// ApplyCandidate writes a solver's candidate value into the
// strategy-specific engine override for [beginYear, endYear), per
// spec.md §4.13 step 1 ("apply x via a strategy-specific setter").
// Callers pass the engine override maps directly; solver has no
// dependency on the engine package, mirroring strategy's resolver
// inversion.
func ApplyCandidate(solveType contract.SolveType, beginYear, endYear int, amount currency.Amount,
	overrideSpecAmt, overrideEEPremium, overrideERPremium, overrideWD, overrideLoan map[int]currency.Amount) error {
	var target map[int]currency.Amount
	switch solveType {
	case contract.SolveSpecAmt:
		target = overrideSpecAmt
	case contract.SolveEEPremium:
		target = overrideEEPremium
	case contract.SolveERPremium:
		target = overrideERPremium
	case contract.SolveWithdrawal:
		target = overrideWD
	case contract.SolveLoan:
		target = overrideLoan
	default:
		return lmierr.InvariantViolation("solver: cannot apply a candidate under SolveNone")
	}
	for y := beginYear; y < endYear; y++ {
		target[y] = amount
	}
	return nil
}

// WorstNegative implements spec.md §4.13 step 3's
// most_negative_csv/greatest_ullage/worst_negative reduction. csv is
// the per-year CSV vector over the solve horizon; underNoLapse[y]
// reports whether year y is under an active no-lapse guarantee (those
// years are excluded from most_negative_csv); loanUllage/withdrawalUllage
// are the per-year ullage maps the engine records on a shortfall.
func WorstNegative(csv []currency.Amount, underNoLapse []bool, loanUllage, withdrawalUllage map[int]currency.Amount) currency.Amount {
	mostNegativeCSV := currency.Zero
	sawAny := false
	for y, v := range csv {
		if y < len(underNoLapse) && underNoLapse[y] {
			continue
		}
		if !sawAny || v.LessThan(mostNegativeCSV) {
			mostNegativeCSV = v
			sawAny = true
		}
	}

	greatestUllage := currency.Zero
	for y := range csv {
		u := loanUllage[y].Max(withdrawalUllage[y])
		if u.GreaterThan(greatestUllage) {
			greatestUllage = u
		}
	}

	return mostNegativeCSV.Min(greatestUllage.Neg())
}
