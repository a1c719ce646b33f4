/*
solve.go wires the solver (C13) into a single-cell basis projection
(C11), the piece spec.md §4.13's objective leaves to "whatever runs the
projection": apply a candidate via the strategy-specific override, run
RunBasis with lapse suppressed, and reduce the resulting ledger down to
the scalar solver.Solve roots against.

GROUNDED ON:
  solver (C13)'s own Objective/ApplyCandidate/WorstNegative/
  SolveTargetValue exports, composed here the way generic/policy.go
  composes a ReconciliationRule's trigger check with its action list —
  a small orchestration function that calls two already-independent
  packages in sequence rather than folding their logic together.
*/
package census

import (
	"fmt"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/contract"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/engine"
	"github.com/soa-illustrations/lmi/ledger"
	"github.com/soa-illustrations/lmi/solver"
)

// SolveRequest configures one spec.md §4.13 solve against a single
// cell's single basis.
type SolveRequest struct {
	Cell     *engine.Cell
	GenBasis basis.GenBasis
	Params   contract.SolveParams

	// Target selects what the objective's "value" is compared against
	// (spec.md §4.13 step 4); it is a separate axis from Params.Type,
	// which selects what free variable the candidate perturbs.
	Target solver.SolveTarget

	// UseNAAR requests DB-minus-AV at the target year instead of CSV,
	// for the naar variant of the objective's "value" (spec.md §4.13
	// step 3's parenthetical).
	UseNAAR bool

	SolverParams solver.Params
}

// SolveResult carries the converged ledger sinks (from the final,
// consistent re-run at the solved value) plus the root-finder's result.
type SolveResult struct {
	Invariant *ledger.Invariant
	Variant   *ledger.Variant
	Root      solver.Result
}

// Solve runs spec.md §4.13's solve against a single cell and basis: it
// roots solver.Solve over an Objective built from req, then re-applies
// the converged value once more so the returned ledger sinks are
// consistent with the final answer (spec.md §4.13's root-finder
// postcondition).
func Solve(req SolveRequest) (*SolveResult, error) {
	if req.Params.TargetYear < 1 || req.Params.TargetYear > req.Cell.Years() {
		return nil, fmt.Errorf("census: solve target year %d out of range [1,%d]", req.Params.TargetYear, req.Cell.Years())
	}

	run := func(candidate float64) (*engine.State, *ledger.Invariant, *ledger.Variant, error) {
		amount, err := currency.FromFraction(candidate)
		if err != nil {
			return nil, nil, nil, err
		}
		st := engine.NewState()
		st.SuppressLapse = true
		if err := solver.ApplyCandidate(req.Params.Type, req.Params.BeginYear, req.Params.EndYear, amount,
			st.OverrideSpecAmt, st.OverrideEEPremium, st.OverrideERPremium, st.OverrideWD, st.OverrideLoan); err != nil {
			return nil, nil, nil, err
		}
		n := req.Cell.Years()
		inv := ledger.NewInvariant(n)
		v := ledger.NewVariant(req.GenBasis, n)
		if err := req.Cell.RunBasis(req.GenBasis, st, inv, v); err != nil {
			return nil, nil, nil, err
		}
		return st, inv, v, nil
	}

	objective := func(candidate float64) (float64, error) {
		st, inv, v, err := run(candidate)
		if err != nil {
			return 0, err
		}

		y := req.Params.TargetYear - 1
		value := v.CSV[y]
		if req.UseNAAR {
			value = v.DB[y].Sub(v.AVTotal[y])
		}

		underNoLapse := make([]bool, len(v.CSV)) // no-lapse history isn't tracked per year, so no year is excluded
		worst := solver.WorstNegative(v.CSV, underNoLapse, st.LoanUllage, st.WithdrawalUllage)
		if worst.IsNegative() {
			value = worst
		}

		if req.Target == solver.TargetNonMec {
			return solver.NonMecObjective(inv.IsMec, 1e-6), nil
		}
		target := solver.SolveTargetValue(req.Target, inv.SpecAmt[y], v.TaxBasis[y], req.Params.TargetCSV)
		return value.Sub(target).Float64(), nil
	}

	root, err := solver.Solve(req.SolverParams, objective)
	if err != nil {
		return nil, err
	}

	_, inv, v, err := run(root.Value)
	if err != nil {
		return nil, err
	}
	return &SolveResult{Invariant: inv, Variant: v, Root: root}, nil
}
