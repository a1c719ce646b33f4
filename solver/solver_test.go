package solver_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/contract"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/solver"
)

func mustAmt(t *testing.T, units, subunits int64) currency.Amount {
	t.Helper()
	a, err := currency.FromUnits(units, subunits)
	require.NoError(t, err)
	return a
}

func TestSolveFindsLinearRoot(t *testing.T) {
	// f(x) = 2x - 10, root at x = 5.
	objective := func(x float64) (float64, error) { return 2*x - 10, nil }
	res, err := solver.Solve(solver.Params{Lower: 0, Upper: 1, Precision: 1e-8}, objective)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Value, 1e-5)
}

func TestSolveFindsRootInsideInitialBracket(t *testing.T) {
	// f(x) = x^2 - 4, root at x = 2 within [0, 10].
	objective := func(x float64) (float64, error) { return x*x - 4, nil }
	res, err := solver.Solve(solver.Params{Lower: 0, Upper: 10, Precision: 1e-8}, objective)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.Value, 1e-4)
}

func TestSolveExpandsBracketWhenRootOutside(t *testing.T) {
	// f(x) = x - 100, root far outside the initial [0, 1] bracket.
	objective := func(x float64) (float64, error) { return x - 100, nil }
	res, err := solver.Solve(solver.Params{Lower: 0, Upper: 1, Precision: 1e-6}, objective)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.Value, 1e-3)
}

func TestSolvePropagatesObjectiveError(t *testing.T) {
	objective := func(x float64) (float64, error) { return 0, assert.AnError }
	_, err := solver.Solve(solver.Params{Lower: 0, Upper: 1}, objective)
	assert.Error(t, err)
}

func TestNonMecObjectiveIsBistable(t *testing.T) {
	assert.True(t, solver.NonMecObjective(true, 0.01) < 0)
	assert.True(t, solver.NonMecObjective(false, 0.01) > 0)
}

func TestSolveTargetValueEndowmentUsesSpecAmt(t *testing.T) {
	got := solver.SolveTargetValue(solver.TargetEndowment, mustAmt(t, 250000, 0), currency.Zero, currency.Zero)
	assert.True(t, got.Equal(mustAmt(t, 250000, 0)))
}

func TestSolveTargetValueTaxBasisUsesYearlyTaxBasis(t *testing.T) {
	got := solver.SolveTargetValue(solver.TargetTaxBasis, currency.Zero, mustAmt(t, 40000, 0), currency.Zero)
	assert.True(t, got.Equal(mustAmt(t, 40000, 0)))
}

func TestSolveTargetValueDefaultUsesUserCSV(t *testing.T) {
	got := solver.SolveTargetValue(solver.TargetUserCSV, currency.Zero, currency.Zero, mustAmt(t, 5000, 0))
	assert.True(t, got.Equal(mustAmt(t, 5000, 0)))
}

func TestApplyCandidateRoutesToSpecAmtOverride(t *testing.T) {
	overrides := map[int]currency.Amount{}
	require.NoError(t, solver.ApplyCandidate(contract.SolveSpecAmt, 2, 5, mustAmt(t, 1000, 0),
		overrides, nil, nil, nil, nil))
	assert.True(t, overrides[2].Equal(mustAmt(t, 1000, 0)))
	assert.True(t, overrides[4].Equal(mustAmt(t, 1000, 0)))
	_, ok := overrides[5]
	assert.False(t, ok, "end year is exclusive")
}

func TestApplyCandidateRejectsSolveNone(t *testing.T) {
	err := solver.ApplyCandidate(contract.SolveNone, 0, 1, currency.Zero, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestWorstNegativeIgnoresNoLapseYears(t *testing.T) {
	csv := []currency.Amount{mustAmt(t, -100, 0), mustAmt(t, 50, 0)}
	underNoLapse := []bool{true, false}
	got := solver.WorstNegative(csv, underNoLapse, map[int]currency.Amount{}, map[int]currency.Amount{})
	// The -100 year is excluded, leaving 50; with no ullage the result is
	// min(50, -0) = 0.
	assert.True(t, got.Equal(currency.Zero), "got %s", got)
}

func TestWorstNegativeReflectsGreatestUllage(t *testing.T) {
	csv := []currency.Amount{mustAmt(t, 1000, 0)}
	underNoLapse := []bool{false}
	ullage := map[int]currency.Amount{0: mustAmt(t, 300, 0)}
	got := solver.WorstNegative(csv, underNoLapse, ullage, map[int]currency.Amount{})
	assert.True(t, got.Equal(mustAmt(t, -300, 0)), "got %s", got)
}

func TestSolveConvergesNearPlateau(t *testing.T) {
	// A flat plateau below zero (simulating the no-lapse floor) that
	// rises sharply; the root finder must not loop forever when the
	// interpolant sees a near-zero denominator on the flat region.
	objective := func(x float64) (float64, error) {
		if x < 10 {
			return -1, nil
		}
		return math.Min(x-10, 50), nil
	}
	res, err := solver.Solve(solver.Params{Lower: 0, Upper: 20, Precision: 1e-4}, objective)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.Value, 0.5)
}
