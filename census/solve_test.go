package census_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/census"
	"github.com/soa-illustrations/lmi/contract"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/solver"
)

func TestSolveEEPremiumConvergesOnUserTargetCSV(t *testing.T) {
	years := 5
	cell := buildCensusCell(t, years, currency.Zero, mustAmt(t, 250000, 0))

	req := census.SolveRequest{
		Cell:     cell,
		GenBasis: basis.Current,
		Params: contract.SolveParams{
			Type:       contract.SolveEEPremium,
			BeginYear:  0,
			EndYear:    3,
			TargetYear: 3,
			TargetCSV:  mustAmt(t, 10000, 0),
		},
		Target:       solver.TargetUserCSV,
		SolverParams: solver.Params{Lower: 0, Upper: 20000, Precision: 0.01},
	}

	result, err := census.Solve(req)
	require.NoError(t, err)
	require.NotNil(t, result)

	got := result.Variant.CSV[2].Float64()
	assert.InDelta(t, 10000.0, got, 25.0, "solved CSV at target year should land near the user target")
}

func TestSolveRejectsTargetYearOutOfRange(t *testing.T) {
	years := 3
	cell := buildCensusCell(t, years, currency.Zero, mustAmt(t, 250000, 0))

	req := census.SolveRequest{
		Cell:     cell,
		GenBasis: basis.Current,
		Params: contract.SolveParams{
			Type:       contract.SolveEEPremium,
			BeginYear:  0,
			EndYear:    3,
			TargetYear: 10,
		},
		Target:       solver.TargetUserCSV,
		SolverParams: solver.Params{Lower: 0, Upper: 20000, Precision: 0.01},
	}

	_, err := census.Solve(req)
	assert.Error(t, err)
}
