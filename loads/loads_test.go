package loads_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/loads"
)

func mustAmt(t *testing.T, units, subunits int64) currency.Amount {
	t.Helper()
	a, err := currency.FromUnits(units, subunits)
	require.NoError(t, err)
	return a
}

func TestMidpointIsArithmeticMean(t *testing.T) {
	current := loads.NewVector([]loads.YearRow{
		{PolicyFeeMonthly: mustAmt(t, 10, 0), SpecAmtLoad: 0.002},
	})
	guaranteed := loads.NewVector([]loads.YearRow{
		{PolicyFeeMonthly: mustAmt(t, 20, 0), SpecAmtLoad: 0.004},
	})
	mid, err := loads.Midpoint(current, guaranteed)
	require.NoError(t, err)
	row, err := mid.Row(0)
	require.NoError(t, err)
	assert.True(t, row.PolicyFeeMonthly.Equal(mustAmt(t, 15, 0)), "got %s", row.PolicyFeeMonthly)
	assert.InDelta(t, 0.003, row.SpecAmtLoad, 1e-9)
}

func TestMidpointRejectsLengthMismatch(t *testing.T) {
	current := loads.NewVector([]loads.YearRow{{}, {}})
	guaranteed := loads.NewVector([]loads.YearRow{{}})
	_, err := loads.Midpoint(current, guaranteed)
	assert.Error(t, err)
}

func TestByBasisDerivesMidpointAutomatically(t *testing.T) {
	current := loads.NewVector([]loads.YearRow{{SalesLoad: 0.06}})
	guaranteed := loads.NewVector([]loads.YearRow{{SalesLoad: 0.10}})
	bb, err := loads.NewByBasis(current, guaranteed)
	require.NoError(t, err)

	mid, err := bb.Vector(basis.Midpoint)
	require.NoError(t, err)
	row, err := mid.Row(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.08, row.SalesLoad, 1e-9)
}

func TestByBasisRejectsInvalidBasis(t *testing.T) {
	bb, err := loads.NewByBasis(loads.NewVector(nil), loads.NewVector(nil))
	require.NoError(t, err)
	_, err = bb.Vector(basis.GenBasis(99))
	assert.Error(t, err)
}

func TestRowOutOfRangeFails(t *testing.T) {
	v := loads.NewVector([]loads.YearRow{{}})
	_, err := v.Row(1)
	assert.Error(t, err)
	_, err = v.Row(-1)
	assert.Error(t, err)
}

func TestRefundableSalesLoadProportionValidation(t *testing.T) {
	_, err := loads.NewRefundableSalesLoadProportion(0.5)
	assert.NoError(t, err)
	_, err = loads.NewRefundableSalesLoadProportion(1.5)
	assert.Error(t, err)
	_, err = loads.NewRefundableSalesLoadProportion(-0.1)
	assert.Error(t, err)
}
