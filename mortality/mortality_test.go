package mortality_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/mortality"
	"github.com/soa-illustrations/lmi/stratified"
)

func mustAmt(t *testing.T, units, subunits int64) currency.Amount {
	t.Helper()
	a, err := currency.FromUnits(units, subunits)
	require.NoError(t, err)
	return a
}

func TestMonthlyCOIRateFromAnnual(t *testing.T) {
	got := mortality.MonthlyCOIRate(0.01, false, 1.0, 1.0)
	want := 1 - math.Pow(1-0.01, 1.0/12)
	assert.InDelta(t, want, got, 1e-12)
}

func TestMonthlyCOIRateAlreadyMonthlyJustCaps(t *testing.T) {
	got := mortality.MonthlyCOIRate(0.002, true, 3.0, 0.004)
	assert.Equal(t, 0.004, got) // 0.002*3=0.006, capped at max_mly 0.004
}

func TestMonthlyCOIRateMultiplierAppliedBeforeCap(t *testing.T) {
	got := mortality.MonthlyCOIRate(0.001, true, 2.0, 0.01)
	assert.Equal(t, 0.002, got)
}

func TestCOIAnnualQSelectsBand(t *testing.T) {
	bands := stratified.BandedSchedule{
		Bands: []stratified.Band{
			{Limit: mustAmt(t, 50000, 0), Rate: 0.004},
			{Unbounded: true, Rate: 0.002},
		},
	}
	table := mortality.NewTable([]mortality.YearRow{{COIBands: bands}})

	q, err := table.COIAnnualQ(0, mustAmt(t, 25000, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.004, q)

	q2, err := table.COIAnnualQ(0, mustAmt(t, 100000, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.002, q2)
}

func TestRowOutOfRangeFails(t *testing.T) {
	table := mortality.NewTable([]mortality.YearRow{{}})
	_, err := table.Row(1)
	assert.Error(t, err)
	_, err = table.Row(-1)
	assert.Error(t, err)
}

func TestTableLen(t *testing.T) {
	table := mortality.NewTable(make([]mortality.YearRow, 30))
	assert.Equal(t, 30, table.Len())
}
