package interest_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/basis"
	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/interest"
	"github.com/soa-illustrations/lmi/stratified"
)

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

func TestAnnualToMonthlyFormula(t *testing.T) {
	got := interest.AnnualToMonthly(0.06, round4)
	want := round4(math.Pow(1.06, 1.0/12) - 1)
	assert.InDelta(t, want, got, 1e-12)
}

func TestAnnualToMonthlyNoRounderIsIdentityPrecision(t *testing.T) {
	got := interest.AnnualToMonthly(0.06, nil)
	want := math.Pow(1.06, 1.0/12) - 1
	assert.InDelta(t, want, got, 1e-15)
}

func TestScheduleAtSelectsBasis(t *testing.T) {
	s := interest.NewSchedule(0.05, 0.04, 0.03, round4)
	cur, err := s.At(basis.Current)
	require.NoError(t, err)
	assert.Equal(t, 0.05, cur.Annual)

	guar, err := s.At(basis.Guaranteed)
	require.NoError(t, err)
	assert.Equal(t, 0.03, guar.Annual)
}

func TestScheduleAtRejectsInvalidBasis(t *testing.T) {
	s := interest.NewSchedule(0.05, 0.04, 0.03, round4)
	_, err := s.At(basis.GenBasis(99))
	assert.Error(t, err)
}

func TestRateForPeriod(t *testing.T) {
	r := interest.NewRate(0.12, round4)
	assert.Equal(t, 0.12, r.ForPeriod(basis.Annual))
	assert.InDelta(t, round4(math.Pow(1.12, 1.0/12)-1), r.ForPeriod(basis.Monthly), 1e-12)
}

func TestDynamicMEScheduleSelectsBandAndSubtracts(t *testing.T) {
	bands := stratified.BandedSchedule{
		Bands: []stratified.Band{
			{Limit: mustAmt(t, 50000000, 0), Rate: 0.0035},
			{Unbounded: true, Rate: 0.0025},
		},
	}
	d := interest.DynamicMESchedule{
		MEBands:         bands,
		IMF:             0.0010,
		Misc:            0.0005,
		StableValue:     0.0002,
		BaseGrossAnnual: 0.08,
		Round:           round4,
	}

	small := mustAmt(t, 1000000, 0)
	monthly, comps := d.EffectiveMonthlyRate(small)
	assert.Equal(t, 0.0035, comps.ME)
	netAnnual := 0.08 - (0.0035 + 0.0010 + 0.0005 + 0.0002)
	assert.InDelta(t, round4(math.Pow(1+netAnnual, 1.0/12)-1), monthly, 1e-12)

	large := mustAmt(t, 60000000, 0)
	_, comps2 := d.EffectiveMonthlyRate(large)
	assert.Equal(t, 0.0025, comps2.ME)
}

func mustAmt(t *testing.T, units, subunits int64) currency.Amount {
	t.Helper()
	a, err := currency.FromUnits(units, subunits)
	require.NoError(t, err)
	return a
}
