package premiumtax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/premiumtax"
	"github.com/soa-illustrations/lmi/stratified"
)

func mustAmt(t *testing.T, units, subunits int64) currency.Amount {
	t.Helper()
	a, err := currency.FromUnits(units, subunits)
	require.NoError(t, err)
	return a
}

func TestReciprocalStatesNeverRetaliate(t *testing.T) {
	reciprocal := []premiumtax.State{"AZ", "MA", "MN", "NY", "RI"}
	for _, s1 := range reciprocal {
		for _, s2 := range reciprocal {
			assert.False(t, premiumtax.Retaliates(s1, s2), "%s/%s should not retaliate", s1, s2)
		}
	}
}

func TestHIAndXXNeverRetaliate(t *testing.T) {
	assert.False(t, premiumtax.Retaliates("HI", "CA"))
	assert.False(t, premiumtax.Retaliates("CA", "HI"))
	assert.False(t, premiumtax.Retaliates("XX", "CA"))
	assert.False(t, premiumtax.Retaliates("CA", "XX"))
}

func TestAKSDModeledNonRetaliatory(t *testing.T) {
	assert.False(t, premiumtax.Retaliates("AK", "CA"))
	assert.False(t, premiumtax.Retaliates("CA", "SD"))
}

func TestOtherStatesRetaliate(t *testing.T) {
	assert.True(t, premiumtax.Retaliates("CA", "TX"))
}

func scalarRule(s premiumtax.State, rate float64) premiumtax.StateRule {
	return premiumtax.StateRule{State: s, Scalar: true, Rate: rate}
}

func TestApplyPaymentScalarNoRetaliation(t *testing.T) {
	table := premiumtax.Table{
		"AZ": scalarRule("AZ", 0.02),
		"NY": scalarRule("NY", 0.03),
	}
	acc := premiumtax.NewAccumulator()
	payment := mustAmt(t, 1000, 0)
	load, err := acc.ApplyPayment(table, "AZ", "NY", payment)
	require.NoError(t, err)
	assert.True(t, load.Equal(mustAmt(t, 20, 0)), "got %s", load) // 2% of 1000, no retaliation
}

func TestApplyPaymentScalarRetaliationTakesMax(t *testing.T) {
	table := premiumtax.Table{
		"CA": scalarRule("CA", 0.02),
		"TX": scalarRule("TX", 0.035),
	}
	acc := premiumtax.NewAccumulator()
	payment := mustAmt(t, 1000, 0)
	load, err := acc.ApplyPayment(table, "CA", "TX", payment)
	require.NoError(t, err)
	assert.True(t, load.Equal(mustAmt(t, 35, 0)), "got %s", load) // max(2%,3.5%) of 1000
}

func TestApplyPaymentTieredAccumulatesAcrossBreak(t *testing.T) {
	tiers := stratified.TieredSchedule{
		Tiers: []stratified.Tier{
			{Width: mustAmt(t, 100000, 0), Rate: 0.02},
			{Unbounded: true, Rate: 0.01},
		},
	}
	table := premiumtax.Table{
		"AK": {State: "AK", Tiers: tiers},
		"XX": scalarRule("XX", 0),
	}
	acc := premiumtax.NewAccumulator()

	// Year 1, single $100,000 payment: fully within first bracket.
	first := mustAmt(t, 100000, 0)
	load1, err := acc.ApplyPayment(table, "AK", "XX", first)
	require.NoError(t, err)
	assert.True(t, load1.Equal(mustAmt(t, 2000, 0)), "got %s", load1) // 2% of 100000

	// A further $50,000 crosses the break: incremental load is the
	// max-YTD-tax-reflecting-retaliation minus prior load, i.e. the
	// marginal amount taxed entirely at the second tier's rate.
	second := mustAmt(t, 50000, 0)
	load2, err := acc.ApplyPayment(table, "AK", "XX", second)
	require.NoError(t, err)
	assert.True(t, load2.Equal(mustAmt(t, 500, 0)), "got %s", load2) // 1% of 50000
}

func TestValidateLoadConsistency(t *testing.T) {
	scalar := scalarRule("CA", 0.02)
	assert.NoError(t, premiumtax.ValidateLoadConsistency(0.02, scalar))
	assert.Error(t, premiumtax.ValidateLoadConsistency(0.03, scalar))

	tiered := premiumtax.StateRule{State: "AK", Tiers: stratified.TieredSchedule{
		Tiers: []stratified.Tier{{Unbounded: true, Rate: 0.02}},
	}}
	assert.NoError(t, premiumtax.ValidateLoadConsistency(0, tiered))
	assert.Error(t, premiumtax.ValidateLoadConsistency(0.01, tiered))
}

func TestRuleLookupMissingStateFails(t *testing.T) {
	table := premiumtax.Table{}
	_, err := table.Rule("ZZ")
	assert.Error(t, err)
}
