package productdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/productdb"
)

func mustAmt(t *testing.T, units, subunits int64) currency.Amount {
	t.Helper()
	a, err := currency.FromUnits(units, subunits)
	require.NoError(t, err)
	return a
}

func openTestStore(t *testing.T) *productdb.Store {
	t.Helper()
	s, err := productdb.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestQueryRawRoundTripsEachValueType(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutAmount("DB_PolicyFee", mustAmt(t, 5, 0)))
	require.NoError(t, s.PutFloat("DB_GuarGenRate", 0.03))
	require.NoError(t, s.PutString("DB_ProductName", "UL Flex"))
	require.NoError(t, s.PutBool("DB_AllowsLoans", true))

	amt, err := s.QueryRaw("DB_PolicyFee")
	require.NoError(t, err)
	assert.True(t, amt.(currency.Amount).Equal(mustAmt(t, 5, 0)))

	rate, err := s.QueryRaw("DB_GuarGenRate")
	require.NoError(t, err)
	assert.InDelta(t, 0.03, rate.(float64), 1e-9)

	name, err := s.QueryRaw("DB_ProductName")
	require.NoError(t, err)
	assert.Equal(t, "UL Flex", name.(string))

	allows, err := s.QueryRaw("DB_AllowsLoans")
	require.NoError(t, err)
	assert.Equal(t, true, allows.(bool))
}

func TestQueryRawIsDimensionedByIndex(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutAmount("DB_PremTaxLoad", mustAmt(t, 0, 200), "CA"))
	require.NoError(t, s.PutAmount("DB_PremTaxLoad", mustAmt(t, 0, 350), "SD"))

	ca, err := s.QueryRaw("DB_PremTaxLoad", "CA")
	require.NoError(t, err)
	assert.True(t, ca.(currency.Amount).Equal(mustAmt(t, 0, 200)))

	sd, err := s.QueryRaw("DB_PremTaxLoad", "SD")
	require.NoError(t, err)
	assert.True(t, sd.(currency.Amount).Equal(mustAmt(t, 0, 350)))
}

func TestQueryRawReturnsErrorForMissingKey(t *testing.T) {
	s := openTestStore(t)
	_, err := s.QueryRaw("DB_DoesNotExist")
	assert.Error(t, err)
}

func TestVariesByStateDefaultsFalseUntilRecorded(t *testing.T) {
	s := openTestStore(t)
	assert.False(t, s.VariesByState("DB_PremTaxLoad"))

	require.NoError(t, s.SetVariesByState("DB_PremTaxLoad", true))
	assert.True(t, s.VariesByState("DB_PremTaxLoad"))
}

func TestAreEquivalentComparesEquivalenceClasses(t *testing.T) {
	s := openTestStore(t)

	assert.True(t, s.AreEquivalent("DB_PremTaxLoad", "DB_PremTaxLoad"))
	assert.False(t, s.AreEquivalent("DB_PremTaxLoad", "DB_PremTaxRetaliation"))

	require.NoError(t, s.SetEquivalenceClass("DB_PremTaxLoad", "premium_tax"))
	require.NoError(t, s.SetEquivalenceClass("DB_PremTaxRetaliation", "premium_tax"))
	assert.True(t, s.AreEquivalent("DB_PremTaxLoad", "DB_PremTaxRetaliation"))
}
