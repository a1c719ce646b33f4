package taxqualify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/currency"
	"github.com/soa-illustrations/lmi/taxqualify"
)

func mustAmt(t *testing.T, units, subunits int64) currency.Amount {
	t.Helper()
	a, err := currency.FromUnits(units, subunits)
	require.NoError(t, err)
	return a
}

func TestGPTForceoutOnlyWhenLimitExceeded(t *testing.T) {
	s := &taxqualify.GPTState{}
	s.Recompute(mustAmt(t, 10000, 0), mustAmt(t, 50000, 0))

	forceout := s.TestAndForceout(mustAmt(t, 30000, 0))
	assert.True(t, forceout.IsZero())

	forceout2 := s.TestAndForceout(mustAmt(t, 30000, 0))
	// cumulative would be 60000, limit is max(10000,50000)=50000 -> forceout 10000
	assert.True(t, forceout2.Equal(mustAmt(t, 10000, 0)), "got %s", forceout2)
	assert.True(t, s.CumulativePremium.Equal(mustAmt(t, 50000, 0)))
}

func TestCorridorRequiredDBUsesMaxOfSpecAmtAndFactoredAV(t *testing.T) {
	c := taxqualify.CorridorTable{MinAge: 40, Factors: []float64{2.5, 2.0}}
	db, err := c.RequiredDB(40, mustAmt(t, 100000, 0), mustAmt(t, 50000, 0))
	require.NoError(t, err)
	assert.True(t, db.Equal(mustAmt(t, 125000, 0)), "got %s", db) // 2.5*50000=125000 > specamt 100000

	db2, err := c.RequiredDB(41, mustAmt(t, 100000, 0), mustAmt(t, 10000, 0))
	require.NoError(t, err)
	assert.True(t, db2.Equal(mustAmt(t, 100000, 0)), "got %s", db2) // factor*AV=20000 < specamt
}

func TestCorridorRejectsOutOfRangeAge(t *testing.T) {
	c := taxqualify.CorridorTable{MinAge: 40, Factors: []float64{2.5}}
	_, err := c.RequiredDB(39, currency.Zero, currency.Zero)
	assert.Error(t, err)
	_, err = c.RequiredDB(41, currency.Zero, currency.Zero)
	assert.Error(t, err)
}

func TestSevenPayDetectsMecOnFrontLoad(t *testing.T) {
	s := &taxqualify.SevenPayState{SevenPayAnnualPremium: mustAmt(t, 25000, 0)}
	s.RecognizePayment(0, 0, mustAmt(t, 200000, 0))
	assert.True(t, s.IsMec)
	assert.Equal(t, 0, s.MecYear)
	assert.Equal(t, 0, s.MecMonth)
}

func TestSevenPayNoMecUnderLimit(t *testing.T) {
	s := &taxqualify.SevenPayState{SevenPayAnnualPremium: mustAmt(t, 25000, 0)}
	s.RecognizePayment(0, 0, mustAmt(t, 25000, 0))
	assert.False(t, s.IsMec)
}

func TestSevenPayOnceMecStaysMec(t *testing.T) {
	s := &taxqualify.SevenPayState{SevenPayAnnualPremium: mustAmt(t, 25000, 0)}
	s.RecognizePayment(0, 0, mustAmt(t, 200000, 0))
	require.True(t, s.IsMec)

	s.MaterialChange(3, mustAmt(t, 50000, 0))
	s.RecognizePayment(3, 0, mustAmt(t, 1000, 0))
	assert.True(t, s.IsMec)
	assert.Equal(t, 0, s.MecYear) // unchanged: first detection is preserved
}

func TestMaterialChangeRestartsWindow(t *testing.T) {
	s := &taxqualify.SevenPayState{SevenPayAnnualPremium: mustAmt(t, 10000, 0)}
	s.RecognizePayment(0, 0, mustAmt(t, 60000, 0))
	s.MaterialChange(2, mustAmt(t, 20000, 0))
	assert.True(t, s.CumulativePremiumInWindow.IsZero())
	assert.Equal(t, 2, s.WindowStartYear)
}

func TestAccrueDCV(t *testing.T) {
	s := &taxqualify.SevenPayState{}
	s.AccrueDCV(mustAmt(t, 1000, 0), mustAmt(t, 10, 0), mustAmt(t, 5, 0))
	assert.True(t, s.DeemedCashValue.Equal(mustAmt(t, 1005, 0)), "got %s", s.DeemedCashValue)
}
