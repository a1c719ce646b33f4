package calendar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soa-illustrations/lmi/calendar"
)

func TestRoundTrip(t *testing.T) {
	cases := []struct{ y, m, d int }{
		{1752, 9, 14}, {1900, 2, 28}, {2000, 2, 29}, {2024, 2, 29},
		{2023, 12, 31}, {9999, 12, 31}, {1, 1, 1},
	}
	for _, c := range cases {
		if c.y < 1752 {
			continue
		}
		d, err := calendar.New(c.y, c.m, c.d)
		require.NoError(t, err)
		y, m, dd := d.YMD()
		assert.Equal(t, c.y, y)
		assert.Equal(t, c.m, m)
		assert.Equal(t, c.d, dd)
	}
}

func TestJDNRoundTrip(t *testing.T) {
	d1, err := calendar.New(2024, 3, 1)
	require.NoError(t, err)
	d2, err := calendar.FromJDN(d1.JDN())
	require.NoError(t, err)
	assert.True(t, d1.Equal(d2))
}

func TestInvalidDateRejected(t *testing.T) {
	_, err := calendar.New(2023, 2, 29)
	assert.Error(t, err)

	_, err = calendar.New(2024, 2, 30)
	assert.Error(t, err)
}

func TestLeapYear(t *testing.T) {
	assert.True(t, calendar.IsLeapYear(2000))
	assert.False(t, calendar.IsLeapYear(1900))
	assert.True(t, calendar.IsLeapYear(2024))
	assert.False(t, calendar.IsLeapYear(2023))
}

func TestAddYearsAndMonthsCurtate(t *testing.T) {
	jan31, _ := calendar.New(2023, 1, 31)
	got := jan31.AddYearsAndMonths(0, 1, calendar.Curtate)
	y, m, d := got.YMD()
	assert.Equal(t, 2023, y)
	assert.Equal(t, 2, m)
	assert.Equal(t, 28, d)
}

func TestAddYearsAndMonthsAnniversary(t *testing.T) {
	jan31, _ := calendar.New(2023, 1, 31)
	got := jan31.AddYearsAndMonths(0, 1, calendar.Anniversary)
	y, m, d := got.YMD()
	assert.Equal(t, 2023, y)
	assert.Equal(t, 3, m)
	assert.Equal(t, 1, d)
}

func TestAddYearsEquivalence(t *testing.T) {
	d, _ := calendar.New(1988, 6, 15)
	a := d.AddYears(10, calendar.Curtate)
	b := d.AddYearsAndMonths(10, 0, calendar.Curtate)
	assert.True(t, a.Equal(b))
}

func TestAttainedAgeZeroOnBirthdate(t *testing.T) {
	b, _ := calendar.New(1990, 5, 15)
	age, err := calendar.AttainedAge(b, b, calendar.LastBirthday)
	require.NoError(t, err)
	assert.Equal(t, 0, age)
}

func TestAttainedAgeFailsBeforeBirth(t *testing.T) {
	b, _ := calendar.New(1990, 5, 15)
	before := b.AddDays(-1)
	_, err := calendar.AttainedAge(b, before, calendar.LastBirthday)
	assert.Error(t, err)
}

func TestAttainedAgeNearestTies(t *testing.T) {
	b, _ := calendar.New(1990, 1, 1)
	// Halfway through the year (non-leap 1990): day 182 or 183 from Jan 1.
	asOf := b.AddDays(182)
	older, err := calendar.AttainedAge(b, asOf, calendar.NearestTiesOlder)
	require.NoError(t, err)
	younger, err := calendar.AttainedAge(b, asOf, calendar.NearestTiesYounger)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, older, younger)
}

func TestMinMaxBirthdateConsistentWithAttainedAge(t *testing.T) {
	asOf, _ := calendar.New(2024, 6, 15)
	minB, maxB, err := calendar.MinMaxBirthdate(35, asOf, calendar.LastBirthday)
	require.NoError(t, err)
	assert.True(t, minB.BeforeOrEqual(maxB))

	ageMin, err := calendar.AttainedAge(minB, asOf, calendar.LastBirthday)
	require.NoError(t, err)
	assert.Equal(t, 35, ageMin)

	ageMax, err := calendar.AttainedAge(maxB, asOf, calendar.LastBirthday)
	require.NoError(t, err)
	assert.Equal(t, 35, ageMax)
}
