/*
Package calendar provides a proleptic-Gregorian civil date stored as a
Julian Day Number (JDN), plus the age and anniversary arithmetic a
monthiversary projection needs.

PURPOSE:
  Every policy-year and policy-month boundary in the projection engine is
  driven by calendar arithmetic: "what's the day of the 14th monthiversary
  of this policy?", "how old is this insured on that date?", "if the
  target day of the month doesn't exist, what convention applies?". This
  package is the one place all of that lives.

DESIGN:
  Date is a thin wrapper around an int64 Julian Day Number. Gregorian <->
  JDN conversion uses ACM Algorithm 199, whose terms are all non-negative
  integer operations over the supported range, so it is safe in any
  two's-complement target (spec.md §9 Design Notes).

SUPPORTED RANGE:
  [1752-09-14, 9999-12-31]. Constructing or decomposing a Date outside
  this range fails.

SEE ALSO:
  - generic/time.go (teacher): the TimePoint/Period wrapper shape this
    package's API surface (Before/After/Equal/AddDays/AddYears, a Period
    companion) is grounded on, adapted to a JDN core instead of time.Time.
*/
package calendar

import "fmt"

// MinDate and MaxDate bound the supported range.
var (
	MinDate = Date{jdn: ymdToJDN(1752, 9, 14)}
	MaxDate = Date{jdn: ymdToJDN(9999, 12, 31)}
)

// Date is a proleptic-Gregorian civil date, stored as a Julian Day Number.
type Date struct {
	jdn int64
}

// New constructs a Date from a (year, month, day) triple. It fails if the
// triple does not round-trip through JDN decomposition (i.e. is not a
// valid calendar date), or falls outside the supported range.
func New(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("calendar: month %d out of range", month)
	}
	jdn := ymdToJDN(year, month, day)
	d := Date{jdn: jdn}
	y2, m2, d2 := d.decompose()
	if y2 != year || m2 != month || d2 != day {
		return Date{}, fmt.Errorf("calendar: %04d-%02d-%02d is not a valid date", year, month, day)
	}
	if d.jdn < MinDate.jdn || d.jdn > MaxDate.jdn {
		return Date{}, fmt.Errorf("calendar: %04d-%02d-%02d outside supported range", year, month, day)
	}
	return d, nil
}

// FromJDN wraps a raw Julian Day Number. It fails if out of range.
func FromJDN(jdn int64) (Date, error) {
	if jdn < MinDate.jdn || jdn > MaxDate.jdn {
		return Date{}, fmt.Errorf("calendar: jdn %d outside supported range", jdn)
	}
	return Date{jdn: jdn}, nil
}

// JDN returns the raw Julian Day Number.
func (d Date) JDN() int64 { return d.jdn }

// ymdToJDN implements ACM Algorithm 199 (Fliegel & Van Flandern).
func ymdToJDN(year, month, day int) int64 {
	y := int64(year)
	m := int64(month)
	dd := int64(day)
	a := (14 - m) / 12
	y2 := y + 4800 - a
	m2 := m + 12*a - 3
	return dd + (153*m2+2)/5 + 365*y2 + y2/4 - y2/100 + y2/400 - 32045
}

// jdnToYMD is the inverse of ymdToJDN.
func jdnToYMD(jdn int64) (year, month, day int) {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	day64 := e - (153*m+2)/5 + 1
	month64 := m + 3 - 12*(m/10)
	year64 := 100*b + d - 4800 + m/10
	return int(year64), int(month64), int(day64)
}

func (d Date) decompose() (year, month, day int) { return jdnToYMD(d.jdn) }

// Year, Month, Day decompose the date.
func (d Date) Year() int  { y, _, _ := d.decompose(); return y }
func (d Date) Month() int { _, m, _ := d.decompose(); return m }
func (d Date) Day() int   { _, _, dd := d.decompose(); return dd }

// YMD returns the full decomposition in one call.
func (d Date) YMD() (year, month, day int) { return d.decompose() }

// IsLeapYear reports whether the Gregorian year is a leap year:
// divisible by 400, OR divisible by 4 and not by 100.
func IsLeapYear(year int) bool {
	return year%400 == 0 || (year%4 == 0 && year%100 != 0)
}

var daysInMonthTable = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given month of the given
// year (1=January), honoring leap years for February.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return daysInMonthTable[month]
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int64) Date { return Date{jdn: d.jdn + n} }

// Sub returns the number of days from other to d (d - other).
func (d Date) Sub(other Date) int64 { return d.jdn - other.jdn }

func (d Date) Before(other Date) bool        { return d.jdn < other.jdn }
func (d Date) After(other Date) bool         { return d.jdn > other.jdn }
func (d Date) Equal(other Date) bool         { return d.jdn == other.jdn }
func (d Date) BeforeOrEqual(other Date) bool { return d.jdn <= other.jdn }
func (d Date) AfterOrEqual(other Date) bool  { return d.jdn >= other.jdn }

func (d Date) String() string {
	y, m, day := d.decompose()
	return fmt.Sprintf("%04d-%02d-%02d", y, m, day)
}

// DayConvention governs what happens when add-years-and-months lands on a
// month that is shorter than the original day of month.
type DayConvention int

const (
	// Curtate: if the target day does not exist, use the last day of the
	// target month (e.g. Jan 31 + 1 month -> Feb 28/29).
	Curtate DayConvention = iota
	// Anniversary: if the target day does not exist, roll forward to the
	// first day of the following month (e.g. Jan 31 + 1 month -> Mar 1).
	Anniversary
)

// AddYearsAndMonths adds y years and m months (each may be negative),
// applying the given day convention when the resulting day does not exist
// in the target month.
func (d Date) AddYearsAndMonths(years, months int, conv DayConvention) Date {
	year, month, day := d.decompose()

	totalMonths := int64(year)*12 + int64(month-1) + int64(years)*12 + int64(months)
	newYear := int(totalMonths / 12)
	newMonth := int(totalMonths%12) + 1
	if newMonth <= 0 {
		newMonth += 12
		newYear--
	}

	lastDay := DaysInMonth(newYear, newMonth)
	clamped := day > lastDay
	useDay := day
	if clamped {
		useDay = lastDay
	}

	jdn := ymdToJDN(newYear, newMonth, useDay)
	if clamped && conv == Anniversary {
		jdn++
	}
	return Date{jdn: jdn}
}

// AddYears is AddYearsAndMonths(d, n, 0, conv).
func (d Date) AddYears(n int, conv DayConvention) Date {
	return d.AddYearsAndMonths(n, 0, conv)
}

// AgeMode selects the tie-breaking rule attained age uses near the
// midpoint between two anniversaries.
type AgeMode int

const (
	// LastBirthday: age is the number of completed birthdays.
	LastBirthday AgeMode = iota
	// NearestTiesOlder: age rounds to the nearest birthday; an exact tie
	// (180/180 days, for a 360-day notional year — here computed as an
	// exact half-year) rounds up (older).
	NearestTiesOlder
	// NearestTiesYounger: as NearestTiesOlder, but a tie rounds down
	// (younger).
	NearestTiesYounger
)

// AttainedAge returns the insured's age as of asOf, per mode. Fails if
// asOf is before birthdate.
func AttainedAge(birthdate, asOf Date, mode AgeMode) (int, error) {
	if asOf.Before(birthdate) {
		return 0, fmt.Errorf("calendar: as-of date %s precedes birthdate %s", asOf, birthdate)
	}
	lastBirthday := 0
	for birthdate.AddYears(lastBirthday+1, Anniversary).BeforeOrEqual(asOf) {
		lastBirthday++
	}
	ageLast := lastBirthday

	if mode == LastBirthday {
		return ageLast, nil
	}

	priorAnniv := birthdate.AddYears(ageLast, Anniversary)
	nextAnniv := birthdate.AddYears(ageLast+1, Anniversary)
	daysSincePrior := asOf.Sub(priorAnniv)
	daysToNext := nextAnniv.Sub(asOf)

	switch {
	case daysSincePrior > daysToNext:
		return ageLast + 1, nil
	case daysSincePrior < daysToNext:
		return ageLast, nil
	default: // exact tie
		if mode == NearestTiesOlder {
			return ageLast + 1, nil
		}
		return ageLast, nil
	}
}

// MinMaxBirthdate finds the earliest and latest birthdates consistent with
// a given attained age as of a given date, under the given mode, via a
// bounded iterative search over notional birth JDNs. Used to support
// inforce reconstructions that are only given an age, not a birthdate.
func MinMaxBirthdate(age int, asOf Date, mode AgeMode) (min, max Date, err error) {
	if age < 0 {
		return Date{}, Date{}, fmt.Errorf("calendar: negative age %d", age)
	}
	// An insured of attained age A as of asOf was born at the earliest on
	// the day that makes them exactly A+1 one day from now (i.e. as old as
	// possible without being A+1), and at the latest on the day that makes
	// them exactly A as of asOf with zero slack. Search by bisection on
	// candidate birth JDNs in a bounded window.
	lo := asOf.AddYears(-(age + 2), Curtate)
	hi := asOf
	ageAt := func(candidate Date) (int, error) {
		return AttainedAge(candidate, asOf, mode)
	}

	// ageAt is non-increasing in jdn (a later birth date means a younger
	// attained age as of a fixed asOf). Two bisections locate the boundaries
	// of the contiguous window where ageAt(candidate) == age.

	// Find max birthdate: largest jdn with ageAt(jdn) >= age (the window's
	// upper edge, since ageAt(jdn) < age for every jdn past it).
	loJ, hiJ := lo.jdn, hi.jdn
	for loJ < hiJ {
		mid := loJ + (hiJ-loJ+1)/2
		cand := Date{jdn: mid}
		a, e := ageAt(cand)
		if e == nil && a >= age {
			loJ = mid
		} else {
			hiJ = mid - 1
		}
	}
	maxBirth := Date{jdn: loJ}

	// Find min birthdate: smallest jdn with ageAt(jdn) <= age (the window's
	// lower edge, since ageAt(jdn) > age for every jdn before it).
	loJ2, hiJ2 := lo.jdn, hi.jdn
	for loJ2 < hiJ2 {
		mid := loJ2 + (hiJ2-loJ2)/2
		cand := Date{jdn: mid}
		a, e := ageAt(cand)
		if e == nil && a <= age {
			hiJ2 = mid
		} else {
			loJ2 = mid + 1
		}
	}
	minBirth := Date{jdn: loJ2}

	if a, e := ageAt(minBirth); e != nil || a != age {
		return Date{}, Date{}, fmt.Errorf("calendar: no birthdate consistent with age %d as of %s", age, asOf)
	}
	return minBirth, maxBirth, nil
}
