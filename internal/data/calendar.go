package data

import (
	"time"
)

// Calendar holds the precomputed US market holiday set (NYSE/NASDAQ)
// for a span of years. Build one with ForYears and pass it by
// reference; the set is immutable after construction.
type Calendar struct {
	fromYear int
	toYear   int
	holidays map[time.Time]struct{}
}

// ForYear builds the holiday calendar for a single year.
func ForYear(year int) *Calendar {
	return ForYears(year, year)
}

// ForYears builds the holiday calendar covering [fromYear, toYear].
func ForYears(fromYear, toYear int) *Calendar {
	if toYear < fromYear {
		fromYear, toYear = toYear, fromYear
	}
	holidays := make(map[time.Time]struct{})
	for year := fromYear; year <= toYear; year++ {
		for _, d := range holidaysForYear(year) {
			holidays[d] = struct{}{}
		}
	}
	return &Calendar{fromYear: fromYear, toYear: toYear, holidays: holidays}
}

// Covers reports whether the calendar spans the given year.
func (c *Calendar) Covers(year int) bool {
	return year >= c.fromYear && year <= c.toYear
}

// IsHoliday reports whether the date is a weekend or market holiday.
func (c *Calendar) IsHoliday(date time.Time) bool {
	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return true
	}
	_, ok := c.holidays[civilDate(date)]
	return ok
}

// IsTradingDay reports whether the date is a weekday that is not a
// market holiday.
func (c *Calendar) IsTradingDay(date time.Time) bool {
	return !c.IsHoliday(date)
}

// NextTradingDay returns the first trading day after the date.
func (c *Calendar) NextTradingDay(date time.Time) time.Time {
	next := civilDate(date).AddDate(0, 0, 1)
	for c.IsHoliday(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PreviousTradingDay returns the last trading day before the date.
func (c *Calendar) PreviousTradingDay(date time.Time) time.Time {
	prev := civilDate(date).AddDate(0, 0, -1)
	for c.IsHoliday(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// Holidays returns the holiday dates for one covered year, unordered.
func (c *Calendar) Holidays(year int) []time.Time {
	var out []time.Time
	for d := range c.holidays {
		if d.Year() == year {
			out = append(out, d)
		}
	}
	return out
}

func holidaysForYear(year int) []time.Time {
	var holidays []time.Time

	// New Year's Day
	holidays = append(holidays, observed(date(year, time.January, 1)))

	// Martin Luther King Jr. Day: 3rd Monday in January
	holidays = append(holidays, nthWeekday(year, time.January, time.Monday, 3))

	// Presidents' Day: 3rd Monday in February
	holidays = append(holidays, nthWeekday(year, time.February, time.Monday, 3))

	// Good Friday: two days before Easter Sunday
	holidays = append(holidays, easterSunday(year).AddDate(0, 0, -2))

	// Memorial Day: last Monday in May
	holidays = append(holidays, lastWeekday(year, time.May, time.Monday))

	// Juneteenth, observed since 2021
	if year >= 2021 {
		holidays = append(holidays, observed(date(year, time.June, 19)))
	}

	// Independence Day
	holidays = append(holidays, observed(date(year, time.July, 4)))

	// Labor Day: 1st Monday in September
	holidays = append(holidays, nthWeekday(year, time.September, time.Monday, 1))

	// Thanksgiving: 4th Thursday in November
	holidays = append(holidays, nthWeekday(year, time.November, time.Thursday, 4))

	// Christmas Day
	holidays = append(holidays, observed(date(year, time.December, 25)))

	return holidays
}

// observed shifts a Saturday holiday to Friday and a Sunday holiday to
// Monday, per exchange rules.
func observed(holiday time.Time) time.Time {
	switch holiday.Weekday() {
	case time.Saturday:
		return holiday.AddDate(0, 0, -1)
	case time.Sunday:
		return holiday.AddDate(0, 0, 1)
	default:
		return holiday
	}
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// easterSunday computes Easter for a year using the Western Christian
// (Anonymous Gregorian) algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
