package data

import (
	"testing"
	"time"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestCalendarKnownHolidays2024(t *testing.T) {
	cal := ForYear(2024)

	holidays := []string{
		"2024-01-01", // New Year's Day
		"2024-01-15", // MLK Day
		"2024-02-19", // Presidents' Day
		"2024-03-29", // Good Friday
		"2024-05-27", // Memorial Day
		"2024-06-19", // Juneteenth
		"2024-07-04", // Independence Day
		"2024-09-02", // Labor Day
		"2024-11-28", // Thanksgiving
		"2024-12-25", // Christmas
	}

	for _, h := range holidays {
		if !cal.IsHoliday(mustDay(t, h)) {
			t.Errorf("%s should be a holiday", h)
		}
	}

	if got := len(cal.Holidays(2024)); got != 10 {
		t.Errorf("2024 holiday count = %d, want 10", got)
	}
}

func TestCalendarWeekendsAreNotTradingDays(t *testing.T) {
	cal := ForYear(2024)

	if cal.IsTradingDay(mustDay(t, "2024-01-06")) { // Saturday
		t.Error("Saturday should not be a trading day")
	}
	if cal.IsTradingDay(mustDay(t, "2024-01-07")) { // Sunday
		t.Error("Sunday should not be a trading day")
	}
	if !cal.IsTradingDay(mustDay(t, "2024-01-08")) { // Monday
		t.Error("a regular Monday should be a trading day")
	}
}

func TestCalendarObservedRules(t *testing.T) {
	// July 4 2026 falls on a Saturday: observed Friday July 3.
	cal := ForYear(2026)
	if !cal.IsHoliday(mustDay(t, "2026-07-03")) {
		t.Error("2026-07-03 should be the observed Independence Day")
	}

	// Christmas 2021 falls on a Saturday: observed Friday December 24.
	cal = ForYear(2021)
	if !cal.IsHoliday(mustDay(t, "2021-12-24")) {
		t.Error("2021-12-24 should be the observed Christmas Day")
	}

	// New Year's Day 2023 falls on a Sunday: observed Monday January 2.
	cal = ForYear(2023)
	if !cal.IsHoliday(mustDay(t, "2023-01-02")) {
		t.Error("2023-01-02 should be the observed New Year's Day")
	}
}

func TestCalendarJuneteenthStartsIn2021(t *testing.T) {
	cal := ForYears(2020, 2021)

	if cal.IsHoliday(mustDay(t, "2020-06-19")) {
		t.Error("Juneteenth was not observed in 2020")
	}
	if !cal.IsHoliday(mustDay(t, "2021-06-18")) { // June 19 2021 is a Saturday
		t.Error("2021-06-18 should be the observed Juneteenth")
	}
}

func TestCalendarGoodFriday(t *testing.T) {
	tests := map[int]string{
		2023: "2023-04-07",
		2024: "2024-03-29",
		2025: "2025-04-18",
	}

	for year, want := range tests {
		cal := ForYear(year)
		if !cal.IsHoliday(mustDay(t, want)) {
			t.Errorf("%s should be Good Friday %d", want, year)
		}
	}
}

func TestCalendarNextAndPreviousTradingDay(t *testing.T) {
	cal := ForYear(2024)

	// Thursday 2024-03-28 is followed by Good Friday and a weekend.
	next := cal.NextTradingDay(mustDay(t, "2024-03-28"))
	if want := mustDay(t, "2024-04-01"); !next.Equal(want) {
		t.Errorf("NextTradingDay = %s, want %s", next, want)
	}

	prev := cal.PreviousTradingDay(mustDay(t, "2024-04-01"))
	if want := mustDay(t, "2024-03-28"); !prev.Equal(want) {
		t.Errorf("PreviousTradingDay = %s, want %s", prev, want)
	}
}

func TestCalendarCovers(t *testing.T) {
	cal := ForYears(2020, 2024)

	if !cal.Covers(2020) || !cal.Covers(2024) {
		t.Error("calendar should cover its span endpoints")
	}
	if cal.Covers(2019) || cal.Covers(2025) {
		t.Error("calendar should not cover years outside its span")
	}
}
