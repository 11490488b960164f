package timeutil

import (
	"testing"
	"time"
)

func TestDateTimeToInstantUsesWallClock(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	got := DateTimeToInstant(date, 9*60+30, loc)
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("unexpected instant: got %v want %v", got, want)
	}
}

func TestDateTimeToInstantIgnoresStoredOffset(t *testing.T) {
	date := time.Date(2026, 3, 14, 17, 45, 0, 0, time.UTC)

	got := DateTimeToInstant(date, 60, time.UTC)
	want := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected instant: got %v want %v", got, want)
	}
}

func TestDateTimeToInstantNegativeOffsetKeepsDay(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	date := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	got := DateTimeToInstant(date, 0, loc)
	if day := InstantToCalendarDate(got, loc); day != (Date{2026, time.July, 1}) {
		t.Fatalf("expected July 1 in local zone, got %s", day)
	}
}

func TestRoundTripConversion(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC+14", 14*60*60),
		time.FixedZone("UTC-11", -11*60*60),
	}
	days := []Date{
		{2026, time.January, 1},
		{2026, time.February, 28},
		{2028, time.February, 29},
		{2026, time.December, 31},
	}
	for _, loc := range zones {
		for _, day := range days {
			for minutes := 0; minutes < MinutesPerDay; minutes += 37 {
				instant := DateTimeToInstant(CalendarDateToInstant(day), minutes, loc)
				if got := InstantToCalendarDate(instant, loc); got != day {
					t.Fatalf("%s %s +%d: round trip gave %s", loc, day, minutes, got)
				}
			}
			if got := StoredDate(CalendarDateToInstant(day)); got != day {
				t.Fatalf("stored date round trip: got %s want %s", got, day)
			}
		}
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2026, 5, 10, 1, 0, 0, 0, loc)

	got := StartOfDay(now, loc)
	want := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected start of day: got %v want %v", got, want)
	}
}

func TestParseMinutes(t *testing.T) {
	got, err := ParseMinutes("07:05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != 425 {
		t.Fatalf("expected 425, got %d", got)
	}
	if FormatMinutes(got) != "07:05" {
		t.Fatalf("unexpected format: %s", FormatMinutes(got))
	}
	if _, err := ParseMinutes("25:00"); err == nil {
		t.Fatal("expected error for 25:00")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-18")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != (Date{2026, time.October, 18}) {
		t.Fatalf("unexpected date: %s", d)
	}
	if !d.Before(Date{2026, time.October, 19}) {
		t.Fatal("expected Oct 18 before Oct 19")
	}
	if _, err := ParseDate("18.10.2026"); err == nil {
		t.Fatal("expected error")
	}
}
