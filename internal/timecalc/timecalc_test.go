package timecalc_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Tiliavir/timebook/internal/timecalc"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"02:45", 2.75},
		{"01:30", 1.5},
		{"00:00", 0},
		{"14:30", 14.5},
		{"30:15", 30.25},
	}
	for _, tt := range tests {
		got, err := timecalc.ParseClockTime(tt.input)
		if err != nil {
			t.Fatalf("ParseClockTime(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseClockTime(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseClockTimeRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "12", "1:2:3", "ab:30", "12:xx", "12.5"} {
		_, err := timecalc.ParseClockTime(input)
		var fe *timecalc.FormatError
		if !errors.As(err, &fe) {
			t.Errorf("ParseClockTime(%q) error = %v, want *FormatError", input, err)
		}
	}
}

func TestFormatFractionalHours(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{2.75, "02:45"},
		{0, "00:00"},
		{1.5, "01:30"},
		{0.33, "00:20"},
		{23.99, "23:59"},
		{25.5, "25:30"},
		{100.5, "100:30"},
	}
	for _, tt := range tests {
		got := timecalc.FormatFractionalHours(tt.input)
		if got != tt.want {
			t.Errorf("FormatFractionalHours(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClockRoundTrip(t *testing.T) {
	for h := 0; h < 48; h++ {
		for m := 0; m < 60; m++ {
			clock := fmt.Sprintf("%02d:%02d", h, m)
			f, err := timecalc.ParseClockTime(clock)
			if err != nil {
				t.Fatalf("ParseClockTime(%q): %v", clock, err)
			}
			if got := timecalc.FormatFractionalHours(f); got != clock {
				t.Fatalf("round trip %q -> %v -> %q", clock, f, got)
			}
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds   int64
		forceFull bool
		want      string
	}{
		{5400, false, "1h 30m"},
		{3600, false, "1 hour"},
		{7200, false, "2 hours"},
		{600, false, "10 minutes"},
		{60, false, "1 minute"},
		{0, false, "0h 0m"},
		{45, false, "0h 0m"},
		{3661, false, "1h 1m"},
		{5400, true, "1 hour 30 minutes"},
		{7260, true, "2 hours 1 minute"},
		{0, true, "0 hours 0 minutes"},
		{90000, false, "25 hours"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(time.Duration(tt.seconds)*time.Second, tt.forceFull)
		if got != tt.want {
			t.Errorf("FormatDuration(%d, %v) = %q, want %q", tt.seconds, tt.forceFull, got, tt.want)
		}
	}
}

func TestFormatTimedelta(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{90 * time.Minute, "1:30:00"},
		{0, "0:00:00"},
		{61 * time.Second, "0:01:01"},
		{26 * time.Hour, "1 day, 2:00:00"},
		{50 * time.Hour, "2 days, 2:00:00"},
		{-30 * time.Minute, "-1 day, 23:30:00"},
		{1500 * time.Millisecond, "0:00:01.500000"},
	}
	for _, tt := range tests {
		got := timecalc.FormatTimedelta(tt.d)
		if got != tt.want {
			t.Errorf("FormatTimedelta(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHoursToDuration(t *testing.T) {
	if got := timecalc.HoursToDuration(1.5); got != 90*time.Minute {
		t.Errorf("HoursToDuration(1.5) = %v, want 1h30m", got)
	}
	if got := timecalc.HoursToDuration(0.33); got != 20*time.Minute {
		t.Errorf("HoursToDuration(0.33) = %v, want 20m", got)
	}
	if got := timecalc.DurationToHours(45 * time.Minute); got != 0.75 {
		t.Errorf("DurationToHours(45m) = %v, want 0.75", got)
	}
}

func TestParseDateAndAt(t *testing.T) {
	day, err := timecalc.ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	at, err := timecalc.At(day, "09:05")
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	want := time.Date(2024, 1, 15, 9, 5, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Errorf("At = %v, want %v", at, want)
	}

	var fe *timecalc.FormatError
	if _, err := timecalc.ParseDate("2024-13-01"); !errors.As(err, &fe) {
		t.Errorf("ParseDate(bad) error = %v, want *FormatError", err)
	}
	if _, err := timecalc.At(day, "25:00"); !errors.As(err, &fe) {
		t.Errorf("At(25:00) error = %v, want *FormatError", err)
	}
}

func TestWall(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2024, 3, 1, 9, 30, 15, 999, loc)
	got := timecalc.Wall(in)
	want := time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("Wall = %v, want %v", got, want)
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, next := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantNext := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !next.Equal(wantNext) {
		t.Errorf("WeekRange end = %v, want %v", next, wantNext)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestSameDayAndNextDay(t *testing.T) {
	a := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 27, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	if !timecalc.SameDay(a, b) {
		t.Error("SameDay: expected same day for a and b")
	}
	if timecalc.SameDay(a, c) {
		t.Error("SameDay: expected different day for a and c")
	}
	if !timecalc.NextDay(a).Equal(c) {
		t.Errorf("NextDay = %v, want %v", timecalc.NextDay(a), c)
	}
}
