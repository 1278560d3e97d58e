package domain

import (
	"testing"
	"time"
)

func TestResolveDay_Aliases(t *testing.T) {
	cases := []struct {
		token string
		want  time.Weekday
	}{
		{"monday", time.Monday},
		{"Mon", time.Monday},
		{"  MONDAY  ", time.Monday},
		{"mandag", time.Monday},
		{"tirsdag", time.Tuesday},
		{"tue", time.Tuesday},
		{"onsdag", time.Wednesday},
		{"wed", time.Wednesday},
		{"torsdag", time.Thursday},
		{"thu", time.Thursday},
		{"fredag", time.Friday},
		{"Fri", time.Friday},
		{"lørdag", time.Saturday},
		{"lordag", time.Saturday},
		{"sat", time.Saturday},
		{"søndag", time.Sunday},
		{"sondag", time.Sunday},
		{"Sun", time.Sunday},
	}

	for _, tc := range cases {
		got, ok := ResolveDay(tc.token)
		if !ok {
			t.Errorf("ResolveDay(%q): expected a match", tc.token)
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveDay(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestResolveDay_SubstringFallback(t *testing.T) {
	// "tues" is not in the alias table but is contained in "tuesday".
	got, ok := ResolveDay("tues")
	if !ok || got != time.Tuesday {
		t.Errorf("ResolveDay(\"tues\") = %v, %v; want Tuesday, true", got, ok)
	}

	// "saturdays" contains "saturday".
	got, ok = ResolveDay("saturdays")
	if !ok || got != time.Saturday {
		t.Errorf("ResolveDay(\"saturdays\") = %v, %v; want Saturday, true", got, ok)
	}
}

func TestResolveDay_Unknown(t *testing.T) {
	for _, token := range []string{"", "   ", "xyzzy", "helgedag"} {
		if _, ok := ResolveDay(token); ok {
			t.Errorf("ResolveDay(%q): expected no match", token)
		}
	}
}

func TestResolveHours(t *testing.T) {
	schedule := []OperatingHours{
		{Day: "mandag", Open: "11:00", Close: "22:00"},
		{Day: "Tuesday", Open: "10:00", Close: "20:00"},
		{Day: "wed", Open: "09:00", Close: "21:00", Closed: true},
	}

	// 2025-06-02 is a Monday.
	monday := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	entry, ok := ResolveHours(schedule, monday)
	if !ok {
		t.Fatal("expected an entry for Monday")
	}
	if entry.Open != "11:00" || entry.Close != "22:00" {
		t.Errorf("unexpected Monday hours: %+v", entry)
	}

	wednesday := monday.AddDate(0, 0, 2)
	entry, ok = ResolveHours(schedule, wednesday)
	if !ok {
		t.Fatal("expected an entry for Wednesday")
	}
	if !entry.Closed {
		t.Error("expected Wednesday to be marked closed")
	}

	thursday := monday.AddDate(0, 0, 3)
	if _, ok := ResolveHours(schedule, thursday); ok {
		t.Error("expected no entry for Thursday")
	}

	if _, ok := ResolveHours(nil, monday); ok {
		t.Error("expected no entry for an empty schedule")
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"11:00", 660, false},
		{"23:59", 1439, false},
		{" 09:30 ", 570, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseClock(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
