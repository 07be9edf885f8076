package core

import (
	"testing"
	"time"
)

func TestPeriodWindow(t *testing.T) {
	// Wednesday, 15 May 2024, 14:30 UTC
	now := time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		period   Period
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "daily covers today",
			period:   Daily,
			wantFrom: time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, time.May, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly starts on Monday",
			period:   Weekly,
			wantFrom: time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly covers calendar month",
			period:   Monthly,
			wantFrom: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "yearly covers calendar year",
			period:   Yearly,
			wantFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := PeriodWindow(tt.period, now, 0)
			if w.From != tt.wantFrom.UnixMilli() {
				t.Errorf("From = %d, want %d", w.From, tt.wantFrom.UnixMilli())
			}
			// To is the last inclusive millisecond before the next period
			if w.To != tt.wantTo.UnixMilli()-1 {
				t.Errorf("To = %d, want %d", w.To, tt.wantTo.UnixMilli()-1)
			}
			if !w.Contains(now.UnixMilli()) {
				t.Error("window should contain now")
			}
		})
	}
}

func TestPeriodWindow_WeeklyOnMonday(t *testing.T) {
	// A Monday must be the first day of its own weekly window
	monday := time.Date(2024, time.May, 13, 8, 0, 0, 0, time.UTC)
	w := PeriodWindow(Weekly, monday, 0)
	wantFrom := time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC).UnixMilli()
	if w.From != wantFrom {
		t.Errorf("From = %d, want %d", w.From, wantFrom)
	}
}

func TestPeriodWindow_UnrecognizedFallsBackToStartDate(t *testing.T) {
	now := time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)
	start := int64(1_600_000_000_000)

	w := PeriodWindow("quarterly", now, start)
	if w.From != start {
		t.Errorf("From = %d, want fallback start %d", w.From, start)
	}
	if w.To != now.UnixMilli() {
		t.Errorf("To = %d, want now %d", w.To, now.UnixMilli())
	}
}

func TestWindow_ContainsInclusiveBounds(t *testing.T) {
	w := Window{From: 100, To: 200}
	for _, tc := range []struct {
		ts   int64
		want bool
	}{
		{99, false}, {100, true}, {150, true}, {200, true}, {201, false},
	} {
		if got := w.Contains(tc.ts); got != tc.want {
			t.Errorf("Contains(%d) = %v, want %v", tc.ts, got, tc.want)
		}
	}
}
