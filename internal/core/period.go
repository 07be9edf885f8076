package core

import "time"

// Window is an inclusive [From, To] range in epoch millis used to scope
// aggregation to the current day/week/month/year.
type Window struct {
	From int64
	To   int64
}

// Contains reports whether ts falls inside the window, both ends inclusive.
func (w Window) Contains(ts int64) bool {
	return ts >= w.From && ts <= w.To
}

// PeriodWindow computes the aggregation window for a budget period relative
// to now. Budgets always reflect the current period, not a snapshot at
// their start date; an unrecognized period falls back to [fallbackStart,
// now]. Weeks start on Monday.
func PeriodWindow(p Period, now time.Time, fallbackStart int64) Window {
	y, m, d := now.Date()
	loc := now.Location()

	switch p {
	case Daily:
		from := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return Window{From: from.UnixMilli(), To: endOf(from.AddDate(0, 0, 1))}
	case Weekly:
		offset := (int(now.Weekday()) + 6) % 7
		from := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -offset)
		return Window{From: from.UnixMilli(), To: endOf(from.AddDate(0, 0, 7))}
	case Monthly:
		from := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return Window{From: from.UnixMilli(), To: endOf(from.AddDate(0, 1, 0))}
	case Yearly:
		from := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return Window{From: from.UnixMilli(), To: endOf(from.AddDate(1, 0, 0))}
	default:
		return Window{From: fallbackStart, To: now.UnixMilli()}
	}
}

// endOf converts the exclusive start of the next period into the inclusive
// last millisecond of the current one.
func endOf(next time.Time) int64 {
	return next.UnixMilli() - 1
}
