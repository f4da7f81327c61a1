package core

import "time"

// Window is an inclusive [From, To] date range bounding report queries.
type Window struct {
	From time.Time `json:"period_start"`
	To   time.Time `json:"period_end"`
}

// CurrentMonth returns the default report window: first day of now's month
// through the end of its last day, in UTC.
func CurrentMonth(now time.Time) Window {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	return Window{From: from, To: to}
}

// AllTimeThrough returns the default window for the project report: a fixed
// far-past lower bound through now.
func AllTimeThrough(now time.Time) Window {
	return Window{
		From: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   now.UTC(),
	}
}

// MonthKey buckets a timestamp into its calendar month, "YYYY-MM".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
