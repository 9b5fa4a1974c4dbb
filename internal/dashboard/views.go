// Package dashboard turns time entries and expenses into the figures and
// chart series shown on the dashboard.
//
// A refresh runs three stages in order: the filter resolver turns the
// selected range into an Interval, Aggregate derives Views from the records,
// and the Renderer pushes those views into a Page.
package dashboard

import "time"

const (
	NoClient  = "No Client"
	NoProject = "No Project"
)

// Interval is an inclusive date range. To carries end-of-day granularity.
type Interval struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside the interval.
func (iv Interval) Contains(d time.Time) bool {
	return !d.Before(iv.From) && !d.After(iv.To)
}

// Days returns the number of calendar days covered, counting both ends.
// It is 0 when To precedes From.
func (iv Interval) Days() int {
	from := civil(iv.From)
	to := civil(iv.To)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// civil maps t onto a UTC midnight with the same calendar date so that
// day arithmetic is immune to DST transitions.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Summary struct {
	TotalHours       float64
	TotalRevenue     float64
	TotalExpenses    float64
	NetIncome        float64
	AvgWeeklyHours   float64
	AvgWeeklyRevenue float64
	AvgHourlyRate    float64
	TrackedDays      int
}

// Point is one labelled bucket of a series view.
type Point struct {
	Label   string
	Key     string // date, client, project, weekday or YYYY-MM
	Hours   float64
	Revenue float64
}

// Views is everything derived for one refresh.
type Views struct {
	Interval  Interval
	Summary   Summary
	Daily     []Point
	ByClient  []Point
	ByProject []Point
	ByWeekday []Point
	ByMonth   []Point

	// NoData is set when the raw entry collection was empty.
	NoData bool
}
