package dashboard

import (
	"sort"
	"time"

	"github.com/sadopc/billr/internal/store"
)

const (
	dayLabelLayout   = "Jan 2"
	monthLabelLayout = "Jan 2006"
	monthKeyLayout   = "2006-01"
)

// WeekdayLabels are the fixed weekday buckets, Sunday first.
var WeekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Aggregate filters entries and expenses and derives every dashboard view.
// It is a pure function of its arguments.
func Aggregate(entries []store.TimeEntry, expenses []store.Expense, iv Interval, client, project Predicate) Views {
	v := Views{Interval: iv, ByWeekday: weekdaySlots()}
	if len(entries) == 0 {
		v.NoData = true
		return v
	}

	keep := func(d time.Time, c, p string) bool {
		return iv.Contains(d) && client(orDefault(c, NoClient)) && project(orDefault(p, NoProject))
	}

	var filtered []store.TimeEntry
	for _, e := range entries {
		if keep(e.Date, e.Client, e.Project) {
			filtered = append(filtered, e)
		}
	}

	s := &v.Summary
	for _, x := range expenses {
		if keep(x.Date, x.Client, x.Project) {
			s.TotalExpenses += x.Amount
		}
	}

	days := make(map[string]struct{})
	for _, e := range filtered {
		s.TotalHours += e.Hours
		s.TotalRevenue += e.Amount
		days[e.Date.Format(DateLayout)] = struct{}{}
	}
	s.TrackedDays = len(days)
	s.NetIncome = s.TotalRevenue - s.TotalExpenses

	if weeks := float64(iv.Days()) / 7; weeks > 0 {
		s.AvgWeeklyHours = s.TotalHours / weeks
		s.AvgWeeklyRevenue = s.TotalRevenue / weeks
	}
	if s.TotalHours > 0 {
		s.AvgHourlyRate = s.TotalRevenue / s.TotalHours
	}

	v.Daily = dailySeries(filtered, iv)
	v.ByClient = groupByRevenue(filtered, func(e store.TimeEntry) string { return orDefault(e.Client, NoClient) })
	v.ByProject = groupByRevenue(filtered, func(e store.TimeEntry) string { return orDefault(e.Project, NoProject) })
	for _, e := range filtered {
		p := &v.ByWeekday[e.Date.Weekday()]
		p.Hours += e.Hours
		p.Revenue += e.Amount
	}
	v.ByMonth = monthlySeries(filtered)
	return v
}

func weekdaySlots() []Point {
	pts := make([]Point, 7)
	for i, l := range WeekdayLabels {
		pts[i] = Point{Label: l, Key: time.Weekday(i).String()}
	}
	return pts
}

// dailySeries zero-fills every day of the interval in calendar order.
func dailySeries(entries []store.TimeEntry, iv Interval) []Point {
	byDay := make(map[string]*Point)
	for _, e := range entries {
		k := e.Date.Format(DateLayout)
		p, ok := byDay[k]
		if !ok {
			p = &Point{}
			byDay[k] = p
		}
		p.Hours += e.Hours
		p.Revenue += e.Amount
	}

	n := iv.Days()
	if n == 0 {
		return nil
	}
	pts := make([]Point, 0, n)
	start := iv.From
	for i := 0; i < n; i++ {
		d := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, start.Location())
		k := d.Format(DateLayout)
		p := Point{Label: d.Format(dayLabelLayout), Key: k}
		if agg, ok := byDay[k]; ok {
			p.Hours, p.Revenue = agg.Hours, agg.Revenue
		}
		pts = append(pts, p)
	}
	return pts
}

// groupByRevenue buckets entries by key and orders groups by descending
// revenue. Ties keep first-seen order.
func groupByRevenue(entries []store.TimeEntry, key func(store.TimeEntry) string) []Point {
	idx := make(map[string]int)
	var pts []Point
	for _, e := range entries {
		k := key(e)
		i, ok := idx[k]
		if !ok {
			i = len(pts)
			idx[k] = i
			pts = append(pts, Point{Label: k, Key: k})
		}
		pts[i].Hours += e.Hours
		pts[i].Revenue += e.Amount
	}
	sort.SliceStable(pts, func(a, b int) bool { return pts[a].Revenue > pts[b].Revenue })
	return pts
}

func monthlySeries(entries []store.TimeEntry) []Point {
	byMonth := make(map[string]*Point)
	for _, e := range entries {
		k := e.Date.Format(monthKeyLayout)
		p, ok := byMonth[k]
		if !ok {
			p = &Point{Key: k, Label: e.Date.Format(monthLabelLayout)}
			byMonth[k] = p
		}
		p.Hours += e.Hours
		p.Revenue += e.Amount
	}

	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pts := make([]Point, 0, len(keys))
	for _, k := range keys {
		pts = append(pts, *byMonth[k])
	}
	return pts
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
