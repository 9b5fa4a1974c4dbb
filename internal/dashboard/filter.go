package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Range options accepted by ResolveInterval.
const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeThisWeek  = "this-week"
	RangeLastWeek  = "last-week"
	RangeThisMonth = "this-month"
	RangeLastMonth = "last-month"
	RangeThisYear  = "this-year"
	RangeCustom    = "custom"
	RangeAll       = "all"
)

// RangeOptions lists the selectable ranges in display order.
var RangeOptions = []string{
	RangeToday, RangeYesterday, RangeThisWeek, RangeLastWeek,
	RangeThisMonth, RangeLastMonth, RangeThisYear, RangeAll, RangeCustom,
}

// AllSelection matches every client or project.
const AllSelection = "all"

// DateLayout is the accepted format for custom bounds.
const DateLayout = "2006-01-02"

var ErrInvalidCustomRange = errors.New("invalid custom range")

// ResolveInterval turns a range option into a concrete interval relative to
// now. Unknown options resolve to all time. For RangeCustom with missing or
// unparseable bounds the all-time interval is returned together with
// ErrInvalidCustomRange; the interval is usable either way.
func ResolveInterval(option, customFrom, customTo string, now time.Time) (Interval, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch option {
	case RangeToday:
		return Interval{From: today, To: endOfDay(today)}, nil
	case RangeYesterday:
		y := today.AddDate(0, 0, -1)
		return Interval{From: y, To: endOfDay(y)}, nil
	case RangeThisWeek:
		sunday := today.AddDate(0, 0, -int(today.Weekday()))
		return Interval{From: sunday, To: endOfDay(today)}, nil
	case RangeLastWeek:
		sunday := today.AddDate(0, 0, -int(today.Weekday())-7)
		return Interval{From: sunday, To: endOfDay(sunday.AddDate(0, 0, 6))}, nil
	case RangeThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		return Interval{From: first, To: endOfDay(today)}, nil
	case RangeLastMonth:
		first := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, loc)
		last := time.Date(today.Year(), today.Month(), 0, 0, 0, 0, 0, loc)
		return Interval{From: first, To: endOfDay(last)}, nil
	case RangeThisYear:
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return Interval{From: first, To: endOfDay(today)}, nil
	case RangeCustom:
		return resolveCustom(customFrom, customTo, loc)
	default:
		return AllTime(loc), nil
	}
}

// AllTime is the interval used for "all" and as the fallback for bad input.
func AllTime(loc *time.Location) Interval {
	return Interval{
		From: time.Date(2000, time.January, 1, 0, 0, 0, 0, loc),
		To:   endOfDay(time.Date(2099, time.December, 31, 0, 0, 0, 0, loc)),
	}
}

func resolveCustom(from, to string, loc *time.Location) (Interval, error) {
	f, ferr := time.ParseInLocation(DateLayout, strings.TrimSpace(from), loc)
	t, terr := time.ParseInLocation(DateLayout, strings.TrimSpace(to), loc)
	if ferr != nil || terr != nil {
		return AllTime(loc), fmt.Errorf("%w: from=%q to=%q", ErrInvalidCustomRange, from, to)
	}
	if t.Before(f) {
		f, t = t, f
	}
	return Interval{From: f, To: endOfDay(t)}, nil
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}

// Predicate reports whether a record field value passes a filter.
type Predicate func(value string) bool

// EqualityFilter matches everything for AllSelection (or an empty
// selection), otherwise exact case-sensitive equality.
func EqualityFilter(selection string) Predicate {
	if selection == "" || selection == AllSelection {
		return func(string) bool { return true }
	}
	return func(v string) bool { return v == selection }
}
