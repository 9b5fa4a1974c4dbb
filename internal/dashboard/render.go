package dashboard

import (
	"errors"
	"fmt"
)

// Scalar display fields.
const (
	FieldTotalHours       = "total-hours"
	FieldTotalRevenue     = "total-revenue"
	FieldTotalExpenses    = "total-expenses"
	FieldNetIncome        = "net-income"
	FieldAvgWeeklyHours   = "avg-weekly-hours"
	FieldAvgWeeklyRevenue = "avg-weekly-revenue"
	FieldAvgHourlyRate    = "avg-hourly-rate"
	FieldTrackedDays      = "tracked-days"
)

// Chart surfaces.
const (
	SurfaceDailyHours   = "daily-hours"
	SurfaceDailyRevenue = "daily-revenue"
	SurfaceClient       = "client-chart"
	SurfaceProject      = "project-chart"
	SurfaceWeekday      = "weekday-chart"
	SurfaceMonthly      = "monthly-chart"
)

var (
	FieldIDs = []string{
		FieldTotalHours, FieldTotalRevenue, FieldTotalExpenses, FieldNetIncome,
		FieldAvgWeeklyHours, FieldAvgWeeklyRevenue, FieldAvgHourlyRate, FieldTrackedDays,
	}
	SurfaceIDs = []string{
		SurfaceDailyHours, SurfaceDailyRevenue, SurfaceClient,
		SurfaceProject, SurfaceWeekday, SurfaceMonthly,
	}
)

// Palette is cycled across categorical slices.
var Palette = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#9B59B6", "#3498DB"}

// Field is a scalar display target.
type Field interface {
	SetText(s string)
}

// Page exposes the display targets. A missing target is reported with ok
// false and the renderer skips it.
type Page interface {
	Field(id string) (Field, bool)
	Surface(id string) (Surface, bool)
}

type ChartKind string

const (
	KindBar      ChartKind = "bar"
	KindPie      ChartKind = "pie"
	KindDoughnut ChartKind = "doughnut"
	KindCombo    ChartKind = "combo"
)

type Axis int

const (
	AxisLeft Axis = iota
	AxisRight
)

type SeriesType int

const (
	SeriesBar SeriesType = iota
	SeriesLine
)

type Series struct {
	Name   string
	Values []float64
	Type   SeriesType
	Axis   Axis
}

// ChartConfig is what the chart collaborator receives.
type ChartConfig struct {
	Kind        ChartKind
	Title       string
	Labels      []string
	Series      []Series
	Palette     []string
	BeginAtZero bool
	// Tooltip describes the point at index i. It may be nil.
	Tooltip func(i int) string
}

// Color returns the palette colour for index i, cycling.
func (c ChartConfig) Color(i int) string {
	if len(c.Palette) == 0 {
		return Palette[i%len(Palette)]
	}
	return c.Palette[i%len(c.Palette)]
}

// Decorator runs after base rendering and may write additional fields.
type Decorator interface {
	Decorate(v Views, p Page)
}

type DecoratorFunc func(v Views, p Page)

func (f DecoratorFunc) Decorate(v Views, p Page) { f(v, p) }

// Renderer pushes views into a page.
type Renderer struct {
	page       Page
	registry   *Registry
	format     Formatter
	decorators []Decorator
}

func NewRenderer(p Page, reg *Registry, f Formatter, decorators ...Decorator) *Renderer {
	return &Renderer{page: p, registry: reg, format: f, decorators: decorators}
}

// SetDecorators replaces the decorator list.
func (r *Renderer) SetDecorators(d ...Decorator) {
	r.decorators = d
}

// Render writes every scalar field and rebuilds every chart. Chart build
// failures do not stop the remaining charts; they are joined into the
// returned error.
func (r *Renderer) Render(v Views) error {
	if v.NoData {
		r.renderEmpty()
		r.decorate(v)
		return nil
	}

	f := r.format
	s := v.Summary
	r.setField(FieldTotalHours, f.Hours(s.TotalHours))
	r.setField(FieldTotalRevenue, f.Money(s.TotalRevenue))
	r.setField(FieldTotalExpenses, f.Money(s.TotalExpenses))
	r.setField(FieldNetIncome, f.Money(s.NetIncome))
	r.setField(FieldAvgWeeklyHours, f.Hours(s.AvgWeeklyHours))
	r.setField(FieldAvgWeeklyRevenue, f.Money(s.AvgWeeklyRevenue))
	r.setField(FieldAvgHourlyRate, f.Money(s.AvgHourlyRate))
	r.setField(FieldTrackedDays, f.Count(s.TrackedDays))

	var errs []error
	for _, id := range SurfaceIDs {
		surface, ok := r.page.Surface(id)
		if !ok {
			continue
		}
		if err := r.registry.Replace(surface, r.chartConfig(id, v)); err != nil {
			errs = append(errs, err)
		}
	}
	r.decorate(v)
	return errors.Join(errs...)
}

func (r *Renderer) renderEmpty() {
	f := r.format
	for _, id := range FieldIDs {
		switch id {
		case FieldTotalHours, FieldAvgWeeklyHours:
			r.setField(id, f.Hours(0))
		case FieldTrackedDays:
			r.setField(id, f.Count(0))
		default:
			r.setField(id, f.Money(0))
		}
	}
	for _, id := range SurfaceIDs {
		if s, ok := r.page.Surface(id); ok {
			r.registry.Clear(s)
		}
	}
}

func (r *Renderer) decorate(v Views) {
	for _, d := range r.decorators {
		d.Decorate(v, r.page)
	}
}

func (r *Renderer) setField(id, text string) {
	if fld, ok := r.page.Field(id); ok {
		fld.SetText(text)
	}
}

func (r *Renderer) chartConfig(id string, v Views) ChartConfig {
	switch id {
	case SurfaceDailyHours:
		return barConfig("Daily Hours", v.Daily, "Hours", hoursOf, Palette[0])
	case SurfaceDailyRevenue:
		return barConfig("Daily Revenue", v.Daily, "Revenue", revenueOf, Palette[1])
	case SurfaceClient:
		return r.shareConfig(KindPie, "Revenue by Client", v.ByClient, "Revenue", revenueOf, r.format.Money)
	case SurfaceProject:
		return r.shareConfig(KindDoughnut, "Hours by Project", v.ByProject, "Hours", hoursOf, func(h float64) string {
			return r.format.Hours(h) + "h"
		})
	case SurfaceWeekday:
		return barConfig("Hours by Weekday", v.ByWeekday, "Hours", hoursOf, Palette[2])
	default:
		return ChartConfig{
			Kind:   KindCombo,
			Title:  "Monthly Overview",
			Labels: labelsOf(v.ByMonth),
			Series: []Series{
				{Name: "Hours", Values: valuesOf(v.ByMonth, hoursOf), Type: SeriesBar, Axis: AxisLeft},
				{Name: "Revenue", Values: valuesOf(v.ByMonth, revenueOf), Type: SeriesLine, Axis: AxisRight},
			},
			Palette:     []string{Palette[0], Palette[1]},
			BeginAtZero: true,
		}
	}
}

func barConfig(title string, pts []Point, name string, val func(Point) float64, color string) ChartConfig {
	return ChartConfig{
		Kind:        KindBar,
		Title:       title,
		Labels:      labelsOf(pts),
		Series:      []Series{{Name: name, Values: valuesOf(pts, val), Type: SeriesBar, Axis: AxisLeft}},
		Palette:     []string{color},
		BeginAtZero: true,
	}
}

func (r *Renderer) shareConfig(kind ChartKind, title string, pts []Point, name string, val func(Point) float64, format func(float64) string) ChartConfig {
	values := valuesOf(pts, val)
	var total float64
	for _, x := range values {
		total += x
	}
	labels := labelsOf(pts)
	return ChartConfig{
		Kind:    kind,
		Title:   title,
		Labels:  labels,
		Series:  []Series{{Name: name, Values: values}},
		Palette: Palette,
		Tooltip: func(i int) string {
			return fmt.Sprintf("%s: %s (%d%%)", labels[i], format(values[i]), Percent(values[i], total))
		},
	}
}

func hoursOf(p Point) float64   { return p.Hours }
func revenueOf(p Point) float64 { return p.Revenue }

func labelsOf(pts []Point) []string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = p.Label
	}
	return out
}

func valuesOf(pts []Point, val func(Point) float64) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = val(p)
	}
	return out
}
