package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/billr/internal/currency"
	"github.com/sadopc/billr/internal/dashboard"
)

// barSlot is the number of columns one daily bar needs to stay readable.
const barSlot = 4

var surfaceTitles = map[string]string{
	dashboard.SurfaceDailyHours:   "Daily Hours",
	dashboard.SurfaceDailyRevenue: "Daily Revenue",
	dashboard.SurfaceClient:       "Revenue by Client",
	dashboard.SurfaceProject:      "Hours by Project",
	dashboard.SurfaceWeekday:      "Hours by Weekday",
	dashboard.SurfaceMonthly:      "Monthly Overview",
}

type textField struct{ text string }

func (f *textField) SetText(s string) { f.text = s }

// chartSurface is a fixed-size box on the dashboard holding either a drawn
// chart or a placeholder message.
type chartSurface struct {
	id     string
	title  string
	width  int
	height int

	body        string
	placeholder string
}

func (s *chartSurface) ID() string { return s.id }

func (s *chartSurface) DrawPlaceholder(msg string) {
	s.body = ""
	s.placeholder = msg
}

func (s *chartSurface) view() string {
	inner := s.body
	if inner == "" {
		msg := s.placeholder
		if msg == "" {
			msg = dashboard.NoDataText
		}
		inner = placeholderStyle.Width(s.width).Height(s.height).Render(msg)
	}
	return chartBoxStyle.Width(s.width + 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, subtitleStyle.Render(s.title), inner),
	)
}

// dashboardPage holds every display target of the dashboard view.
type dashboardPage struct {
	fields   map[string]*textField
	surfaces map[string]*chartSurface
}

func newDashboardPage() *dashboardPage {
	p := &dashboardPage{
		fields:   make(map[string]*textField),
		surfaces: make(map[string]*chartSurface),
	}
	for _, id := range dashboard.FieldIDs {
		p.fields[id] = &textField{}
	}
	for _, id := range currency.FieldIDs {
		p.fields[id] = &textField{}
	}
	for _, id := range dashboard.SurfaceIDs {
		p.surfaces[id] = &chartSurface{id: id, title: surfaceTitles[id], width: 30, height: 8}
	}
	return p
}

func (p *dashboardPage) Field(id string) (dashboard.Field, bool) {
	f, ok := p.fields[id]
	if !ok {
		return nil, false
	}
	return f, true
}

func (p *dashboardPage) Surface(id string) (dashboard.Surface, bool) {
	s, ok := p.surfaces[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (p *dashboardPage) text(id string) string {
	if f, ok := p.fields[id]; ok {
		return f.text
	}
	return ""
}

// resize lays the surfaces out two per row across width columns.
func (p *dashboardPage) resize(width int) {
	w := width/2 - 6
	if w < 16 {
		w = 16
	}
	h := 8
	if width > 140 {
		h = 10
	}
	for _, s := range p.surfaces {
		s.width = w
		s.height = h
	}
}

type termChart struct {
	surface *chartSurface
}

func (c termChart) Destroy() {
	c.surface.body = ""
}

// chartBuilder draws chart configs into chartSurfaces using ntcharts and
// lipgloss.
type chartBuilder struct{}

func (chartBuilder) Build(s dashboard.Surface, cfg dashboard.ChartConfig) (dashboard.Chart, error) {
	cs, ok := s.(*chartSurface)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dashboard.ErrUnknownSurface, s.ID())
	}
	if len(cfg.Series) == 0 {
		return nil, errors.New("chart has no series")
	}

	w, h := max(cs.width, 10), max(cs.height, 4)
	var body string
	switch cfg.Kind {
	case dashboard.KindBar:
		lo, hi := window(cfg, w/barSlot)
		body = barView(cfg, cfg.Series[0], lo, hi, w, h)
	case dashboard.KindPie, dashboard.KindDoughnut:
		body = shareView(cfg, w, h)
	case dashboard.KindCombo:
		body = comboView(cfg, w, h)
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", cfg.Kind)
	}

	cs.body = body
	cs.placeholder = ""
	return termChart{surface: cs}, nil
}

func barView(cfg dashboard.ChartConfig, series dashboard.Series, lo, hi, w, h int) string {
	labels, values := slice(cfg.Labels, series.Values, lo, hi)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Color(0)))

	bars := make([]barchart.BarData, len(values))
	for i, v := range values {
		bars[i] = barchart.BarData{
			Label:  labels[i],
			Values: []barchart.BarValue{{Name: series.Name, Value: clean(v), Style: style}},
		}
	}

	chart := barchart.New(w, h)
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

// shareView renders pie and doughnut charts as proportional rows, one per
// slice, each labelled with its tooltip.
func shareView(cfg dashboard.ChartConfig, w, h int) string {
	values := cfg.Series[0].Values
	var total float64
	for _, v := range values {
		total += clean(v)
	}

	mark := "●"
	if cfg.Kind == dashboard.KindDoughnut {
		mark = "○"
	}
	barW := w / 3
	line := lipgloss.NewStyle().MaxWidth(w)

	var rows []string
	for i, v := range values {
		if len(rows) == h-1 && len(values) > h {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("+%d more", len(values)-i)))
			break
		}
		color := lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Color(i)))
		n := 0
		if total > 0 {
			n = int(math.Round(clean(v) / total * float64(barW)))
		}
		text := cfg.Labels[i]
		if cfg.Tooltip != nil {
			text = cfg.Tooltip(i)
		}
		bar := color.Render(strings.Repeat("█", n)) + mutedStyle.Render(strings.Repeat("░", barW-n))
		rows = append(rows, line.Render(fmt.Sprintf("%s %s %s", color.Render(mark), bar, text)))
	}
	return strings.Join(rows, "\n")
}

// comboView draws the bar series as a bar chart and the line series as a
// sparkline underneath, each on its own scale.
func comboView(cfg dashboard.ChartConfig, w, h int) string {
	var bars, trend *dashboard.Series
	for i := range cfg.Series {
		switch cfg.Series[i].Type {
		case dashboard.SeriesBar:
			bars = &cfg.Series[i]
		case dashboard.SeriesLine:
			trend = &cfg.Series[i]
		}
	}
	if bars == nil {
		bars = &cfg.Series[0]
	}

	lineH := 2
	barH := max(h-lineH-1, 2)
	lo, hi := window(cfg, w/barSlot)
	parts := []string{barView(cfg, *bars, lo, hi, w, barH)}

	legend := lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Color(0))).Render("█ " + bars.Name)
	if trend != nil {
		_, values := slice(cfg.Labels, trend.Values, lo, hi)
		spark := sparkline.New(w, lineH)
		spark.PushAll(cleanAll(values))
		spark.Draw()
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Color(1))).Render(spark.View()))
		legend += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Color(1))).Render("▁▃▅ "+trend.Name)
	}
	parts = append(parts, legend)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// window picks the [lo, hi) range of at most n points to draw. It ends at
// the last point that is non-zero in any series, or at the end of the data
// when every point is zero.
func window(cfg dashboard.ChartConfig, n int) (lo, hi int) {
	if n < 1 {
		n = 1
	}
	size := len(cfg.Labels)
	last := -1
	for _, series := range cfg.Series {
		size = max(size, len(series.Values))
		for i := len(series.Values) - 1; i > last; i-- {
			if clean(series.Values[i]) != 0 {
				last = i
				break
			}
		}
	}

	hi = size
	if last >= 0 {
		hi = min(max(last+1, n), size)
	}
	return max(hi-n, 0), hi
}

// slice returns the labels and values in [lo, hi). Missing points are
// padded with empty labels and zero values.
func slice(labels []string, values []float64, lo, hi int) ([]string, []float64) {
	outL := make([]string, 0, hi-lo)
	outV := make([]float64, 0, hi-lo)
	for i := lo; i < hi; i++ {
		l, v := "", 0.0
		if i < len(labels) {
			l = labels[i]
		}
		if i < len(values) {
			v = values[i]
		}
		outL = append(outL, l)
		outV = append(outV, v)
	}
	return outL, outV
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func cleanAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = clean(v)
	}
	return out
}
