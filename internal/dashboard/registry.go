package dashboard

import (
	"errors"
	"fmt"
)

// NoDataText is drawn on every surface when there are no entries.
const NoDataText = "No data available"

// ChartUnavailableText is drawn on a surface whose chart could not be built.
const ChartUnavailableText = "Chart unavailable"

var ErrUnknownSurface = errors.New("unknown surface")

// Chart is a live chart bound to a surface.
type Chart interface {
	Destroy()
}

// ChartBuilder constructs a chart on a surface.
type ChartBuilder interface {
	Build(s Surface, cfg ChartConfig) (Chart, error)
}

// Surface is a rendering target that hosts at most one live chart.
type Surface interface {
	ID() string
	// DrawPlaceholder clears the surface and draws msg centered on it.
	DrawPlaceholder(msg string)
}

// Registry tracks the live chart per surface.
type Registry struct {
	builder ChartBuilder
	charts  map[string]Chart
}

func NewRegistry(b ChartBuilder) *Registry {
	return &Registry{builder: b, charts: make(map[string]Chart)}
}

// Replace destroys the chart bound to s, if any, and builds a new one from
// cfg. When the build fails or panics the surface shows a placeholder and
// holds no chart.
func (r *Registry) Replace(s Surface, cfg ChartConfig) (err error) {
	r.destroy(s.ID())
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("build %s chart on %s: panic: %v", cfg.Kind, s.ID(), p)
		}
		if err != nil {
			s.DrawPlaceholder(ChartUnavailableText)
		}
	}()

	c, err := r.builder.Build(s, cfg)
	if err != nil {
		return fmt.Errorf("build %s chart on %s: %w", cfg.Kind, s.ID(), err)
	}
	r.charts[s.ID()] = c
	return nil
}

// Clear destroys the chart bound to s and draws the no-data placeholder.
func (r *Registry) Clear(s Surface) {
	r.destroy(s.ID())
	s.DrawPlaceholder(NoDataText)
}

// Live reports whether a chart is bound to the surface id.
func (r *Registry) Live(id string) bool {
	_, ok := r.charts[id]
	return ok
}

// Len is the number of live charts.
func (r *Registry) Len() int { return len(r.charts) }

func (r *Registry) destroy(id string) {
	if c, ok := r.charts[id]; ok {
		c.Destroy()
		delete(r.charts, id)
	}
}
