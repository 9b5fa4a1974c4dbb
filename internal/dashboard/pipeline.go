package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sadopc/billr/internal/log"
	"github.com/sadopc/billr/internal/store"
)

var ErrRefreshBusy = errors.New("refresh already in progress")

// RefreshFailedText is the one message shown when a refresh fails.
const RefreshFailedText = "Error updating dashboard"

// FilterState is the current value of every filter control.
type FilterState struct {
	Range      string
	CustomFrom string
	CustomTo   string
	Client     string
	Project    string
}

// DefaultFilter shows the current month across all clients and projects.
func DefaultFilter() FilterState {
	return FilterState{Range: RangeThisMonth, Client: AllSelection, Project: AllSelection}
}

// Pipeline runs resolve, aggregate and render for one refresh. Refreshes are
// serialized; one arriving while another runs is dropped.
type Pipeline struct {
	renderer *Renderer
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time

	mu sync.Mutex
}

type Option func(*Pipeline)

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(r *Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{renderer: r, logger: log.Discard(), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	if p.notifier == nil {
		p.notifier = LogNotifier{Logger: p.logger}
	}
	return p
}

// Refresh recomputes and re-renders the dashboard from the given records.
// A panic during aggregation or rendering is recovered and reported through
// the notifier.
func (p *Pipeline) Refresh(entries []store.TimeEntry, expenses []store.Expense, f FilterState) (v Views, err error) {
	if !p.mu.TryLock() {
		p.logger.Debug("refresh dropped", "reason", ErrRefreshBusy)
		return Views{}, ErrRefreshBusy
	}
	defer p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh: %v", r)
			p.fail(err)
		}
	}()

	start := time.Now()
	iv, rerr := ResolveInterval(f.Range, f.CustomFrom, f.CustomTo, p.now())
	if rerr != nil {
		p.logger.Warn("custom range rejected, showing all time", "error", rerr)
		p.notifier.Notify("Invalid custom range, showing all time", SeverityWarning)
	}

	v = Aggregate(entries, expenses, iv, EqualityFilter(f.Client), EqualityFilter(f.Project))
	if err := p.renderer.Render(v); err != nil {
		p.fail(err)
		return v, err
	}

	p.logger.Debug("dashboard refreshed",
		"range", f.Range,
		"entries", len(entries),
		"expenses", len(expenses),
		"elapsed", time.Since(start),
	)
	return v, nil
}

func (p *Pipeline) fail(err error) {
	p.logger.Error("dashboard refresh failed", "error", err)
	p.notifier.Notify(RefreshFailedText, SeverityError)
}
