package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/billr/internal/store"
)

func newTestPipeline(page Page, b ChartBuilder, n Notifier) *Pipeline {
	r := NewRenderer(page, NewRegistry(b), NewFormatter("USD"))
	return NewPipeline(r, WithNotifier(n), WithClock(func() time.Time { return fixedNow }))
}

func TestPipelineRefresh(t *testing.T) {
	page := fullPage()
	n := &recordingNotifier{}
	p := newTestPipeline(page, &fakeBuilder{}, n)

	v, err := p.Refresh(sampleEntries(), nil, DefaultFilter())
	if err != nil {
		t.Fatal(err)
	}
	if v.Summary.TotalHours != 5 {
		t.Fatalf("total hours = %v, want 5", v.Summary.TotalHours)
	}
	if page.text(FieldTotalRevenue) != "$500.00" {
		t.Fatalf("revenue field = %q", page.text(FieldTotalRevenue))
	}
	if len(n.got) != 0 {
		t.Fatalf("unexpected notifications: %+v", n.got)
	}
}

func TestPipelineRefreshTwiceIsStable(t *testing.T) {
	page := fullPage()
	p := newTestPipeline(page, &fakeBuilder{}, &recordingNotifier{})

	a, _ := p.Refresh(mixedEntries(), nil, DefaultFilter())
	first := page.text(FieldTotalRevenue)
	b, _ := p.Refresh(mixedEntries(), nil, DefaultFilter())

	if page.text(FieldTotalRevenue) != first {
		t.Fatal("scalar output changed between identical refreshes")
	}
	if a.Summary != b.Summary || len(a.Daily) != len(b.Daily) {
		t.Fatal("views changed between identical refreshes")
	}
}

func TestPipelineRecoversPanic(t *testing.T) {
	n := &recordingNotifier{}
	page := fullPage()
	page.fields[FieldTotalHours].panics = true
	p := newTestPipeline(page, &fakeBuilder{}, n)

	_, err := p.Refresh(sampleEntries(), nil, DefaultFilter())
	if err == nil {
		t.Fatal("expected error after panic")
	}
	if len(n.got) != 1 {
		t.Fatalf("notifications = %d, want exactly 1", len(n.got))
	}
	if n.got[0].msg != RefreshFailedText || n.got[0].sev != SeverityError {
		t.Fatalf("notification = %+v", n.got[0])
	}

	// The lock is released after a panic.
	page.fields[FieldTotalHours].panics = false
	if _, err := p.Refresh(nil, nil, DefaultFilter()); err != nil {
		t.Fatalf("refresh after panic: %v", err)
	}
}

func TestPipelineChartPanicLeavesPlaceholders(t *testing.T) {
	n := &recordingNotifier{}
	page := fullPage()
	b := &fakeBuilder{}
	p := newTestPipeline(page, b, n)

	if _, err := p.Refresh(sampleEntries(), nil, DefaultFilter()); err != nil {
		t.Fatal(err)
	}

	b.panics = true
	if _, err := p.Refresh(sampleEntries(), nil, DefaultFilter()); err == nil {
		t.Fatal("expected error after chart panic")
	}
	if len(n.got) != 1 || n.got[0].msg != RefreshFailedText {
		t.Fatalf("notifications = %+v", n.got)
	}
	for _, id := range SurfaceIDs {
		s := page.surfaces[id]
		if s.chart == nil && s.placeholder == "" {
			t.Errorf("surface %s has neither a chart nor a placeholder", id)
		}
		if s.placeholder != ChartUnavailableText {
			t.Errorf("surface %s placeholder = %q, want %q", id, s.placeholder, ChartUnavailableText)
		}
	}
	for _, c := range b.built {
		if !c.destroyed {
			t.Errorf("chart on %s was not destroyed", c.surface.id)
		}
	}
}

func TestPipelineChartFailureNotifies(t *testing.T) {
	n := &recordingNotifier{}
	p := newTestPipeline(fullPage(), &fakeBuilder{fail: map[string]bool{SurfaceWeekday: true}}, n)

	if _, err := p.Refresh(sampleEntries(), nil, DefaultFilter()); err == nil {
		t.Fatal("expected error")
	}
	if len(n.got) != 1 || n.got[0].msg != RefreshFailedText {
		t.Fatalf("notifications = %+v", n.got)
	}
}

func TestPipelineDropsConcurrentRefresh(t *testing.T) {
	p := newTestPipeline(fullPage(), &fakeBuilder{}, &recordingNotifier{})

	p.mu.Lock()
	_, err := p.Refresh(sampleEntries(), nil, DefaultFilter())
	p.mu.Unlock()

	if !errors.Is(err, ErrRefreshBusy) {
		t.Fatalf("err = %v, want ErrRefreshBusy", err)
	}
}

func TestPipelineInvalidCustomRange(t *testing.T) {
	n := &recordingNotifier{}
	p := newTestPipeline(fullPage(), &fakeBuilder{}, n)

	f := DefaultFilter()
	f.Range = RangeCustom
	f.CustomFrom = "not a date"

	v, err := p.Refresh(sampleEntries(), nil, f)
	if err != nil {
		t.Fatal(err)
	}
	if v.Interval != AllTime(fixedNow.Location()) {
		t.Fatalf("interval = %+v, want all time", v.Interval)
	}
	if len(n.got) != 1 || n.got[0].sev != SeverityWarning {
		t.Fatalf("notifications = %+v", n.got)
	}
}

func TestPipelineClientFilter(t *testing.T) {
	page := fullPage()
	p := newTestPipeline(page, &fakeBuilder{}, &recordingNotifier{})

	f := DefaultFilter()
	f.Client = "Beta"
	v, err := p.Refresh(sampleEntries(), []store.Expense{expense("2024-01-02", "Acme", "X", 10)}, f)
	if err != nil {
		t.Fatal(err)
	}
	if v.Summary != (Summary{}) {
		t.Fatalf("summary = %+v, want zero", v.Summary)
	}
	if page.text(FieldTotalHours) != "0.00" {
		t.Fatalf("hours field = %q", page.text(FieldTotalHours))
	}
}
