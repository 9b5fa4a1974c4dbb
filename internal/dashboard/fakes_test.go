package dashboard

import "errors"

type fakeField struct {
	text   string
	panics bool
}

func (f *fakeField) SetText(s string) {
	if f.panics {
		panic("field write exploded")
	}
	f.text = s
}

type fakeSurface struct {
	id          string
	placeholder string
	chart       *fakeChart
}

func (s *fakeSurface) ID() string { return s.id }

func (s *fakeSurface) DrawPlaceholder(msg string) {
	s.placeholder = msg
	s.chart = nil
}

type fakeChart struct {
	surface   *fakeSurface
	cfg       ChartConfig
	destroyed bool
	events    *[]string
}

func (c *fakeChart) Destroy() {
	c.destroyed = true
	if c.surface.chart == c {
		c.surface.chart = nil
	}
	*c.events = append(*c.events, "destroy:"+c.surface.id)
}

type fakeBuilder struct {
	events []string
	built  []*fakeChart
	fail   map[string]bool
	panics bool
}

func (b *fakeBuilder) Build(s Surface, cfg ChartConfig) (Chart, error) {
	if b.panics {
		panic("chart library exploded")
	}
	if b.fail[s.ID()] {
		return nil, errors.New("boom")
	}
	fs := s.(*fakeSurface)
	c := &fakeChart{surface: fs, cfg: cfg, events: &b.events}
	fs.chart = c
	fs.placeholder = ""
	b.built = append(b.built, c)
	b.events = append(b.events, "build:"+s.ID())
	return c, nil
}

type fakePage struct {
	fields   map[string]*fakeField
	surfaces map[string]*fakeSurface
}

func newFakePage(fields, surfaces []string) *fakePage {
	p := &fakePage{fields: map[string]*fakeField{}, surfaces: map[string]*fakeSurface{}}
	for _, id := range fields {
		p.fields[id] = &fakeField{}
	}
	for _, id := range surfaces {
		p.surfaces[id] = &fakeSurface{id: id}
	}
	return p
}

func fullPage() *fakePage { return newFakePage(FieldIDs, SurfaceIDs) }

func (p *fakePage) Field(id string) (Field, bool) {
	f, ok := p.fields[id]
	if !ok {
		return nil, false
	}
	return f, true
}

func (p *fakePage) Surface(id string) (Surface, bool) {
	s, ok := p.surfaces[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (p *fakePage) text(id string) string { return p.fields[id].text }

type notification struct {
	msg string
	sev Severity
}

type recordingNotifier struct{ got []notification }

func (n *recordingNotifier) Notify(msg string, sev Severity) {
	n.got = append(n.got, notification{msg, sev})
}
