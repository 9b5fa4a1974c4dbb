package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/billr/internal/currency"
	"github.com/sadopc/billr/internal/dashboard"
	"github.com/sadopc/billr/internal/log"
	"github.com/sadopc/billr/internal/store"
)

const loadTimeout = 15 * time.Second

var rangeLabels = map[string]string{
	dashboard.RangeToday:     "Today",
	dashboard.RangeYesterday: "Yesterday",
	dashboard.RangeThisWeek:  "This week",
	dashboard.RangeLastWeek:  "Last week",
	dashboard.RangeThisMonth: "This month",
	dashboard.RangeLastMonth: "Last month",
	dashboard.RangeThisYear:  "This year",
	dashboard.RangeAll:       "All time",
	dashboard.RangeCustom:    "Custom range",
}

type statCard struct {
	label string
	field string
}

var statCards = []statCard{
	{"Hours", dashboard.FieldTotalHours},
	{"Revenue", dashboard.FieldTotalRevenue},
	{"Expenses", dashboard.FieldTotalExpenses},
	{"Net Income", dashboard.FieldNetIncome},
	{"Avg Hours / Week", dashboard.FieldAvgWeeklyHours},
	{"Avg Revenue / Week", dashboard.FieldAvgWeeklyRevenue},
	{"Avg Hourly Rate", dashboard.FieldAvgHourlyRate},
	{"Tracked Days", dashboard.FieldTrackedDays},
}

var fxCards = []statCard{
	{"Revenue", currency.FieldRevenue},
	{"Expenses", currency.FieldExpenses},
	{"Net Income", currency.FieldNetIncome},
	{"Avg Hourly Rate", currency.FieldAvgHourlyRate},
}

type dashboardModel struct {
	store  *store.Store
	conv   *currency.Converter
	logger *log.Logger
	width  int
	height int

	page     *dashboardPage
	pipeline *dashboard.Pipeline
	fx       *currency.Decorator
	notice   *statusMsg

	filter *dashboard.FilterState
	draft  *dashboard.FilterState

	entries  []store.TimeEntry
	expenses []store.Expense
	clients  []string
	projects []string
	views    dashboard.Views
	loaded   bool

	viewport   viewport.Model
	formActive bool
	form       *huh.Form
}

func newDashboardModel(s *store.Store, conv *currency.Converter, logger *log.Logger, base string) dashboardModel {
	if logger == nil {
		logger = log.Discard()
	}
	page := newDashboardPage()
	notice := &statusMsg{}

	var decorators []dashboard.Decorator
	var fx *currency.Decorator
	if conv != nil {
		fx = currency.NewDecorator(conv.Base(), conv.Target())
		fx.SetEnabled(false)
		decorators = append(decorators, fx)
	}

	renderer := dashboard.NewRenderer(page, dashboard.NewRegistry(chartBuilder{}), dashboard.NewFormatter(base), decorators...)
	pipeline := dashboard.NewPipeline(renderer,
		dashboard.WithLogger(logger),
		dashboard.WithNotifier(dashboard.NotifierFunc(func(msg string, sev dashboard.Severity) {
			notice.text = msg
			notice.isError = sev != dashboard.SeverityInfo
		})),
	)

	filter := dashboard.DefaultFilter()
	draft := filter

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Down:         key.NewBinding(key.WithKeys("down", "j")),
		Up:           key.NewBinding(key.WithKeys("up", "k")),
	}

	return dashboardModel{
		store:    s,
		conv:     conv,
		logger:   logger,
		page:     page,
		pipeline: pipeline,
		fx:       fx,
		notice:   notice,
		filter:   &filter,
		draft:    &draft,
		viewport: vp,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.page.resize(w - 4)
	d.viewport.Width = w
	d.viewport.Height = max(h-2, 3)
	if d.loaded {
		d.render()
	}
	d.syncContent()
}

type dashboardDataMsg struct {
	entries  []store.TimeEntry
	expenses []store.Expense
	clients  []string
	projects []string
	showFX   bool
	rate     float64
	err      error
}

// loadData fetches records, filter choices and the exchange rate
// concurrently.
func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var msg dashboardDataMsg
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			msg.entries, err = d.store.ListEntries(store.EntryFilter{})
			return err
		})
		g.Go(func() error {
			var err error
			msg.expenses, err = d.store.ListExpenses(store.EntryFilter{})
			return err
		})
		g.Go(func() error {
			var err error
			msg.clients, err = d.store.ListClients()
			return err
		})
		g.Go(func() error {
			var err error
			msg.projects, err = d.store.ListProjects()
			return err
		})
		g.Go(func() error {
			msg.showFX = d.conv != nil && d.store.ShowUSD()
			if msg.showFX {
				msg.rate = d.conv.Rate(ctx)
			}
			return nil
		})
		msg.err = g.Wait()
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			d.logger.Error("load dashboard data", "error", msg.err)
			return d, errStatus("Load dashboard", msg.err)
		}
		d.entries = msg.entries
		d.expenses = msg.expenses
		d.clients = msg.clients
		d.projects = msg.projects
		if d.fx != nil {
			d.fx.SetEnabled(msg.showFX)
			d.fx.SetRate(msg.rate)
		}
		d.render()
		d.loaded = true
		d.syncContent()
		return d, d.takeNotice()

	case recordsChangedMsg:
		return d, d.loadData()
	}

	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Refresh):
			return d, d.loadData()
		case key.Matches(msg, keys.Filter):
			return d.showFilter()
		}
	}

	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

func (d *dashboardModel) render() {
	v, err := d.pipeline.Refresh(d.entries, d.expenses, *d.filter)
	if errors.Is(err, dashboard.ErrRefreshBusy) {
		return
	}
	d.views = v
}

// takeNotice turns the last pipeline notification into a status message.
func (d dashboardModel) takeNotice() tea.Cmd {
	if d.notice.text == "" {
		return nil
	}
	n := *d.notice
	*d.notice = statusMsg{}
	return func() tea.Msg { return n }
}

func (d dashboardModel) showFilter() (dashboardModel, tea.Cmd) {
	*d.draft = *d.filter
	f := d.draft

	ranges := make([]huh.Option[string], len(dashboard.RangeOptions))
	for i, r := range dashboard.RangeOptions {
		ranges[i] = huh.NewOption(rangeLabels[r], r)
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Range").Options(ranges...).Value(&f.Range),
			huh.NewSelect[string]().Title("Client").
				Options(choiceOptions("All clients", dashboard.NoClient, d.clients)...).Value(&f.Client),
			huh.NewSelect[string]().Title("Project").
				Options(choiceOptions("All projects", dashboard.NoProject, d.projects)...).Value(&f.Project),
		),
		huh.NewGroup(
			huh.NewInput().Title("From (YYYY-MM-DD)").Value(&f.CustomFrom),
			huh.NewInput().Title("To (YYYY-MM-DD)").Value(&f.CustomTo),
		).WithHideFunc(func() bool { return f.Range != dashboard.RangeCustom }),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func choiceOptions(all, none string, values []string) []huh.Option[string] {
	opts := []huh.Option[string]{
		huh.NewOption(all, dashboard.AllSelection),
		huh.NewOption(none, none),
	}
	for _, v := range values {
		opts = append(opts, huh.NewOption(v, v))
	}
	return opts
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}
	if d.form.State != huh.StateCompleted {
		return d, cmd
	}

	d.formActive = false
	d.form = nil
	*d.filter = *d.draft
	d.logger.Debug("filter changed",
		"range", d.filter.Range,
		"client", d.filter.Client,
		"project", d.filter.Project,
	)
	return d, d.loadData()
}

func (d *dashboardModel) syncContent() {
	d.viewport.SetContent(d.content())
}

func (d dashboardModel) content() string {
	if !d.loaded {
		return mutedStyle.Render("  Loading dashboard...")
	}

	w := max(d.width-4, 20)
	rows := []string{d.renderHeading(), ""}
	rows = append(rows, cardRows(d.page, statCards, w)...)

	if rate := d.page.text(currency.FieldRate); rate != "" {
		rows = append(rows, "", subtitleStyle.Render(fmt.Sprintf("In %s  (%s)", d.conv.Target(), rate)))
		rows = append(rows, cardRows(d.page, fxCards, w)...)
	}

	rows = append(rows, "")
	for i := 0; i < len(dashboard.SurfaceIDs); i += 2 {
		pair := []string{d.page.surfaces[dashboard.SurfaceIDs[i]].view()}
		if i+1 < len(dashboard.SurfaceIDs) {
			pair = append(pair, " ", d.page.surfaces[dashboard.SurfaceIDs[i+1]].view())
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, pair...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (d dashboardModel) renderHeading() string {
	parts := []string{titleStyle.Render("Dashboard"), highlightStyle.Render(rangeLabels[d.filter.Range])}
	if label := intervalLabel(d.views.Interval); label != "" {
		parts = append(parts, mutedStyle.Render(label))
	}
	if d.filter.Client != dashboard.AllSelection {
		parts = append(parts, mutedStyle.Render("client: "+d.filter.Client))
	}
	if d.filter.Project != dashboard.AllSelection {
		parts = append(parts, mutedStyle.Render("project: "+d.filter.Project))
	}
	if d.views.NoData {
		parts = append(parts, warningStyle.Render(dashboard.NoDataText))
	}
	return strings.Join(parts, "  ")
}

func intervalLabel(iv dashboard.Interval) string {
	if iv.From.IsZero() {
		return ""
	}
	all := dashboard.AllTime(iv.From.Location())
	if iv.From.Equal(all.From) && iv.To.Equal(all.To) {
		return "all records"
	}
	const layout = "Jan 2, 2006"
	if iv.Days() == 1 {
		return iv.From.Format(layout)
	}
	return iv.From.Format(layout) + " to " + iv.To.Format(layout)
}

func cardRows(p *dashboardPage, cards []statCard, width int) []string {
	const cardW = 20
	perRow := max(width/(cardW+3), 1)

	var rows []string
	var row []string
	for _, c := range cards {
		card := cardStyle.Width(cardW).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				mutedStyle.Render(truncate(c.label, cardW-2)),
				cardValueStyle.Render(truncate(p.text(c.field), cardW-2)),
			),
		)
		row = append(row, card, " ")
		if len(row) == perRow*2 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return rows
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	if d.formActive && d.form != nil {
		return panelStyle.Width(d.width - 4).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Filter Dashboard"), "", d.form.View()),
		)
	}

	hint := mutedStyle.Render("  r: refresh  f: filter  ↑/↓: scroll")
	return lipgloss.JoinVertical(lipgloss.Left, d.viewport.View(), hint)
}
