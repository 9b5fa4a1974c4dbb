package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/billr/internal/store"
)

// entryForm holds form values as strings; it lives behind a pointer so huh
// bindings survive model copies.
type entryForm struct {
	date        string
	client      string
	project     string
	description string
	hours       string
	rate        string
	amount      string
}

type entriesModel struct {
	store  *store.Store
	width  int
	height int

	entries []store.TimeEntry
	table   table.Model
	timer   timerModel

	formActive    bool
	form          *huh.Form
	formType      string // "new", "edit", "timer"
	editingID     string
	values        *entryForm
	confirmDelete bool
}

func newEntriesModel(s *store.Store) entriesModel {
	return entriesModel{
		store:  s,
		table:  table.New(table.WithColumns(entryColumns(80)), table.WithFocused(true), table.WithHeight(10)),
		timer:  newTimerModel(s),
		values: &entryForm{},
	}
}

func entryColumns(width int) []table.Column {
	desc := max(width-10-14-14-7-8-10-16, 10)
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Client", Width: 14},
		{Title: "Project", Width: 14},
		{Title: "Description", Width: desc},
		{Title: "Hours", Width: 7},
		{Title: "Rate", Width: 8},
		{Title: "Amount", Width: 10},
	}
}

func (m *entriesModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetColumns(entryColumns(w - 8))
	m.table.SetHeight(max(h-10, 3))
}

func (m entriesModel) isRunning() bool { return m.timer.running() }
func (m entriesModel) isPaused() bool  { return m.timer.paused() }
func (m entriesModel) elapsed() time.Duration {
	return m.timer.currentElapsed()
}

type entriesDataMsg struct {
	entries []store.TimeEntry
	err     error
}

func (m entriesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.store.ListEntries(store.EntryFilter{})
		return entriesDataMsg{entries: entries, err: err}
	}
}

func (m entriesModel) selected() (store.TimeEntry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.entries) {
		return store.TimeEntry{}, false
	}
	return m.entries[i], true
}

func (m entriesModel) update(msg tea.Msg) (entriesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesDataMsg:
		if msg.err != nil {
			return m, errStatus("Load entries", msg.err)
		}
		m.entries = msg.entries
		m.table.SetRows(entryRows(m.entries))
		return m, nil

	case tickMsg:
		m.timer.tick()
		return m, nil
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.timer.recordActivity()

		if m.confirmDelete {
			return m.updateConfirm(msg)
		}

		switch {
		case key.Matches(msg, keys.New):
			return m.showForm("new", nil)
		case key.Matches(msg, keys.Edit):
			if e, ok := m.selected(); ok {
				return m.showForm("edit", &e)
			}
			return m, nil
		case key.Matches(msg, keys.Delete):
			if _, ok := m.selected(); ok {
				m.confirmDelete = true
			}
			return m, nil
		case key.Matches(msg, keys.Start):
			if m.timer.running() {
				return m, errStatus("Timer", errTimerRunning)
			}
			return m.showForm("timer", nil)
		case key.Matches(msg, keys.Stop):
			return m.stopTimer()
		case key.Matches(msg, keys.Pause):
			m.timer.toggle()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m entriesModel) updateConfirm(msg tea.KeyMsg) (entriesModel, tea.Cmd) {
	m.confirmDelete = false
	if msg.String() != "y" {
		return m, nil
	}
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := m.store.DeleteEntry(e.ID); err != nil {
		return m, errStatus("Delete entry", err)
	}
	return m, tea.Batch(m.refresh(), changed("Entry deleted"))
}

func (m entriesModel) stopTimer() (entriesModel, tea.Cmd) {
	entry, err := m.timer.stop()
	if err != nil {
		return m, errStatus("Timer", err)
	}
	if entry == nil {
		return m, nil
	}
	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg { return timerStoppedMsg{entry: entry} },
		func() tea.Msg { return recordsChangedMsg{} },
	)
}

func (m entriesModel) showForm(kind string, e *store.TimeEntry) (entriesModel, tea.Cmd) {
	v := m.values
	*v = entryForm{
		date:   today().Format(dateLayout),
		client: defaultClient(m.store),
		rate:   decimal(m.store.DefaultRate()),
	}
	m.formType = kind
	m.editingID = ""
	if e != nil {
		m.editingID = e.ID
		*v = entryForm{
			date:        e.Date.Format(dateLayout),
			client:      e.Client,
			project:     e.Project,
			description: e.Description,
			hours:       decimal(e.Hours),
			rate:        decimal(e.Rate),
			amount:      decimal(e.Amount),
		}
	}

	if kind == "timer" {
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Client").Value(&v.client),
				huh.NewInput().Title("Project").Value(&v.project),
				huh.NewInput().Title("Description").Value(&v.description),
			),
		).WithShowHelp(true).WithShowErrors(true)
	} else {
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Date (YYYY-MM-DD)").Value(&v.date).Validate(validateDate),
				huh.NewInput().Title("Client").Value(&v.client),
				huh.NewInput().Title("Project").Value(&v.project),
				huh.NewInput().Title("Description").Value(&v.description),
			),
			huh.NewGroup(
				huh.NewInput().Title("Hours").Value(&v.hours).Validate(validateAmount),
				huh.NewInput().Title("Hourly rate").Value(&v.rate).Validate(validateAmount),
				huh.NewInput().Title("Amount (blank = hours × rate)").Value(&v.amount).Validate(validateAmount),
			),
		).WithShowHelp(true).WithShowErrors(true)
	}

	m.formActive = true
	return m, m.form.Init()
}

func (m entriesModel) updateForm(msg tea.Msg) (entriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}
	m.formActive = false

	v := m.values
	if m.formType == "timer" {
		if err := m.timer.start(strings.TrimSpace(v.client), strings.TrimSpace(v.project), v.description); err != nil {
			return m, errStatus("Timer", err)
		}
		return m, func() tea.Msg { return timerStartedMsg{} }
	}

	e := v.entry()
	if m.formType == "edit" {
		e.ID = m.editingID
		if err := m.store.UpdateEntry(e); err != nil {
			return m, errStatus("Update entry", err)
		}
		return m, tea.Batch(m.refresh(), changed("Entry updated"))
	}
	if _, err := m.store.CreateEntry(e); err != nil {
		return m, errStatus("Create entry", err)
	}
	return m, tea.Batch(m.refresh(), changed("Entry added"))
}

// entry converts validated form values. A blank amount is hours × rate.
func (v *entryForm) entry() store.TimeEntry {
	hours, _ := parseAmount(v.hours)
	rate, _ := parseAmount(v.rate)
	amount, _ := parseAmount(v.amount)
	if strings.TrimSpace(v.amount) == "" {
		amount = hours * rate
	}
	return store.TimeEntry{
		Date:        parseDate(v.date),
		Client:      strings.TrimSpace(v.client),
		Project:     strings.TrimSpace(v.project),
		Description: strings.TrimSpace(v.description),
		Hours:       hours,
		Rate:        rate,
		Amount:      amount,
	}
}

func entryRows(entries []store.TimeEntry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			e.Date.Format(dateLayout),
			e.Client,
			e.Project,
			e.Description,
			decimal(e.Hours),
			decimal(e.Rate),
			decimal(e.Amount),
		}
	}
	return rows
}

func (m entriesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := "New Entry"
		switch m.formType {
		case "edit":
			title = "Edit Entry"
		case "timer":
			title = "Start Timer"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View()),
		)
	}

	var total, hours float64
	for _, e := range m.entries {
		total += e.Amount
		hours += e.Hours
	}
	header := fmt.Sprintf("%s  %s", titleStyle.Render("Time Entries"),
		mutedStyle.Render(fmt.Sprintf("%d entries · %sh · %s", len(m.entries), decimal(hours), decimal(total))))

	rows := []string{header, m.renderTimerLine(), ""}
	if len(m.entries) == 0 {
		rows = append(rows, mutedStyle.Render("No entries yet. Press n to add one or s to start the timer."))
	} else {
		rows = append(rows, m.table.View())
	}

	rows = append(rows, "")
	if m.confirmDelete {
		e, _ := m.selected()
		rows = append(rows, warningStyle.Render(fmt.Sprintf("Delete entry of %s for %q? y/n", e.Date.Format(dateLayout), e.Client)))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  enter: edit  d: delete  s: start  x: stop  space: pause"))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m entriesModel) renderTimerLine() string {
	if !m.timer.running() {
		return mutedStyle.Render("■ timer stopped")
	}
	who := m.timer.client
	if m.timer.project != "" {
		who += " / " + m.timer.project
	}
	elapsed := formatDuration(m.timer.currentElapsed())
	if m.timer.paused() {
		state := "PAUSED"
		if m.timer.isIdle {
			state = "IDLE"
		}
		return timerPausedStyle.Render(fmt.Sprintf("⏸ %s %s", elapsed, state)) + " " + highlightStyle.Render(who)
	}
	return timerRunningStyle.Render("● "+elapsed) + " " + highlightStyle.Render(who)
}

func changed(status string) tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return recordsChangedMsg{} },
		func() tea.Msg { return statusMsg{text: status} },
	)
}

func defaultClient(s *store.Store) string {
	v, err := s.GetSetting("default_client")
	if err != nil {
		return ""
	}
	return v
}
