package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/billr/internal/currency"
	"github.com/sadopc/billr/internal/export"
	"github.com/sadopc/billr/internal/log"
	"github.com/sadopc/billr/internal/store"
)

type exportFormat struct {
	name string
	ext  string
}

var exportFormats = []exportFormat{
	{"Entries CSV", "csv"},
	{"Expenses CSV", "expenses.csv"},
	{"Entries JSON", "json"},
	{"Dashboard XLSX", "xlsx"},
	{"Dashboard PDF", "pdf"},
}

// Deps are the collaborators the TUI needs. Converter may be nil, in which
// case converted totals are never shown.
type Deps struct {
	Store        *store.Store
	Converter    *currency.Converter
	Logger       *log.Logger
	BaseCurrency string
	ExportDir    string
}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	logger    *log.Logger
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	entries   entriesModel
	expenses  expensesModel
	settings  settingsModel

	help   help.Model
	status statusMsg
}

func NewApp(d Deps) App {
	h := help.New()
	h.ShowAll = false

	logger := d.Logger
	if logger == nil {
		logger = log.Discard()
	}
	dir := d.ExportDir
	if dir == "" {
		dir, _ = os.UserHomeDir()
	}

	return App{
		store:      d.Store,
		logger:     logger,
		exportDir:  dir,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(d.Store, d.Converter, logger.WithComponent("dashboard"), d.BaseCurrency),
		entries:    newEntriesModel(d.Store),
		expenses:   newExpensesModel(d.Store),
		settings:   newSettingsModel(d.Store),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.entries.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.entries.setSize(a.width, contentHeight)
		a.expenses.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input gets every key.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewEntries)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewExpenses)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

		// The timer keys work from every view.
		if a.activeView != viewEntries && (key.Matches(msg, keys.Stop) || key.Matches(msg, keys.Pause)) {
			var cmd tea.Cmd
			a.entries, cmd = a.entries.update(msg)
			return a, cmd
		}

	case tickMsg:
		var cmd tea.Cmd
		a.entries, cmd = a.entries.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case entriesDataMsg:
		var cmd tea.Cmd
		a.entries, cmd = a.entries.update(msg)
		return a, cmd

	case expensesDataMsg:
		var cmd tea.Cmd
		a.expenses, cmd = a.expenses.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case dashboardDataMsg, recordsChangedMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg
		if msg.isError {
			a.logger.Warn("status", "message", msg.text)
		}
		return a, nil

	case timerStoppedMsg:
		a.status = statusMsg{text: "Timer stopped"}
		if msg.entry != nil {
			a.status.text = fmt.Sprintf("Logged %sh for %s", decimal(msg.entry.Hours), orNone(msg.entry.Client))
		}
		return a, nil

	case timerStartedMsg:
		a.status = statusMsg{text: "Timer started"}
		return a, nil

	case exportDoneMsg:
		a.status = statusMsg{text: "Exported to " + msg.path}
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewEntries:
		a.entries, cmd = a.entries.update(msg)
	case viewExpenses:
		a.expenses, cmd = a.expenses.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewEntries:
		return a.entries.formActive || a.entries.confirmDelete
	case viewExpenses:
		return a.expenses.formActive || a.expenses.confirmDelete
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewEntries:
		return a.entries.refresh()
	case viewExpenses:
		return a.expenses.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewEntries:
		content = a.entries.view()
	case viewExpenses:
		content = a.expenses.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("billr")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status.text != "" {
		style := mutedStyle
		if a.status.isError {
			style = errorStyle
		}
		status = style.Render(" " + a.status.text)
	}

	timerInfo := ""
	if a.entries.isRunning() {
		elapsed := formatDuration(a.entries.elapsed())
		timerInfo = successStyle.Render(" ● " + elapsed)
		if a.entries.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + elapsed)
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f.name))
	}
	rows = append(rows, "", mutedStyle.Render("  Dashboard exports use the current filter."))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func exportPath(dir, ext string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("billr-export-%s.%s", now.Format(dateLayout), ext))
}

func (a App) doExport(f exportFormat) tea.Cmd {
	views := a.dashboard.views
	title := "billr: " + rangeLabels[a.dashboard.filter.Range]
	path := exportPath(a.exportDir, f.ext, time.Now())

	return func() tea.Msg {
		var err error
		switch f.ext {
		case "csv":
			var entries []store.TimeEntry
			if entries, err = a.store.ListEntries(store.EntryFilter{}); err == nil {
				err = export.ToCSV(entries, path)
			}
		case "expenses.csv":
			var expenses []store.Expense
			if expenses, err = a.store.ListExpenses(store.EntryFilter{}); err == nil {
				err = export.ExpensesToCSV(expenses, path)
			}
		case "json":
			var entries []store.TimeEntry
			if entries, err = a.store.ListEntries(store.EntryFilter{}); err == nil {
				err = export.ToJSON(entries, path)
			}
		case "xlsx":
			err = export.ToXLSX(views, path)
		case "pdf":
			err = export.ToPDF(views, title, path)
		}
		if err != nil {
			a.logger.Error("export failed", "format", f.name, "error", err)
			return statusMsg{text: fmt.Sprintf("%s export error: %v", f.name, err), isError: true}
		}
		a.logger.Info("exported", "format", f.name, "path", path)
		return exportDoneMsg{path: path}
	}
}

func orNone(s string) string {
	if s == "" {
		return "no client"
	}
	return s
}
