package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/billr/internal/store"
)

var settingLabels = map[string]string{
	"default_rate":   "Default hourly rate",
	"default_client": "Default client",
	"show_usd":       "Show converted totals",
}

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	defaultRate   *string
	defaultClient *string
	showUSD       *bool
}

func newSettingsModel(s *store.Store) settingsModel {
	rate, client, usd := "", "", false
	return settingsModel{
		store:         s,
		defaultRate:   &rate,
		defaultClient: &client,
		showUSD:       &usd,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(settingsDataMsg); ok {
		s.settings = msg.settings
		return s, nil
	}

	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.defaultRate = s.getVal("default_rate", "0")
	*s.defaultClient = s.getVal("default_client", "")
	*s.showUSD = s.store.ShowUSD()

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Default hourly rate").Value(s.defaultRate).Validate(validateAmount),
			huh.NewInput().Title("Default client").Value(s.defaultClient),
			huh.NewConfirm().Title("Show converted totals on the dashboard?").Value(s.showUSD),
		).Title("Billing"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, errStatus("Save settings", err)
		}
		return s, tea.Batch(s.refresh(), changed("Settings saved"))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	rate, err := parseAmount(*s.defaultRate)
	if err != nil {
		return err
	}
	values := [][2]string{
		{"default_rate", strconv.FormatFloat(rate, 'f', -1, 64)},
		{"default_client", strings.TrimSpace(*s.defaultClient)},
		{"show_usd", strconv.FormatBool(*s.showUSD)},
	}
	for _, kv := range values {
		if err := s.store.SetSetting(kv[0], kv[1]); err != nil {
			return fmt.Errorf("set %s: %w", kv[0], err)
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label, ok := settingLabels[setting.Key]
		if !ok {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %s %s",
			lipgloss.NewStyle().Width(24).Render(label),
			highlightStyle.Render(formatSettingValue(setting.Key, setting.Value)),
		))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "default_rate":
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			return fmt.Sprintf("%.2f / hour", rate)
		}
	case "default_client":
		if v == "" {
			return "(none)"
		}
	case "show_usd":
		if on, err := strconv.ParseBool(v); err == nil && on {
			return "yes"
		}
		return "no"
	}
	return v
}
