package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/billr/internal/store"
)

var expenseCategories = []string{"software", "hardware", "travel", "office", "services", "other"}

type expenseForm struct {
	date        string
	client      string
	project     string
	category    string
	description string
	amount      string
}

type expensesModel struct {
	store  *store.Store
	width  int
	height int

	expenses []store.Expense
	table    table.Model

	formActive    bool
	form          *huh.Form
	editingID     string
	values        *expenseForm
	confirmDelete bool
}

func newExpensesModel(s *store.Store) expensesModel {
	return expensesModel{
		store:  s,
		table:  table.New(table.WithColumns(expenseColumns(80)), table.WithFocused(true), table.WithHeight(10)),
		values: &expenseForm{},
	}
}

func expenseColumns(width int) []table.Column {
	desc := max(width-10-14-14-10-10-14, 10)
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Client", Width: 14},
		{Title: "Project", Width: 14},
		{Title: "Category", Width: 10},
		{Title: "Description", Width: desc},
		{Title: "Amount", Width: 10},
	}
}

func (m *expensesModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetColumns(expenseColumns(w - 8))
	m.table.SetHeight(max(h-9, 3))
}

type expensesDataMsg struct {
	expenses []store.Expense
	err      error
}

func (m expensesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		expenses, err := m.store.ListExpenses(store.EntryFilter{})
		return expensesDataMsg{expenses: expenses, err: err}
	}
}

func (m expensesModel) selected() (store.Expense, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.expenses) {
		return store.Expense{}, false
	}
	return m.expenses[i], true
}

func (m expensesModel) update(msg tea.Msg) (expensesModel, tea.Cmd) {
	if msg, ok := msg.(expensesDataMsg); ok {
		if msg.err != nil {
			return m, errStatus("Load expenses", msg.err)
		}
		m.expenses = msg.expenses
		m.table.SetRows(expenseRows(m.expenses))
		return m, nil
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDelete {
			m.confirmDelete = false
			if msg.String() != "y" {
				return m, nil
			}
			x, ok := m.selected()
			if !ok {
				return m, nil
			}
			if err := m.store.DeleteExpense(x.ID); err != nil {
				return m, errStatus("Delete expense", err)
			}
			return m, tea.Batch(m.refresh(), changed("Expense deleted"))
		}

		switch {
		case key.Matches(msg, keys.New):
			return m.showForm(nil)
		case key.Matches(msg, keys.Edit):
			if x, ok := m.selected(); ok {
				return m.showForm(&x)
			}
			return m, nil
		case key.Matches(msg, keys.Delete):
			if _, ok := m.selected(); ok {
				m.confirmDelete = true
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m expensesModel) showForm(x *store.Expense) (expensesModel, tea.Cmd) {
	v := m.values
	*v = expenseForm{
		date:     today().Format(dateLayout),
		client:   defaultClient(m.store),
		category: expenseCategories[0],
	}
	m.editingID = ""
	if x != nil {
		m.editingID = x.ID
		*v = expenseForm{
			date:        x.Date.Format(dateLayout),
			client:      x.Client,
			project:     x.Project,
			category:    x.Category,
			description: x.Description,
			amount:      decimal(x.Amount),
		}
	}

	catOptions := huh.NewOptions(expenseCategories...)
	if v.category != "" && !slices.Contains(expenseCategories, v.category) {
		catOptions = append(catOptions, huh.NewOption(v.category, v.category))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(&v.date).Validate(validateDate),
			huh.NewInput().Title("Amount").Value(&v.amount).Validate(validateAmount),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(&v.category),
		),
		huh.NewGroup(
			huh.NewInput().Title("Client").Value(&v.client),
			huh.NewInput().Title("Project").Value(&v.project),
			huh.NewInput().Title("Description").Value(&v.description),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m expensesModel) updateForm(msg tea.Msg) (expensesModel, tea.Cmd) {
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

	x := m.values.expense()
	if m.editingID != "" {
		x.ID = m.editingID
		if err := m.store.UpdateExpense(x); err != nil {
			return m, errStatus("Update expense", err)
		}
		return m, tea.Batch(m.refresh(), changed("Expense updated"))
	}
	if _, err := m.store.CreateExpense(x); err != nil {
		return m, errStatus("Create expense", err)
	}
	return m, tea.Batch(m.refresh(), changed("Expense added"))
}

func (v *expenseForm) expense() store.Expense {
	amount, _ := parseAmount(v.amount)
	return store.Expense{
		Date:        parseDate(v.date),
		Client:      strings.TrimSpace(v.client),
		Project:     strings.TrimSpace(v.project),
		Category:    v.category,
		Description: strings.TrimSpace(v.description),
		Amount:      amount,
	}
}

func expenseRows(expenses []store.Expense) []table.Row {
	rows := make([]table.Row, len(expenses))
	for i, x := range expenses {
		rows[i] = table.Row{
			x.Date.Format(dateLayout),
			x.Client,
			x.Project,
			x.Category,
			x.Description,
			decimal(x.Amount),
		}
	}
	return rows
}

func (m expensesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := "New Expense"
		if m.editingID != "" {
			title = "Edit Expense"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View()),
		)
	}

	var total float64
	for _, x := range m.expenses {
		total += x.Amount
	}
	header := fmt.Sprintf("%s  %s", titleStyle.Render("Expenses"),
		mutedStyle.Render(fmt.Sprintf("%d expenses · %s", len(m.expenses), decimal(total))))

	rows := []string{header, ""}
	if len(m.expenses) == 0 {
		rows = append(rows, mutedStyle.Render("No expenses yet. Press n to add one."))
	} else {
		rows = append(rows, m.table.View())
	}

	rows = append(rows, "")
	if m.confirmDelete {
		x, _ := m.selected()
		rows = append(rows, warningStyle.Render(fmt.Sprintf("Delete %s expense of %s? y/n", x.Category, decimal(x.Amount))))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  enter: edit  d: delete"))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
