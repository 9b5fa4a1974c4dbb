package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const expenseColumns = `id, date, client, project, category, description, amount, created_at`

func (s *Store) CreateExpense(x Expense) (*Expense, error) {
	if x.ID == "" {
		x.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		x.ID, x.Date.Format(dateLayout), strings.TrimSpace(x.Client), strings.TrimSpace(x.Project),
		x.Category, x.Description, x.Amount, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return s.GetExpense(x.ID)
}

func (s *Store) GetExpense(id string) (*Expense, error) {
	row := s.db.QueryRow(`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	x, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get expense %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense %s: %w", id, err)
	}
	return x, nil
}

func (s *Store) UpdateExpense(x Expense) error {
	res, err := s.db.Exec(
		`UPDATE expenses
		 SET date = ?, client = ?, project = ?, category = ?, description = ?, amount = ?
		 WHERE id = ?`,
		x.Date.Format(dateLayout), strings.TrimSpace(x.Client), strings.TrimSpace(x.Project),
		x.Category, x.Description, x.Amount, x.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, "expense", x.ID)
}

func (s *Store) DeleteExpense(id string) error {
	res, err := s.db.Exec(`DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res, "expense", id)
}

func (s *Store) ListExpenses(f EntryFilter) ([]Expense, error) {
	where, args := f.clause()
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE 1=1` + where + ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		x, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *x)
	}
	return expenses, rows.Err()
}

func scanExpense(r scanner) (*Expense, error) {
	x := &Expense{}
	var date, createdAt string
	if err := r.Scan(&x.ID, &date, &x.Client, &x.Project, &x.Category, &x.Description, &x.Amount, &createdAt); err != nil {
		return nil, err
	}
	x.Date, _ = time.ParseInLocation(dateLayout, date, time.Local)
	x.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return x, nil
}

// ListClients returns the distinct non-empty clients across entries and
// expenses, sorted.
func (s *Store) ListClients() ([]string, error) {
	return s.distinct("client")
}

// ListProjects returns the distinct non-empty projects across entries and
// expenses, sorted.
func (s *Store) ListProjects() ([]string, error) {
	return s.distinct("project")
}

func (s *Store) distinct(column string) ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %[1]s FROM time_entries WHERE %[1]s <> ''
		UNION
		SELECT %[1]s FROM expenses WHERE %[1]s <> ''
		ORDER BY 1`, column))
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
