package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

const entryColumns = `id, date, client, project, description, hours, rate, amount, created_at`

// CreateEntry inserts e, assigning an ID when it has none. A zero Amount is
// derived from Hours and Rate.
func (s *Store) CreateEntry(e TimeEntry) (*TimeEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Hours < 0 {
		return nil, fmt.Errorf("create entry: negative hours %v", e.Hours)
	}
	if e.Amount == 0 {
		e.Amount = e.Hours * e.Rate
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date.Format(dateLayout), strings.TrimSpace(e.Client), strings.TrimSpace(e.Project),
		e.Description, e.Hours, e.Rate, e.Amount, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return s.GetEntry(e.ID)
}

func (s *Store) GetEntry(id string) (*TimeEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) UpdateEntry(e TimeEntry) error {
	if e.Hours < 0 {
		return fmt.Errorf("update entry: negative hours %v", e.Hours)
	}
	res, err := s.db.Exec(
		`UPDATE time_entries
		 SET date = ?, client = ?, project = ?, description = ?, hours = ?, rate = ?, amount = ?
		 WHERE id = ?`,
		e.Date.Format(dateLayout), strings.TrimSpace(e.Client), strings.TrimSpace(e.Project),
		e.Description, e.Hours, e.Rate, e.Amount, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res, "entry", e.ID)
}

func (s *Store) DeleteEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res, "entry", id)
}

// ListEntries returns entries newest first.
func (s *Store) ListEntries(f EntryFilter) ([]TimeEntry, error) {
	where, args := f.clause()
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE 1=1` + where + ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(r scanner) (*TimeEntry, error) {
	e := &TimeEntry{}
	var date, createdAt string
	if err := r.Scan(&e.ID, &date, &e.Client, &e.Project, &e.Description, &e.Hours, &e.Rate, &e.Amount, &createdAt); err != nil {
		return nil, err
	}
	e.Date, _ = time.ParseInLocation(dateLayout, date, time.Local)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

func (f EntryFilter) clause() (string, []any) {
	var b strings.Builder
	var args []any
	if f.Client != nil {
		b.WriteString(` AND client = ?`)
		args = append(args, *f.Client)
	}
	if f.Project != nil {
		b.WriteString(` AND project = ?`)
		args = append(args, *f.Project)
	}
	if f.From != nil {
		b.WriteString(` AND date >= ?`)
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		b.WriteString(` AND date <= ?`)
		args = append(args, f.To.Format(dateLayout))
	}
	return b.String(), args
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
