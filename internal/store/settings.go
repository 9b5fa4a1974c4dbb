package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("get setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// DefaultRate returns the hourly rate used for timer-created entries, or 0.
func (s *Store) DefaultRate() float64 {
	v, err := s.GetSetting("default_rate")
	if err != nil {
		return 0
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return rate
}

// ShowUSD reports whether converted USD figures should be displayed.
func (s *Store) ShowUSD() bool {
	v, err := s.GetSetting("show_usd")
	if err != nil {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}
