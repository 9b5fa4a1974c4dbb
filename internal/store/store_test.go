package store

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func mustEntry(t *testing.T, s *Store, e TimeEntry) *TimeEntry {
	t.Helper()
	got, err := s.CreateEntry(e)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	return got
}

func mustExpense(t *testing.T, s *Store, x Expense) *Expense {
	t.Helper()
	got, err := s.CreateExpense(x)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return got
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s := newTestStore(t)

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/billr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 2), Hours: 1, Rate: 10})
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	entries, err := s2.ListEntries(EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected entry to persist, got %d", len(entries))
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Time entries
// ============================================================

func TestCreateAndGetEntry(t *testing.T) {
	s := newTestStore(t)

	e := mustEntry(t, s, TimeEntry{
		Date:        day(2024, 1, 15),
		Client:      "  Acme ",
		Project:     "Website",
		Description: "Landing page",
		Hours:       2.5,
		Rate:        100,
	})
	if e.ID == "" {
		t.Fatal("expected generated ID")
	}
	if e.Client != "Acme" {
		t.Fatalf("expected trimmed client, got %q", e.Client)
	}
	if e.Amount != 250 {
		t.Fatalf("expected derived amount 250, got %v", e.Amount)
	}
	if !e.Date.Equal(day(2024, 1, 15)) {
		t.Fatalf("date round trip: got %v", e.Date)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}

	got, err := s.GetEntry(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "Landing page" || got.Hours != 2.5 {
		t.Fatalf("unexpected entry %+v", got)
	}
}

func TestCreateEntryKeepsExplicitAmount(t *testing.T) {
	s := newTestStore(t)
	e := mustEntry(t, s, TimeEntry{Date: day(2024, 1, 15), Hours: 2, Rate: 100, Amount: 150})
	if e.Amount != 150 {
		t.Fatalf("expected 150, got %v", e.Amount)
	}
}

func TestCreateEntryNegativeHours(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateEntry(TimeEntry{Date: day(2024, 1, 15), Hours: -1}); err == nil {
		t.Fatal("expected error for negative hours")
	}
}

func TestGetEntryNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetEntry("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateEntry(t *testing.T) {
	s := newTestStore(t)
	e := mustEntry(t, s, TimeEntry{Date: day(2024, 1, 15), Client: "Acme", Hours: 1, Rate: 50})

	e.Hours = 3
	e.Amount = 150
	e.Project = "API"
	if err := s.UpdateEntry(*e); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetEntry(e.ID)
	if got.Hours != 3 || got.Amount != 150 || got.Project != "API" {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestUpdateEntryNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateEntry(TimeEntry{ID: "missing", Date: day(2024, 1, 1)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	e := mustEntry(t, s, TimeEntry{Date: day(2024, 1, 15), Hours: 1})

	if err := s.DeleteEntry(e.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteEntry(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestListEntriesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 10), Hours: 1})
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 20), Hours: 2})
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 15), Hours: 3})

	entries, err := s.ListEntries(EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Hours != 2 || entries[2].Hours != 1 {
		t.Fatalf("unexpected order: %v, %v, %v", entries[0].Hours, entries[1].Hours, entries[2].Hours)
	}
}

func TestListEntriesFilters(t *testing.T) {
	s := newTestStore(t)
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 10), Client: "Acme", Project: "Web", Hours: 1})
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 20), Client: "Acme", Project: "API", Hours: 2})
	mustEntry(t, s, TimeEntry{Date: day(2024, 2, 5), Client: "Beta", Hours: 4})

	acme, api := "Acme", "API"
	from, to := day(2024, 1, 10), day(2024, 1, 31)

	tests := []struct {
		name   string
		filter EntryFilter
		want   int
	}{
		{"client", EntryFilter{Client: &acme}, 2},
		{"project", EntryFilter{Project: &api}, 1},
		{"date range inclusive", EntryFilter{From: &from, To: &to}, 2},
		{"client and project", EntryFilter{Client: &acme, Project: &api}, 1},
		{"limit", EntryFilter{Limit: 2}, 2},
		{"none", EntryFilter{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListEntries(tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}

func TestListEntriesEmpty(t *testing.T) {
	s := newTestStore(t)
	entries, err := s.ListEntries(EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

// ============================================================
// Expenses
// ============================================================

func TestExpenseLifecycle(t *testing.T) {
	s := newTestStore(t)
	x := mustExpense(t, s, Expense{
		Date:     day(2024, 1, 12),
		Client:   "Acme",
		Category: "software",
		Amount:   49.99,
	})
	if x.ID == "" {
		t.Fatal("expected generated ID")
	}

	x.Amount = 59.99
	x.Description = "IDE licence"
	if err := s.UpdateExpense(*x); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetExpense(x.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 59.99 || got.Description != "IDE licence" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.DeleteExpense(x.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetExpense(x.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListExpensesDateFilter(t *testing.T) {
	s := newTestStore(t)
	mustExpense(t, s, Expense{Date: day(2024, 1, 5), Amount: 10})
	mustExpense(t, s, Expense{Date: day(2024, 2, 5), Amount: 20})

	from := day(2024, 2, 1)
	got, err := s.ListExpenses(EntryFilter{From: &from})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Amount != 20 {
		t.Fatalf("unexpected expenses %+v", got)
	}
}

func TestListClientsAndProjects(t *testing.T) {
	s := newTestStore(t)
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 1), Client: "Beta", Project: "API", Hours: 1})
	mustEntry(t, s, TimeEntry{Date: day(2024, 1, 2), Client: "Acme", Hours: 1})
	mustExpense(t, s, Expense{Date: day(2024, 1, 3), Client: "Acme", Project: "Web", Amount: 5})
	mustExpense(t, s, Expense{Date: day(2024, 1, 4), Client: "Gamma", Amount: 5})

	clients, err := s.ListClients()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Acme", "Beta", "Gamma"}
	if len(clients) != len(want) {
		t.Fatalf("expected %v, got %v", want, clients)
	}
	for i := range want {
		if clients[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, clients)
		}
	}

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0] != "API" || projects[1] != "Web" {
		t.Fatalf("unexpected projects %v", projects)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		"default_rate":   "0",
		"default_client": "",
		"show_usd":       "false",
	}
	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)

	s.SetSetting("key", "v1")
	s.SetSetting("key", "v2")
	val, _ := s.GetSetting("key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 3 {
		t.Fatalf("expected at least 3 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestDefaultRate(t *testing.T) {
	s := newTestStore(t)
	if got := s.DefaultRate(); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	s.SetSetting("default_rate", "85.5")
	if got := s.DefaultRate(); got != 85.5 {
		t.Fatalf("expected 85.5, got %v", got)
	}
	s.SetSetting("default_rate", "abc")
	if got := s.DefaultRate(); got != 0 {
		t.Fatalf("expected 0 for junk, got %v", got)
	}
}

func TestShowUSD(t *testing.T) {
	s := newTestStore(t)
	if s.ShowUSD() {
		t.Fatal("expected show_usd off by default")
	}
	s.SetSetting("show_usd", "true")
	if !s.ShowUSD() {
		t.Fatal("expected show_usd on")
	}
}

func TestCloseStore(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
