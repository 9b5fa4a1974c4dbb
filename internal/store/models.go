package store

import "time"

// TimeEntry is a logged unit of billable time. Client and Project are empty
// when absent.
type TimeEntry struct {
	ID          string
	Date        time.Time // local midnight
	Client      string
	Project     string
	Description string
	Hours       float64
	Rate        float64
	Amount      float64 // revenue in the base currency
	CreatedAt   time.Time
}

type Expense struct {
	ID          string
	Date        time.Time
	Client      string
	Project     string
	Category    string
	Description string
	Amount      float64
	CreatedAt   time.Time
}

type Setting struct {
	Key   string
	Value string
}

// EntryFilter is used to filter time entries and expenses in queries.
// From and To are inclusive calendar dates.
type EntryFilter struct {
	Client  *string
	Project *string
	From    *time.Time
	To      *time.Time
	Limit   int
}
