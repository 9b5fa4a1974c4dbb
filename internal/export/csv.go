package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/billr/internal/store"
)

const dateLayout = "2006-01-02"

var entryHeader = []string{"ID", "Date", "Client", "Project", "Description", "Hours", "Rate", "Amount"}

// ToCSV writes one row per time entry.
func ToCSV(entries []store.TimeEntry, path string) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.Date.Format(dateLayout),
			e.Client,
			e.Project,
			e.Description,
			decimal(e.Hours),
			decimal(e.Rate),
			decimal(e.Amount),
		})
	}
	return writeCSV(path, entryHeader, rows)
}

var expenseHeader = []string{"ID", "Date", "Client", "Project", "Category", "Description", "Amount"}

// ExpensesToCSV writes one row per expense.
func ExpensesToCSV(expenses []store.Expense, path string) error {
	rows := make([][]string, 0, len(expenses))
	for _, x := range expenses {
		rows = append(rows, []string{
			x.ID,
			x.Date.Format(dateLayout),
			x.Client,
			x.Project,
			x.Category,
			x.Description,
			decimal(x.Amount),
		})
	}
	return writeCSV(path, expenseHeader, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return w.Error()
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
