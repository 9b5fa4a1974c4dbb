package export

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/sadopc/billr/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Hours      float64     `json:"total_hours"`
	Amount     float64     `json:"total_amount"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Client      string  `json:"client,omitempty"`
	Project     string  `json:"project,omitempty"`
	Description string  `json:"description,omitempty"`
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

func ToJSON(entries []store.TimeEntry, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		export.Hours += e.Hours
		export.Amount += e.Amount
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			Date:        e.Date.Format(dateLayout),
			Client:      e.Client,
			Project:     e.Project,
			Description: e.Description,
			Hours:       e.Hours,
			Rate:        e.Rate,
			Amount:      e.Amount,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
