package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/billr/internal/dashboard"
	"github.com/sadopc/billr/internal/export"
	"github.com/sadopc/billr/internal/store"
)

var exportFormats = map[string]string{
	"csv":          "csv",
	"expenses-csv": "expenses.csv",
	"json":         "json",
	"xlsx":         "xlsx",
	"pdf":          "pdf",
}

type exportOptions struct {
	filter filterFlags
	format string
	output string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries, expenses or a dashboard report",
		Long: `Export records for a range to a file.

csv, expenses-csv and json write the raw records. xlsx and pdf write the
dashboard report for the range.

Examples:
  billr export --format csv --output hours.csv
  billr export --format xlsx --range last-month
  billr export --format pdf --client Acme --range this-year`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.open()
			if err != nil {
				return err
			}
			defer app.Close()
			return runExport(app, opts, time.Now(), cmd.OutOrStdout())
		},
	}
	opts.filter.register(cmd, dashboard.RangeAll)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "Output format: csv, expenses-csv, json, xlsx, pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: billr-export-DATE.EXT)")
	return cmd
}

func runExport(app *AppContext, opts *exportOptions, now time.Time, out io.Writer) error {
	ext, ok := exportFormats[opts.format]
	if !ok {
		return fmt.Errorf("unknown format %q: use csv, expenses-csv, json, xlsx or pdf", opts.format)
	}
	path := opts.output
	if path == "" {
		path = fmt.Sprintf("billr-export-%s.%s", now.Format(dashboard.DateLayout), ext)
	}

	f := opts.filter.state()
	iv, err := dashboard.ResolveInterval(f.Range, f.CustomFrom, f.CustomTo, now)
	if err != nil {
		return err
	}
	filter := recordFilter(iv, f)

	switch opts.format {
	case "csv", "json":
		entries, err := app.Store.ListEntries(filter)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		if opts.format == "csv" {
			err = export.ToCSV(entries, path)
		} else {
			err = export.ToJSON(entries, path)
		}
		if err != nil {
			return err
		}
	case "expenses-csv":
		expenses, err := app.Store.ListExpenses(filter)
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		if err := export.ExpensesToCSV(expenses, path); err != nil {
			return err
		}
	default:
		entries, err := app.Store.ListEntries(store.EntryFilter{})
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		expenses, err := app.Store.ListExpenses(store.EntryFilter{})
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		v := dashboard.Aggregate(entries, expenses, iv, dashboard.EqualityFilter(f.Client), dashboard.EqualityFilter(f.Project))
		if opts.format == "xlsx" {
			err = export.ToXLSX(v, path)
		} else {
			err = export.ToPDF(v, "billr report", path)
		}
		if err != nil {
			return err
		}
	}

	app.Logger.Info("exported", "format", opts.format, "path", path)
	fmt.Fprintf(out, "Exported to %s\n", path)
	return nil
}

// recordFilter narrows a store query to the interval and the selected client
// and project. The "no client" and "no project" choices match empty values.
func recordFilter(iv dashboard.Interval, f dashboard.FilterState) store.EntryFilter {
	from, to := iv.From, iv.To
	filter := store.EntryFilter{From: &from, To: &to}
	filter.Client = selection(f.Client, dashboard.NoClient)
	filter.Project = selection(f.Project, dashboard.NoProject)
	return filter
}

func selection(v, none string) *string {
	switch v {
	case "", dashboard.AllSelection:
		return nil
	case none:
		empty := ""
		return &empty
	}
	return &v
}
