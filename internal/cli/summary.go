package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/billr/internal/currency"
	"github.com/sadopc/billr/internal/dashboard"
	"github.com/sadopc/billr/internal/store"
)

// filterFlags mirror the dashboard filter controls.
type filterFlags struct {
	rangeOpt string
	from     string
	to       string
	client   string
	project  string
}

func (f *filterFlags) register(cmd *cobra.Command, defaultRange string) {
	cmd.Flags().StringVarP(&f.rangeOpt, "range", "r", defaultRange,
		"Range: "+strings.Join(dashboard.RangeOptions, ", "))
	cmd.Flags().StringVar(&f.from, "from", "", "Custom range start (YYYY-MM-DD), with --range custom")
	cmd.Flags().StringVar(&f.to, "to", "", "Custom range end (YYYY-MM-DD), with --range custom")
	cmd.Flags().StringVar(&f.client, "client", dashboard.AllSelection, "Client name, \""+dashboard.NoClient+"\" or all")
	cmd.Flags().StringVar(&f.project, "project", dashboard.AllSelection, "Project name, \""+dashboard.NoProject+"\" or all")
}

func (f filterFlags) state() dashboard.FilterState {
	return dashboard.FilterState{
		Range:      f.rangeOpt,
		CustomFrom: f.from,
		CustomTo:   f.to,
		Client:     f.client,
		Project:    f.project,
	}
}

type summaryOptions struct {
	filter  filterFlags
	convert bool
}

func newSummaryCmd(root *rootOptions) *cobra.Command {
	opts := &summaryOptions{}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print dashboard totals and breakdowns",
		Long: `Print the dashboard figures for a range as plain text.

Examples:
  billr summary                              # This month
  billr summary --range last-month           # Last month
  billr summary --range custom --from 2024-01-01 --to 2024-03-31
  billr summary --client Acme --convert      # One client, with converted totals`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.open()
			if err != nil {
				return err
			}
			defer app.Close()
			return runSummary(cmd.Context(), app, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	opts.filter.register(cmd, dashboard.RangeThisMonth)
	cmd.Flags().BoolVar(&opts.convert, "convert", false, "Also show totals in the target currency")
	return cmd
}

func runSummary(ctx context.Context, app *AppContext, opts *summaryOptions, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := app.Store.ListEntries(store.EntryFilter{})
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	expenses, err := app.Store.ListExpenses(store.EntryFilter{})
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}

	page := newTextPage()
	var decorators []dashboard.Decorator
	if opts.convert {
		fx := currency.NewDecorator(app.Converter.Base(), app.Converter.Target())
		fx.SetRate(app.Converter.Rate(ctx))
		decorators = append(decorators, fx)
	}

	renderer := dashboard.NewRenderer(page, dashboard.NewRegistry(textBuilder{}),
		dashboard.NewFormatter(app.Config.BaseCurrency), decorators...)
	pipeline := dashboard.NewPipeline(renderer,
		dashboard.WithLogger(app.Logger.WithComponent("dashboard")),
		dashboard.WithNotifier(dashboard.NotifierFunc(func(msg string, sev dashboard.Severity) {
			fmt.Fprintf(errOut, "%s: %s\n", sev, msg)
		})),
	)

	f := opts.filter.state()
	v, err := pipeline.Refresh(entries, expenses, f)
	if err != nil {
		return err
	}
	printSummary(out, page, v, f)
	return nil
}

var fieldLabels = []struct{ id, label string }{
	{dashboard.FieldTotalHours, "Total hours"},
	{dashboard.FieldTotalRevenue, "Revenue"},
	{dashboard.FieldTotalExpenses, "Expenses"},
	{dashboard.FieldNetIncome, "Net income"},
	{dashboard.FieldAvgWeeklyHours, "Avg hours / week"},
	{dashboard.FieldAvgWeeklyRevenue, "Avg revenue / week"},
	{dashboard.FieldAvgHourlyRate, "Avg hourly rate"},
	{dashboard.FieldTrackedDays, "Tracked days"},
}

var convertedLabels = []struct{ id, label string }{
	{currency.FieldRevenue, "Revenue"},
	{currency.FieldExpenses, "Expenses"},
	{currency.FieldNetIncome, "Net income"},
	{currency.FieldAvgHourlyRate, "Avg hourly rate"},
	{currency.FieldRate, "Rate"},
}

func printSummary(w io.Writer, p *textPage, v dashboard.Views, f dashboard.FilterState) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  billr Summary\n")
	fmt.Fprintf(w, "  =============\n")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Period:   %s to %s\n", v.Interval.From.Format(dashboard.DateLayout), v.Interval.To.Format(dashboard.DateLayout))
	fmt.Fprintf(w, "  Client:   %s\n", f.Client)
	fmt.Fprintf(w, "  Project:  %s\n", f.Project)
	fmt.Fprintln(w)

	heading(w, "Totals")
	for _, fl := range fieldLabels {
		fmt.Fprintf(w, "  %-20s %s\n", fl.label+":", p.text(fl.id))
	}

	if p.text(currency.FieldRate) != "" {
		fmt.Fprintln(w)
		heading(w, "Converted")
		for _, fl := range convertedLabels {
			fmt.Fprintf(w, "  %-20s %s\n", fl.label+":", p.text(fl.id))
		}
	}

	if v.NoData {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", dashboard.NoDataText)
		return
	}

	for _, id := range dashboard.SurfaceIDs {
		s := p.surfaces[id]
		if len(s.lines) == 0 {
			continue
		}
		fmt.Fprintln(w)
		heading(w, s.title)
		for _, line := range s.lines {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w)
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", len(title)))
}

type textField struct{ text string }

func (f *textField) SetText(s string) { f.text = s }

type textSurface struct {
	id    string
	title string
	lines []string
}

func (s *textSurface) ID() string { return s.id }

func (s *textSurface) DrawPlaceholder(msg string) {
	s.lines = []string{msg}
}

// textPage is a dashboard page whose charts are rendered as text lines.
type textPage struct {
	fields   map[string]*textField
	surfaces map[string]*textSurface
}

func newTextPage() *textPage {
	p := &textPage{
		fields:   make(map[string]*textField),
		surfaces: make(map[string]*textSurface),
	}
	for _, id := range append(append([]string{}, dashboard.FieldIDs...), currency.FieldIDs...) {
		p.fields[id] = &textField{}
	}
	for _, id := range dashboard.SurfaceIDs {
		p.surfaces[id] = &textSurface{id: id, title: id}
	}
	return p
}

func (p *textPage) Field(id string) (dashboard.Field, bool) {
	f, ok := p.fields[id]
	if !ok {
		return nil, false
	}
	return f, true
}

func (p *textPage) Surface(id string) (dashboard.Surface, bool) {
	s, ok := p.surfaces[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (p *textPage) text(id string) string {
	if f, ok := p.fields[id]; ok {
		return f.text
	}
	return ""
}

type textChart struct{ surface *textSurface }

func (c textChart) Destroy() { c.surface.lines = nil }

// textBuilder renders chart configs as one line per label. Buckets that are
// zero in every series are skipped.
type textBuilder struct{}

func (textBuilder) Build(s dashboard.Surface, cfg dashboard.ChartConfig) (dashboard.Chart, error) {
	ts, ok := s.(*textSurface)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dashboard.ErrUnknownSurface, s.ID())
	}
	if len(cfg.Series) == 0 {
		return nil, fmt.Errorf("chart %q has no series", cfg.Title)
	}

	var lines []string
	switch cfg.Kind {
	case dashboard.KindBar, dashboard.KindCombo:
		for i, label := range cfg.Labels {
			var parts []string
			nonZero := false
			for _, series := range cfg.Series {
				if i >= len(series.Values) {
					continue
				}
				if series.Values[i] != 0 {
					nonZero = true
				}
				parts = append(parts, fmt.Sprintf("%s %.2f", strings.ToLower(series.Name), series.Values[i]))
			}
			if nonZero {
				lines = append(lines, fmt.Sprintf("%-12s %s", label, strings.Join(parts, "  ")))
			}
		}
	case dashboard.KindPie, dashboard.KindDoughnut:
		for i, label := range cfg.Labels {
			if cfg.Tooltip != nil {
				lines = append(lines, cfg.Tooltip(i))
			} else {
				lines = append(lines, label)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", cfg.Kind)
	}

	ts.title = cfg.Title
	ts.lines = lines
	return textChart{surface: ts}, nil
}

// parseDay parses a YYYY-MM-DD flag value, defaulting to today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	d, err := time.ParseInLocation(dashboard.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return d, nil
}
