package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/billr/internal/dashboard"
)

// testEnv points configuration at a temporary directory. Base and target
// currency are equal so no rate is ever fetched.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BILLR_DB_PATH", filepath.Join(dir, "billr.db"))
	t.Setenv("BILLR_LOG_FILE", filepath.Join(dir, "billr.log"))
	t.Setenv("BILLR_BASE_CURRENCY", "EUR")
	t.Setenv("BILLR_TARGET_CURRENCY", "EUR")
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, errOut)
	}
	return out
}

func TestEntryAddAndSummary(t *testing.T) {
	testEnv(t)

	out := mustRun(t, "entry", "add", "--hours", "2", "--rate", "100", "--client", "Acme", "--project", "Web")
	if !strings.Contains(out, "Logged 2.00h") {
		t.Fatalf("unexpected output: %q", out)
	}
	mustRun(t, "expense", "add", "--amount", "50", "--category", "software")

	out = mustRun(t, "summary", "--range", "all")
	for _, want := range []string{
		"billr Summary",
		"€200.00",
		"€150.00",
		"Revenue by Client",
		"Acme: €200.00 (100%)",
		"Hours by Project",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryNoData(t *testing.T) {
	testEnv(t)
	out := mustRun(t, "summary")
	if !strings.Contains(out, dashboard.NoDataText) {
		t.Fatalf("expected no-data text:\n%s", out)
	}
	if !strings.Contains(out, "€0.00") {
		t.Fatalf("expected zero totals:\n%s", out)
	}
}

func TestSummaryInvalidCustomRangeWarns(t *testing.T) {
	testEnv(t)
	mustRun(t, "entry", "add", "--hours", "1", "--rate", "10")

	out, errOut, err := run(t, "summary", "--range", "custom", "--from", "bad")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "warning: Invalid custom range, showing all time") {
		t.Fatalf("expected warning on stderr, got %q", errOut)
	}
	if !strings.Contains(out, "2000-01-01") {
		t.Fatalf("expected all-time period:\n%s", out)
	}
}

func TestSummaryConvert(t *testing.T) {
	testEnv(t)
	mustRun(t, "entry", "add", "--hours", "1", "--rate", "80")

	out := mustRun(t, "summary", "--range", "all", "--convert")
	if !strings.Contains(out, "Converted") || !strings.Contains(out, "1 EUR = 1.0000 EUR") {
		t.Fatalf("expected converted section:\n%s", out)
	}
}

func TestEntryAddUsesDefaultRate(t *testing.T) {
	testEnv(t)

	cfgApp := openTestApp(t)
	cfgApp.Store.SetSetting("default_rate", "90")
	cfgApp.Close()

	out := mustRun(t, "entry", "add", "--hours", "2", "--date", "2024-01-15")
	if !strings.Contains(out, "on 2024-01-15 (180.00)") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestEntryAddValidation(t *testing.T) {
	testEnv(t)
	if _, _, err := run(t, "entry", "add", "--hours", "0"); err == nil {
		t.Fatal("expected error for zero hours")
	}
	if _, _, err := run(t, "entry", "add", "--hours", "1", "--date", "15/01/2024"); err == nil {
		t.Fatal("expected error for a bad date")
	}
	if _, _, err := run(t, "expense", "add", "--amount", "-5"); err == nil {
		t.Fatal("expected error for a negative expense")
	}
}

func TestExportCSV(t *testing.T) {
	dir := testEnv(t)
	mustRun(t, "entry", "add", "--hours", "1", "--rate", "10", "--client", "Acme")
	mustRun(t, "entry", "add", "--hours", "2", "--rate", "10", "--client", "Beta")

	path := filepath.Join(dir, "out.csv")
	out := mustRun(t, "export", "--format", "csv", "--client", "Acme", "--output", path)
	if !strings.Contains(out, "Exported to "+path) {
		t.Fatalf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Acme") || strings.Contains(string(data), "Beta") {
		t.Fatalf("client filter not applied:\n%s", data)
	}
}

func TestExportReports(t *testing.T) {
	dir := testEnv(t)
	mustRun(t, "entry", "add", "--hours", "1", "--rate", "10")

	for _, format := range []string{"xlsx", "pdf", "json", "expenses-csv"} {
		path := filepath.Join(dir, "report."+format)
		mustRun(t, "export", "--format", format, "--range", "this-month", "--output", path)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s: empty file", format)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	testEnv(t)
	_, _, err := run(t, "export", "--format", "docx")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	testEnv(t)
	t.Setenv("BILLR_BASE_CURRENCY", "EURO")
	_, _, err := run(t, "summary")
	if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnvFileFlag(t *testing.T) {
	dir := testEnv(t)
	os.Unsetenv("BILLR_BASE_CURRENCY")
	t.Setenv("BILLR_TARGET_CURRENCY", "GBP")
	envFile := filepath.Join(dir, "custom.env")
	if err := os.WriteFile(envFile, []byte("BILLR_BASE_CURRENCY=GBP\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "--env", envFile, "rate")
	if !strings.Contains(out, "1 GBP = 1.0000 GBP") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRecordFilter(t *testing.T) {
	iv := dashboard.Interval{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), To: time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)}

	f := recordFilter(iv, dashboard.FilterState{Client: dashboard.AllSelection, Project: dashboard.NoProject})
	if f.Client != nil {
		t.Fatal("all clients should not filter")
	}
	if f.Project == nil || *f.Project != "" {
		t.Fatal("no project should match empty projects")
	}
	if f.From == nil || !f.From.Equal(iv.From) || f.To == nil || !f.To.Equal(iv.To) {
		t.Fatal("interval bounds not applied")
	}

	f = recordFilter(iv, dashboard.FilterState{Client: "Acme"})
	if f.Client == nil || *f.Client != "Acme" || f.Project != nil {
		t.Fatalf("unexpected filter %+v", f)
	}
}

func TestTextBuilder(t *testing.T) {
	s := &textSurface{id: "daily"}
	cfg := dashboard.ChartConfig{
		Kind:   dashboard.KindBar,
		Title:  "Daily Hours",
		Labels: []string{"Jan 1", "Jan 2", "Jan 3"},
		Series: []dashboard.Series{{Name: "Hours", Values: []float64{1, 0, 2.5}}},
	}
	c, err := textBuilder{}.Build(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.lines) != 2 {
		t.Fatalf("zero buckets should be skipped, got %v", s.lines)
	}
	if !strings.Contains(s.lines[1], "hours 2.50") || s.title != "Daily Hours" {
		t.Fatalf("unexpected rendering %v", s.lines)
	}
	c.Destroy()
	if s.lines != nil {
		t.Fatal("destroy should clear the surface")
	}

	cfg.Kind = "radar"
	if _, err := (textBuilder{}).Build(s, cfg); err == nil {
		t.Fatal("expected error for an unsupported kind")
	}
}

type foreignSurface struct{}

func (foreignSurface) ID() string             { return "x" }
func (foreignSurface) DrawPlaceholder(string) {}

func TestTextBuilderUnknownSurface(t *testing.T) {
	_, err := textBuilder{}.Build(foreignSurface{}, dashboard.ChartConfig{Kind: dashboard.KindBar})
	if !errors.Is(err, dashboard.ErrUnknownSurface) {
		t.Fatalf("expected ErrUnknownSurface, got %v", err)
	}
}

func TestAppContextClose(t *testing.T) {
	a := &AppContext{}
	if err := a.Close(); err != nil {
		t.Errorf("Close() on an empty context should not error, got: %v", err)
	}
}

func openTestApp(t *testing.T) *AppContext {
	t.Helper()
	app, err := (&rootOptions{}).open()
	if err != nil {
		t.Fatal(err)
	}
	return app
}
