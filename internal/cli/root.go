package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/billr/internal/config"
	"github.com/sadopc/billr/internal/tui"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	envFile string
}

// open loads and validates configuration, then builds the app context.
func (o *rootOptions) open() (*AppContext, error) {
	var files []string
	if o.envFile != "" {
		files = append(files, o.envFile)
	}
	cfg := config.Load(files...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewAppContext(cfg)
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "billr",
		Short: "Track billable hours and expenses from the terminal",
		Long: `billr logs billable time and expenses in a local SQLite database and
summarises them on an interactive dashboard.

Run without a subcommand to open the dashboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env", "", "Load settings from this .env file (default: ./.env)")

	root.AddCommand(newSummaryCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newEntryCmd(opts))
	root.AddCommand(newExpenseCmd(opts))
	root.AddCommand(newRateCmd(opts))
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(opts *rootOptions) error {
	app, err := opts.open()
	if err != nil {
		return err
	}
	defer app.Close()

	m := tui.NewApp(tui.Deps{
		Store:        app.Store,
		Converter:    app.Converter,
		Logger:       app.Logger.WithComponent("tui"),
		BaseCurrency: app.Config.BaseCurrency,
	})

	app.Logger.Info("starting dashboard")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		app.Logger.Error("dashboard exited", "error", err)
		return err
	}
	return nil
}
