package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/billr/internal/store"
)

type entryOptions struct {
	date        string
	client      string
	project     string
	description string
	hours       float64
	rate        float64
	amount      float64
}

func newEntryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage time entries",
	}

	opts := &entryOptions{}
	add := &cobra.Command{
		Use:   "add",
		Short: "Log a time entry",
		Long: `Log billable hours.

The rate defaults to the default_rate setting and the amount to hours x rate.

Examples:
  billr entry add --hours 2.5 --client Acme --project Website
  billr entry add --date 2024-01-15 --hours 1 --rate 120 --description "Call"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.open()
			if err != nil {
				return err
			}
			defer app.Close()
			return runEntryAdd(app, opts, cmd.Flags().Changed("rate"), cmd.OutOrStdout())
		},
	}
	add.Flags().StringVarP(&opts.date, "date", "d", "", "Date (YYYY-MM-DD, default: today)")
	add.Flags().StringVarP(&opts.client, "client", "c", "", "Client name")
	add.Flags().StringVarP(&opts.project, "project", "p", "", "Project name")
	add.Flags().StringVarP(&opts.description, "description", "m", "", "What was done")
	add.Flags().Float64Var(&opts.hours, "hours", 0, "Hours worked")
	add.Flags().Float64Var(&opts.rate, "rate", 0, "Hourly rate (default: default_rate setting)")
	add.Flags().Float64Var(&opts.amount, "amount", 0, "Billed amount (default: hours x rate)")
	_ = add.MarkFlagRequired("hours")

	cmd.AddCommand(add)
	return cmd
}

func runEntryAdd(app *AppContext, opts *entryOptions, rateSet bool, out io.Writer) error {
	if opts.hours <= 0 {
		return errors.New("hours must be positive")
	}
	if opts.rate < 0 || opts.amount < 0 {
		return errors.New("rate and amount must not be negative")
	}
	date, err := parseDay(opts.date)
	if err != nil {
		return err
	}
	rate := opts.rate
	if !rateSet {
		rate = app.Store.DefaultRate()
	}

	e, err := app.Store.CreateEntry(store.TimeEntry{
		Date:        date,
		Client:      opts.client,
		Project:     opts.project,
		Description: opts.description,
		Hours:       opts.hours,
		Rate:        rate,
		Amount:      opts.amount,
	})
	if err != nil {
		return err
	}
	app.Logger.Info("entry added", "id", e.ID, "hours", e.Hours, "amount", e.Amount)
	fmt.Fprintf(out, "Logged %.2fh on %s (%.2f) as %s\n", e.Hours, e.Date.Format("2006-01-02"), e.Amount, e.ID)
	return nil
}

type expenseOptions struct {
	date        string
	client      string
	project     string
	category    string
	description string
	amount      float64
}

func newExpenseCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Manage expenses",
	}

	opts := &expenseOptions{}
	add := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record a business expense.

Examples:
  billr expense add --amount 49.99 --category software
  billr expense add --amount 120 --client Acme --category travel --description "Train"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.open()
			if err != nil {
				return err
			}
			defer app.Close()
			return runExpenseAdd(app, opts, cmd.OutOrStdout())
		},
	}
	add.Flags().StringVarP(&opts.date, "date", "d", "", "Date (YYYY-MM-DD, default: today)")
	add.Flags().StringVarP(&opts.client, "client", "c", "", "Client name")
	add.Flags().StringVarP(&opts.project, "project", "p", "", "Project name")
	add.Flags().StringVar(&opts.category, "category", "other", "Expense category")
	add.Flags().StringVarP(&opts.description, "description", "m", "", "What was bought")
	add.Flags().Float64Var(&opts.amount, "amount", 0, "Amount spent")
	_ = add.MarkFlagRequired("amount")

	cmd.AddCommand(add)
	return cmd
}

func runExpenseAdd(app *AppContext, opts *expenseOptions, out io.Writer) error {
	if opts.amount <= 0 {
		return errors.New("amount must be positive")
	}
	date, err := parseDay(opts.date)
	if err != nil {
		return err
	}
	x, err := app.Store.CreateExpense(store.Expense{
		Date:        date,
		Client:      opts.client,
		Project:     opts.project,
		Category:    opts.category,
		Description: opts.description,
		Amount:      opts.amount,
	})
	if err != nil {
		return err
	}
	app.Logger.Info("expense added", "id", x.ID, "amount", x.Amount)
	fmt.Fprintf(out, "Recorded %.2f %s expense on %s as %s\n", x.Amount, x.Category, x.Date.Format("2006-01-02"), x.ID)
	return nil
}

func newRateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rate",
		Short: "Show the exchange rate used for converted totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.open()
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c := app.Converter
			fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %.4f %s\n", c.Base(), c.Rate(ctx), c.Target())
			return nil
		},
	}
}
