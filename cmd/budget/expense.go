package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/session"
)

func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"expenses"},
		Short:   "Record and manage expenses",
		Long: `Add, edit, delete and list expenses. Every change re-aggregates the ERP
and RCMS budgets and saves the master file.`,
	}

	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(editExpenseCmd())
	cmd.AddCommand(deleteExpenseCmd())
	cmd.AddCommand(listExpensesCmd())
	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importOFXCmd())

	return cmd
}

// expenseFlags are the editable expense fields shared by add and edit.
type expenseFlags struct {
	date     string
	category string
	title    string
	detail   string
	amount   string
	rcmsCode string
	rcmsName string
	settled  bool
}

func (f *expenseFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.date, "date", "", "date of use (YYYY-MM-DD)")
	fs.StringVarP(&f.category, "category", "c", "", "ERP statistics category")
	fs.StringVarP(&f.title, "title", "t", "", "expense title")
	fs.StringVar(&f.detail, "detail", "", "details")
	fs.StringVarP(&f.amount, "amount", "a", "", "amount in won, negative for refunds")
	fs.StringVar(&f.rcmsCode, "rcms-code", "", "RCMS item code, e.g. RCMS_008")
	fs.StringVar(&f.rcmsName, "rcms-name", "", "RCMS item name (resolved to its code)")
	fs.BoolVar(&f.settled, "settled", false, "mark as settled in RCMS")
}

// draft builds a new expense. An empty date means today.
func (f *expenseFlags) draft(today time.Time) (ledger.Draft, error) {
	d := ledger.Draft{
		Date:     today,
		Category: f.category,
		Title:    f.title,
		Detail:   f.detail,
		RCMSCode: f.rcmsCode,
		RCMSName: f.rcmsName,
		Settled:  ptr(f.settled),
	}
	if f.date != "" {
		date, err := ledger.ParseDate(f.date)
		if err != nil {
			return ledger.Draft{}, err
		}
		d.Date = date
	}
	amount, err := ledger.ParseAmount(f.amount)
	if err != nil {
		return ledger.Draft{}, err
	}
	d.Amount = amount

	if err := ledger.ValidateExpense(d); err != nil {
		return ledger.Draft{}, err
	}
	return d, nil
}

// patch builds an update from the flags the user actually set.
func (f *expenseFlags) patch(changed func(string) bool) (ledger.Patch, error) {
	var p ledger.Patch
	if changed("date") {
		date, err := ledger.ParseDate(f.date)
		if err != nil {
			return p, err
		}
		p.Date = &date
	}
	if changed("amount") {
		amount, err := ledger.ParseAmount(f.amount)
		if err != nil {
			return p, err
		}
		p.Amount = &amount
	}
	if changed("category") {
		p.Category = ptr(f.category)
	}
	if changed("title") {
		p.Title = ptr(f.title)
	}
	if changed("detail") {
		p.Detail = ptr(f.detail)
	}
	if changed("rcms-code") {
		p.RCMSCode = ptr(f.rcmsCode)
	}
	if changed("rcms-name") {
		p.RCMSName = ptr(f.rcmsName)
	}
	if changed("settled") {
		p.Settled = ptr(f.settled)
	}
	return p, nil
}

func addExpenseCmd() *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Example: `  budget expense add -c 재료비 -t "시약 구입" -a 125,000 --rcms-code RCMS_008
  budget expense add -c 국내여비 -t "학회 출장" -a 48000 --date 2025-03-14 --settled`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := flags.draft(time.Now())
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			res, err := ws.session.ApplyEdits(cmd.Context(), session.EditSet{Add: []ledger.Draft{draft}})
			if err != nil {
				return err
			}
			if len(res.Failed) > 0 {
				return res.Failed[0]
			}

			e := res.Added[0]
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added expense %d: %s %s",
				e.ID, e.Title, cli.FormatCurrency(e.Amount))))
			return nil
		},
	}

	flags.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func editExpenseCmd() *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an expense",
		Long: `Change fields of an expense. Only the flags given are applied. Setting
--rcms-code re-derives the RCMS item name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			patch, err := flags.patch(cmd.Flags().Changed)
			if err != nil {
				return err
			}
			if patch == (ledger.Patch{}) {
				return errors.New("nothing to change; pass at least one field flag")
			}

			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			res, err := ws.session.ApplyEdits(cmd.Context(), session.EditSet{
				Update: []session.Update{{ID: ids[0], Patch: patch}},
			})
			if err != nil {
				return err
			}
			if len(res.Failed) > 0 {
				return res.Failed[0]
			}
			if !res.Changed {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No changes"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated expense %d", ids[0])))
			return nil
		},
	}

	flags.register(cmd.Flags())

	return cmd
}

func deleteExpenseCmd() *cobra.Command {
	var yes, ignoreMissing bool

	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete expenses",
		Long: `Delete expenses by ID. Deleted IDs are never reused.

Unknown IDs are reported as failures unless --ignore-missing is given, in
which case they are skipped silently.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			if !yes {
				reader := cli.NewNonBlockingReader(os.Stdin)
				ok, err := reader.Confirm(cmd.Context(), cmd.OutOrStdout(), fmt.Sprintf("Delete %d expense(s)?", len(ids)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled"))
					return nil
				}
			}

			if ignoreMissing {
				removed, err := ws.session.DeleteExpenses(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %d expense(s)", removed)))
				return nil
			}

			res, err := ws.session.ApplyEdits(cmd.Context(), session.EditSet{Delete: ids})
			if err != nil {
				return err
			}
			for _, failed := range res.Failed {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(failed.Error()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %d expense(s)", len(res.Deleted))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	cmd.Flags().BoolVar(&ignoreMissing, "ignore-missing", false, "skip unknown IDs instead of reporting them")

	return cmd
}

// listFlags are the expense filter options.
type listFlags struct {
	category  string
	from      string
	to        string
	title     string
	min       string
	max       string
	settled   bool
	unsettled bool
}

func (f listFlags) filter() (ledger.Filter, error) {
	filter := ledger.Filter{Category: f.category, Title: f.title}

	if f.settled && f.unsettled {
		return filter, errors.New("--settled and --unsettled are mutually exclusive")
	}
	if f.settled {
		filter.Settled = ptr(true)
	}
	if f.unsettled {
		filter.Settled = ptr(false)
	}

	for _, d := range []struct {
		dst   **time.Time
		value string
	}{{&filter.Start, f.from}, {&filter.End, f.to}} {
		if d.value == "" {
			continue
		}
		date, err := ledger.ParseDate(d.value)
		if err != nil {
			return filter, err
		}
		*d.dst = &date
	}

	for _, a := range []struct {
		dst   **int64
		value string
	}{{&filter.MinAmount, f.min}, {&filter.MaxAmount, f.max}} {
		if a.value == "" {
			continue
		}
		amount, err := ledger.ParseAmount(a.value)
		if err != nil {
			return filter, err
		}
		*a.dst = &amount
	}

	return filter, nil
}

func listExpensesCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenses",
		Long:    `List expenses. All given filters must match; dates are inclusive.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			return cli.RenderExpenses(cmd.OutOrStdout(), ws.session.Expenses(filter))
		},
	}

	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "exact ERP category")
	cmd.Flags().StringVar(&flags.from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.title, "title", "t", "", "title contains, case-insensitive")
	cmd.Flags().StringVar(&flags.min, "min", "", "minimum amount")
	cmd.Flags().StringVar(&flags.max, "max", "", "maximum amount")
	cmd.Flags().BoolVar(&flags.settled, "settled", false, "only settled expenses")
	cmd.Flags().BoolVar(&flags.unsettled, "unsettled", false, "only unsettled expenses")

	return cmd
}
