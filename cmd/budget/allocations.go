package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
)

func erpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "erp",
		Short: "Show or set ERP category allocations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the ERP budget table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			report := ws.session.Result()
			if err := cli.RenderERP(cmd.OutOrStdout(), report.ERP); err != nil {
				return err
			}
			return cli.RenderTotals(cmd.OutOrStdout(), "ERP", report.ERPTotals)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <category=amount>...",
		Short: "Set allocated amounts per category",
		Long: `Set allocated amounts per ERP category. The grand total (총액) is always
derived from the other categories and cannot be set.`,
		Example: `  budget erp set 재료비=12,000,000 국내여비=3000000`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts, err := parseAssignments(args)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			changed, err := ws.session.UpdateERPAllocations(cmd.Context(), amounts)
			if err != nil {
				return err
			}
			reportChange(cmd, changed, len(amounts), "ERP allocation")
			return nil
		},
	})

	return cmd
}

func rcmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rcms",
		Short: "Show or set RCMS item budgets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the RCMS budget table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			report := ws.session.Result()
			if err := cli.RenderRCMS(cmd.OutOrStdout(), report.RCMS); err != nil {
				return err
			}
			return cli.RenderTotals(cmd.OutOrStdout(), "RCMS", report.RCMSTotals)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <code=amount>...",
		Short:   "Set budgets per RCMS item code",
		Example: `  budget rcms set RCMS_008=10,000,000 RCMS_017=2500000`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts, err := parseAssignments(args)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			changed, err := ws.session.UpdateRCMSBudgets(cmd.Context(), amounts)
			if err != nil {
				return err
			}
			reportChange(cmd, changed, len(amounts), "RCMS budget")
			return nil
		},
	})

	return cmd
}

func reportChange(cmd *cobra.Command, changed bool, n int, what string) {
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No changes; master file not written"))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved %d %s value(s)", n, what)))
}
