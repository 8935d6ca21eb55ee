package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/tui"
	"github.com/Veraticus/the-budget-must-balance/internal/tui/themes"
)

func resultCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:     "result",
		Aliases: []string{"status"},
		Short:   "Show the budget execution result",
		Long: `Show the ERP and RCMS budget tables, the reconciliation between them and
the unsettled expenses. ERP counts every expense while RCMS counts settled
ones only, so a difference usually means something is still unsettled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			report := ws.session.Result()
			if !interactive {
				return cli.RenderReport(cmd.OutOrStdout(), report)
			}

			unsettled := ws.session.Expenses(ledger.Filter{Settled: ptr(false)})
			return tui.Run(cmd.Context(), report, unsettled,
				tui.WithTheme(themes.GetTheme(viper.GetString("tui.theme"))))
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the result in a terminal UI")

	return cmd
}
