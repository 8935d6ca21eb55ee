package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/config"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/service"
	"github.com/Veraticus/the-budget-must-balance/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish the execution result",
	}

	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var spreadsheetID string

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the execution result to Google Sheets",
		Long: `Write the execution result to Google Sheets. Authenticate once with
'budget auth sheets' or configure sheets.service_account_path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if spreadsheetID != "" {
				viper.Set("sheets.spreadsheet_id", spreadsheetID)
			}
			sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return fmt.Errorf("google sheets is not configured: %w", err)
			}

			ws, err := openWorkspace(ctx, folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
			if err != nil {
				return err
			}
			return publishReport(ctx, cmd.OutOrStdout(), writer, ws.session.Result(), "Google Sheets")
		},
	}

	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet-id", "", "target spreadsheet (default: sheets.spreadsheet_id or a new one)")

	return cmd
}

func publishReport(ctx context.Context, out io.Writer, writer service.ReportWriter, report *model.ExecutionReport, target string) error {
	if err := writer.Write(ctx, report); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	status := "match"
	if !report.Reconciliation.Match {
		status = "differ by " + cli.FormatCurrency(report.Reconciliation.Difference)
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported execution result to %s (ERP/RCMS %s)", target, status)))
	return nil
}
