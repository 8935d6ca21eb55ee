package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/config"
)

func workspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage the work folder and its master file",
		Long: `A work folder holds one master file named after the folder,
e.g. "2025 과제/2025 과제_master.xlsx". The last folder used is remembered.`,
	}

	cmd.AddCommand(workspaceInitCmd())
	cmd.AddCommand(workspaceOpenCmd())
	cmd.AddCommand(workspaceInfoCmd())

	return cmd
}

func workspaceInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <folder>",
		Short: "Create a work folder with an empty master file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := config.ExpandPath(args[0])
			if err := os.MkdirAll(folder, 0750); err != nil {
				return fmt.Errorf("failed to create folder: %w", err)
			}

			ws, err := openWorkspace(cmd.Context(), folder, true)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Master file ready: "+ws.store.Path()))
			return nil
		},
	}
}

func workspaceOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <folder>",
		Short: "Switch to an existing work folder",
		Long:  `Switch to an existing work folder, creating its master file when the folder has none.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := config.ExpandPath(args[0])
			if stat, err := os.Stat(folder); err != nil || !stat.IsDir() {
				return fmt.Errorf("%s is not a folder", folder)
			}

			ws, err := openWorkspace(cmd.Context(), folder, true)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			summary := ws.session.Summary()
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Opened %s (%d expenses, %s)",
				filepath.Base(ws.store.Path()), summary.RowCount, cli.FormatCurrency(summary.TotalAmount))))
			return nil
		},
	}
}

func workspaceInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the current master file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd.Context(), folderFlag, false)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			info, err := ws.store.Info()
			if err != nil {
				return err
			}
			summary := ws.session.Summary()
			unsettled := ws.session.Result().Unsettled

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Folder\t%s\n", info.Folder)
			fmt.Fprintf(w, "Master file\t%s\n", info.Path)
			fmt.Fprintf(w, "Backend\t%s\n", config.LoadWorkspace(viper.GetViper()).Backend)
			fmt.Fprintf(w, "Size\t%d bytes\n", info.Size)
			fmt.Fprintf(w, "Modified\t%s\n", info.Modified.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "Expenses\t%d (%s)\n", summary.RowCount, cli.FormatCurrency(summary.TotalAmount))
			fmt.Fprintf(w, "ID range\t%s\n", idRange(ws.session.IDs()))
			fmt.Fprintf(w, "Unsettled\t%d (%s)\n", unsettled.Count, cli.FormatCurrency(unsettled.Total))
			return w.Flush()
		},
	}
}

func idRange(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	return fmt.Sprintf("%d..%d", ids[0], ids[len(ids)-1])
}
