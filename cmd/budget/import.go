package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/ofx"
	"github.com/Veraticus/the-budget-must-balance/internal/session"
)

// csvColumns maps accepted header names to draft fields.
var csvColumns = map[string]string{
	"통계목명":         "category",
	"category":     "category",
	"사용일자":         "date",
	"date":         "date",
	"지출결의명":        "title",
	"title":        "title",
	"상세내역":         "detail",
	"detail":       "detail",
	"지출결의액":        "amount",
	"amount":       "amount",
	"rcms_code":    "rcms_code",
	"rcms_name":    "rcms_name",
	"rcms_settled": "settled",
	"settled":      "settled",
}

var requiredCSVColumns = []string{"category", "date", "title", "amount"}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// csvRecord is one data row keyed by field name, with its 1-based line.
type csvRecord struct {
	fields map[string]string
	line   int
}

// readCSV reads a header-driven expense CSV. Unknown columns are ignored.
func readCSV(r io.Reader) ([]csvRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[int]string, len(header))
	seen := make(map[string]bool)
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if field, ok := csvColumns[strings.ToLower(name)]; ok {
			index[i] = field
			seen[field] = true
		}
	}
	var missing []string
	for _, field := range requiredCSVColumns {
		if !seen[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing columns: %s", strings.Join(missing, ", "))
	}

	var records []csvRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		fields := make(map[string]string, len(index))
		blank := true
		for i, value := range row {
			if field, ok := index[i]; ok {
				fields[field] = strings.TrimSpace(value)
				blank = blank && fields[field] == ""
			}
		}
		if !blank {
			records = append(records, csvRecord{fields: fields, line: line})
		}
	}
	return records, nil
}

// draft converts one CSV row into a validated expense draft.
func (r csvRecord) draft() (ledger.Draft, error) {
	date, err := ledger.ParseDate(r.fields["date"])
	if err != nil {
		return ledger.Draft{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	amount, err := ledger.ParseAmount(r.fields["amount"])
	if err != nil {
		return ledger.Draft{}, fmt.Errorf("line %d: %w", r.line, err)
	}

	d := ledger.Draft{
		Date:     date,
		Category: r.fields["category"],
		Title:    r.fields["title"],
		Detail:   r.fields["detail"],
		RCMSCode: r.fields["rcms_code"],
		RCMSName: r.fields["rcms_name"],
		Amount:   amount,
		Settled:  ptr(model.NormalizeSettled(r.fields["settled"])),
	}
	if err := ledger.ValidateExpense(d); err != nil {
		return ledger.Draft{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	return d, nil
}

func importCSVCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import expenses from a CSV file",
		Long: `Import expenses from a CSV file with a header row. Columns may use the
master file names (통계목명, 사용일자, 지출결의명, 상세내역, 지출결의액, rcms_code,
rcms_name, rcms_settled) or the English names (category, date, title, detail,
amount, settled). Invalid rows are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0]) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			records, err := readCSV(f)
			_ = f.Close()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "CSV import")

			bar := newProgressBar(cmd.ErrOrStderr(), len(records), "Validating rows...")
			var drafts []ledger.Draft
			var skipped int
			for _, rec := range records {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d, err := rec.draft()
				if err != nil {
					slog.Warn("Skipping row", "error", err)
					skipped++
				} else {
					drafts = append(drafts, d)
				}
				_ = bar.Add(1)
			}

			return applyImport(ctx, cmd, drafts, skipped, dryRun)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "validate without saving")

	return cmd
}

func importOFXCmd() *cobra.Command {
	var (
		opts   ofx.DraftOptions
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import card or bank debits from OFX/QFX files",
		Long: `Import debits from OFX or QFX statements as expenses. Credits are skipped
and the same transaction appearing in several files is imported once.

Examples:
  budget expense import-ofx --category 일반수용비 ~/Downloads/card_2025_03.ofx
  budget expense import-ofx -c 재료비 --rcms-code RCMS_008 ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "OFX import")

			parser := ofx.NewParser()
			bar := newProgressBar(cmd.ErrOrStderr(), len(files), "Parsing statements...")
			var entries []ofx.Entry
			for _, path := range files {
				found, err := parseOFXFile(ctx, parser, path)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					slog.Error("Failed to parse OFX file", "file", path, "error", err)
				} else {
					slog.Info("Processed file", "file", filepath.Base(path), "transactions_found", len(found))
					entries = append(entries, found...)
				}
				_ = bar.Add(1)
			}

			drafts, skipped := ofx.Drafts(entries, opts)
			return applyImport(ctx, cmd, drafts, skipped, dryRun)
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "ERP category for imported expenses")
	cmd.Flags().StringVar(&opts.RCMSCode, "rcms-code", "", "RCMS item code for imported expenses")
	cmd.Flags().BoolVar(&opts.Settled, "settled", false, "mark imported expenses as settled")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "parse without saving")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

// expandFiles expands glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(ctx, f)
}

// applyImport adds all drafts in one batch so the master file is written
// once, or not at all on a dry run or interrupt.
func applyImport(ctx context.Context, cmd *cobra.Command, drafts []ledger.Draft, skipped int, dryRun bool) error {
	out := cmd.OutOrStdout()
	var total int64
	for _, d := range drafts {
		total += d.Amount
	}

	if len(drafts) == 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Nothing to import (%d skipped)", skipped)))
		return nil
	}
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d expenses, %s, %d skipped; nothing saved",
			len(drafts), cli.FormatCurrency(total), skipped)))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, folderFlag, false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	res, err := ws.session.ApplyEdits(ctx, session.EditSet{Add: drafts})
	if err != nil {
		return err
	}
	for _, failed := range res.Failed {
		fmt.Fprintln(out, cli.FormatWarning(failed.Error()))
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d expenses (%s), %d skipped",
		len(res.Added), cli.FormatCurrency(total), skipped+len(res.Failed))))
	return nil
}
