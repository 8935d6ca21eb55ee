package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/service"
)

// Sheet names of the master workbook.
const (
	SheetExpense = "EXPENSE"
	SheetERP     = "ERP_BUDGET"
	SheetRCMS    = "RCMS_BUDGET"
	SheetMapping = "MAPPING_ERP_RCMS"
)

// Column headers, in sheet order.
var (
	expenseHeaders = []string{"id", "통계목명", "사용일자", "지출결의명", "상세내역", "지출결의액", "rcms_code", "rcms_name", "rcms_settled", "created_at", "updated_at"}
	erpHeaders     = []string{"통계목명", "실행예산", "집행액", "잔액", "집행률", "updated_at"}
	rcmsHeaders    = []string{"rcms_code", "rcms_name", "parent_category", "budget_amount", "used_amount", "balance", "rate", "updated_at"}
	mappingHeaders = []string{"ERP_통계목명", "rcms_code", "rcms_name", "priority"}
)

// WorkbookStore persists the dataset as one xlsx workbook with four sheets.
type WorkbookStore struct {
	now  func() time.Time
	path string
}

// NewWorkbookStore returns a store for the workbook at path. The file does not
// need to exist yet.
func NewWorkbookStore(path string, clock func() time.Time) (*WorkbookStore, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	return &WorkbookStore{path: filepath.Clean(path), now: clock}, nil
}

// Path returns the workbook path.
func (w *WorkbookStore) Path() string {
	return w.path
}

// Exists reports whether the workbook file is present.
func (w *WorkbookStore) Exists() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

// Info describes the workbook file.
func (w *WorkbookStore) Info() (service.FileInfo, error) {
	info := service.FileInfo{Path: w.path, Folder: filepath.Dir(w.path)}
	exists, size, modified, err := fileInfo(w.path)
	if err != nil {
		return info, common.NewPersistenceError("stat", w.path, err)
	}
	info.Exists, info.Size, info.Modified = exists, size, modified
	return info, nil
}

// Create writes a workbook seeded from the catalog if none exists yet.
func (w *WorkbookStore) Create(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if w.Exists() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0750); err != nil {
		return common.NewPersistenceError("create", w.path, err)
	}

	if err := w.write(catalog.NewDataset(w.now())); err != nil {
		return err
	}
	slog.Info("Created master workbook", "path", w.path)
	return nil
}

// Load reads all four sheets. Missing or empty budget sheets are seeded from
// the catalog; a missing expense sheet loads as no records.
func (w *WorkbookStore) Load(ctx context.Context) (*model.Dataset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, common.NewPersistenceError("open", w.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("failed to close workbook", "path", w.path, "error", closeErr)
		}
	}()

	now := w.now()
	ds := &model.Dataset{}

	rows, err := readSheet(f, SheetExpense)
	if err != nil {
		return nil, common.NewPersistenceError("read "+SheetExpense, w.path, err)
	}
	if ds.Expenses, err = parseExpenses(rows); err != nil {
		return nil, common.NewPersistenceError("read "+SheetExpense, w.path, err)
	}

	if rows, err = readSheet(f, SheetERP); err != nil {
		return nil, common.NewPersistenceError("read "+SheetERP, w.path, err)
	}
	ds.ERPBudget = parseERP(rows)

	if rows, err = readSheet(f, SheetRCMS); err != nil {
		return nil, common.NewPersistenceError("read "+SheetRCMS, w.path, err)
	}
	ds.RCMSBudget = parseRCMS(rows)

	if rows, err = readSheet(f, SheetMapping); err != nil {
		return nil, common.NewPersistenceError("read "+SheetMapping, w.path, err)
	}
	ds.Mapping = parseMapping(rows)

	seedMissing(ds, now)

	slog.Debug("Loaded master workbook",
		"path", w.path,
		"records", len(ds.Expenses),
		"erp_rows", len(ds.ERPBudget),
		"rcms_rows", len(ds.RCMSBudget))
	return ds, nil
}

// Save backs up the current workbook, then atomically replaces it with ds.
// A failed backup is logged and does not stop the save.
func (w *WorkbookStore) Save(ctx context.Context, ds *model.Dataset) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDataset(ds); err != nil {
		return common.NewPersistenceError("save", w.path, err)
	}

	if w.Exists() {
		backup := availablePath(BackupFileName(filepath.Dir(w.path), w.path, w.now()))
		if err := copyFile(w.path, backup); err != nil {
			slog.Warn("Backup failed, saving anyway", "path", w.path, "backup", backup, "error", err)
		} else {
			slog.Info("Backed up master workbook", "backup", backup)
		}
	}

	if err := w.write(ds); err != nil {
		return err
	}

	slog.Info("Saved master workbook", "path", w.path, "records", len(ds.Expenses))
	return nil
}

// Close implements service.Persistence. The workbook is opened per call so
// there is nothing to release.
func (w *WorkbookStore) Close() error {
	return nil
}

func (w *WorkbookStore) write(ds *model.Dataset) error {
	f, err := buildWorkbook(ds)
	if err != nil {
		return common.NewPersistenceError("build", w.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("failed to close workbook", "error", closeErr)
		}
	}()

	err = writeAtomic(w.path, func(out io.Writer) error {
		return f.Write(out)
	})
	return common.NewPersistenceError("write", w.path, err)
}

func buildWorkbook(ds *model.Dataset) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetExpense); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetERP, SheetRCMS, SheetMapping} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	expenses := make([][]any, 0, len(ds.Expenses))
	for _, e := range ds.Expenses {
		expenses = append(expenses, []any{
			e.ID, e.Category, e.DateString(), e.Title, e.Detail, e.Amount,
			e.RCMSCode, e.RCMSName, e.Settled,
			formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt),
		})
	}

	erp := make([][]any, 0, len(ds.ERPBudget))
	for _, r := range ds.ERPBudget {
		erp = append(erp, []any{r.Category, r.Allocated, r.Executed, r.Balance, r.Rate, formatTimestamp(r.UpdatedAt)})
	}

	rcms := make([][]any, 0, len(ds.RCMSBudget))
	for _, r := range ds.RCMSBudget {
		rcms = append(rcms, []any{r.Code, r.Name, r.ParentCategory, r.Budget, r.Used, r.Balance, r.Rate, formatTimestamp(r.UpdatedAt)})
	}

	mapping := make([][]any, 0, len(ds.Mapping))
	for _, m := range ds.Mapping {
		mapping = append(mapping, []any{m.ERPCategory, m.RCMSCode, m.RCMSName, m.Priority})
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{SheetExpense, expenseHeaders, expenses},
		{SheetERP, erpHeaders, erp},
		{SheetRCMS, rcmsHeaders, rcms},
		{SheetMapping, mappingHeaders, mapping},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.headers, s.rows); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}

	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// sheetRows is a sheet's data rows addressed by header name.
type sheetRows struct {
	columns map[string]int
	rows    [][]string
}

func (s sheetRows) cell(row []string, header string) string {
	idx, ok := s.columns[header]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// readSheet returns the sheet's rows keyed by its header row. A missing
// sheet yields no rows.
func readSheet(f *excelize.File, sheet string) (sheetRows, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return sheetRows{}, err
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheetRows{}, err
	}
	if len(raw) == 0 {
		return sheetRows{}, nil
	}

	out := sheetRows{columns: make(map[string]int, len(raw[0]))}
	for i, h := range raw[0] {
		out.columns[strings.TrimSpace(h)] = i
	}
	for _, row := range raw[1:] {
		if isBlankRow(row) {
			continue
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseExpenses(s sheetRows) ([]model.Expense, error) {
	out := make([]model.Expense, 0, len(s.rows))
	for i, row := range s.rows {
		id, err := parseInt(s.cell(row, "id"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: id: %w", common.ErrWorkbookCorrupted, i+2, err)
		}
		amount, err := parseInt(s.cell(row, "지출결의액"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: amount: %w", common.ErrWorkbookCorrupted, i+2, err)
		}

		out = append(out, model.Expense{
			ID:        int(id),
			Category:  s.cell(row, "통계목명"),
			Date:      parseDate(s.cell(row, "사용일자")),
			Title:     s.cell(row, "지출결의명"),
			Detail:    s.cell(row, "상세내역"),
			Amount:    amount,
			RCMSCode:  s.cell(row, "rcms_code"),
			RCMSName:  s.cell(row, "rcms_name"),
			Settled:   model.NormalizeSettled(s.cell(row, "rcms_settled")),
			CreatedAt: parseTimestamp(s.cell(row, "created_at")),
			UpdatedAt: parseTimestamp(s.cell(row, "updated_at")),
		})
	}
	return out, nil
}

func parseERP(s sheetRows) []model.ERPBudgetRow {
	out := make([]model.ERPBudgetRow, 0, len(s.rows))
	for _, row := range s.rows {
		category := s.cell(row, "통계목명")
		if category == "" {
			continue
		}
		out = append(out, model.ERPBudgetRow{
			Category:  category,
			Allocated: parseIntOrZero(s.cell(row, "실행예산")),
			Executed:  parseIntOrZero(s.cell(row, "집행액")),
			Balance:   parseIntOrZero(s.cell(row, "잔액")),
			Rate:      parseFloatOrZero(s.cell(row, "집행률")),
			UpdatedAt: parseTimestamp(s.cell(row, "updated_at")),
		})
	}
	return out
}

func parseRCMS(s sheetRows) []model.RCMSBudgetRow {
	out := make([]model.RCMSBudgetRow, 0, len(s.rows))
	for _, row := range s.rows {
		code := s.cell(row, "rcms_code")
		if code == "" {
			continue
		}
		out = append(out, model.RCMSBudgetRow{
			Code:           code,
			Name:           s.cell(row, "rcms_name"),
			ParentCategory: s.cell(row, "parent_category"),
			Budget:         parseIntOrZero(s.cell(row, "budget_amount")),
			Used:           parseIntOrZero(s.cell(row, "used_amount")),
			Balance:        parseIntOrZero(s.cell(row, "balance")),
			Rate:           parseFloatOrZero(s.cell(row, "rate")),
			UpdatedAt:      parseTimestamp(s.cell(row, "updated_at")),
		})
	}
	return out
}

func parseMapping(s sheetRows) []model.MappingRow {
	out := make([]model.MappingRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, model.MappingRow{
			ERPCategory: s.cell(row, "ERP_통계목명"),
			RCMSCode:    s.cell(row, "rcms_code"),
			RCMSName:    s.cell(row, "rcms_name"),
			Priority:    int(parseIntOrZero(s.cell(row, "priority"))),
		})
	}
	return out
}

// seedMissing fills empty budget tables from the catalog and appends any
// catalog rows a loaded table lacks, so aggregation always sees the full set.
func seedMissing(ds *model.Dataset, now time.Time) {
	if ds.Expenses == nil {
		ds.Expenses = []model.Expense{}
	}
	if ds.Mapping == nil {
		ds.Mapping = []model.MappingRow{}
	}

	have := make(map[string]bool, len(ds.ERPBudget))
	for _, r := range ds.ERPBudget {
		have[r.Category] = true
	}
	for _, r := range catalog.NewERPTable(now) {
		if !have[r.Category] {
			ds.ERPBudget = append(ds.ERPBudget, r)
		}
	}

	have = make(map[string]bool, len(ds.RCMSBudget))
	for _, r := range ds.RCMSBudget {
		have[r.Code] = true
	}
	for _, r := range catalog.NewRCMSTable(now) {
		if !have[r.Code] {
			ds.RCMSBudget = append(ds.RCMSBudget, r)
		}
	}
}

var errEmptyNumber = errors.New("empty number")

// parseInt accepts plain integers, spreadsheet floats ("1000.0") and
// thousands separators.
func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, errEmptyNumber
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func parseIntOrZero(s string) int64 {
	n, err := parseInt(s)
	if err != nil {
		return 0
	}
	return n
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseDate reads a date cell written either as text or as an Excel serial.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if len(s) >= len(model.DateLayout) {
		if t, err := time.Parse(model.DateLayout, s[:len(model.DateLayout)]); err == nil {
			return t
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{model.TimestampLayout, time.RFC3339, model.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.TimestampLayout)
}
