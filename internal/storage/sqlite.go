package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore persists the dataset in a SQLite database, one table per sheet.
type SQLiteStore struct {
	now    func() time.Time
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// migrates it to the current schema.
func NewSQLiteStore(ctx context.Context, dbPath string, clock func() time.Time) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}

	dsn := dbPath
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath, now: clock}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Exists reports whether the budget tables have been seeded.
func (s *SQLiteStore) Exists() bool {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM erp_budget").Scan(&n); err != nil {
		return false
	}
	return n > 0
}

// Info describes the database file.
func (s *SQLiteStore) Info() (service.FileInfo, error) {
	info := service.FileInfo{Path: s.dbPath}
	if s.dbPath == MemoryPath {
		info.Exists = true
		return info, nil
	}
	info.Folder = filepath.Dir(s.dbPath)
	exists, size, modified, err := fileInfo(s.dbPath)
	if err != nil {
		return info, common.NewPersistenceError("stat", s.dbPath, err)
	}
	info.Exists, info.Size, info.Modified = exists, size, modified
	return info, nil
}

// Create seeds the budget tables from the catalog when they are empty.
func (s *SQLiteStore) Create(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if s.Exists() {
		return nil
	}
	if err := s.replaceAll(ctx, catalog.NewDataset(s.now())); err != nil {
		return common.NewPersistenceError("create", s.dbPath, err)
	}
	slog.Info("Created budget database", "path", s.dbPath)
	return nil
}

// Load reads every table. Missing catalog rows are seeded.
func (s *SQLiteStore) Load(ctx context.Context) (*model.Dataset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	ds := &model.Dataset{}
	var err error
	if ds.Expenses, err = s.loadExpenses(ctx); err != nil {
		return nil, common.NewPersistenceError("load expenses", s.dbPath, err)
	}
	if ds.ERPBudget, err = s.loadERP(ctx); err != nil {
		return nil, common.NewPersistenceError("load erp_budget", s.dbPath, err)
	}
	if ds.RCMSBudget, err = s.loadRCMS(ctx); err != nil {
		return nil, common.NewPersistenceError("load rcms_budget", s.dbPath, err)
	}
	if ds.Mapping, err = s.loadMapping(ctx); err != nil {
		return nil, common.NewPersistenceError("load erp_rcms_mapping", s.dbPath, err)
	}

	seedMissing(ds, s.now())
	return ds, nil
}

// Save backs up the database and rewrites all four tables in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, ds *model.Dataset) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDataset(ds); err != nil {
		return common.NewPersistenceError("save", s.dbPath, err)
	}

	if s.dbPath != MemoryPath && s.Exists() {
		if backup, err := s.Backup(ctx); err != nil {
			slog.Warn("Backup failed, saving anyway", "path", s.dbPath, "error", err)
		} else {
			slog.Info("Backed up budget database", "backup", backup)
		}
	}

	if err := s.replaceAll(ctx, ds); err != nil {
		return common.NewPersistenceError("save", s.dbPath, err)
	}
	slog.Info("Saved budget database", "path", s.dbPath, "records", len(ds.Expenses))
	return nil
}

// Backup copies the database to backups/<stem>_backup_<ts>.db next to it.
func (s *SQLiteStore) Backup(ctx context.Context) (string, error) {
	if s.dbPath == MemoryPath {
		return "", fmt.Errorf("cannot back up an in-memory database")
	}

	absPath, err := filepath.Abs(s.dbPath)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(filepath.Dir(absPath), "backups")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	dest := availablePath(BackupFileName(dir, absPath, s.now()))

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	if strings.ContainsAny(dest, "'\";") || strings.Contains(dest, "..") {
		return "", fmt.Errorf("invalid destination path: contains forbidden characters")
	}
	// #nosec G201 - dest is validated above to prevent SQL injection
	query := fmt.Sprintf("VACUUM INTO '%s'", dest)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		// Fallback to file copy if VACUUM INTO not supported
		if copyErr := copyFile(absPath, dest); copyErr != nil {
			return "", copyErr
		}
	}
	return dest, nil
}

func (s *SQLiteStore) replaceAll(ctx context.Context, ds *model.Dataset) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"expenses", "erp_budget", "rcms_budget", "erp_rcms_mapping"} {
		// #nosec G202 - table names are constants
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err = insertExpenses(ctx, tx, ds.Expenses); err != nil {
		return err
	}
	if err = insertERP(ctx, tx, ds.ERPBudget); err != nil {
		return err
	}
	if err = insertRCMS(ctx, tx, ds.RCMSBudget); err != nil {
		return err
	}
	if err = insertMapping(ctx, tx, ds.Mapping); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertExpenses(ctx context.Context, tx *sql.Tx, expenses []model.Expense) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (id, position, category, date, title, detail, amount,
			rcms_code, rcms_name, settled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare expense insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			slog.Error("failed to close statement", "error", closeErr)
		}
	}()

	for i, e := range expenses {
		if _, err := stmt.ExecContext(ctx,
			e.ID, i, e.Category, e.DateString(), e.Title, e.Detail, e.Amount,
			e.RCMSCode, e.RCMSName, e.Settled,
			formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert expense %d: %w", e.ID, err)
		}
	}
	return nil
}

func insertERP(ctx context.Context, tx *sql.Tx, rows []model.ERPBudgetRow) error {
	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO erp_budget (category, position, allocated, executed, balance, rate, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Category, i, r.Allocated, r.Executed, r.Balance, r.Rate, formatTimestamp(r.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert erp row %q: %w", r.Category, err)
		}
	}
	return nil
}

func insertRCMS(ctx context.Context, tx *sql.Tx, rows []model.RCMSBudgetRow) error {
	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rcms_budget (code, position, name, parent_category, budget, used, balance, rate, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Code, i, r.Name, r.ParentCategory, r.Budget, r.Used, r.Balance, r.Rate, formatTimestamp(r.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert rcms row %q: %w", r.Code, err)
		}
	}
	return nil
}

func insertMapping(ctx context.Context, tx *sql.Tx, rows []model.MappingRow) error {
	for _, m := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO erp_rcms_mapping (erp_category, rcms_code, rcms_name, priority)
			VALUES (?, ?, ?, ?)`,
			m.ERPCategory, m.RCMSCode, m.RCMSName, m.Priority,
		); err != nil {
			return fmt.Errorf("failed to insert mapping row: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadExpenses(ctx context.Context) ([]model.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, date, title, detail, amount, rcms_code, rcms_name,
			settled, COALESCE(created_at, ''), COALESCE(updated_at, '')
		FROM expenses ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Error("failed to close rows", "error", closeErr)
		}
	}()

	out := []model.Expense{}
	for rows.Next() {
		var (
			e                          model.Expense
			date, createdAt, updatedAt string
			settled                    int
		)
		if err := rows.Scan(&e.ID, &e.Category, &date, &e.Title, &e.Detail, &e.Amount,
			&e.RCMSCode, &e.RCMSName, &settled, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Date = parseDate(date)
		e.Settled = model.NormalizeSettled(settled)
		e.CreatedAt = parseTimestamp(createdAt)
		e.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadERP(ctx context.Context) ([]model.ERPBudgetRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, allocated, executed, balance, rate, COALESCE(updated_at, '')
		FROM erp_budget ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Error("failed to close rows", "error", closeErr)
		}
	}()

	var out []model.ERPBudgetRow
	for rows.Next() {
		var r model.ERPBudgetRow
		var updatedAt string
		if err := rows.Scan(&r.Category, &r.Allocated, &r.Executed, &r.Balance, &r.Rate, &updatedAt); err != nil {
			return nil, err
		}
		r.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadRCMS(ctx context.Context) ([]model.RCMSBudgetRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, parent_category, budget, used, balance, rate, COALESCE(updated_at, '')
		FROM rcms_budget ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Error("failed to close rows", "error", closeErr)
		}
	}()

	var out []model.RCMSBudgetRow
	for rows.Next() {
		var r model.RCMSBudgetRow
		var updatedAt string
		if err := rows.Scan(&r.Code, &r.Name, &r.ParentCategory, &r.Budget, &r.Used, &r.Balance, &r.Rate, &updatedAt); err != nil {
			return nil, err
		}
		r.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadMapping(ctx context.Context) ([]model.MappingRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT erp_category, rcms_code, rcms_name, priority
		FROM erp_rcms_mapping ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Error("failed to close rows", "error", closeErr)
		}
	}()

	out := []model.MappingRow{}
	for rows.Next() {
		var m model.MappingRow
		if err := rows.Scan(&m.ERPCategory, &m.RCMSCode, &m.RCMSName, &m.Priority); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
