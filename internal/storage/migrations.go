package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS expenses (
					id INTEGER PRIMARY KEY,
					position INTEGER NOT NULL,
					category TEXT NOT NULL,
					date TEXT NOT NULL,
					title TEXT NOT NULL,
					detail TEXT NOT NULL DEFAULT '',
					amount INTEGER NOT NULL,
					rcms_code TEXT NOT NULL DEFAULT '',
					rcms_name TEXT NOT NULL DEFAULT '',
					settled INTEGER NOT NULL DEFAULT 0,
					created_at TEXT,
					updated_at TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS erp_budget (
					category TEXT PRIMARY KEY,
					position INTEGER NOT NULL,
					allocated INTEGER NOT NULL DEFAULT 0,
					executed INTEGER NOT NULL DEFAULT 0,
					balance INTEGER NOT NULL DEFAULT 0,
					rate REAL NOT NULL DEFAULT 0,
					updated_at TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS rcms_budget (
					code TEXT PRIMARY KEY,
					position INTEGER NOT NULL,
					name TEXT NOT NULL,
					parent_category TEXT NOT NULL DEFAULT '',
					budget INTEGER NOT NULL DEFAULT 0,
					used INTEGER NOT NULL DEFAULT 0,
					balance INTEGER NOT NULL DEFAULT 0,
					rate REAL NOT NULL DEFAULT 0,
					updated_at TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS erp_rcms_mapping (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					erp_category TEXT NOT NULL,
					rcms_code TEXT NOT NULL,
					rcms_name TEXT NOT NULL DEFAULT '',
					priority INTEGER NOT NULL DEFAULT 0
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index expenses by date and RCMS code",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)`,
				`CREATE INDEX IF NOT EXISTS idx_expenses_rcms_code ON expenses(rcms_code)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
