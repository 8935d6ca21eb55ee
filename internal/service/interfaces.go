// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Persistence loads and saves the four budget tables as one unit.
// Save is all-or-nothing: either every table is written or an error is
// returned and the previous file is left in place.
type Persistence interface {
	Load(ctx context.Context) (*model.Dataset, error)
	Save(ctx context.Context, data *model.Dataset) error
	Close() error
}

// Initializer is implemented by persistence backends that can create an
// empty, catalog-seeded file on first use.
type Initializer interface {
	Exists() bool
	Create(ctx context.Context) error
}

// ReportWriter publishes an execution report somewhere outside the workbook.
type ReportWriter interface {
	Write(ctx context.Context, report *model.ExecutionReport) error
}

// FileInfo describes the backing file of a persistence backend.
type FileInfo struct {
	Modified time.Time
	Path     string
	Folder   string
	Size     int64
	Exists   bool
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
