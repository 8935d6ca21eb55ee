package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/service"
)

// Supported backends.
const (
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
)

// Store is a persistence backend for one master file.
type Store interface {
	service.Persistence
	service.Initializer
	Info() (service.FileInfo, error)
	Path() string
}

var (
	_ Store = (*WorkbookStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Extension returns the master file extension for backend, without a dot.
func Extension(backend string) string {
	if strings.EqualFold(backend, BackendSQLite) {
		return "db"
	}
	return "xlsx"
}

// Open returns the backend store for path.
func Open(ctx context.Context, backend, path string, clock func() time.Time) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendXLSX:
		return NewWorkbookStore(path, clock)
	case BackendSQLite:
		return NewSQLiteStore(ctx, path, clock)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", common.ErrInvalidConfig, backend)
	}
}
