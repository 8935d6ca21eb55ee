// Package storage persists the budget dataset to an xlsx workbook or a
// SQLite database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrDuplicateID    = errors.New("duplicate expense id")
	ErrInvalidExpense = errors.New("invalid expense")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDataset checks the invariants every backend relies on before
// writing: a non-nil dataset and unique, positive expense IDs.
func validateDataset(ds *model.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: dataset", ErrNilParameter)
	}

	seen := make(map[int]bool, len(ds.Expenses))
	for i := range ds.Expenses {
		id := ds.Expenses[i].ID
		if id <= 0 {
			return fmt.Errorf("%w: row %d has id %d", ErrInvalidExpense, i+1, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return nil
}
