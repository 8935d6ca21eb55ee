package budget

import (
	"slices"
	"strings"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// ERPAllocation is the user-editable projection of an ERP row.
type ERPAllocation struct {
	Category  string
	Allocated int64
}

// RCMSBudget is the user-editable projection of an RCMS row.
type RCMSBudget struct {
	Code   string
	Name   string
	Budget int64
}

// Edits counts the record edits in a batch.
type Edits struct {
	Added   int
	Updated int
	Deleted []int
}

// Empty reports whether the edit set carries no record changes.
func (e Edits) Empty() bool {
	return e.Added == 0 && e.Updated == 0 && len(e.Deleted) == 0
}

// Snapshot holds the editable columns of both budget tables at one moment.
type Snapshot struct {
	ERP  []ERPAllocation
	RCMS []RCMSBudget
}

// TakeSnapshot projects both tables onto their editable columns.
func TakeSnapshot(erp []model.ERPBudgetRow, rcms []model.RCMSBudgetRow) Snapshot {
	return Snapshot{ERP: ERPEditable(erp), RCMS: RCMSEditable(rcms)}
}

// ERPEditable returns the sorted (category, allocated) pairs of table.
func ERPEditable(table []model.ERPBudgetRow) []ERPAllocation {
	out := make([]ERPAllocation, 0, len(table))
	for _, row := range table {
		out = append(out, ERPAllocation{Category: row.Category, Allocated: row.Allocated})
	}
	slices.SortFunc(out, func(a, b ERPAllocation) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return cmpInt64(a.Allocated, b.Allocated)
	})
	return out
}

// RCMSEditable returns the sorted (code, name, budget) triples of table.
func RCMSEditable(table []model.RCMSBudgetRow) []RCMSBudget {
	out := make([]RCMSBudget, 0, len(table))
	for _, row := range table {
		out = append(out, RCMSBudget{Code: row.Code, Name: row.Name, Budget: row.Budget})
	}
	slices.SortFunc(out, func(a, b RCMSBudget) int {
		if c := strings.Compare(a.Code, b.Code); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpInt64(a.Budget, b.Budget)
	})
	return out
}

// HasChanges reports whether edits or the difference between before and
// after warrant a save. Derived columns and timestamps are never compared.
func HasChanges(edits Edits, before, after Snapshot) bool {
	if !edits.Empty() {
		return true
	}
	return !slices.Equal(before.ERP, after.ERP) || !slices.Equal(before.RCMS, after.RCMS)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
