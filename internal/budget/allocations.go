package budget

import (
	"sort"
	"strings"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// SetAllocations applies allocation edits to the category rows of table and
// re-derives the grand-total allocation. The grand total itself cannot be
// set. On error table is left untouched.
func SetAllocations(table []model.ERPBudgetRow, amounts map[string]int64) error {
	index := make(map[string]int, len(table))
	for i, row := range table {
		index[row.Category] = i
	}

	var unknown []string
	for category := range amounts {
		if category == catalog.GrandTotal {
			return common.NewValidationError("category", "the grand total allocation is derived and cannot be set")
		}
		if _, ok := index[category]; !ok {
			unknown = append(unknown, category)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return common.NewValidationError("category", "unknown category: "+strings.Join(unknown, ", "))
	}

	for category, amount := range amounts {
		row := &table[index[category]]
		row.Allocated = amount
		row.Balance = amount - row.Executed
		row.Rate = Rate(row.Executed, amount)
	}
	DeriveGrandTotal(table)
	return nil
}

// SetBudgets applies budget edits to the RCMS table by code. On error table
// is left untouched.
func SetBudgets(table []model.RCMSBudgetRow, amounts map[string]int64) error {
	index := make(map[string]int, len(table))
	for i, row := range table {
		index[row.Code] = i
	}

	var unknown []string
	for code := range amounts {
		if _, ok := index[code]; !ok {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return common.NewValidationError("rcms_code", "unknown RCMS code: "+strings.Join(unknown, ", "))
	}

	for code, amount := range amounts {
		row := &table[index[code]]
		row.Budget = amount
		row.Balance = amount - row.Used
		row.Rate = Rate(row.Used, amount)
	}
	return nil
}
