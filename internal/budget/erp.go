package budget

import (
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// CalculateERP recomputes the derived columns of the ERP table from every
// expense record. Allocations on category rows are kept; the grand-total row
// is always re-derived from the category rows. Rows are never added or
// removed, so expenses under a category without a row contribute nothing.
func CalculateERP(expenses []model.Expense, table []model.ERPBudgetRow, now time.Time) []model.ERPBudgetRow {
	executed := make(map[string]int64, len(table))
	for _, e := range expenses {
		executed[e.Category] += e.Amount
	}

	out := make([]model.ERPBudgetRow, len(table))
	copy(out, table)

	total := -1
	var allocated, spent int64
	for i := range out {
		row := &out[i]
		row.UpdatedAt = now
		if row.Category == catalog.GrandTotal {
			total = i
			continue
		}
		row.Executed = executed[row.Category]
		row.Balance = row.Allocated - row.Executed
		row.Rate = Rate(row.Executed, row.Allocated)
		allocated += row.Allocated
		spent += row.Executed
	}

	if total >= 0 {
		row := &out[total]
		row.Allocated = allocated
		row.Executed = spent
		row.Balance = allocated - spent
		row.Rate = Rate(spent, allocated)
	}

	return out
}

// DeriveGrandTotal re-derives only the grand-total allocation, leaving every
// other column alone. Used right after allocation edits.
func DeriveGrandTotal(table []model.ERPBudgetRow) {
	var allocated int64
	total := -1
	for i, row := range table {
		if row.Category == catalog.GrandTotal {
			total = i
			continue
		}
		allocated += row.Allocated
	}
	if total >= 0 {
		table[total].Allocated = allocated
		table[total].Balance = allocated - table[total].Executed
		table[total].Rate = Rate(table[total].Executed, allocated)
	}
}
