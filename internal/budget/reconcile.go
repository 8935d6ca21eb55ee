package budget

import (
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// ERPTotals summarizes the ERP table from its grand-total row. When the table
// has no grand-total row the category rows are summed instead.
func ERPTotals(table []model.ERPBudgetRow) model.Totals {
	var t model.Totals
	found := false
	for _, row := range table {
		if row.Category == catalog.GrandTotal {
			t.Allocated, t.Executed = row.Allocated, row.Executed
			found = true
			break
		}
	}
	if !found {
		for _, row := range table {
			t.Allocated += row.Allocated
			t.Executed += row.Executed
		}
	}
	t.Balance = t.Allocated - t.Executed
	t.Rate = RoundedRate(t.Executed, t.Allocated)
	return t
}

// RCMSTotals sums the RCMS table.
func RCMSTotals(table []model.RCMSBudgetRow) model.Totals {
	var t model.Totals
	for _, row := range table {
		t.Allocated += row.Budget
		t.Executed += row.Used
	}
	t.Balance = t.Allocated - t.Executed
	t.Rate = RoundedRate(t.Executed, t.Allocated)
	return t
}

// Reconcile compares the ERP and RCMS execution totals. The allocation
// comparison is informational; the two schemes may legitimately differ.
func Reconcile(erp []model.ERPBudgetRow, rcms []model.RCMSBudgetRow) model.Reconciliation {
	e := ERPTotals(erp)
	r := RCMSTotals(rcms)

	return model.Reconciliation{
		ERPExecuted:         e.Executed,
		RCMSExecuted:        r.Executed,
		Difference:          abs(e.Executed - r.Executed),
		Match:               e.Executed == r.Executed,
		ERPAllocated:        e.Allocated,
		RCMSAllocated:       r.Allocated,
		AllocatedDifference: abs(e.Allocated - r.Allocated),
		AllocatedMatch:      e.Allocated == r.Allocated,
	}
}

// Report aggregates both tables and reconciles them in one step.
func Report(expenses []model.Expense, erp []model.ERPBudgetRow, rcms []model.RCMSBudgetRow, now time.Time) *model.ExecutionReport {
	erpRows := CalculateERP(expenses, erp, now)
	rcmsRows, unsettled := CalculateRCMS(expenses, rcms, now)

	return &model.ExecutionReport{
		ERP:            erpRows,
		RCMS:           rcmsRows,
		Unsettled:      unsettled,
		ERPTotals:      ERPTotals(erpRows),
		RCMSTotals:     RCMSTotals(rcmsRows),
		Reconciliation: Reconcile(erpRows, rcmsRows),
	}
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
