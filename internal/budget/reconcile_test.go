package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

func TestReconcile_UnsettledCausesMismatch(t *testing.T) {
	expenses := []model.Expense{
		{ID: 1, Category: "일반수용비", Title: "tea", Amount: 50000, RCMSCode: "RCMS_011"},
	}

	report := Report(expenses, catalog.NewERPTable(seeded), catalog.NewRCMSTable(seeded), now)

	assert.Equal(t, model.UnsettledSummary{IDs: []int{1}, Total: 50000, Count: 1}, report.Unsettled)
	assert.Equal(t, int64(50000), erpRow(t, report.ERP, "일반수용비").Executed)
	assert.Zero(t, rcmsRow(t, report.RCMS, "RCMS_011").Used)

	rec := report.Reconciliation
	assert.False(t, rec.Match)
	assert.Equal(t, int64(50000), rec.Difference)
	assert.Equal(t, int64(50000), rec.ERPExecuted)
	assert.Zero(t, rec.RCMSExecuted)
}

func TestReconcile_Match(t *testing.T) {
	expenses := []model.Expense{
		{ID: 1, Category: "일반수용비", Amount: 1000, RCMSCode: "RCMS_010", Settled: true},
		{ID: 2, Category: "일반수용비", Amount: -300, RCMSCode: "RCMS_010", Settled: true},
	}
	erp := catalog.NewERPTable(seeded)
	require.NoError(t, SetAllocations(erp, map[string]int64{"일반수용비": 5000}))
	rcms := catalog.NewRCMSTable(seeded)
	require.NoError(t, SetBudgets(rcms, map[string]int64{"RCMS_010": 4000}))

	report := Report(expenses, erp, rcms, now)

	rec := report.Reconciliation
	assert.True(t, rec.Match)
	assert.Zero(t, rec.Difference)
	assert.False(t, rec.AllocatedMatch)
	assert.Equal(t, int64(1000), rec.AllocatedDifference)

	assert.Equal(t, model.Totals{Allocated: 5000, Executed: 700, Balance: 4300, Rate: 14}, report.ERPTotals)
	assert.Equal(t, model.Totals{Allocated: 4000, Executed: 700, Balance: 3300, Rate: 17.5}, report.RCMSTotals)
}

func TestERPTotals_WithoutGrandTotalRow(t *testing.T) {
	table := []model.ERPBudgetRow{
		{Category: "임차료", Allocated: 300, Executed: 100},
		{Category: "유류비", Allocated: 0, Executed: 50},
	}

	got := ERPTotals(table)

	assert.Equal(t, model.Totals{Allocated: 300, Executed: 150, Balance: 150, Rate: 50}, got)
}

func TestERPTotals_RoundsRate(t *testing.T) {
	table := []model.ERPBudgetRow{{Category: catalog.GrandTotal, Allocated: 3, Executed: 1}}
	assert.Equal(t, 33.33, ERPTotals(table).Rate)
}
