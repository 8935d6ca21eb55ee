package budget

import (
	"sort"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// CalculateRCMS recomputes the derived columns of the RCMS table. Only
// settled expenses count toward used amounts. The unsettled summary covers
// every unsettled expense whether or not its code matches a row.
func CalculateRCMS(expenses []model.Expense, table []model.RCMSBudgetRow, now time.Time) ([]model.RCMSBudgetRow, model.UnsettledSummary) {
	used := make(map[string]int64, len(table))
	unsettled := model.UnsettledSummary{IDs: []int{}}

	for _, e := range expenses {
		if !e.Settled {
			unsettled.IDs = append(unsettled.IDs, e.ID)
			unsettled.Total += e.Amount
			continue
		}
		if e.RCMSCode != "" {
			used[e.RCMSCode] += e.Amount
		}
	}
	unsettled.Count = len(unsettled.IDs)
	sort.Ints(unsettled.IDs)

	out := make([]model.RCMSBudgetRow, len(table))
	copy(out, table)
	for i := range out {
		row := &out[i]
		row.Used = used[row.Code]
		row.Balance = row.Budget - row.Used
		row.Rate = Rate(row.Used, row.Budget)
		row.UpdatedAt = now
	}

	return out, unsettled
}
