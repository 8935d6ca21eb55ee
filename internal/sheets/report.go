package sheets

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// ReportTitle heads the first row of the exported sheet.
const ReportTitle = "예산 집행 현황"

// layout is the sheet content plus the zero-based row indexes of section
// titles, which are bolded after writing.
type layout struct {
	values   [][]any
	sections []int
}

func (l *layout) section(title string) {
	l.sections = append(l.sections, len(l.values))
	l.values = append(l.values, []any{title})
}

func (l *layout) row(cells ...any) {
	l.values = append(l.values, cells)
}

func percent(rate float64) float64 {
	return decimal.NewFromFloat(rate).Round(2).InexactFloat64()
}

// prepareReportData lays the execution report out as sheet rows.
func prepareReportData(r *model.ExecutionReport, generated time.Time) layout {
	l := layout{values: make([][]any, 0, len(r.ERP)+len(r.RCMS)+24)}

	l.row(ReportTitle, generated.Format(model.TimestampLayout))
	l.row()

	l.section("ERP 집행 현황")
	l.row("통계목명", "실행예산", "집행액", "잔액", "집행률(%)")
	for _, row := range r.ERP {
		l.row(row.Category, row.Allocated, row.Executed, row.Balance, percent(row.Rate))
	}
	l.row()

	l.section("RCMS 집행 현황")
	l.row("rcms_code", "rcms_name", "parent_category", "budget_amount", "used_amount", "balance", "rate(%)")
	for _, row := range r.RCMS {
		l.row(row.Code, row.Name, row.ParentCategory, row.Budget, row.Used, row.Balance, percent(row.Rate))
	}
	l.row("합계", "", "", r.RCMSTotals.Allocated, r.RCMSTotals.Executed, r.RCMSTotals.Balance, r.RCMSTotals.Rate)
	l.row()

	rec := r.Reconciliation
	status := "일치"
	if !rec.Match {
		status = "불일치"
	}
	l.section("정합성 검증")
	l.row("ERP 집행액", rec.ERPExecuted)
	l.row("RCMS 집행액", rec.RCMSExecuted)
	l.row("차이", rec.Difference)
	l.row("결과", status)
	l.row("예산 차이 (참고)", rec.AllocatedDifference)
	l.row()

	ids := make([]string, 0, len(r.Unsettled.IDs))
	for _, id := range r.Unsettled.IDs {
		ids = append(ids, strconv.Itoa(id))
	}
	l.section("미정산 내역")
	l.row("건수", r.Unsettled.Count)
	l.row("금액", r.Unsettled.Total)
	l.row("ID", strings.Join(ids, ", "))

	return l
}
