package model

// Totals summarizes one budget table.
type Totals struct {
	Allocated int64
	Executed  int64
	Balance   int64
	Rate      float64 // percent, rounded to two places
}

// Reconciliation compares the ERP and RCMS views of the same expenses.
// A mismatch is advisory: ERP counts every record while RCMS only counts
// settled ones.
type Reconciliation struct {
	ERPExecuted         int64
	RCMSExecuted        int64
	Difference          int64 // absolute
	ERPAllocated        int64
	RCMSAllocated       int64
	AllocatedDifference int64 // absolute, informational only
	Match               bool
	AllocatedMatch      bool
}

// ExecutionReport is everything the result views and exporters render.
type ExecutionReport struct {
	ERP            []ERPBudgetRow
	RCMS           []RCMSBudgetRow
	Unsettled      UnsettledSummary
	ERPTotals      Totals
	RCMSTotals     Totals
	Reconciliation Reconciliation
}
