package model

import "time"

// ERPBudgetRow is one statistics-category line of the ERP budget.
type ERPBudgetRow struct {
	UpdatedAt time.Time
	Category  string
	Allocated int64 // user editable except on the grand-total row
	Executed  int64
	Balance   int64
	Rate      float64 // percent
}

// RCMSBudgetRow is one RCMS item line of the RCMS budget.
type RCMSBudgetRow struct {
	UpdatedAt      time.Time
	Code           string
	Name           string
	ParentCategory string
	Budget         int64 // user editable
	Used           int64 // settled expenses only
	Balance        int64
	Rate           float64 // percent
}

// MappingRow links an ERP category to an RCMS item. The table is carried
// through load and save untouched.
type MappingRow struct {
	ERPCategory string
	RCMSCode    string
	RCMSName    string
	Priority    int
}

// UnsettledSummary describes every expense that has not been settled yet.
type UnsettledSummary struct {
	IDs   []int
	Total int64
	Count int
}

// Dataset is the complete persisted state: the four named tables.
type Dataset struct {
	Expenses   []Expense
	ERPBudget  []ERPBudgetRow
	RCMSBudget []RCMSBudgetRow
	Mapping    []MappingRow
}
