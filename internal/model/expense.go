package model

import "time"

// DateLayout is the calendar date format used for expense dates everywhere.
const DateLayout = "2006-01-02"

// TimestampLayout is the format used for created_at/updated_at cells.
const TimestampLayout = "2006-01-02 15:04:05"

// Expense is one recorded expenditure.
type Expense struct {
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Category  string // ERP statistics category
	Title     string
	Detail    string
	RCMSCode  string // empty means unclassified under RCMS
	RCMSName  string // derived from RCMSCode by the record store
	ID        int
	Amount    int64 // negative values are corrections or refunds
	Settled   bool
}

// DateString returns the expense date as YYYY-MM-DD.
func (e Expense) DateString() string {
	if e.Date.IsZero() {
		return ""
	}
	return e.Date.Format(DateLayout)
}
