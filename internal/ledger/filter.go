package ledger

import (
	"strings"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Filter selects expenses. Every set criterion must match; zero values are
// not applied.
type Filter struct {
	Start     *time.Time // inclusive, compared by calendar date
	End       *time.Time // inclusive, compared by calendar date
	Settled   *bool
	MinAmount *int64
	MaxAmount *int64
	Category  string
	Title     string // case-insensitive substring
}

// Filter returns the matching expenses as a new slice.
func (s *Store) Filter(f Filter) []model.Expense {
	keyword := strings.ToLower(strings.TrimSpace(f.Title))

	var start, end time.Time
	if f.Start != nil {
		start = dateOnly(*f.Start)
	}
	if f.End != nil {
		end = dateOnly(*f.End)
	}

	out := make([]model.Expense, 0, len(s.records))
	for _, r := range s.records {
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		day := dateOnly(r.Date)
		if f.Start != nil && day.Before(start) {
			continue
		}
		if f.End != nil && day.After(end) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(r.Title), keyword) {
			continue
		}
		if f.Settled != nil && r.Settled != *f.Settled {
			continue
		}
		if f.MinAmount != nil && r.Amount < *f.MinAmount {
			continue
		}
		if f.MaxAmount != nil && r.Amount > *f.MaxAmount {
			continue
		}
		out = append(out, r)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
