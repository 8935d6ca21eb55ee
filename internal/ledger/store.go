// Package ledger is the in-memory record store for expense entries.
package ledger

import (
	"sort"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Draft holds the client-supplied fields of a new expense.
type Draft struct {
	Date     time.Time
	Settled  *bool // nil defaults to false
	Category string
	Title    string
	Detail   string
	RCMSCode string
	RCMSName string
	Amount   int64
}

// Patch holds the fields to change on an existing expense. Nil fields are
// left untouched. IDs and created_at can never be patched.
type Patch struct {
	Date     *time.Time
	Category *string
	Title    *string
	Detail   *string
	RCMSCode *string
	RCMSName *string // only consulted when RCMSCode is nil
	Amount   *int64
	Settled  *bool
}

// Summary is the row count and amount total over the whole store.
type Summary struct {
	RowCount    int
	TotalAmount int64
}

// Store is an ordered collection of expenses with monotonic IDs.
// It is not safe for concurrent use.
type Store struct {
	now     Clock
	records []model.Expense
	lastID  int
}

// NewStore builds a store from previously persisted records. The ID high-water
// mark starts at the largest loaded ID.
func NewStore(records []model.Expense, clock Clock) *Store {
	if clock == nil {
		clock = time.Now
	}

	s := &Store{
		now:     clock,
		records: make([]model.Expense, len(records)),
	}
	copy(s.records, records)

	for _, r := range s.records {
		if r.ID > s.lastID {
			s.lastID = r.ID
		}
	}

	return s
}

// Add appends a new expense and returns it with its assigned ID.
// It never validates; see ValidateExpense.
func (s *Store) Add(d Draft) model.Expense {
	s.lastID++
	now := s.now()

	rec := model.Expense{
		ID:        s.lastID,
		Category:  d.Category,
		Date:      d.Date,
		Title:     d.Title,
		Detail:    d.Detail,
		Amount:    d.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.Settled != nil {
		rec.Settled = *d.Settled
	}
	rec.RCMSCode, rec.RCMSName = resolveRCMS(d.RCMSCode, d.RCMSName)

	s.records = append(s.records, rec)
	return rec
}

// Update applies p to the expense with the given ID.
func (s *Store) Update(id int, p Patch) (model.Expense, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Expense{}, &common.NotFoundError{ID: id}
	}

	rec := &s.records[idx]
	if p.Category != nil {
		rec.Category = *p.Category
	}
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Detail != nil {
		rec.Detail = *p.Detail
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Settled != nil {
		rec.Settled = *p.Settled
	}

	switch {
	case p.RCMSCode != nil:
		rec.RCMSCode = *p.RCMSCode
		if name, ok := catalog.NameByCode(rec.RCMSCode); ok {
			rec.RCMSName = name
		} else if rec.RCMSCode == "" {
			rec.RCMSName = ""
		}
	case p.RCMSName != nil:
		rec.RCMSCode, rec.RCMSName = resolveRCMS("", *p.RCMSName)
	}

	rec.UpdatedAt = s.now()
	return *rec, nil
}

// Delete removes the expense with the given ID, keeping the order of the rest.
func (s *Store) Delete(id int) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return &common.NotFoundError{ID: id}
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return nil
}

// DeleteMany removes every listed ID and ignores the ones that do not exist.
// It returns how many records were removed.
func (s *Store) DeleteMany(ids []int) int {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if drop[r.ID] {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed
}

// Get returns the expense with the given ID.
func (s *Store) Get(id int) (model.Expense, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Expense{}, &common.NotFoundError{ID: id}
	}
	return s.records[idx], nil
}

// All returns a copy of every expense in insertion order.
func (s *Store) All() []model.Expense {
	out := make([]model.Expense, len(s.records))
	copy(out, s.records)
	return out
}

// IDs returns the IDs currently in the store, sorted.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.records))
	for _, r := range s.records {
		ids = append(ids, r.ID)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of expenses.
func (s *Store) Len() int {
	return len(s.records)
}

// Summary returns the row count and amount total.
func (s *Store) Summary() Summary {
	sum := Summary{RowCount: len(s.records)}
	for _, r := range s.records {
		sum.TotalAmount += r.Amount
	}
	return sum
}

func (s *Store) indexOf(id int) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// resolveRCMS derives a consistent code/name pair. A known code always wins
// and its catalog name replaces whatever the client sent; a name alone is
// mapped back to its code.
func resolveRCMS(code, name string) (string, string) {
	if code != "" {
		if catalogName, ok := catalog.NameByCode(code); ok {
			return code, catalogName
		}
		return code, name
	}
	if name == "" {
		return "", ""
	}
	if catalogCode, ok := catalog.CodeByName(name); ok {
		return catalogCode, name
	}
	return "", ""
}
