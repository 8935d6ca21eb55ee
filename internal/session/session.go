// Package session holds the working state of one open master file: the
// expense records and both budget tables, kept consistent after every edit.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/budget"
	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/service"
)

// Update is a patch addressed to one expense.
type Update struct {
	Patch ledger.Patch
	ID    int
}

// EditSet is a batch of record edits applied as one unit.
type EditSet struct {
	Add    []ledger.Draft
	Update []Update
	Delete []int
}

// EditResult reports what ApplyEdits did. Per-row failures do not abort the
// batch; they are collected in Failed.
type EditResult struct {
	Added   []model.Expense
	Updated []model.Expense
	Deleted []int
	Failed  []error
	Changed bool
}

// Session is the explicit application state for one master file.
type Session struct {
	persist   service.Persistence
	now       ledger.Clock
	records   *ledger.Store
	erp       []model.ERPBudgetRow
	rcms      []model.RCMSBudgetRow
	mapping   []model.MappingRow
	unsettled model.UnsettledSummary

	// LoadErr is the error Open recovered from by starting with empty
	// catalog tables, or nil. While it is set the session never saves.
	LoadErr error
}

// Open loads the dataset through p. When loading fails the session starts
// from catalog-seeded tables, keeps the error in LoadErr and becomes
// read-only so the unreadable file is never overwritten.
func Open(ctx context.Context, p service.Persistence, clock ledger.Clock) *Session {
	if clock == nil {
		clock = time.Now
	}

	ds, err := p.Load(ctx)
	if err == nil && ds == nil {
		err = common.NewPersistenceError("load", "", errors.New("no data returned"))
	}
	if err != nil {
		common.LogError(err, "Load failed, starting from empty tables", nil)
		ds = catalog.NewDataset(clock())
	}

	s := &Session{
		persist: p,
		now:     clock,
		records: ledger.NewStore(ds.Expenses, clock),
		erp:     ds.ERPBudget,
		rcms:    ds.RCMSBudget,
		mapping: ds.Mapping,
		LoadErr: err,
	}
	s.Recalculate()
	return s
}

// Recalculate re-derives both budget tables and the unsettled summary from
// the current records.
func (s *Session) Recalculate() {
	now := s.now()
	expenses := s.records.All()
	s.erp = budget.CalculateERP(expenses, s.erp, now)
	s.rcms, s.unsettled = budget.CalculateRCMS(expenses, s.rcms, now)

	if rec := budget.Reconcile(s.erp, s.rcms); !rec.Match {
		common.LogDebug("ERP and RCMS execution differ", common.Fields{
			"erp_executed":  rec.ERPExecuted,
			"rcms_executed": rec.RCMSExecuted,
			"difference":    rec.Difference,
			"unsettled":     s.unsettled.Count,
		})
	}
}

// ApplyEdits applies adds, then updates, then deletes, re-aggregates and
// saves when anything changed. Drafts that fail validation and edits that
// reference unknown IDs are reported in Failed.
func (s *Session) ApplyEdits(ctx context.Context, edits EditSet) (EditResult, error) {
	if err := s.writable(); err != nil {
		return EditResult{}, err
	}

	before := budget.TakeSnapshot(s.erp, s.rcms)
	var res EditResult

	for _, d := range edits.Add {
		if err := ledger.ValidateExpense(d); err != nil {
			res.Failed = append(res.Failed, fmt.Errorf("add %q: %w", d.Title, err))
			continue
		}
		res.Added = append(res.Added, s.records.Add(d))
	}

	for _, u := range edits.Update {
		rec, err := s.records.Update(u.ID, u.Patch)
		if err != nil {
			res.Failed = append(res.Failed, fmt.Errorf("update: %w", err))
			continue
		}
		res.Updated = append(res.Updated, rec)
	}

	for _, id := range edits.Delete {
		if err := s.records.Delete(id); err != nil {
			res.Failed = append(res.Failed, fmt.Errorf("delete: %w", err))
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}

	s.Recalculate()

	res.Changed = budget.HasChanges(budget.Edits{
		Added:   len(res.Added),
		Updated: len(res.Updated),
		Deleted: res.Deleted,
	}, before, budget.TakeSnapshot(s.erp, s.rcms))

	if !res.Changed {
		slog.Debug("No changes to save")
		return res, nil
	}
	return res, s.Save(ctx)
}

// DeleteExpenses removes every listed ID in one batch, skipping IDs that do
// not exist, and saves when anything was removed. It returns the number of
// records removed.
func (s *Session) DeleteExpenses(ctx context.Context, ids []int) (int, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}

	removed := s.records.DeleteMany(ids)
	if removed == 0 {
		slog.Debug("No matching expenses to delete", "ids", len(ids))
		return 0, nil
	}

	s.Recalculate()
	return removed, s.Save(ctx)
}

// UpdateERPAllocations sets category allocations and saves when they differ
// from the current ones. It reports whether anything changed.
func (s *Session) UpdateERPAllocations(ctx context.Context, amounts map[string]int64) (bool, error) {
	if err := s.writable(); err != nil {
		return false, err
	}

	before := budget.TakeSnapshot(s.erp, s.rcms)

	edited := make([]model.ERPBudgetRow, len(s.erp))
	copy(edited, s.erp)
	if err := budget.SetAllocations(edited, amounts); err != nil {
		return false, err
	}

	if !budget.HasChanges(budget.Edits{}, before, budget.TakeSnapshot(edited, s.rcms)) {
		return false, nil
	}

	s.erp = edited
	s.Recalculate()
	return true, s.Save(ctx)
}

// UpdateRCMSBudgets sets RCMS budgets by code and saves when they differ
// from the current ones. It reports whether anything changed.
func (s *Session) UpdateRCMSBudgets(ctx context.Context, amounts map[string]int64) (bool, error) {
	if err := s.writable(); err != nil {
		return false, err
	}

	before := budget.TakeSnapshot(s.erp, s.rcms)

	edited := make([]model.RCMSBudgetRow, len(s.rcms))
	copy(edited, s.rcms)
	if err := budget.SetBudgets(edited, amounts); err != nil {
		return false, err
	}

	if !budget.HasChanges(budget.Edits{}, before, budget.TakeSnapshot(s.erp, edited)) {
		return false, nil
	}

	s.rcms = edited
	s.Recalculate()
	return true, s.Save(ctx)
}

// Save writes the current dataset. It fails without writing when the
// session was opened from a file that could not be loaded.
func (s *Session) Save(ctx context.Context) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := s.persist.Save(ctx, s.Dataset()); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// ReadOnly reports whether the session refuses to save.
func (s *Session) ReadOnly() bool {
	return s.LoadErr != nil
}

func (s *Session) writable() error {
	if s.LoadErr == nil {
		return nil
	}
	return common.NewPersistenceError("save", "", fmt.Errorf("%w: %w", common.ErrReadOnly, s.LoadErr))
}

// Dataset returns a copy of the current state.
func (s *Session) Dataset() *model.Dataset {
	return &model.Dataset{
		Expenses:   s.records.All(),
		ERPBudget:  append([]model.ERPBudgetRow(nil), s.erp...),
		RCMSBudget: append([]model.RCMSBudgetRow(nil), s.rcms...),
		Mapping:    append([]model.MappingRow{}, s.mapping...),
	}
}

// Result returns the current execution report.
func (s *Session) Result() *model.ExecutionReport {
	return &model.ExecutionReport{
		ERP:            append([]model.ERPBudgetRow(nil), s.erp...),
		RCMS:           append([]model.RCMSBudgetRow(nil), s.rcms...),
		Unsettled:      model.UnsettledSummary{IDs: append([]int{}, s.unsettled.IDs...), Total: s.unsettled.Total, Count: s.unsettled.Count},
		ERPTotals:      budget.ERPTotals(s.erp),
		RCMSTotals:     budget.RCMSTotals(s.rcms),
		Reconciliation: budget.Reconcile(s.erp, s.rcms),
	}
}

// Expenses returns the records matching f.
func (s *Session) Expenses(f ledger.Filter) []model.Expense {
	return s.records.Filter(f)
}

// Expense returns one record.
func (s *Session) Expense(id int) (model.Expense, error) {
	return s.records.Get(id)
}

// IDs returns the IDs of every record, sorted.
func (s *Session) IDs() []int {
	return s.records.IDs()
}

// Summary returns the record count and amount total.
func (s *Session) Summary() ledger.Summary {
	return s.records.Summary()
}

// Close releases the persistence backend.
func (s *Session) Close() error {
	return s.persist.Close()
}
