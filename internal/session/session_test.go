package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// memoryPersistence is an in-memory service.Persistence.
type memoryPersistence struct {
	loadErr error
	saveErr error
	data    *model.Dataset
	saves   int
	closed  bool
}

func (m *memoryPersistence) Load(_ context.Context) (*model.Dataset, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *memoryPersistence) Save(_ context.Context, ds *model.Dataset) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data = ds
	return nil
}

func (m *memoryPersistence) Close() error {
	m.closed = true
	return nil
}

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func date(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T {
	return &v
}

func openEmpty(t *testing.T) (*Session, *memoryPersistence) {
	t.Helper()
	p := &memoryPersistence{data: catalog.NewDataset(now)}
	s := Open(context.Background(), p, clock)
	require.NoError(t, s.LoadErr)
	return s, p
}

func erpExecuted(t *testing.T, r *model.ExecutionReport, category string) int64 {
	t.Helper()
	for _, row := range r.ERP {
		if row.Category == category {
			return row.Executed
		}
	}
	t.Fatalf("no ERP row %q", category)
	return 0
}

func rcmsUsed(t *testing.T, r *model.ExecutionReport, code string) int64 {
	t.Helper()
	for _, row := range r.RCMS {
		if row.Code == code {
			return row.Used
		}
	}
	t.Fatalf("no RCMS row %q", code)
	return 0
}

func TestOpen_FallsBackOnLoadError(t *testing.T) {
	loadErr := common.NewPersistenceError("open", "/tmp/x.xlsx", errors.New("corrupt"))
	p := &memoryPersistence{loadErr: loadErr}

	s := Open(context.Background(), p, clock)

	assert.ErrorIs(t, s.LoadErr, common.ErrPersistence)
	ds := s.Dataset()
	assert.Empty(t, ds.Expenses)
	assert.Len(t, ds.ERPBudget, len(catalog.Categories()))
	assert.Len(t, ds.RCMSBudget, len(catalog.Items()))
	assert.Zero(t, p.saves)
}

func TestOpen_LoadErrorMakesSessionReadOnly(t *testing.T) {
	ctx := context.Background()
	p := &memoryPersistence{loadErr: common.NewPersistenceError("open", "/tmp/x.xlsx", errors.New("corrupt"))}
	s := Open(ctx, p, clock)
	require.True(t, s.ReadOnly())

	res, err := s.ApplyEdits(ctx, EditSet{
		Add: []ledger.Draft{{Category: "일반수용비", Date: date("2024-01-10"), Title: "tea", Amount: 50000}},
	})
	assert.ErrorIs(t, err, common.ErrReadOnly)
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.Empty(t, res.Added)
	assert.Empty(t, s.Dataset().Expenses, "edits are not applied in memory either")

	_, err = s.UpdateERPAllocations(ctx, map[string]int64{"임차료": 1000})
	assert.ErrorIs(t, err, common.ErrReadOnly)
	_, err = s.UpdateRCMSBudgets(ctx, map[string]int64{"RCMS_010": 1000})
	assert.ErrorIs(t, err, common.ErrReadOnly)
	assert.ErrorIs(t, s.Save(ctx), common.ErrReadOnly)

	assert.Zero(t, p.saves)
	assert.Zero(t, s.Result().ERPTotals.Allocated)
}

func TestOpen_NilDatasetIsAnError(t *testing.T) {
	s := Open(context.Background(), &memoryPersistence{}, clock)
	assert.ErrorIs(t, s.LoadErr, common.ErrPersistence)
	assert.Len(t, s.Dataset().ERPBudget, len(catalog.Categories()))
}

func TestApplyEdits_AddRecalculatesAndSaves(t *testing.T) {
	s, p := openEmpty(t)

	res, err := s.ApplyEdits(context.Background(), EditSet{
		Add: []ledger.Draft{{Category: "일반수용비", Date: date("2024-01-10"), Title: "tea", Amount: 50000}},
	})
	require.NoError(t, err)

	assert.True(t, res.Changed)
	require.Len(t, res.Added, 1)
	assert.Equal(t, 1, res.Added[0].ID)
	assert.Equal(t, 1, p.saves)

	report := s.Result()
	assert.Equal(t, int64(50000), erpExecuted(t, report, "일반수용비"))
	assert.Equal(t, int64(50000), erpExecuted(t, report, catalog.GrandTotal))
	assert.Equal(t, model.UnsettledSummary{IDs: []int{1}, Total: 50000, Count: 1}, report.Unsettled)
	assert.False(t, report.Reconciliation.Match)
	assert.Equal(t, int64(50000), report.Reconciliation.Difference)

	require.Len(t, p.data.Expenses, 1)
	assert.Equal(t, "tea", p.data.Expenses[0].Title)
}

func TestApplyEdits_SettledRecordsReachRCMS(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()

	_, err := s.ApplyEdits(ctx, EditSet{Add: []ledger.Draft{
		{Category: "일반수용비", Date: date("2024-01-10"), Title: "a", Amount: 1000, RCMSCode: "RCMS_010", Settled: ptr(true)},
		{Category: "일반수용비", Date: date("2024-01-11"), Title: "b", Amount: -300, RCMSCode: "RCMS_010", Settled: ptr(true)},
	}})
	require.NoError(t, err)

	report := s.Result()
	assert.Equal(t, int64(700), rcmsUsed(t, report, "RCMS_010"))
	assert.True(t, report.Reconciliation.Match)
	assert.Zero(t, report.Unsettled.Count)
}

func TestApplyEdits_CollectsFailures(t *testing.T) {
	s, p := openEmpty(t)

	res, err := s.ApplyEdits(context.Background(), EditSet{
		Add:    []ledger.Draft{{Category: "없는분류", Date: date("2024-01-10"), Title: "bad", Amount: 1}},
		Update: []Update{{ID: 999, Patch: ledger.Patch{Title: ptr("x")}}},
		Delete: []int{42},
	})
	require.NoError(t, err)

	require.Len(t, res.Failed, 3)
	assert.ErrorIs(t, res.Failed[0], common.ErrValidation)
	assert.ErrorIs(t, res.Failed[1], common.ErrNotFound)
	assert.ErrorIs(t, res.Failed[2], common.ErrNotFound)
	assert.False(t, res.Changed)
	assert.Zero(t, p.saves)
}

func TestApplyEdits_UpdateAndDelete(t *testing.T) {
	s, p := openEmpty(t)
	ctx := context.Background()

	_, err := s.ApplyEdits(ctx, EditSet{Add: []ledger.Draft{
		{Category: "재료비", Date: date("2024-01-10"), Title: "a", Amount: 100, RCMSCode: "RCMS_008"},
		{Category: "재료비", Date: date("2024-01-11"), Title: "b", Amount: 200},
	}})
	require.NoError(t, err)

	res, err := s.ApplyEdits(ctx, EditSet{
		Update: []Update{{ID: 1, Patch: ledger.Patch{Settled: ptr(true)}}},
		Delete: []int{2},
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []int{2}, res.Deleted)
	assert.Equal(t, 2, p.saves)

	report := s.Result()
	assert.Equal(t, int64(100), erpExecuted(t, report, "재료비"))
	assert.Equal(t, int64(100), rcmsUsed(t, report, "RCMS_008"))
	assert.True(t, report.Reconciliation.Match)

	_, err = s.Expense(2)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, ledger.Summary{RowCount: 1, TotalAmount: 100}, s.Summary())
}

func TestApplyEdits_EmptyIsNoOp(t *testing.T) {
	s, p := openEmpty(t)

	res, err := s.ApplyEdits(context.Background(), EditSet{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Zero(t, p.saves)
}

func TestApplyEdits_SaveFailure(t *testing.T) {
	s, p := openEmpty(t)
	p.saveErr = common.NewPersistenceError("write", "/x", errors.New("disk full"))

	res, err := s.ApplyEdits(context.Background(), EditSet{
		Add: []ledger.Draft{{Category: "재료비", Date: date("2024-01-10"), Title: "a", Amount: 1}},
	})
	assert.True(t, res.Changed)
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestDeleteExpenses(t *testing.T) {
	s, p := openEmpty(t)
	ctx := context.Background()

	_, err := s.ApplyEdits(ctx, EditSet{Add: []ledger.Draft{
		{Category: "일반수용비", Date: date("2024-01-10"), Title: "tea", Amount: 1000},
		{Category: "일반수용비", Date: date("2024-01-11"), Title: "cake", Amount: 2000},
		{Category: "재료비", Date: date("2024-01-12"), Title: "paper", Amount: 3000},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, p.saves)

	removed, err := s.DeleteExpenses(ctx, []int{1, 3, 42})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, p.saves)
	assert.Equal(t, []int{2}, s.IDs())
	assert.Equal(t, int64(2000), s.Result().ERPTotals.Executed)

	removed, err = s.DeleteExpenses(ctx, []int{42})
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 2, p.saves, "nothing removed means nothing saved")

	res, err := s.ApplyEdits(ctx, EditSet{Add: []ledger.Draft{
		{Category: "재료비", Date: date("2024-01-13"), Title: "ink", Amount: 500},
	}})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Added[0].ID)
	assert.Equal(t, []int{2, 4}, s.IDs())
}

func TestUpdateERPAllocations(t *testing.T) {
	s, p := openEmpty(t)
	ctx := context.Background()

	changed, err := s.UpdateERPAllocations(ctx, map[string]int64{"임차료": 300000, "유류비": 200000})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, p.saves)
	assert.Equal(t, int64(500000), s.Result().ERPTotals.Allocated)

	changed, err = s.UpdateERPAllocations(ctx, map[string]int64{"임차료": 300000})
	require.NoError(t, err)
	assert.False(t, changed, "same value is not a change")
	assert.Equal(t, 1, p.saves)

	_, err = s.UpdateERPAllocations(ctx, map[string]int64{catalog.GrandTotal: 1})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateRCMSBudgets(t *testing.T) {
	s, p := openEmpty(t)
	ctx := context.Background()

	changed, err := s.UpdateRCMSBudgets(ctx, map[string]int64{"RCMS_001": 1000})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(1000), s.Result().RCMSTotals.Allocated)
	assert.Equal(t, int64(1000), s.Result().Reconciliation.AllocatedDifference)

	changed, err = s.UpdateRCMSBudgets(ctx, map[string]int64{"RCMS_001": 1000})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, p.saves)

	_, err = s.UpdateRCMSBudgets(ctx, map[string]int64{"RCMS_404": 1})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestOpen_ContinuesIDsFromLoadedRecords(t *testing.T) {
	ds := catalog.NewDataset(now)
	ds.Expenses = []model.Expense{{ID: 7, Category: "재료비", Date: date("2024-01-01"), Title: "old", Amount: 10}}
	p := &memoryPersistence{data: ds}
	s := Open(context.Background(), p, clock)

	res, err := s.ApplyEdits(context.Background(), EditSet{
		Add: []ledger.Draft{{Category: "재료비", Date: date("2024-01-02"), Title: "new", Amount: 5}},
	})
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	assert.Equal(t, 8, res.Added[0].ID)
	assert.Len(t, s.Expenses(ledger.Filter{Category: "재료비"}), 2)
}

func TestResult_IsACopy(t *testing.T) {
	s, _ := openEmpty(t)
	r := s.Result()
	r.ERP[0].Allocated = 123

	assert.Zero(t, s.Result().ERP[0].Allocated)
}

func TestClose(t *testing.T) {
	s, p := openEmpty(t)
	require.NoError(t, s.Close())
	assert.True(t, p.closed)
}
