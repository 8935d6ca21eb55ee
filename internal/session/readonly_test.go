package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/storage"
)

func TestSession_UnreadableWorkbookIsNeverOverwritten(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "proj_master.xlsx")

	store, err := storage.NewWorkbookStore(path, clock)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx))

	s := Open(ctx, store, clock)
	require.NoError(t, s.LoadErr)
	_, err = s.ApplyEdits(ctx, EditSet{Add: []ledger.Draft{
		{Category: "일반수용비", Date: date("2024-01-10"), Title: "tea", Amount: 50000},
		{Category: "일반수용비", Date: date("2024-01-11"), Title: "cake", Amount: 12000},
		{Category: "재료비", Date: date("2024-01-12"), Title: "paper", Amount: 3000},
	}})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(storage.SheetExpense, "F3", ""))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	entriesBefore, err := os.ReadDir(dir)
	require.NoError(t, err)

	reopened := Open(ctx, store, clock)
	require.ErrorIs(t, reopened.LoadErr, common.ErrWorkbookCorrupted)
	assert.True(t, reopened.ReadOnly())

	_, err = reopened.ApplyEdits(ctx, EditSet{Add: []ledger.Draft{
		{Category: "일반수용비", Date: date("2024-01-13"), Title: "coffee", Amount: 4000},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrReadOnly)
	assert.ErrorIs(t, err, common.ErrWorkbookCorrupted)
	require.Error(t, reopened.Save(ctx))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "master file must be untouched")

	entriesAfter, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entriesAfter, len(entriesBefore), "no backup or temp file is written")
}
