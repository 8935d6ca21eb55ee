package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
)

// Helper function to create test storage.
func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(context.Background(), MemoryPath, testClock())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := createTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSQLiteStore_CreateSeedsCatalog(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	assert.False(t, store.Exists())
	require.NoError(t, store.Create(ctx))
	assert.True(t, store.Exists())

	ds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ds.Expenses)
	assert.Equal(t, catalog.Categories()[0], ds.ERPBudget[0].Category)
	assert.Len(t, ds.ERPBudget, len(catalog.Categories()))
	assert.Len(t, ds.RCMSBudget, len(catalog.Items()))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := testClock()
	store := createTestStore(t)

	want := testDataset(clock())
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertDatasetsEqual(t, want, got)

	// A second save fully replaces the previous contents.
	want.Expenses = want.Expenses[:1]
	want.Mapping = nil
	require.NoError(t, store.Save(ctx, want))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Expenses, 1)
	assert.Empty(t, got.Mapping)
}

func TestSQLiteStore_SaveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	clock := testClock()
	store := createTestStore(t)
	require.NoError(t, store.Save(ctx, testDataset(clock())))

	bad := testDataset(clock())
	bad.ERPBudget = append(bad.ERPBudget, bad.ERPBudget[1]) // duplicate primary key
	err := store.Save(ctx, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistence)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertDatasetsEqual(t, testDataset(clock()), got)
}

func TestSQLiteStore_FileBackup(t *testing.T) {
	ctx := context.Background()
	clock := testClock()
	dir := t.TempDir()
	path := filepath.Join(dir, "budget.db")

	store, err := NewSQLiteStore(ctx, path, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Create(ctx))
	require.NoError(t, store.Save(ctx, testDataset(clock())))

	assert.FileExists(t, filepath.Join(dir, "backups", "budget_backup_20240301_093015.db"))

	info, err := store.Info()
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, dir, info.Folder)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, "", filepath.Join(dir, "a.xlsx"), testClock())
	require.NoError(t, err)
	assert.IsType(t, &WorkbookStore{}, s)

	s, err = Open(ctx, "SQLite", filepath.Join(dir, "a.db"), testClock())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "csv", filepath.Join(dir, "a.csv"), testClock())
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	assert.Equal(t, "db", Extension(BackendSQLite))
	assert.Equal(t, "xlsx", Extension(BackendXLSX))
}
