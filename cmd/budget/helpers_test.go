package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/config"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/session"
)

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		expected map[string]int64
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name:     "single",
			args:     []string{"재료비=1000"},
			expected: map[string]int64{"재료비": 1000},
		},
		{
			name:     "separators and suffix",
			args:     []string{"RCMS_008=12,000,000원", " 국내여비 = 3000"},
			expected: map[string]int64{"RCMS_008": 12000000, "국내여비": 3000},
		},
		{
			name:    "missing equals",
			args:    []string{"재료비"},
			wantErr: true,
		},
		{
			name:    "empty key",
			args:    []string{"=100"},
			wantErr: true,
		},
		{
			name:    "bad amount",
			args:    []string{"재료비=abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", " 10", "1"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 10, 1}, ids)

	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
	_, err = parseIDs([]string{"x"})
	assert.Error(t, err)
}

func setupViper(t *testing.T, backend string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())
	viper.Set(config.KeyBackend, backend)
}

func TestOpenWorkspace(t *testing.T) {
	for _, backend := range []string{"xlsx", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			setupViper(t, backend)
			ctx := context.Background()
			folder := filepath.Join(t.TempDir(), "2025 과제")

			_, err := openWorkspace(ctx, folder, false)
			require.Error(t, err)
			var userErr *common.UserError
			assert.ErrorAs(t, err, &userErr)

			ws, err := openWorkspace(ctx, folder, true)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(folder, config.MasterFileName(folder, backendExt(backend))), ws.store.Path())

			res, err := ws.session.ApplyEdits(ctx, session.EditSet{Add: []ledger.Draft{{
				Date:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Category: "재료비",
				Title:    "시약",
				Amount:   1000,
				RCMSCode: "RCMS_008",
				Settled:  ptr(true),
			}}})
			require.NoError(t, err)
			assert.True(t, res.Changed)
			require.NoError(t, ws.Close())

			abs, err := filepath.Abs(folder)
			require.NoError(t, err)
			assert.Equal(t, abs, viper.GetString(config.KeyLastFolder))

			reopened, err := openWorkspace(ctx, "", false)
			require.NoError(t, err)
			defer func() { _ = reopened.Close() }()

			assert.Equal(t, 1, reopened.session.Summary().RowCount)
			assert.True(t, reopened.session.Result().Reconciliation.Match)
		})
	}
}

func TestOpenWorkspace_NoFolder(t *testing.T) {
	setupViper(t, "xlsx")

	_, err := openWorkspace(context.Background(), "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestOpenWorkspace_InvalidBackend(t *testing.T) {
	setupViper(t, "csv")

	_, err := openWorkspace(context.Background(), t.TempDir(), true)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func backendExt(backend string) string {
	if backend == "sqlite" {
		return "db"
	}
	return "xlsx"
}

func TestIDRange(t *testing.T) {
	tests := []struct {
		name string
		want string
		ids  []int
	}{
		{name: "empty", ids: nil, want: "-"},
		{name: "single", ids: []int{7}, want: "7..7"},
		{name: "gaps", ids: []int{2, 4, 9}, want: "2..9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idRange(tt.ids))
		})
	}
}
