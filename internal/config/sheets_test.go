package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSheetsConfig(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "")
	t.Setenv("BUDGET_KEYS", "/keys")

	v := viper.New()
	v.Set("sheets.service_account_path", "$BUDGET_KEYS/sa.json")
	v.Set("sheets.spreadsheet_name", "Lab 2024")

	cfg, err := LoadSheetsConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "env-sheet", cfg.SpreadsheetID)
	assert.Equal(t, "Lab 2024", cfg.SpreadsheetName)
}

func TestLoadSheetsConfig_MissingAuth(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
	} {
		t.Setenv(key, "")
	}

	_, err := LoadSheetsConfig(viper.New())
	assert.Error(t, err)
}
