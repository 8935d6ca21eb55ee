package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeff통계목명,사용일자,지출결의명,상세내역,지출결의액,rcms_code,rcms_settled,memo\n" +
		"재료비,2025-03-01,시약,A사,\"1,000\",RCMS_008,Y,ignored\n" +
		",,,,,,,\n" +
		"국내여비,2025-03-02,출장,,48000,,,\n"

	records, err := readCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].line)
	assert.Equal(t, "재료비", records[0].fields["category"])
	assert.Equal(t, "1,000", records[0].fields["amount"])
	assert.NotContains(t, records[0].fields, "memo")
	assert.Equal(t, 4, records[1].line)

	d, err := records[0].draft()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), d.Amount)
	assert.Equal(t, "RCMS_008", d.RCMSCode)
	require.NotNil(t, d.Settled)
	assert.True(t, *d.Settled)

	d, err = records[1].draft()
	require.NoError(t, err)
	assert.False(t, *d.Settled)
	assert.Equal(t, "출장", d.Title)
}

func TestReadCSV_EnglishHeaders(t *testing.T) {
	input := "Category,Date,Title,Amount,Settled\n재료비,2025-04-01,Reagent,-250,false\n"

	records, err := readCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)

	d, err := records[0].draft()
	require.NoError(t, err)
	assert.Equal(t, int64(-250), d.Amount)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "empty", input: "", message: "empty CSV"},
		{name: "missing columns", input: "category,title\n재료비,x\n", message: "date, amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCSVRecord_DraftInvalid(t *testing.T) {
	tests := []struct {
		fields map[string]string
		name   string
	}{
		{name: "bad date", fields: map[string]string{"category": "재료비", "date": "3/1", "title": "x", "amount": "1"}},
		{name: "bad amount", fields: map[string]string{"category": "재료비", "date": "2025-03-01", "title": "x", "amount": "lots"}},
		{name: "unknown category", fields: map[string]string{"category": "간식비", "date": "2025-03-01", "title": "x", "amount": "1"}},
		{name: "missing title", fields: map[string]string{"category": "재료비", "date": "2025-03-01", "amount": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := csvRecord{fields: tt.fields, line: 7}.draft()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 7")
		})
	}
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.ofx", "b.ofx", "c.qfx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.ofx"), filepath.Join(dir, "c.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = expandFiles([]string{filepath.Join(dir, "*.csv")})
	assert.Error(t, err)
}
