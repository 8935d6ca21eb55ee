package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/sheets"
)

func TestPublishReport(t *testing.T) {
	tests := []struct {
		writeErr error
		report   *model.ExecutionReport
		name     string
		want     string
		wantErr  bool
	}{
		{
			name:   "matching totals",
			report: &model.ExecutionReport{Reconciliation: model.Reconciliation{Match: true}},
			want:   "ERP/RCMS match",
		},
		{
			name:   "difference",
			report: &model.ExecutionReport{Reconciliation: model.Reconciliation{Difference: 1500}},
			want:   "ERP/RCMS differ by 1,500원",
		},
		{
			name:     "writer failure",
			report:   &model.ExecutionReport{},
			writeErr: errors.New("quota exceeded"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := sheets.NewMockWriter()
			mock.WriteFunc = func(context.Context, *model.ExecutionReport) error {
				return tt.writeErr
			}
			var out bytes.Buffer

			err := publishReport(context.Background(), &out, mock, tt.report, "Google Sheets")

			assert.Equal(t, 1, mock.WriteCallCount)
			assert.Same(t, tt.report, mock.LastReport)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "quota exceeded")
				assert.Empty(t, out.String())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Exported execution result to Google Sheets")
			assert.Contains(t, out.String(), tt.want)
		})
	}
}
