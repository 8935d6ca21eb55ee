package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
)

func TestValidateExpense(t *testing.T) {
	valid := Draft{Category: "일반수용비", Date: date("2024-01-10"), Title: "tea", Amount: 50000}

	tests := []struct {
		name      string
		mutate    func(d *Draft)
		wantField string
	}{
		{name: "valid", mutate: func(*Draft) {}},
		{name: "valid with code", mutate: func(d *Draft) { d.RCMSCode = "RCMS_010" }},
		{name: "valid with name only", mutate: func(d *Draft) { d.RCMSName = "회의비" }},
		{name: "negative amount allowed", mutate: func(d *Draft) { d.Amount = -300 }},
		{name: "missing category", mutate: func(d *Draft) { d.Category = " " }, wantField: "category"},
		{name: "unknown category", mutate: func(d *Draft) { d.Category = "식비" }, wantField: "category"},
		{name: "grand total rejected", mutate: func(d *Draft) { d.Category = "총액" }, wantField: "category"},
		{name: "missing date", mutate: func(d *Draft) { d.Date = date("0001-01-01") }, wantField: "date"},
		{name: "missing title", mutate: func(d *Draft) { d.Title = "" }, wantField: "title"},
		{name: "unknown code", mutate: func(d *Draft) { d.RCMSCode = "RCMS_099" }, wantField: "rcms_code"},
		{name: "unknown name", mutate: func(d *Draft) { d.RCMSName = "없는항목" }, wantField: "rcms_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)

			err := ValidateExpense(d)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "50000", want: 50000},
		{in: "1,000,000원", want: 1000000},
		{in: " 2 500 ", want: 2500},
		{in: "-300", want: -300},
		{in: "1234.9", want: 1234},
		{in: "-1234.9", want: -1234},
		{in: "", wantErr: true},
		{in: "원", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" 2024-01-10 ")
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-10"), got)

	_, err = ParseDate("2024/01/10")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = ParseDate("")
	assert.ErrorIs(t, err, common.ErrValidation)
}
