package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSettled(t *testing.T) {
	yes := true
	no := false
	empty := ""
	tests := []struct {
		input any
		name  string
		want  bool
	}{
		{name: "nil", input: nil, want: false},
		{name: "bool true", input: true, want: true},
		{name: "bool false", input: false, want: false},
		{name: "pointer true", input: &yes, want: true},
		{name: "pointer false", input: &no, want: false},
		{name: "nil pointer", input: (*bool)(nil), want: false},
		{name: "lower true", input: "true", want: true},
		{name: "upper TRUE", input: "TRUE", want: true},
		{name: "mixed True", input: "True", want: true},
		{name: "one", input: "1", want: true},
		{name: "yes", input: "YES", want: true},
		{name: "y", input: "y", want: true},
		{name: "t", input: "T", want: true},
		{name: "padded token", input: " yes ", want: true},
		{name: "false string", input: "false", want: false},
		{name: "zero string", input: "0", want: false},
		{name: "no", input: "no", want: false},
		{name: "empty", input: "", want: false},
		{name: "empty pointer", input: &empty, want: false},
		{name: "garbage", input: "maybe", want: false},
		{name: "korean", input: "정산", want: false},
		{name: "int one", input: 1, want: true},
		{name: "int two", input: 2, want: false},
		{name: "int64 one", input: int64(1), want: true},
		{name: "float one", input: 1.0, want: true},
		{name: "float fraction", input: 1.5, want: false},
		{name: "struct", input: struct{}{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSettled(tt.input))
		})
	}
}
