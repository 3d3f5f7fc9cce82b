package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanNumeric(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"(1,234)", -1234},
		{"1,234", 1234},
		{"$ 391,035", 391035},
		{"($5.5)", -5.5},
		{"  42 ", 42},
		{"12.75", 12.75},
		{"-3", -3},
		{"1e3", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanNumeric(tt.raw))
		})
	}
}

func TestCleanNumericUnparseable(t *testing.T) {
	for _, raw := range []string{"", "—", "–", "n/a", "abc", "$", "Inf", "( )"} {
		t.Run(raw, func(t *testing.T) {
			assert.True(t, math.IsNaN(CleanNumeric(raw)), "expected NaN for %q", raw)
		})
	}
}

func TestColumnToYear(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"2024-09-28", 2024, true},
		{"2023-12-31", 2023, true},
		{"FY2022", 2022, true},
		{"12 Months Ended Sep. 28, 2024", 2024, true},
		{"Dec. 31, 2023", 2023, true},
		{"2021", 2021, true},
		{"label", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ColumnToYear(tt.label)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
