package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

func TestSafeDiv(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		nan  bool
		want float64
	}{
		{"normal", 150, 100, false, 1.5},
		{"zero denominator", 1, 0, true, 0},
		{"zero over zero", 0, 0, true, 0},
		{"nan denominator", 1, math.NaN(), true, 0},
		{"nan numerator", math.NaN(), 2, true, 0},
		{"overflow", math.MaxFloat64, 1e-300, true, 0},
		{"negative", -30, 60, false, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeDiv(tt.a, tt.b)
			assert.False(t, math.IsInf(got, 0))
			if tt.nan {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDivDropsUndefinedYears(t *testing.T) {
	a := contracts.YearSeries{2022: 10, 2023: 20, 2024: 30}
	b := contracts.YearSeries{2023: 0, 2024: 15}

	assert.Equal(t, contracts.YearSeries{2024: 2}, Div(a, b))
}

func TestAverage(t *testing.T) {
	s := contracts.YearSeries{2021: 100, 2023: 200, 2024: 300}

	got := Average(s)
	assert.Equal(t, contracts.YearSeries{2024: 250}, got, "the prior year is looked up by value, not by position")

	_, ok := got.Get(2021)
	assert.False(t, ok, "first year has no average")
}

func TestSubAbsScale(t *testing.T) {
	cfo := contracts.YearSeries{2023: 100, 2024: 120}
	capex := contracts.YearSeries{2023: -30, 2024: 40}

	assert.Equal(t, contracts.YearSeries{2023: 70, 2024: 80}, Sub(cfo, Abs(capex)))
	assert.Equal(t, contracts.YearSeries{2023: 10000, 2024: 12000}, Scale(cfo, 100))
}

func TestUnionYears(t *testing.T) {
	got := UnionYears(contracts.YearSeries{2024: 1}, contracts.YearSeries{2022: 1, 2024: 2}, nil)
	assert.Equal(t, []int{2022, 2024}, got)
}
