package kpi

import (
	"math"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

// SafeDiv divides a by b. A zero or NaN denominator and any infinite result yield NaN.
func SafeDiv(a, b float64) float64 {
	if b == 0 || math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	v := a / b
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// Div divides two series year by year; years missing on either side are absent
func Div(a, b contracts.YearSeries) contracts.YearSeries {
	return combine(a, b, SafeDiv)
}

// Sub subtracts b from a for years present in both
func Sub(a, b contracts.YearSeries) contracts.YearSeries {
	return combine(a, b, func(x, y float64) float64 { return x - y })
}

// Scale multiplies every value by k
func Scale(s contracts.YearSeries, k float64) contracts.YearSeries {
	out := make(contracts.YearSeries, len(s))
	for y, v := range s {
		out[y] = v * k
	}
	return out
}

// Abs takes the magnitude of every value
func Abs(s contracts.YearSeries) contracts.YearSeries {
	out := make(contracts.YearSeries, len(s))
	for y, v := range s {
		out[y] = math.Abs(v)
	}
	return out
}

// Average returns (x[y] + x[y-1]) / 2. Years without a prior-year value are absent.
func Average(s contracts.YearSeries) contracts.YearSeries {
	out := contracts.YearSeries{}
	for y, v := range s {
		if prev, ok := s[y-1]; ok {
			out[y] = (v + prev) / 2
		}
	}
	return out
}

// UnionYears returns every year present in any series, ascending
func UnionYears(series ...contracts.YearSeries) []int {
	all := contracts.YearSeries{}
	for _, s := range series {
		for y := range s {
			all[y] = 0
		}
	}
	return all.Years()
}

func combine(a, b contracts.YearSeries, fn func(x, y float64) float64) contracts.YearSeries {
	out := contracts.YearSeries{}
	for y, x := range a {
		other, ok := b[y]
		if !ok {
			continue
		}
		v := fn(x, other)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[y] = v
	}
	return out
}
