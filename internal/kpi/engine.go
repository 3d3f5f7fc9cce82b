// Package kpi computes the derived financial ratios from normalized statement rows.
package kpi

import (
	"sort"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

// Engine computes the configured derived metrics
// ⭐ SSOT: 파생 KPI 공식은 여기서만 정의
type Engine struct {
	cfg *metricsconfig.Config
}

// New creates an engine over cfg's row aliases and derived metadata
func New(cfg *metricsconfig.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute evaluates every formula, keyed by canonical key
func Compute(s Statements) map[string]contracts.YearSeries {
	avgAssets := Average(s.TotalAssets)
	avgEquity := Average(s.Equity)

	return map[string]contracts.YearSeries{
		metricsconfig.KeyNetProfitMargin:  Scale(Div(s.NetIncome, s.Revenue), 100),
		metricsconfig.KeyOperatingMargin:  Scale(Div(s.OperatingIncome, s.Revenue), 100),
		metricsconfig.KeyROA:              Scale(Div(s.NetIncome, avgAssets), 100),
		metricsconfig.KeyROE:              Scale(Div(s.NetIncome, avgEquity), 100),
		metricsconfig.KeyCurrentRatio:     Div(s.CurrentAssets, s.CurrentLiabilities),
		metricsconfig.KeyQuickRatio:       Div(Sub(s.CurrentAssets, s.Inventory), s.CurrentLiabilities),
		metricsconfig.KeyDebtToEquity:     Div(s.TotalLiabilities, s.Equity),
		metricsconfig.KeyDebtToAssets:     Div(s.TotalLiabilities, s.TotalAssets),
		metricsconfig.KeyFreeCashFlow:     Sub(s.CFO, Abs(s.CapEx)),
		metricsconfig.KeyOperatingCFRatio: Div(s.CFO, s.CurrentLiabilities),
	}
}

// Records computes the derived metrics of one entity in long format,
// ordered by (year, metric_label). Absent values are not emitted.
func (e *Engine) Records(entity contracts.Entity, src contracts.StatementSource) []contracts.CanonicalMetricRecord {
	return e.RecordsFor(entity, e.Extract(src))
}

// RecordsFor turns already extracted rows into derived records
func (e *Engine) RecordsFor(entity contracts.Entity, s Statements) []contracts.CanonicalMetricRecord {
	values := Compute(s)

	years := UnionYears(
		s.Revenue, s.OperatingIncome, s.NetIncome, s.TotalAssets, s.Equity,
		s.TotalLiabilities, s.CurrentAssets, s.CurrentLiabilities, s.Inventory,
		s.CFO, s.CapEx,
	)

	metrics := append([]metricsconfig.DerivedMetric(nil), e.cfg.Derived...)
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Label < metrics[j].Label })

	ticker := entity.Ticker
	if ticker == "" {
		ticker = contracts.DefaultTicker
	}

	var out []contracts.CanonicalMetricRecord
	for _, year := range years {
		for _, m := range metrics {
			v, ok := values[m.CanonicalKey].Get(year)
			if !ok {
				continue
			}
			out = append(out, contracts.CanonicalMetricRecord{
				CIK:         contracts.PadCIK(entity.CIK),
				Ticker:      ticker,
				Year:        year,
				MetricKey:   contracts.StrPtr(m.CanonicalKey),
				MetricLabel: m.Label,
				MetricType:  contracts.MetricTypeDerived,
				Value:       v,
				Unit:        contracts.StrPtr(m.Unit),
			})
		}
	}
	return out
}
