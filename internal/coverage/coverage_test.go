package coverage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

const (
	cikA = "0000000001"
	cikB = "0000000002"
	cikC = "0000000003"
)

func testConfig(t *testing.T) *metricsconfig.Config {
	t.Helper()
	cfg, err := metricsconfig.Default()
	require.NoError(t, err)

	cfg.Entities = []contracts.Entity{{CIK: cikA}, {CIK: cikB}, {CIK: cikC}}
	cfg.Exclusions = map[string]metricsconfig.Exclusion{
		cikB: {
			All:    []string{"Quick Ratio"},
			ByYear: map[int][]string{2024: {"Debt-to-Equity"}},
		},
	}
	return cfg
}

func derivedRows(cik string, year int, labels ...string) []contracts.CanonicalMetricRecord {
	out := make([]contracts.CanonicalMetricRecord, 0, len(labels))
	for _, l := range labels {
		out = append(out, contracts.CanonicalMetricRecord{
			CIK: cik, Year: year, MetricLabel: l, MetricType: contracts.MetricTypeDerived, Value: 1,
		})
	}
	return out
}

func allBut(cfg *metricsconfig.Config, skip ...string) []string {
	drop := map[string]bool{}
	for _, s := range skip {
		drop[s] = true
	}
	var out []string
	for _, l := range cfg.DerivedLabels() {
		if !drop[l] {
			out = append(out, l)
		}
	}
	return out
}

func TestDiagnoseFullCoverage(t *testing.T) {
	cfg := testConfig(t)
	records := derivedRows(cikA, 2024, cfg.DerivedLabels()...)

	report := Diagnose(records, cikA, cfg)
	require.Contains(t, report, 2024)
	assert.Empty(t, report[2024].Missing)
	assert.Len(t, report[2024].Present, metricsconfig.DerivedMetricCount)
	assert.Empty(t, report[2024].NotApplicable)
}

func TestDiagnoseMissingAndExclusions(t *testing.T) {
	cfg := testConfig(t)
	var records []contracts.CanonicalMetricRecord
	records = append(records, derivedRows(cikB, 2023, allBut(cfg, "Quick Ratio", "Free Cash Flow")...)...)
	records = append(records, derivedRows(cikB, 2024, allBut(cfg, "Quick Ratio", "Debt-to-Equity", "ROA % (Avg Assets)")...)...)

	report := Diagnose(records, "2", cfg)
	assert.Equal(t, []int{2023, 2024}, report.Years())

	assert.Equal(t, []string{"Free Cash Flow"}, report[2023].Missing)
	assert.Equal(t, []string{"Quick Ratio"}, report[2023].NotApplicable)

	assert.Equal(t, []string{"ROA % (Avg Assets)"}, report[2024].Missing)
	assert.Equal(t, []string{"Debt-to-Equity", "Quick Ratio"}, report[2024].NotApplicable)
}

func TestDiagnoseEntityWithoutRows(t *testing.T) {
	cfg := testConfig(t)
	gaapOnly := []contracts.CanonicalMetricRecord{{CIK: cikA, Year: 2024, MetricType: contracts.MetricTypeGAAP}}

	assert.Empty(t, Diagnose(nil, cikA, cfg))
	assert.Empty(t, Diagnose(gaapOnly, cikA, cfg))
}

func TestTotalMissing(t *testing.T) {
	cfg := testConfig(t)
	window := contracts.YearRange{Start: 2023, End: 2024}

	var records []contracts.CanonicalMetricRecord
	// A: full 2024, two missing in 2023, and an out-of-window year that must not count
	records = append(records, derivedRows(cikA, 2024, cfg.DerivedLabels()...)...)
	records = append(records, derivedRows(cikA, 2023, allBut(cfg, "Current Ratio", "Quick Ratio")...)...)
	records = append(records, derivedRows(cikA, 2020, "Current Ratio")...)
	// B: only out-of-window rows, so every applicable metric counts: 2023 → 9, 2024 → 8
	records = append(records, derivedRows(cikB, 2021, cfg.DerivedLabels()...)...)
	// C: nothing at all → 10 × 2

	assert.Equal(t, 2+9+8+20, TotalMissing(records, cfg, window))
}

func TestTotalMissingImprovesWithCoverage(t *testing.T) {
	cfg := testConfig(t)
	window := contracts.YearRange{Start: 2024, End: 2024}

	sparse := derivedRows(cikA, 2024, "Current Ratio")
	full := derivedRows(cikA, 2024, cfg.DerivedLabels()...)

	assert.Less(t, TotalMissing(full, cfg, window), TotalMissing(sparse, cfg, window))
}

func TestReportRows(t *testing.T) {
	cfg := testConfig(t)

	var records []contracts.CanonicalMetricRecord
	records = append(records, derivedRows(cikA, 2024, cfg.DerivedLabels()...)...)
	records = append(records, derivedRows(cikA, 2023, allBut(cfg, "Net Profit Margin %", "Current Ratio")...)...)
	records = append(records, derivedRows(cikB, 2024, allBut(cfg, "Quick Ratio", "Debt-to-Equity")...)...)

	rows := ReportRows(records, cfg)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{IssueType: IssueMissingCIK, CIK: cikC}, rows[0])
	assert.Equal(t, Row{
		IssueType:      IssueMissingMetric,
		CIK:            cikA,
		Year:           "2023",
		MissingMetrics: "Current Ratio; Net Profit Margin %",
	}, rows[1])

	assert.Equal(t, []string{cikC}, MissingCIKs(rows))
}

func TestCSVRoundTrip(t *testing.T) {
	rows := []Row{
		{IssueType: IssueMissingCIK, CIK: cikC},
		{IssueType: IssueMissingMetric, CIK: cikA, Year: "2023", MissingMetrics: "Current Ratio; Quick Ratio"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "issue_type,cik,year,missing_metrics", lines[0])
	assert.Equal(t, "missing_cik,0000000003,,", lines[1])

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "issue_type,cik,year,missing_metrics", strings.TrimSpace(buf.String()))
}
