// Package coverage measures how many derived metrics an analytical layer carries.
package coverage

import (
	"sort"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

// YearCoverage is the derived-metric coverage of one (entity, year)
type YearCoverage struct {
	Present       []string `json:"present"`
	NotApplicable []string `json:"not_applicable"`
	Missing       []string `json:"missing"`
}

// Report maps fiscal year → coverage for one entity
type Report map[int]YearCoverage

// Years returns the report's years ascending
func (r Report) Years() []int {
	years := make([]int, 0, len(r))
	for y := range r {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Diagnose reports coverage for every year in which cik has derived rows.
// An entity with no rows at all yields an empty report.
func Diagnose(records []contracts.CanonicalMetricRecord, cik string, cfg *metricsconfig.Config) Report {
	return diagnoseEntity(byEntity(records)[contracts.PadCIK(cik)], cik, cfg)
}

func diagnoseEntity(records []contracts.CanonicalMetricRecord, cik string, cfg *metricsconfig.Config) Report {
	report := Report{}
	if len(records) == 0 {
		return report
	}

	present := map[int]map[string]bool{}
	for _, r := range records {
		if !r.IsDerived() {
			continue
		}
		if present[r.Year] == nil {
			present[r.Year] = map[string]bool{}
		}
		present[r.Year][r.MetricLabel] = true
	}

	for year, have := range present {
		excluded := cfg.ExcludedFor(cik, year)
		var missing []string
		for _, label := range cfg.DerivedLabels() {
			if !excluded[label] && !have[label] {
				missing = append(missing, label)
			}
		}
		sort.Strings(missing)

		report[year] = YearCoverage{
			Present:       sortedKeys(have),
			NotApplicable: sortedKeys(excluded),
			Missing:       nonNil(missing),
		}
	}
	return report
}

// TotalMissing sums missing derived metrics across the configured entities for the
// years in window. An entity without derived rows in the window counts every
// applicable metric of every window year as missing.
func TotalMissing(records []contracts.CanonicalMetricRecord, cfg *metricsconfig.Config, window contracts.YearRange) int {
	grouped := byEntity(records)
	total := 0

	for _, cik := range cfg.CIKs() {
		rows := grouped[cik]
		if !hasDerivedIn(rows, window) {
			for _, year := range window.Years() {
				total += applicable(cfg, cik, year)
			}
			continue
		}

		for year, cov := range diagnoseEntity(rows, cik, cfg) {
			if window.Contains(year) {
				total += len(cov.Missing)
			}
		}
	}
	return total
}

// applicable counts the derived labels expected for (cik, year)
func applicable(cfg *metricsconfig.Config, cik string, year int) int {
	n := 0
	excluded := cfg.ExcludedFor(cik, year)
	for _, label := range cfg.DerivedLabels() {
		if !excluded[label] {
			n++
		}
	}
	return n
}

func hasDerivedIn(records []contracts.CanonicalMetricRecord, window contracts.YearRange) bool {
	for _, r := range records {
		if r.IsDerived() && window.Contains(r.Year) {
			return true
		}
	}
	return false
}

func byEntity(records []contracts.CanonicalMetricRecord) map[string][]contracts.CanonicalMetricRecord {
	out := map[string][]contracts.CanonicalMetricRecord{}
	for _, r := range records {
		cik := contracts.PadCIK(r.CIK)
		out[cik] = append(out[cik], r)
	}
	return out
}

// FilterYears keeps the records whose year falls inside window
func FilterYears(records []contracts.CanonicalMetricRecord, window contracts.YearRange) []contracts.CanonicalMetricRecord {
	out := make([]contracts.CanonicalMetricRecord, 0, len(records))
	for _, r := range records {
		if window.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
