// Package extract turns reported statement rows into year-indexed series.
package extract

import (
	"strings"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/normalize"
)

// Single returns the series of the first alias that matches a row.
// Labels are matched trimmed and case-folded. No match yields an empty series.
func Single(table *contracts.RawStatementTable, aliases []string) contracts.YearSeries {
	if table.Empty() {
		return contracts.YearSeries{}
	}
	index := labelIndex(table)

	for _, alias := range aliases {
		if i, ok := index[foldLabel(alias)]; ok {
			return rowSeries(table, i)
		}
	}
	return contracts.YearSeries{}
}

// Summed adds the series of every matching alias per year.
// A year stays absent unless at least one alias reports it.
func Summed(table *contracts.RawStatementTable, aliases []string) contracts.YearSeries {
	out := contracts.YearSeries{}
	if table.Empty() {
		return out
	}
	index := labelIndex(table)

	seen := make(map[string]bool, len(aliases))
	for _, alias := range aliases {
		key := foldLabel(alias)
		if seen[key] {
			continue
		}
		seen[key] = true

		i, ok := index[key]
		if !ok {
			continue
		}
		for year, v := range rowSeries(table, i) {
			out[year] += v
		}
	}
	return out
}

// labelIndex maps folded label → first row carrying it
func labelIndex(table *contracts.RawStatementTable) map[string]int {
	index := make(map[string]int, len(table.Rows))
	for i, row := range table.Rows {
		key := foldLabel(row.Label)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

// rowSeries cleans one row; columns without a year are dropped and the last value per year wins
func rowSeries(table *contracts.RawStatementTable, i int) contracts.YearSeries {
	row := table.Rows[i]
	out := contracts.YearSeries{}

	for c, col := range table.Columns {
		if c >= len(row.Values) {
			break
		}
		year, ok := normalize.ColumnToYear(col)
		if !ok {
			continue
		}
		v := normalize.CleanNumeric(row.Values[c])
		if normalize.IsMissing(v) {
			continue
		}
		out[year] = v
	}
	return out
}

func foldLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
