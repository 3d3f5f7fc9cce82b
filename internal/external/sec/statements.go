package sec

import (
	"strconv"
	"strings"

	"github.com/wonny/finrag-metrics/internal/alias"
	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

const monetaryUnit = "USD"

// StatementSet holds the statements of one entity keyed by kind
type StatementSet map[contracts.StatementKind]*contracts.RawStatementTable

// Get returns the statement of kind or nil
func (s StatementSet) Get(kind contracts.StatementKind) *contracts.RawStatementTable {
	return s[kind]
}

// factCell is the winning fact for one (code, period end)
type factCell struct {
	value float64
	filed string
}

// FactsStatementSource lays companyfacts out as statements.
// Rows are labelled by the bare code and placed on the statement whose configured
// row aliases name that code; columns are period end dates, oldest first.
// Only facts from the given filings count; with no filings every accepted form counts.
func FactsStatementSource(cfg *metricsconfig.Config, facts []contracts.FactRecord, filings []contracts.Filing) StatementSet {
	kinds := codeStatements(cfg)

	accessions := make(map[string]bool, len(filings))
	for _, f := range filings {
		accessions[f.AccessionNumber] = true
	}

	cells := map[contracts.StatementKind]map[string]map[string]factCell{}
	for _, f := range facts {
		if f.Value == nil || f.Unit != monetaryUnit || !cfg.AcceptsForm(f.Form) {
			continue
		}
		if len(accessions) > 0 && !accessions[f.Accession] {
			continue
		}
		code, ok := alias.StripNamespace(f.Concept)
		if !ok {
			continue
		}
		kind, ok := kinds[code]
		if !ok || !periodFits(kind, f.Start, f.End) {
			continue
		}

		byCode, ok := cells[kind]
		if !ok {
			byCode = map[string]map[string]factCell{}
			cells[kind] = byCode
		}
		byEnd, ok := byCode[code]
		if !ok {
			byEnd = map[string]factCell{}
			byCode[code] = byEnd
		}
		if prev, seen := byEnd[f.End]; seen && prev.filed > f.FilingDate {
			continue
		}
		byEnd[f.End] = factCell{value: *f.Value, filed: f.FilingDate}
	}

	set := StatementSet{}
	for kind, byCode := range cells {
		set[kind] = factTable(byCode)
	}
	return set
}

// codeStatements maps every alias to the statement of its row; codes are matched exactly
func codeStatements(cfg *metricsconfig.Config) map[string]contracts.StatementKind {
	out := map[string]contracts.StatementKind{}
	for _, key := range metricsconfig.RequiredRows() {
		row, ok := cfg.Rows[key]
		if !ok {
			continue
		}
		for _, a := range row.Aliases {
			if _, taken := out[a]; !taken {
				out[a] = row.Statement
			}
		}
	}
	return out
}

// periodFits checks instants for the balance sheet and annual durations elsewhere
func periodFits(kind contracts.StatementKind, start, end string) bool {
	if (kind == contracts.StatementBalance) != (start == "") {
		return false
	}
	_, ok := contracts.AnnualPeriod(start, end)
	return ok
}

func factTable(byCode map[string]map[string]factCell) *contracts.RawStatementTable {
	endSet := map[string]bool{}
	for _, byEnd := range byCode {
		for end := range byEnd {
			endSet[end] = true
		}
	}
	columns := sortedKeys(endSet)

	table := &contracts.RawStatementTable{Columns: columns}
	for _, code := range sortedKeys(byCode) {
		byEnd := byCode[code]
		values := make([]string, len(columns))
		for i, end := range columns {
			if cell, ok := byEnd[end]; ok {
				values[i] = strconv.FormatFloat(cell.value, 'f', -1, 64)
			}
		}
		table.Rows = append(table.Rows, contracts.StatementRow{Label: code, Values: values})
	}
	return table
}

// mergeTables appends the columns of later tables.
// A column already present keeps its first values; a repeated label keeps its first row.
func mergeTables(tables ...*contracts.RawStatementTable) *contracts.RawStatementTable {
	var columns []string
	seenCol := map[string]bool{}
	var labels []string
	values := map[string]map[string]string{}

	for _, t := range tables {
		if t.Empty() {
			continue
		}
		var fresh []int
		for i, col := range t.Columns {
			col = strings.TrimSpace(col)
			if seenCol[col] {
				continue
			}
			seenCol[col] = true
			columns = append(columns, col)
			fresh = append(fresh, i)
		}
		for _, row := range t.Rows {
			cells, ok := values[row.Label]
			if !ok {
				cells = map[string]string{}
				values[row.Label] = cells
				labels = append(labels, row.Label)
			}
			for _, i := range fresh {
				col := strings.TrimSpace(t.Columns[i])
				if _, set := cells[col]; !set && i < len(row.Values) {
					cells[col] = row.Values[i]
				}
			}
		}
	}

	if len(labels) == 0 {
		return nil
	}
	out := &contracts.RawStatementTable{Columns: columns}
	for _, label := range labels {
		row := contracts.StatementRow{Label: label, Values: make([]string, len(columns))}
		for i, col := range columns {
			row.Values[i] = values[label][col]
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
