package coverage

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

// Issue types of the coverage CSV
const (
	IssueMissingCIK    = "missing_cik"
	IssueMissingMetric = "missing_metric"
)

// Row is one line of analytical_layer_coverage_last2yrs.csv.
// Year and MissingMetrics are empty for missing_cik rows.
type Row struct {
	IssueType      string `csv:"issue_type" json:"issue_type"`
	CIK            string `csv:"cik" json:"cik"`
	Year           string `csv:"year" json:"year"`
	MissingMetrics string `csv:"missing_metrics" json:"missing_metrics"`
}

// ReportRows lists entities without any rows first (sorted), then every
// (entity, year) with at least one missing derived metric.
func ReportRows(records []contracts.CanonicalMetricRecord, cfg *metricsconfig.Config) []Row {
	grouped := byEntity(records)
	expected := cfg.CIKs()

	var missingCIKs []string
	for _, cik := range expected {
		if len(grouped[cik]) == 0 {
			missingCIKs = append(missingCIKs, cik)
		}
	}
	sort.Strings(missingCIKs)

	rows := make([]Row, 0, len(missingCIKs))
	for _, cik := range missingCIKs {
		rows = append(rows, Row{IssueType: IssueMissingCIK, CIK: cik})
	}

	for _, cik := range expected {
		entity := grouped[cik]
		if len(entity) == 0 {
			continue
		}
		report := diagnoseEntity(entity, cik, cfg)
		for _, year := range report.Years() {
			missing := report[year].Missing
			if len(missing) == 0 {
				continue
			}
			rows = append(rows, Row{
				IssueType:      IssueMissingMetric,
				CIK:            cik,
				Year:           strconv.Itoa(year),
				MissingMetrics: strings.Join(missing, "; "),
			})
		}
	}
	return rows
}

// WriteCSV writes rows with a header line
func WriteCSV(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write coverage csv: %w", err)
	}
	return nil
}

// ReadCSV parses a coverage CSV written by WriteCSV
func ReadCSV(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read coverage csv: %w", err)
	}
	return rows, nil
}

// MissingCIKs returns the CIKs reported under missing_cik
func MissingCIKs(rows []Row) []string {
	var out []string
	for _, r := range rows {
		if r.IssueType == IssueMissingCIK {
			out = append(out, r.CIK)
		}
	}
	return out
}
