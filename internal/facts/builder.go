// Package facts builds the GAAP rows of the analytical layer from reported XBRL facts.
package facts

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/finrag-metrics/internal/alias"
	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// Result is the outcome of one entity's fact table build
type Result struct {
	Records []contracts.CanonicalMetricRecord
	Skipped []*contracts.SkippableRecordError
}

// Builder keeps one fact per (concept, year)
// ⭐ SSOT: GAAP 레코드 생성은 여기서만
type Builder struct {
	cfg      *metricsconfig.Config
	resolver *alias.Resolver
	logger   *logger.Logger
}

// NewBuilder creates a builder over the configured concepts and forms
func NewBuilder(cfg *metricsconfig.Config, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Builder{
		cfg:      cfg,
		resolver: alias.New(cfg.GAAP),
		logger:   log.Component("facts"),
	}
}

type factKey struct {
	code string
	year int
}

// Build selects, for every configured concept and year in years, the most recently
// filed fact among accepted forms. Only instants and annual durations ending in the
// fact's fiscal year are candidates, so prior-year comparatives and quarterly slices
// of the same filing never compete. Pairs without a candidate are not emitted;
// a candidate without a usable value is skipped and reported.
func (b *Builder) Build(entity contracts.Entity, facts []contracts.FactRecord, years contracts.YearRange) Result {
	cik := contracts.PadCIK(entity.CIK)
	ticker := entity.Ticker
	if ticker == "" {
		ticker = contracts.DefaultTicker
	}

	candidates := make(map[factKey][]contracts.FactRecord)
	for _, f := range facts {
		code, ok := alias.StripNamespace(f.Concept)
		if !ok || !years.Contains(f.FiscalYear) || !b.cfg.AcceptsForm(f.Form) {
			continue
		}
		if end, ok := contracts.AnnualPeriod(f.Start, f.End); !ok || !endsInFiscalYear(end, f.FiscalYear) {
			continue
		}
		k := factKey{code: code, year: f.FiscalYear}
		candidates[k] = append(candidates[k], f)
	}

	var result Result
	for _, code := range b.cfg.Concepts() {
		for _, year := range years.Years() {
			group := candidates[factKey{code: code, year: year}]
			if len(group) == 0 {
				continue
			}
			latest := Latest(group)

			if latest.Value == nil || math.IsNaN(*latest.Value) || math.IsInf(*latest.Value, 0) {
				result.Skipped = append(result.Skipped, &contracts.SkippableRecordError{
					Entity:  cik,
					Concept: latest.Concept,
					Year:    year,
					Reason:  "missing numeric value",
				})
				continue
			}

			result.Records = append(result.Records, b.record(cik, ticker, code, latest))
		}
	}

	if len(result.Skipped) > 0 {
		b.logger.WithFields(map[string]interface{}{
			"cik":     cik,
			"skipped": len(result.Skipped),
		}).Warn("Skipped facts without a value")
	}
	return result
}

// endsInFiscalYear accepts 52/53-week years that close in the first days of January
func endsInFiscalYear(end time.Time, fiscalYear int) bool {
	if end.Year() == fiscalYear {
		return true
	}
	return end.Year() == fiscalYear+1 && end.Month() == time.January && end.Day() <= 7
}

// Latest returns the last candidate after a stable sort by (fiscal_year, filing_date, end)
func Latest(group []contracts.FactRecord) contracts.FactRecord {
	sorted := append([]contracts.FactRecord(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FiscalYear != sorted[j].FiscalYear {
			return sorted[i].FiscalYear < sorted[j].FiscalYear
		}
		if sorted[i].FilingDate != sorted[j].FilingDate {
			return sorted[i].FilingDate < sorted[j].FilingDate
		}
		return sorted[i].End < sorted[j].End
	})
	return sorted[len(sorted)-1]
}

func (b *Builder) record(cik, ticker, code string, f contracts.FactRecord) contracts.CanonicalMetricRecord {
	rec := contracts.CanonicalMetricRecord{
		CIK:         cik,
		Ticker:      ticker,
		Year:        f.FiscalYear,
		MetricGAAP:  contracts.StrPtr(f.Concept),
		MetricCode:  contracts.StrPtr(code),
		MetricLabel: b.resolver.Label(code),
		MetricType:  contracts.MetricTypeGAAP,
		Value:       *f.Value,
		Unit:        contracts.StrPtr(f.Unit),
		Form:        contracts.StrPtr(f.Form),
		FiledDate:   contracts.StrPtr(f.FilingDate),
		AccessionNo: contracts.StrPtr(f.Accession),
	}
	if key, ok := b.resolver.Key(code); ok {
		rec.MetricKey = contracts.StrPtr(key)
	}
	return rec
}
