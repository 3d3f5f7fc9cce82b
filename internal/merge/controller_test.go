package merge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/coverage"
	"github.com/wonny/finrag-metrics/internal/dataset"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

var window = contracts.YearRange{Start: 2023, End: 2024}

func testConfig(t *testing.T) *metricsconfig.Config {
	t.Helper()
	cfg, err := metricsconfig.Default()
	require.NoError(t, err)
	cfg.Entities = []contracts.Entity{{CIK: "0000320193"}, {CIK: "0000789019"}}
	cfg.Exclusions = nil
	return cfg
}

func layer(cfg *metricsconfig.Config, year int, labelsPerEntity int) []contracts.CanonicalMetricRecord {
	var out []contracts.CanonicalMetricRecord
	for _, cik := range cfg.CIKs() {
		for _, d := range cfg.Derived[:labelsPerEntity] {
			out = append(out, contracts.CanonicalMetricRecord{
				CIK: cik, Ticker: "T", Year: year,
				MetricKey: contracts.StrPtr(d.CanonicalKey), MetricLabel: d.Label,
				MetricType: contracts.MetricTypeDerived, Value: 1, Unit: contracts.StrPtr(d.Unit),
			})
		}
	}
	return out
}

func concat(parts ...[]contracts.CanonicalMetricRecord) []contracts.CanonicalMetricRecord {
	var out []contracts.CanonicalMetricRecord
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func newController(t *testing.T, cfg *metricsconfig.Config) (*Controller, *dataset.Store) {
	t.Helper()
	store := dataset.NewStore(filepath.Join(t.TempDir(), "analytical_layer_metrics_final.parquet"))
	return NewController(cfg, store, nil), store
}

func TestBootstrap(t *testing.T) {
	cfg := testConfig(t)
	ctrl, store := newController(t, cfg)
	newLayer := concat(layer(cfg, 2023, 10), layer(cfg, 2024, 8))

	d, err := ctrl.Run(newLayer, nil, window)
	require.NoError(t, err)

	assert.Equal(t, contracts.OutcomeBootstrap, d.Outcome)
	assert.Equal(t, ReasonBootstrap, d.Reason)
	assert.True(t, d.Merged())
	assert.Nil(t, d.MissingPrev)
	assert.Equal(t, 4, d.MissingNew)
	assert.Equal(t, len(newLayer), d.RowsNew)
	assert.Zero(t, d.RowsPrev)
	assert.Equal(t, []State{StateBootstrap, StateDone}, d.States)

	persisted, err := store.Read()
	require.NoError(t, err)
	assert.Len(t, persisted, len(newLayer))
}

func TestBootstrapIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	newLayer := concat(layer(cfg, 2023, 10), layer(cfg, 2024, 10))

	ctrlA, storeA := newController(t, cfg)
	ctrlB, storeB := newController(t, cfg)
	_, err := ctrlA.Run(newLayer, nil, window)
	require.NoError(t, err)
	_, err = ctrlB.Run(newLayer, nil, window)
	require.NoError(t, err)

	a, err := storeA.Bytes()
	require.NoError(t, err)
	b, err := storeB.Bytes()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMergeOnStrictImprovement(t *testing.T) {
	cfg := testConfig(t)
	ctrl, store := newController(t, cfg)

	history := layer(cfg, 2020, 10)
	prev := concat(history, layer(cfg, 2023, 6), layer(cfg, 2024, 6))
	require.NoError(t, store.Write(prev))

	newLayer := concat(layer(cfg, 2023, 10), layer(cfg, 2024, 9))
	d, err := ctrl.Run(newLayer, contracts.DatasetColumns, window)
	require.NoError(t, err)

	assert.Equal(t, contracts.OutcomeMerged, d.Outcome)
	assert.Equal(t, ReasonMerged, d.Reason)
	require.NotNil(t, d.MissingPrev)
	assert.Equal(t, 16, *d.MissingPrev)
	assert.Equal(t, 2, d.MissingNew)
	assert.Equal(t, len(prev), d.RowsPrev)
	assert.Equal(t, []State{StateCompare, StateMerge, StateDone}, d.States)

	persisted, err := store.Read()
	require.NoError(t, err)
	assert.Len(t, persisted, len(history)+len(newLayer))
	assert.Equal(t, d.MissingNew, coverage.TotalMissing(persisted, cfg, window))

	kept := 0
	for _, r := range persisted {
		if r.Year == 2020 {
			kept++
		}
	}
	assert.Equal(t, len(history), kept, "years outside the window are untouched")
}

func TestSkipLeavesDatasetUntouched(t *testing.T) {
	tests := []struct {
		name     string
		newCount int
	}{
		{"equal coverage", 8},
		{"worse coverage", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			ctrl, store := newController(t, cfg)
			require.NoError(t, store.Write(concat(layer(cfg, 2023, 8), layer(cfg, 2024, 8))))
			before, err := store.Bytes()
			require.NoError(t, err)

			newLayer := concat(layer(cfg, 2023, tt.newCount), layer(cfg, 2024, tt.newCount))
			d, err := ctrl.Run(newLayer, nil, window)
			require.NoError(t, err)

			assert.Equal(t, contracts.OutcomeSkipped, d.Outcome)
			assert.Equal(t, ReasonSkipped, d.Reason)
			assert.False(t, d.Merged())
			assert.Equal(t, []State{StateCompare, StateSkip, StateDone}, d.States)

			after, err := store.Bytes()
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

// legacyRow lacks accession_no
type legacyRow struct {
	CIK         *string  `parquet:"name=cik, type=BYTE_ARRAY, convertedtype=UTF8"`
	Ticker      *string  `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year        *int64   `parquet:"name=year, type=INT64"`
	MetricGAAP  *string  `parquet:"name=metric_gaap, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetricCode  *string  `parquet:"name=metric_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetricKey   *string  `parquet:"name=metric_key, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetricLabel *string  `parquet:"name=metric_label, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetricType  *string  `parquet:"name=metric_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value       *float64 `parquet:"name=value, type=DOUBLE"`
	Unit        *string  `parquet:"name=unit, type=BYTE_ARRAY, convertedtype=UTF8"`
	Form        *string  `parquet:"name=form, type=BYTE_ARRAY, convertedtype=UTF8"`
	FiledDate   *string  `parquet:"name=filed_date, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func writeLegacy(t *testing.T, path string) {
	t.Helper()
	fw, err := local.NewLocalFileWriter(path)
	require.NoError(t, err)
	pw, err := writer.NewParquetWriter(fw, new(legacyRow), 1)
	require.NoError(t, err)

	cik, label, typ := "0000320193", "Current Ratio", "derived"
	year, value := int64(2023), 1.0
	require.NoError(t, pw.Write(legacyRow{CIK: &cik, Year: &year, MetricLabel: &label, MetricType: &typ, Value: &value}))
	require.NoError(t, pw.WriteStop())
	require.NoError(t, fw.Close())
}

func TestSchemaMismatchIsFatal(t *testing.T) {
	cfg := testConfig(t)
	ctrl, store := newController(t, cfg)
	writeLegacy(t, store.Path)

	before, err := os.ReadFile(store.Path)
	require.NoError(t, err)

	d, err := ctrl.Run(layer(cfg, 2024, 10), nil, window)
	require.Error(t, err)
	assert.Nil(t, d)

	var mismatch *contracts.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Len(t, mismatch.Previous, 12)
	assert.Len(t, mismatch.New, 13)
	assert.True(t, contracts.IsFatal(err))

	after, err := os.ReadFile(store.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReplaceWindow(t *testing.T) {
	prev := []contracts.CanonicalMetricRecord{{Year: 2021}, {Year: 2023}, {Year: 2024}}
	newLayer := []contracts.CanonicalMetricRecord{
		{Year: 2023, MetricLabel: "new"},
		{Year: 2021, MetricLabel: "stray"},
	}

	got := ReplaceWindow(prev, newLayer, window)
	require.Len(t, got, 2)
	assert.Equal(t, 2021, got[0].Year)
	assert.Empty(t, got[0].MetricLabel, "rows outside the window stay as they were")
	assert.Equal(t, "new", got[1].MetricLabel)
}

func TestDecisionApplyTo(t *testing.T) {
	d := &Decision{
		Outcome: contracts.OutcomeSkipped, Reason: ReasonSkipped,
		RowsNew: 10, RowsPrev: 20, MissingPrev: contracts.IntPtr(3), MissingNew: 3,
	}
	var s contracts.RunSummary
	d.ApplyTo(&s)

	assert.False(t, s.Merged)
	assert.Equal(t, "SKIPPED", s.Status())
	assert.Equal(t, 3, *s.MissingNew)
	assert.Equal(t, 20, s.RowsPrev)
}
