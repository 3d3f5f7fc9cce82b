package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

func sampleRecords() []contracts.CanonicalMetricRecord {
	return []contracts.CanonicalMetricRecord{
		{
			CIK: "0000320193", Ticker: "AAPL", Year: 2024,
			MetricKey: contracts.StrPtr("current_ratio"), MetricLabel: "Current Ratio",
			MetricType: contracts.MetricTypeDerived, Value: 0.87, Unit: contracts.StrPtr("ratio"),
		},
		{
			CIK: "0000320193", Ticker: "AAPL", Year: 2024,
			MetricGAAP: contracts.StrPtr("us-gaap:NetIncomeLoss"), MetricCode: contracts.StrPtr("NetIncomeLoss"),
			MetricKey: contracts.StrPtr("net_income"), MetricLabel: "Net Income",
			MetricType: contracts.MetricTypeGAAP, Value: 93736000000, Unit: contracts.StrPtr("USD"),
			Form: contracts.StrPtr("10-K"), FiledDate: contracts.StrPtr("2024-11-01"),
			AccessionNo: contracts.StrPtr("0000320193-24-000123"),
		},
		{
			CIK: "0000059478", Ticker: "LLY", Year: 2023,
			MetricLabel: "Some Unmapped Concept", MetricType: contracts.MetricTypeGAAP, Value: -12.5,
		},
	}
}

func TestWriteRead(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "final.parquet"))
	assert.False(t, store.Exists())

	require.NoError(t, store.Write(sampleRecords()))
	assert.True(t, store.Exists())

	got, err := store.Read()
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := sampleRecords()
	contracts.SortRecords(want)
	assert.Equal(t, want, got)

	assert.Nil(t, got[0].MetricKey, "null columns survive the round trip")
}

func TestColumns(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "final.parquet"))
	require.NoError(t, store.Write(sampleRecords()))

	cols, err := store.Columns()
	require.NoError(t, err)
	assert.Equal(t, contracts.DatasetColumns, cols)
}

func TestWriteIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := NewStore(filepath.Join(dir, "a.parquet"))
	b := NewStore(filepath.Join(dir, "b.parquet"))

	records := sampleRecords()
	reversed := []contracts.CanonicalMetricRecord{records[2], records[1], records[0]}

	require.NoError(t, a.Write(records))
	require.NoError(t, b.Write(reversed))

	ab, err := a.Bytes()
	require.NoError(t, err)
	bb, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, ab, bb)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "final.parquet"))

	require.NoError(t, store.Write(sampleRecords()))
	require.NoError(t, store.Write(sampleRecords()[:1]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "final.parquet", entries[0].Name())

	got, err := store.Read()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(sampleRecords())
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	cols, err := DecodeColumns(data)
	require.NoError(t, err)
	assert.Equal(t, contracts.DatasetColumns, cols)
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNaNValueIsNull(t *testing.T) {
	rec := sampleRecords()[0]
	rec.Value = math.NaN()

	row := toRow(rec)
	assert.Nil(t, row.Value)
	assert.True(t, math.IsNaN(fromRow(row).Value))
}

func TestReadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.parquet"))
	_, err := store.Read()
	assert.Error(t, err)
}

func TestSameColumns(t *testing.T) {
	cols := contracts.DatasetColumns
	shuffled := append([]string{cols[len(cols)-1]}, cols[:len(cols)-1]...)

	assert.True(t, SameColumns(cols, shuffled))
	assert.False(t, SameColumns(cols, cols[:12]))
	assert.False(t, SameColumns(cols[:12], append(append([]string{}, cols[:11]...), "extra")))
}
