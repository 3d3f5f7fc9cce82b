package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/config"
	"github.com/wonny/finrag-metrics/pkg/database"
)

const testCIK = "0999999901"

func integrationDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, EnsureSchema(ctx, db))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(ctx, `DELETE FROM finrag.metric_records WHERE cik = $1`, testCIK)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM finrag.run_summaries WHERE run_id LIKE '1901%'`)
	})
	return db
}

func testRecords() []contracts.CanonicalMetricRecord {
	return []contracts.CanonicalMetricRecord{
		{
			CIK: testCIK, Ticker: "TST", Year: 1901,
			MetricGAAP: contracts.StrPtr("NetIncomeLoss"), MetricCode: contracts.StrPtr("us-gaap:NetIncomeLoss"),
			MetricKey: contracts.StrPtr("net_income"), MetricLabel: "Net Income",
			MetricType: contracts.MetricTypeGAAP, Value: 120, Unit: contracts.StrPtr("USD"),
			Form: contracts.StrPtr("10-K"), FiledDate: contracts.StrPtr("1902-02-01"), AccessionNo: contracts.StrPtr("0000000000-02-000001"),
		},
		{
			CIK: testCIK, Ticker: "TST", Year: 1901,
			MetricLabel: "Net Profit Margin %", MetricType: contracts.MetricTypeDerived, Value: 12.5,
			Unit: contracts.StrPtr("percent"),
		},
		{
			CIK: testCIK, Ticker: "TST", Year: 1902,
			MetricKey: contracts.StrPtr("roa"), MetricLabel: "ROA % (Avg Assets)",
			MetricType: contracts.MetricTypeDerived, Value: 4.2, Unit: contracts.StrPtr("percent"),
		},
	}
}

func TestRecordKey(t *testing.T) {
	recs := testRecords()
	assert.Equal(t, "net_income", recordKey(recs[0]))
	assert.Equal(t, "Net Profit Margin %", recordKey(recs[1]))

	recs[1].MetricKey = contracts.StrPtr("")
	assert.Equal(t, "Net Profit Margin %", recordKey(recs[1]))
}

func TestSchemaNamesEveryTable(t *testing.T) {
	assert.Contains(t, Schema, "finrag.metric_records")
	assert.Contains(t, Schema, "finrag.run_summaries")
	assert.Contains(t, Schema, "PRIMARY KEY (cik, year, record_key, metric_type)")
}

func TestMetricRepositoryUpsert(t *testing.T) {
	db := integrationDB(t)
	repo := NewMetricRepository(db)
	ctx := context.Background()

	n, err := repo.UpsertRecords(ctx, testRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// same identity updates in place
	updated := testRecords()[:1]
	updated[0].Value = 150
	_, err = repo.UpsertRecords(ctx, updated)
	require.NoError(t, err)

	got, err := repo.GetByEntity(ctx, "999999901", 1901)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, contracts.MetricTypeDerived, got[0].MetricType)
	assert.Nil(t, got[0].MetricKey)
	assert.Equal(t, 150.0, got[1].Value)
	assert.Equal(t, "10-K", contracts.StrVal(got[1].Form))

	all, err := repo.GetByEntity(ctx, testCIK, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMetricRepositoryReplaceYears(t *testing.T) {
	db := integrationDB(t)
	repo := NewMetricRepository(db)
	ctx := context.Background()

	_, err := repo.UpsertRecords(ctx, testRecords())
	require.NoError(t, err)

	n, err := repo.ReplaceYears(ctx, contracts.YearRange{Start: 1902, End: 1902}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := repo.GetByEntity(ctx, testCIK, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, rec := range all {
		assert.Equal(t, 1901, rec.Year)
	}
}

func TestRunRepository(t *testing.T) {
	db := integrationDB(t)
	repo := NewRunRepository(db)
	ctx := context.Background()

	for _, id := range []string{"19010101T060000", "19010102T060000"} {
		require.NoError(t, repo.Save(ctx, &contracts.RunSummary{
			RunID: id, StartYear: 1900, EndYear: 1901, Merged: true,
			Outcome: contracts.OutcomeBootstrap, MissingNew: contracts.IntPtr(3),
		}))
	}

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, latest.RunID)
}
