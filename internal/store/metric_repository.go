package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/database"
)

var _ contracts.MetricRepository = (*MetricRepository)(nil)

const upsertRecordQuery = `
	INSERT INTO finrag.metric_records (
		cik, ticker, year, record_key, metric_type,
		metric_gaap, metric_code, metric_key, metric_label,
		value, unit, form, filed_date, accession_no, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
	ON CONFLICT (cik, year, record_key, metric_type) DO UPDATE SET
		ticker = EXCLUDED.ticker,
		metric_gaap = EXCLUDED.metric_gaap,
		metric_code = EXCLUDED.metric_code,
		metric_key = EXCLUDED.metric_key,
		metric_label = EXCLUDED.metric_label,
		value = EXCLUDED.value,
		unit = EXCLUDED.unit,
		form = EXCLUDED.form,
		filed_date = EXCLUDED.filed_date,
		accession_no = EXCLUDED.accession_no,
		updated_at = NOW()`

// MetricRepository implements contracts.MetricRepository
// ⭐ SSOT: 지표 레코드 저장소는 여기서만
type MetricRepository struct {
	db *database.DB
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *database.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// UpsertRecords writes records in one transaction and returns the row count
func (r *MetricRepository) UpsertRecords(ctx context.Context, records []contracts.CanonicalMetricRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return upsertBatch(ctx, tx, records)
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReplaceYears deletes the window years and inserts records in one transaction
func (r *MetricRepository) ReplaceYears(ctx context.Context, years contracts.YearRange, records []contracts.CanonicalMetricRecord) (int, error) {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM finrag.metric_records WHERE year BETWEEN $1 AND $2`,
			years.Start, years.End,
		); err != nil {
			return fmt.Errorf("failed to delete years %d-%d: %w", years.Start, years.End, err)
		}
		if len(records) == 0 {
			return nil
		}
		return upsertBatch(ctx, tx, records)
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// GetByEntity returns an entity's records in canonical order; year <= 0 returns every year
func (r *MetricRepository) GetByEntity(ctx context.Context, cik string, year int) ([]contracts.CanonicalMetricRecord, error) {
	query := `
		SELECT cik, ticker, year, metric_gaap, metric_code, metric_key, metric_label,
		       metric_type, value, unit, form, filed_date, accession_no
		FROM finrag.metric_records
		WHERE cik = $1 AND ($2 <= 0 OR year = $2)`

	rows, err := r.db.Pool.Query(ctx, query, contracts.PadCIK(cik), year)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.CanonicalMetricRecord, 0)
	for rows.Next() {
		var rec contracts.CanonicalMetricRecord
		var metricType string
		if err := rows.Scan(
			&rec.CIK, &rec.Ticker, &rec.Year, &rec.MetricGAAP, &rec.MetricCode, &rec.MetricKey,
			&rec.MetricLabel, &metricType, &rec.Value, &rec.Unit, &rec.Form, &rec.FiledDate,
			&rec.AccessionNo,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.MetricType = contracts.MetricType(metricType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	contracts.SortRecords(records)
	return records, nil
}

func upsertBatch(ctx context.Context, tx pgx.Tx, records []contracts.CanonicalMetricRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertRecordQuery,
			contracts.PadCIK(rec.CIK), rec.Ticker, rec.Year, recordKey(rec), string(rec.MetricType),
			rec.MetricGAAP, rec.MetricCode, rec.MetricKey, rec.MetricLabel,
			rec.Value, rec.Unit, rec.Form, rec.FiledDate, rec.AccessionNo,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert record %d (%s): %w", i, records[i].Identity(), err)
		}
	}
	return br.Close()
}

// recordKey is the metric key, or the label for records without one
func recordKey(rec contracts.CanonicalMetricRecord) string {
	if key := contracts.StrVal(rec.MetricKey); key != "" {
		return key
	}
	return rec.MetricLabel
}
