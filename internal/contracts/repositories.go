package contracts

import "context"

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// MetricRepository mirrors canonical records into a database
type MetricRepository interface {
	UpsertRecords(ctx context.Context, records []CanonicalMetricRecord) (int, error)
	ReplaceYears(ctx context.Context, years YearRange, records []CanonicalMetricRecord) (int, error)
	GetByEntity(ctx context.Context, cik string, year int) ([]CanonicalMetricRecord, error)
}

// RunRepository stores run summaries
type RunRepository interface {
	Save(ctx context.Context, summary *RunSummary) error
	Latest(ctx context.Context) (*RunSummary, error)
	List(ctx context.Context, limit int) ([]*RunSummary, error)
}
