// Package store mirrors canonical records and run summaries into PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/finrag-metrics/pkg/database"
)

// ErrNotFound is returned when a lookup matches no rows
var ErrNotFound = errors.New("not found")

// Schema creates the mirror tables
// ⭐ SSOT: finrag 스키마 DDL은 여기서만
const Schema = `
CREATE SCHEMA IF NOT EXISTS finrag;

CREATE TABLE IF NOT EXISTS finrag.metric_records (
	cik           TEXT             NOT NULL,
	ticker        TEXT             NOT NULL DEFAULT '',
	year          INTEGER          NOT NULL,
	record_key    TEXT             NOT NULL,
	metric_type   TEXT             NOT NULL,
	metric_gaap   TEXT,
	metric_code   TEXT,
	metric_key    TEXT,
	metric_label  TEXT             NOT NULL,
	value         DOUBLE PRECISION NOT NULL,
	unit          TEXT,
	form          TEXT,
	filed_date    TEXT,
	accession_no  TEXT,
	updated_at    TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
	PRIMARY KEY (cik, year, record_key, metric_type)
);

CREATE INDEX IF NOT EXISTS idx_metric_records_year ON finrag.metric_records (year);

CREATE TABLE IF NOT EXISTS finrag.run_summaries (
	run_id          TEXT        PRIMARY KEY,
	start_year      INTEGER     NOT NULL,
	end_year        INTEGER     NOT NULL,
	merged          BOOLEAN     NOT NULL,
	outcome         TEXT        NOT NULL,
	missing_prev    INTEGER,
	missing_new     INTEGER,
	summary         JSONB       NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema applies Schema; every statement is idempotent
func EnsureSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
