package objectstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrag-metrics/pkg/config"
)

func TestJoinKey(t *testing.T) {
	tests := []struct {
		prefix, key, want string
	}{
		{"DATA_MERGE_ASSETS/FINRAG_FACT_METRICS", "final.parquet", "DATA_MERGE_ASSETS/FINRAG_FACT_METRICS/final.parquet"},
		{"/prefix/", "/a/b.json", "prefix/a/b.json"},
		{"", "a.csv", "a.csv"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, joinKey(tt.prefix, tt.key))
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "FINRAG_FACT_METRICS")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "run_metadata/dag/task/run.json", []byte(`{"merged":true}`), "application/json"))

	data, err := store.Get(ctx, "run_metadata/dag/task/run.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"merged":true}`, string(data))

	assert.Equal(t,
		filepath.Join(root, "FINRAG_FACT_METRICS", "run_metadata", "dag", "task", "run.json"),
		store.Location("run_metadata/dag/task/run.json"))
}

func TestLocalStoreNotFound(t *testing.T) {
	store := NewLocal(t.TempDir(), "")
	_, err := store.Get(context.Background(), "missing.parquet")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestS3Location(t *testing.T) {
	store, err := NewS3(context.Background(), config.S3Config{
		Bucket:          "sentence-data-ingestion",
		Prefix:          "DATA_MERGE_ASSETS/FINRAG_FACT_METRICS",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"s3://sentence-data-ingestion/DATA_MERGE_ASSETS/FINRAG_FACT_METRICS/analytical_layer_metrics_final.parquet",
		store.Location("analytical_layer_metrics_final.parquet"))
}
