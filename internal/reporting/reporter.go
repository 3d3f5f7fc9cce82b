package reporting

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/logger"
	"github.com/wonny/finrag-metrics/pkg/mailer"
	"github.com/wonny/finrag-metrics/pkg/objectstore"
)

// Object keys, relative to the store prefix
const FinalDatasetKey = "analytical_layer_metrics_final.parquet"

// Content types of uploaded artifacts
const (
	ContentTypeParquet = "application/octet-stream"
	ContentTypeJSON    = "application/json"
	ContentTypeCSV     = "text/csv"
)

// Keys are the object keys of one run's artifacts
type Keys struct {
	Dataset  string
	Metadata string
	Coverage string
}

// RunKeys returns the keys for a run; metadata and coverage are partitioned by dag/task/run
func RunKeys(dagID, taskID, runID string) Keys {
	return Keys{
		Dataset:  FinalDatasetKey,
		Metadata: path.Join("run_metadata", dagID, taskID, runID+".json"),
		Coverage: path.Join("coverage_reports", dagID, taskID, runID+".csv"),
	}
}

// Artifacts are the bytes published after a run
type Artifacts struct {
	Dataset  []byte
	Metadata []byte
	Coverage []byte
}

// Locations are the URIs of uploaded artifacts
type Locations struct {
	Dataset  string `json:"parquet_s3_uri,omitempty"`
	Metadata string `json:"metadata_s3_uri"`
	Coverage string `json:"coverage_s3_uri"`
}

// Reporter sends alerts and uploads run artifacts.
// A nil store or a disabled mailer turns the matching step into a no-op.
// ⭐ SSOT: 알림/업로드 어댑터는 여기서만
type Reporter struct {
	mailer *mailer.Mailer
	store  objectstore.Store
	logger *logger.Logger
}

// NewReporter creates a reporter
func NewReporter(m *mailer.Mailer, store objectstore.Store, log *logger.Logger) *Reporter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reporter{mailer: m, store: store, logger: log.Component("reporting")}
}

// CanUpload reports whether an object store is configured
func (r *Reporter) CanUpload() bool {
	return r != nil && r.store != nil
}

// CanEmail reports whether alerts will be delivered
func (r *Reporter) CanEmail() bool {
	return r != nil && r.mailer != nil && r.mailer.Enabled()
}

// Upload puts the artifacts under keys. An empty dataset is not uploaded.
func (r *Reporter) Upload(ctx context.Context, keys Keys, a Artifacts) (*Locations, error) {
	if !r.CanUpload() {
		return nil, errors.New("object store not configured")
	}

	loc := &Locations{}
	if len(a.Dataset) > 0 {
		if err := r.store.Put(ctx, keys.Dataset, a.Dataset, ContentTypeParquet); err != nil {
			return nil, err
		}
		loc.Dataset = r.store.Location(keys.Dataset)
	}
	if err := r.store.Put(ctx, keys.Metadata, a.Metadata, ContentTypeJSON); err != nil {
		return nil, err
	}
	loc.Metadata = r.store.Location(keys.Metadata)
	if err := r.store.Put(ctx, keys.Coverage, a.Coverage, ContentTypeCSV); err != nil {
		return nil, err
	}
	loc.Coverage = r.store.Location(keys.Coverage)

	r.logger.WithFields(map[string]interface{}{
		"dataset":  loc.Dataset,
		"metadata": loc.Metadata,
		"coverage": loc.Coverage,
	}).Info("Uploaded run artifacts")
	return loc, nil
}

// FetchDataset downloads the published final dataset; ok is false when none exists
func (r *Reporter) FetchDataset(ctx context.Context) ([]byte, bool, error) {
	if !r.CanUpload() {
		return nil, false, nil
	}
	data, err := r.store.Get(ctx, FinalDatasetKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch final dataset: %w", err)
	}
	return data, true, nil
}

// SendCoverage mails the merge decision with the coverage CSV
func (r *Reporter) SendCoverage(ctx context.Context, s *contracts.RunSummary, csvName string, csv []byte) error {
	return r.send(ctx, CoverageMessage(s, csvName, csv))
}

// SendSuccess mails the run completion notice
func (r *Reporter) SendSuccess(ctx context.Context, runTimestamp string) error {
	return r.send(ctx, SuccessMessage(runTimestamp))
}

// SendFailure mails a fatal error
func (r *Reporter) SendFailure(ctx context.Context, runErr error, runTimestamp string) error {
	return r.send(ctx, FailureMessage(runErr, runTimestamp))
}

func (r *Reporter) send(ctx context.Context, msg mailer.Message) error {
	if !r.CanEmail() {
		if r == nil {
			return nil
		}
		r.logger.WithField("subject", msg.Subject).Debug("SMTP not configured, alert not sent")
		return nil
	}
	return r.mailer.Send(ctx, msg)
}
