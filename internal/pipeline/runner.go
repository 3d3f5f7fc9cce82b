package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/coverage"
	"github.com/wonny/finrag-metrics/internal/dataset"
	"github.com/wonny/finrag-metrics/internal/merge"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
	"github.com/wonny/finrag-metrics/internal/reporting"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// Output file names under the base directory
const (
	NewLayerFile = "analytical_layer_metrics_last2yrs.parquet"
	FinalFile    = "analytical_layer_metrics_final.parquet"
	MetadataFile = "analytical_layer_run_metadata.json"
	CoverageFile = "analytical_layer_coverage_last2yrs.csv"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("analytical layer run already in progress")

// Paths are the local artifacts of a run
type Paths struct {
	NewLayer string `json:"new_parquet_path"`
	Final    string `json:"final_parquet_path"`
	Metadata string `json:"metadata_json_path"`
	Coverage string `json:"coverage_csv_path"`
}

// PathsFor returns the artifact paths under baseDir
func PathsFor(baseDir string) Paths {
	return Paths{
		NewLayer: filepath.Join(baseDir, NewLayerFile),
		Final:    filepath.Join(baseDir, FinalFile),
		Metadata: filepath.Join(baseDir, MetadataFile),
		Coverage: filepath.Join(baseDir, CoverageFile),
	}
}

// RunnerConfig holds run-level settings
type RunnerConfig struct {
	BaseDir      string
	DerivedYears int
	DagID        string
	TaskID       string
	Upload       bool // publish artifacts when an object store is configured
	Email        bool // send the coverage email when SMTP is configured
}

// RunResult is returned by a completed run
type RunResult struct {
	Summary  *contracts.RunSummary `json:"summary"`
	Paths    Paths                 `json:"paths"`
	Years    []int                 `json:"last2_years"`
	Uploaded *reporting.Locations  `json:"uploaded,omitempty"`
}

// Runner executes one analytical layer run end to end
// ⭐ SSOT: 런 단위 흐름 (collect → merge → report → upload) 은 여기서만
type Runner struct {
	cfg        *metricsconfig.Config
	collector  *Collector
	reporter   *reporting.Reporter
	metricRepo contracts.MetricRepository
	runRepo    contracts.RunRepository
	rc         RunnerConfig
	paths      Paths
	configHash string
	metrics    *Metrics
	logger     *logger.Logger
	now        func() time.Time

	mu      sync.Mutex
	running bool
}

// NewRunner creates a runner writing under rc.BaseDir
func NewRunner(cfg *metricsconfig.Config, collector *Collector, reporter *reporting.Reporter, rc RunnerConfig, metrics *Metrics, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if rc.DerivedYears <= 0 {
		rc.DerivedYears = 2
	}
	hash, err := metricsconfig.Hash(cfg)
	if err != nil {
		log.WithError(err).Warn("Failed to hash metrics config")
	}
	return &Runner{
		cfg:        cfg,
		collector:  collector,
		reporter:   reporter,
		rc:         rc,
		paths:      PathsFor(rc.BaseDir),
		configHash: hash,
		metrics:    metrics,
		logger:     log.WithField("module", "runner"),
		now:        time.Now,
	}
}

// WithRepositories mirrors records and summaries into a database; nil disables either
func (r *Runner) WithRepositories(metrics contracts.MetricRepository, runs contracts.RunRepository) *Runner {
	r.metricRepo = metrics
	r.runRepo = runs
	return r
}

// Paths returns the local artifact paths
func (r *Runner) Paths() Paths {
	return r.paths
}

// Reporter returns the alert and upload adapter
func (r *Runner) Reporter() *reporting.Reporter {
	return r.reporter
}

// Running reports whether a run is active
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run builds the layer for the window ending at runDate's year, merges it into the
// final dataset and writes the summary and coverage CSV. Fatal errors are returned
// unchanged; entity failures are recorded in the summary.
func (r *Runner) Run(ctx context.Context, runDate time.Time) (*RunResult, error) {
	if !r.acquire() {
		return nil, ErrRunInProgress
	}
	defer r.release()
	return r.run(ctx, runDate)
}

func (r *Runner) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Runner) run(ctx context.Context, runDate time.Time) (*RunResult, error) {
	started := r.now()
	window := contracts.LastNYears(runDate.Year(), r.rc.DerivedYears)
	log := r.logger.WithFields(map[string]interface{}{
		"start_year": window.Start,
		"end_year":   window.End,
	})
	log.Info("Analytical layer run started")

	if err := os.MkdirAll(r.rc.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.rc.BaseDir, err)
	}

	// 1. Collect
	layer, err := r.collector.Build(ctx, r.cfg.EntityList(), window)
	if err != nil {
		return nil, err
	}
	if err := dataset.NewStore(r.paths.NewLayer).Write(layer.Records); err != nil {
		return nil, fmt.Errorf("failed to write new layer: %w", err)
	}

	// 2. Merge
	final := dataset.NewStore(r.paths.Final)
	if err := r.restoreFinal(ctx, final); err != nil {
		return nil, err
	}
	decision, err := merge.NewController(r.cfg, final, r.logger).Run(layer.Records, nil, window)
	if err != nil {
		return nil, err
	}

	// 3. Report
	summary := &contracts.RunSummary{
		RunID:           started.UTC().Format(contracts.RunTimestampLayout),
		StartYear:       window.Start,
		EndYear:         window.End,
		RunTimestampUTC: contracts.FormatRunTimestamp(started),
		ConfigHash:      r.configHash,
		EntitiesOK:      len(layer.Entities) - len(layer.Failed()),
		EntitiesFailed:  len(layer.Failed()),
		EntityErrors:    layer.EntityErrors(),
		SkippedRecords:  layer.SkippedRecords(),
	}
	decision.ApplyTo(summary)
	summary.DurationMS = r.now().Sub(started).Milliseconds()

	if err := reporting.WriteSummary(r.paths.Metadata, summary); err != nil {
		return nil, err
	}
	csv, err := r.writeCoverage(coverage.FilterYears(decision.Final, window))
	if err != nil {
		return nil, err
	}

	result := &RunResult{Summary: summary, Paths: r.paths, Years: window.Years()}

	r.mirror(ctx, summary, decision, layer.Records, window)

	// 4. Upload
	if r.rc.Upload && r.reporter.CanUpload() {
		loc, err := r.upload(ctx, summary, csv)
		if err != nil {
			return result, fmt.Errorf("upload failed: %w", err)
		}
		result.Uploaded = loc
	}

	if r.rc.Email {
		if err := r.reporter.SendCoverage(ctx, summary, CoverageFile, csv); err != nil {
			log.WithError(err).Warn("Failed to send coverage email")
		}
	}

	r.metrics.observeRun(summary, r.now().Sub(started))
	log.WithFields(map[string]interface{}{
		"outcome":      summary.Outcome,
		"rows_new":     summary.RowsNew,
		"rows_prev":    summary.RowsPrev,
		"missing_new":  *summary.MissingNew,
		"entities_bad": summary.EntitiesFailed,
	}).Info("Analytical layer run completed")
	return result, nil
}

// restoreFinal downloads the published final dataset when no local copy exists
func (r *Runner) restoreFinal(ctx context.Context, final *dataset.Store) error {
	if final.Exists() || !r.rc.Upload {
		return nil
	}
	data, ok, err := r.reporter.FetchDataset(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := final.WriteBytes(data); err != nil {
		return fmt.Errorf("failed to restore final dataset: %w", err)
	}
	r.logger.WithField("bytes", len(data)).Info("Restored final dataset from object storage")
	return nil
}

func (r *Runner) writeCoverage(records []contracts.CanonicalMetricRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := coverage.WriteCSV(&buf, coverage.ReportRows(records, r.cfg)); err != nil {
		return nil, err
	}
	if err := os.WriteFile(r.paths.Coverage, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write coverage report: %w", err)
	}
	return buf.Bytes(), nil
}

// mirror copies the run into the database; failures are logged, never fatal
func (r *Runner) mirror(ctx context.Context, s *contracts.RunSummary, d *merge.Decision, layer []contracts.CanonicalMetricRecord, window contracts.YearRange) {
	if r.metricRepo != nil && d.Merged() {
		var n int
		var err error
		if d.Outcome == contracts.OutcomeBootstrap {
			n, err = r.metricRepo.UpsertRecords(ctx, d.Final)
		} else {
			n, err = r.metricRepo.ReplaceYears(ctx, window, merge.ReplaceWindow(nil, layer, window))
		}
		if err != nil {
			r.logger.WithError(err).Warn("Failed to mirror records")
		} else {
			r.logger.WithField("rows", n).Info("Mirrored records to database")
		}
	}
	if r.runRepo != nil {
		if err := r.runRepo.Save(ctx, s); err != nil {
			r.logger.WithError(err).Warn("Failed to save run summary")
		}
	}
}

func (r *Runner) upload(ctx context.Context, s *contracts.RunSummary, csv []byte) (*reporting.Locations, error) {
	final, err := dataset.NewStore(r.paths.Final).Bytes()
	if err != nil {
		return nil, err
	}
	meta, err := reporting.EncodeSummary(s)
	if err != nil {
		return nil, err
	}
	keys := reporting.RunKeys(r.rc.DagID, r.rc.TaskID, s.RunID)
	return r.reporter.Upload(ctx, keys, reporting.Artifacts{Dataset: final, Metadata: meta, Coverage: csv})
}

// RunAndNotify runs the layer and sends the success or failure alert when email is on.
// A concurrent run is reported as ErrRunInProgress without an alert.
func (r *Runner) RunAndNotify(ctx context.Context, runDate time.Time) (*RunResult, error) {
	if !r.acquire() {
		return nil, ErrRunInProgress
	}
	defer r.release()
	return r.runAndNotify(ctx, runDate)
}

// Start claims the runner and runs RunAndNotify in the background.
// ErrRunInProgress is returned synchronously when a run is active; ctx cancels the started run.
func (r *Runner) Start(ctx context.Context, runDate time.Time) error {
	if !r.acquire() {
		return ErrRunInProgress
	}
	go func() {
		defer r.release()
		if _, err := r.runAndNotify(ctx, runDate); err != nil {
			r.logger.WithError(err).Error("Background run failed")
		}
	}()
	return nil
}

func (r *Runner) runAndNotify(ctx context.Context, runDate time.Time) (*RunResult, error) {
	result, err := r.run(ctx, runDate)
	if !r.rc.Email {
		return result, err
	}

	ts := contracts.FormatRunTimestamp(r.now())
	if err != nil {
		if sendErr := r.reporter.SendFailure(ctx, err, ts); sendErr != nil {
			r.logger.WithError(sendErr).Warn("Failed to send failure alert")
		}
		return nil, err
	}
	if sendErr := r.reporter.SendSuccess(ctx, ts); sendErr != nil {
		r.logger.WithError(sendErr).Warn("Failed to send success alert")
	}
	return result, nil
}
