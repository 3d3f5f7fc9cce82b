package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/finrag-metrics/internal/pipeline"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// DefaultSchedule runs the layer every day at 06:00
const DefaultSchedule = "0 0 6 * * *"

// AnalyticalLayerJob builds the analytical layer on a schedule
type AnalyticalLayerJob struct {
	runner   *pipeline.Runner
	schedule string
	runYear  int
	logger   *logger.Logger
	now      func() time.Time
}

// NewAnalyticalLayerJob creates the job. runYear pins the window end year; 0 uses the current year.
func NewAnalyticalLayerJob(runner *pipeline.Runner, schedule string, runYear int, log *logger.Logger) *AnalyticalLayerJob {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalyticalLayerJob{
		runner:   runner,
		schedule: schedule,
		runYear:  runYear,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *AnalyticalLayerJob) Name() string {
	return "analytical_layer"
}

// Schedule returns the cron schedule
func (j *AnalyticalLayerJob) Schedule() string {
	return j.schedule
}

// Run executes one analytical layer run
func (j *AnalyticalLayerJob) Run(ctx context.Context) error {
	runDate := j.now()
	if j.runYear > 0 {
		runDate = time.Date(j.runYear, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	j.logger.WithField("year", runDate.Year()).Info("Starting scheduled analytical layer run")

	result, err := j.runner.RunAndNotify(ctx, runDate)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		j.logger.Warn("Analytical layer run already in progress, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	s := result.Summary
	j.logger.WithFields(map[string]interface{}{
		"run_id":      s.RunID,
		"outcome":     s.Outcome,
		"reason":      s.Reason,
		"rows_new":    s.RowsNew,
		"missing_new": s.MissingNew,
	}).Info("Scheduled analytical layer run completed")

	return nil
}
