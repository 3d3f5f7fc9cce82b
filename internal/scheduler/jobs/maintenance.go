package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/finrag-metrics/pkg/logger"
)

// TempCleanupJob removes dataset temp files left behind by interrupted writes
type TempCleanupJob struct {
	baseDir string
	maxAge  time.Duration
	logger  *logger.Logger
}

// NewTempCleanupJob creates a new temp cleanup job
func NewTempCleanupJob(baseDir string, maxAge time.Duration, log *logger.Logger) *TempCleanupJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &TempCleanupJob{
		baseDir: baseDir,
		maxAge:  maxAge,
		logger:  log,
	}
}

// Name returns the job name
func (j *TempCleanupJob) Name() string {
	return "temp_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *TempCleanupJob) Schedule() string {
	return "0 30 * * * *"
}

// Run removes stale "*.tmp-*" files under the base directory
func (j *TempCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled temp cleanup")

	entries, err := os.ReadDir(j.baseDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), ".tmp-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.baseDir, entry.Name())); err != nil {
			j.logger.WithError(err).WithField("file", entry.Name()).Warn("Failed to remove temp file")
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Temp cleanup completed")
	}

	return nil
}
