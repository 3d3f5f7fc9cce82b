package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/external/sec"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
	"github.com/wonny/finrag-metrics/internal/pipeline"
	"github.com/wonny/finrag-metrics/internal/reporting"
	"github.com/wonny/finrag-metrics/internal/store"
	"github.com/wonny/finrag-metrics/pkg/config"
	"github.com/wonny/finrag-metrics/pkg/database"
	"github.com/wonny/finrag-metrics/pkg/httputil"
	"github.com/wonny/finrag-metrics/pkg/logger"
	"github.com/wonny/finrag-metrics/pkg/mailer"
	"github.com/wonny/finrag-metrics/pkg/objectstore"
	"github.com/wonny/finrag-metrics/pkg/redis"
)

// appOptions toggles the outward-facing side effects of a run
type appOptions struct {
	Upload bool
	Email  bool
}

// app holds the wired components shared by the commands
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	metricsCfg *metricsconfig.Config
	metrics    *pipeline.Metrics
	runner     *pipeline.Runner
	runs       contracts.RunRepository

	redis *redis.Client
	db    *database.DB
}

// loadConfig reads the environment and creates the logger
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// newApp wires config, provider, collector, reporter, runner and the optional mirrors
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: log}

	// 1. Metrics config (embedded default unless METRICS_CONFIG_PATH is set)
	metricsCfg, _, err := metricsconfig.Load(cfg.Pipeline.MetricsConfigPath)
	if err != nil {
		return nil, err
	}
	a.metricsCfg = metricsCfg

	// 2. Redis response cache (optional)
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process cache")
		rc = nil
	}
	a.redis = rc

	// 3. EDGAR client and statement provider
	httpClient := httputil.New(cfg, log)
	if rc != nil && rc.Enabled() {
		// shared EDGAR budget across the scheduler, API and CLI processes
		httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "finrag"), redis.SECRateLimitFor(cfg.SEC.RequestsPerSecond))
	}
	secClient := sec.NewClient(cfg, httpClient, sec.NewCache(rc, cfg.SEC.CacheTTL), log)
	provider := sec.NewProvider(secClient, metricsCfg, cfg.SEC.StatementSource)

	// 4. Collector
	a.metrics = pipeline.NewMetrics()
	collector := pipeline.NewCollector(provider, metricsCfg, pipeline.CollectorConfig{
		Workers:     cfg.Pipeline.Workers,
		PoliteDelay: cfg.Pipeline.PoliteDelay,
	}, a.metrics, log)

	// 5. Reporter (object storage + alert email)
	var objects objectstore.Store
	if cfg.S3Enabled() {
		s3Store, err := objectstore.NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
		objects = s3Store
	}
	reporter := reporting.NewReporter(mailer.New(cfg, log), objects, log)

	// 6. Runner
	a.runner = pipeline.NewRunner(metricsCfg, collector, reporter, pipeline.RunnerConfig{
		BaseDir:      cfg.Pipeline.BaseDir,
		DerivedYears: cfg.Pipeline.DerivedYears,
		DagID:        cfg.Pipeline.DagID,
		TaskID:       cfg.Pipeline.TaskID,
		Upload:       opts.Upload && objects != nil,
		Email:        opts.Email,
	}, a.metrics, log)

	// 7. PostgreSQL mirror (optional)
	if cfg.DatabaseEnabled() {
		if err := a.connectDatabase(ctx); err != nil {
			log.WithError(err).Warn("Database mirror disabled")
		}
	}

	log.WithFields(map[string]interface{}{
		"entities": len(metricsCfg.Entities),
		"source":   provider.Mode(),
		"base_dir": cfg.Pipeline.BaseDir,
		"upload":   opts.Upload && objects != nil,
		"email":    opts.Email && cfg.SMTPEnabled(),
		"database": a.db != nil,
	}).Info("Analytical layer initialized")

	return a, nil
}

func (a *app) connectDatabase(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.New(connectCtx, a.cfg)
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(connectCtx, db); err != nil {
		db.Close()
		return err
	}

	a.db = db
	a.runs = store.NewRunRepository(db)
	a.runner.WithRepositories(store.NewMetricRepository(db), a.runs)
	return nil
}

// runDate resolves the window end: flag, then RUN_YEAR, then today
func (a *app) runDate(year int) time.Time {
	if year <= 0 {
		year = a.cfg.Pipeline.RunYear
	}
	if year > 0 {
		return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return time.Now()
}

// Close releases the database and Redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// notifyStartupFailure sends the failure alert when wiring fails before a run starts
func notifyStartupFailure(cfg *config.Config, log *logger.Logger, err error) {
	reporter := reporting.NewReporter(mailer.New(cfg, log), nil, log)
	if sendErr := reporter.SendFailure(context.Background(), err, contracts.FormatRunTimestamp(time.Now())); sendErr != nil {
		log.WithError(sendErr).Warn("Failed to send failure alert")
	}
}
