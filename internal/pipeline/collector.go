// Package pipeline builds the analytical layer for every tracked entity and runs the merge.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/coverage"
	"github.com/wonny/finrag-metrics/internal/external/sec"
	"github.com/wonny/finrag-metrics/internal/facts"
	"github.com/wonny/finrag-metrics/internal/kpi"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// CollectorConfig holds worker pool settings
type CollectorConfig struct {
	Workers     int           // concurrent entities
	PoliteDelay time.Duration // minimum gap between two entities on one worker
}

// EntityResult is the outcome of one entity. Err is a *contracts.SkippableEntityError.
type EntityResult struct {
	Entity  contracts.Entity
	Records []contracts.CanonicalMetricRecord
	Skipped []*contracts.SkippableRecordError
	Err     error
}

// LayerResult is the new analytical layer and its per-entity outcomes
type LayerResult struct {
	Records  []contracts.CanonicalMetricRecord
	Entities []EntityResult
}

// Failed returns the entities whose extraction failed
func (r *LayerResult) Failed() []EntityResult {
	var out []EntityResult
	for _, e := range r.Entities {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

// SkippedRecords counts skipped facts across entities
func (r *LayerResult) SkippedRecords() int {
	n := 0
	for _, e := range r.Entities {
		n += len(e.Skipped)
	}
	return n
}

// EntityErrors maps each failed CIK to its error text
func (r *LayerResult) EntityErrors() map[string]string {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	out := make(map[string]string, len(failed))
	for _, e := range failed {
		out[e.Entity.CIK] = e.Err.Error()
	}
	return out
}

// Collector runs company → facts → statements → kpi for every entity
// ⭐ SSOT: 엔티티 단위 수집 오케스트레이션은 여기서만
type Collector struct {
	provider contracts.Provider
	cfg      *metricsconfig.Config
	facts    *facts.Builder
	kpi      *kpi.Engine
	opts     CollectorConfig
	metrics  *Metrics
	logger   *logger.Logger
}

// NewCollector creates a collector over provider
func NewCollector(provider contracts.Provider, cfg *metricsconfig.Config, opts CollectorConfig, metrics *Metrics, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Collector{
		provider: provider,
		cfg:      cfg,
		facts:    facts.NewBuilder(cfg, log),
		kpi:      kpi.New(cfg),
		opts:     opts,
		metrics:  metrics,
		logger:   log.WithField("module", "collector"),
	}
}

type job struct {
	index  int
	entity contracts.Entity
}

// Build processes every entity and returns records sorted in dataset order.
// A failing entity never stops the others; contracts.ErrNoData is returned when
// no entity produced a record.
func (c *Collector) Build(ctx context.Context, entities []contracts.Entity, years contracts.YearRange) (*LayerResult, error) {
	c.logger.WithFields(map[string]interface{}{
		"entities":   len(entities),
		"start_year": years.Start,
		"end_year":   years.End,
		"workers":    c.opts.Workers,
	}).Info("Starting analytical layer collection")

	results := make([]EntityResult, len(entities))
	jobCh := make(chan job, len(entities))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < c.opts.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, jobCh, results, years)
		}(i)
	}

	// Send entities to workers
	for i, e := range entities {
		jobCh <- job{index: i, entity: e}
	}
	close(jobCh)
	wg.Wait()

	layer := &LayerResult{Entities: results}
	for _, r := range results {
		layer.Records = append(layer.Records, r.Records...)
	}
	contracts.SortRecords(layer.Records)

	c.logger.WithFields(map[string]interface{}{
		"records": len(layer.Records),
		"failed":  len(layer.Failed()),
		"skipped": layer.SkippedRecords(),
	}).Info("Analytical layer collection completed")

	if len(layer.Records) == 0 {
		return layer, contracts.ErrNoData
	}
	return layer, nil
}

// worker owns a limiter so each worker keeps the polite delay between entities
func (c *Collector) worker(ctx context.Context, workerID int, jobCh <-chan job, results []EntityResult, years contracts.YearRange) {
	limit := rate.Inf
	if c.opts.PoliteDelay > 0 {
		limit = rate.Every(c.opts.PoliteDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for j := range jobCh {
		var r EntityResult
		if err := limiter.Wait(ctx); err != nil {
			r = EntityResult{Entity: j.entity, Err: &contracts.SkippableEntityError{
				Entity: j.entity.CIK, Stage: contracts.StageCompany, Err: err,
			}}
		} else {
			r = c.collect(ctx, j.entity, years)
		}
		results[j.index] = r
		c.metrics.observeEntity(r)

		if r.Err != nil {
			c.logger.WithError(r.Err).WithFields(map[string]interface{}{
				"worker": workerID,
				"cik":    r.Entity.CIK,
			}).Warn("Entity skipped")
			continue
		}
		c.logger.WithFields(map[string]interface{}{
			"worker":  workerID,
			"cik":     r.Entity.CIK,
			"ticker":  r.Entity.Ticker,
			"records": len(r.Records),
		}).Debug("Entity collected")
	}
}

// collect builds the GAAP and derived rows of one entity
func (c *Collector) collect(ctx context.Context, entity contracts.Entity, years contracts.YearRange) EntityResult {
	entity.CIK = contracts.PadCIK(entity.CIK)
	fail := func(stage contracts.Stage, err error) EntityResult {
		return EntityResult{Entity: entity, Err: &contracts.SkippableEntityError{Entity: entity.CIK, Stage: stage, Err: err}}
	}

	company, err := c.provider.FetchCompany(ctx, entity.CIK)
	if err != nil {
		return fail(contracts.StageCompany, err)
	}
	if entity.Ticker == "" {
		entity.Ticker = company.Ticker()
	}

	reported, err := c.provider.FetchEntityFacts(ctx, entity.CIK)
	if err != nil {
		return fail(contracts.StageFacts, err)
	}
	built := c.facts.Build(entity, reported, years)

	// one extra filing so averages have their prior year
	filings := sec.AnnualFilings(company, c.cfg.AcceptsForm, years.Len()+1)
	src, err := c.provider.FetchStatements(ctx, company, filings)
	if err != nil {
		return fail(contracts.StageStatements, err)
	}
	derived := coverage.FilterYears(c.kpi.Records(entity, src), years)

	records := make([]contracts.CanonicalMetricRecord, 0, len(built.Records)+len(derived))
	records = append(records, built.Records...)
	records = append(records, derived...)
	return EntityResult{Entity: entity, Records: records, Skipped: built.Skipped}
}
