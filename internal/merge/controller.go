// Package merge replaces the persisted analytical layer only when a new run improves coverage.
package merge

import (
	"fmt"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/coverage"
	"github.com/wonny/finrag-metrics/internal/dataset"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// Summary reasons
const (
	ReasonBootstrap = "Initialized final parquet with new 2-year layer (no previous data)."
	ReasonMerged    = "Merged: new 2-year layer has strictly better coverage."
	ReasonSkipped   = "Skipped merge: new coverage is equal or worse than previous data."
)

// State is a step of the merge state machine
type State string

const (
	StateBootstrap State = "bootstrap"
	StateCompare   State = "compare"
	StateMerge     State = "merge"
	StateSkip      State = "skip"
	StateDone      State = "done"
)

// Decision is the outcome of one controller run
type Decision struct {
	Outcome     contracts.MergeOutcome
	Reason      string
	RowsNew     int
	RowsPrev    int
	MissingPrev *int
	MissingNew  int
	States      []State

	// Final is the persisted dataset after the decision
	Final []contracts.CanonicalMetricRecord
}

// Merged reports whether the persisted dataset was (re)written
func (d *Decision) Merged() bool {
	return d.Outcome == contracts.OutcomeBootstrap || d.Outcome == contracts.OutcomeMerged
}

// ApplyTo copies the decision into a run summary
func (d *Decision) ApplyTo(s *contracts.RunSummary) {
	s.Merged = d.Merged()
	s.Outcome = d.Outcome
	s.Reason = d.Reason
	s.RowsNew = d.RowsNew
	s.RowsPrev = d.RowsPrev
	s.MissingPrev = d.MissingPrev
	s.MissingNew = contracts.IntPtr(d.MissingNew)
}

// Controller gates writes to the final dataset on derived-metric coverage
// ⭐ SSOT: final 데이터셋 갱신 여부는 여기서만 결정
type Controller struct {
	cfg    *metricsconfig.Config
	final  *dataset.Store
	logger *logger.Logger
}

// NewController creates a controller over the final dataset
func NewController(cfg *metricsconfig.Config, final *dataset.Store, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{cfg: cfg, final: final, logger: log.Component("merge")}
}

// Run compares the new layer with the persisted dataset over window.
// newColumns is the schema of the new layer; nil means the canonical columns.
// A schema mismatch returns *contracts.SchemaMismatchError and writes nothing.
func (c *Controller) Run(newLayer []contracts.CanonicalMetricRecord, newColumns []string, window contracts.YearRange) (*Decision, error) {
	if newColumns == nil {
		newColumns = contracts.DatasetColumns
	}

	d := &Decision{
		RowsNew:    len(newLayer),
		MissingNew: coverage.TotalMissing(newLayer, c.cfg, window),
	}

	if !c.final.Exists() {
		return c.bootstrap(d, newLayer)
	}
	d.transition(StateCompare)

	prevColumns, err := c.final.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read final dataset schema: %w", err)
	}
	if !dataset.SameColumns(prevColumns, newColumns) {
		return nil, &contracts.SchemaMismatchError{Previous: prevColumns, New: newColumns}
	}

	prev, err := c.final.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read final dataset: %w", err)
	}
	d.RowsPrev = len(prev)
	d.MissingPrev = contracts.IntPtr(coverage.TotalMissing(prev, c.cfg, window))

	c.logger.WithFields(map[string]interface{}{
		"missing_prev": *d.MissingPrev,
		"missing_new":  d.MissingNew,
		"window":       fmt.Sprintf("%d-%d", window.Start, window.End),
	}).Info("Compared derived coverage")

	if d.MissingNew < *d.MissingPrev {
		return c.merge(d, prev, newLayer, window)
	}
	return c.skip(d, prev)
}

func (c *Controller) bootstrap(d *Decision, newLayer []contracts.CanonicalMetricRecord) (*Decision, error) {
	d.transition(StateBootstrap)
	if err := c.final.Write(newLayer); err != nil {
		return nil, fmt.Errorf("failed to bootstrap final dataset: %w", err)
	}
	d.Outcome = contracts.OutcomeBootstrap
	d.Reason = ReasonBootstrap
	d.Final = sorted(newLayer)
	d.transition(StateDone)

	c.logger.WithField("rows", d.RowsNew).Info("No previous final dataset, bootstrapped with new layer")
	return d, nil
}

func (c *Controller) merge(d *Decision, prev, newLayer []contracts.CanonicalMetricRecord, window contracts.YearRange) (*Decision, error) {
	d.transition(StateMerge)
	merged := ReplaceWindow(prev, newLayer, window)
	if err := c.final.Write(merged); err != nil {
		return nil, fmt.Errorf("failed to write merged final dataset: %w", err)
	}
	d.Outcome = contracts.OutcomeMerged
	d.Reason = ReasonMerged
	d.Final = sorted(merged)
	d.transition(StateDone)

	c.logger.WithField("rows", len(merged)).Info("Merged new layer into final dataset")
	return d, nil
}

func (c *Controller) skip(d *Decision, prev []contracts.CanonicalMetricRecord) (*Decision, error) {
	d.transition(StateSkip)
	d.Outcome = contracts.OutcomeSkipped
	d.Reason = ReasonSkipped
	d.Final = prev
	d.transition(StateDone)

	c.logger.Warn("Merge skipped; final dataset unchanged")
	return d, nil
}

func (d *Decision) transition(s State) {
	d.States = append(d.States, s)
}

// ReplaceWindow keeps prev rows outside window and the new rows inside it
func ReplaceWindow(prev, newLayer []contracts.CanonicalMetricRecord, window contracts.YearRange) []contracts.CanonicalMetricRecord {
	out := make([]contracts.CanonicalMetricRecord, 0, len(prev)+len(newLayer))
	for _, r := range prev {
		if !window.Contains(r.Year) {
			out = append(out, r)
		}
	}
	for _, r := range newLayer {
		if window.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out
}

func sorted(records []contracts.CanonicalMetricRecord) []contracts.CanonicalMetricRecord {
	out := append([]contracts.CanonicalMetricRecord(nil), records...)
	contracts.SortRecords(out)
	return out
}
