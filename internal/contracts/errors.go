package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when no entity produced any record
var ErrNoData = errors.New("no data collected for any CIKs")

// SkippableRecordError marks one malformed fact; the batch continues
type SkippableRecordError struct {
	Entity  string
	Concept string
	Year    int
	Reason  string
}

func (e *SkippableRecordError) Error() string {
	return fmt.Sprintf("skip record %s/%s/%d: %s", e.Entity, e.Concept, e.Year, e.Reason)
}

// SkippableEntityError marks one entity whose extraction failed; other entities continue
type SkippableEntityError struct {
	Entity string
	Stage  Stage
	Err    error
}

func (e *SkippableEntityError) Error() string {
	return fmt.Sprintf("entity %s failed at %s: %v", e.Entity, e.Stage, e.Err)
}

func (e *SkippableEntityError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError is fatal: the persisted dataset and the new run disagree on columns
type SchemaMismatchError struct {
	Previous []string
	New      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("Schema mismatch!\nprev columns: [%s]\nnew columns:  [%s]",
		strings.Join(e.Previous, ", "), strings.Join(e.New, ", "))
}

// ConfigurationError is fatal at startup
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// IsSkippable reports whether err may be logged and skipped
func IsSkippable(err error) bool {
	var rec *SkippableRecordError
	var ent *SkippableEntityError
	return errors.As(err, &rec) || errors.As(err, &ent)
}

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var schema *SchemaMismatchError
	var cfg *ConfigurationError
	return errors.As(err, &schema) || errors.As(err, &cfg) || errors.Is(err, ErrNoData)
}
