package contracts

import "time"

// MergeOutcome is the terminal decision of the merge controller
type MergeOutcome string

const (
	OutcomeBootstrap MergeOutcome = "bootstrap"
	OutcomeMerged    MergeOutcome = "merged"
	OutcomeSkipped   MergeOutcome = "skipped"
)

// RunTimestampLayout is used for run ids and object keys (UTC)
const RunTimestampLayout = "20060102T150405"

// RunSummary is written to analytical_layer_run_metadata.json after every run.
// MissingPrev is nil on bootstrap.
type RunSummary struct {
	RunID           string            `json:"run_id"`
	StartYear       int               `json:"start_year"`
	EndYear         int               `json:"end_year"`
	Merged          bool              `json:"merged"`
	Outcome         MergeOutcome      `json:"outcome"`
	Reason          string            `json:"reason"`
	RowsNew         int               `json:"rows_new"`
	RowsPrev        int               `json:"rows_prev"`
	MissingPrev     *int              `json:"missing_prev"`
	MissingNew      *int              `json:"missing_new"`
	RunTimestampUTC string            `json:"run_timestamp_utc"`
	ConfigHash      string            `json:"config_hash,omitempty"`
	EntitiesOK      int               `json:"entities_ok"`
	EntitiesFailed  int               `json:"entities_failed"`
	EntityErrors    map[string]string `json:"entity_errors,omitempty"`
	SkippedRecords  int               `json:"skipped_records"`
	DurationMS      int64             `json:"duration_ms"`
}

// Status returns MERGED or SKIPPED for alert subjects
func (s *RunSummary) Status() string {
	if s.Merged {
		return "MERGED"
	}
	return "SKIPPED"
}

// Years returns the summary's window
func (s *RunSummary) Years() YearRange {
	return YearRange{Start: s.StartYear, End: s.EndYear}
}

// FormatRunTimestamp renders t in the ISO layout used by run_timestamp_utc
func FormatRunTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}
