package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

// EncodeSummary renders the run summary as indented JSON
func EncodeSummary(s *contracts.RunSummary) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode run summary: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteSummary writes the run summary to path
func WriteSummary(path string, s *contracts.RunSummary) error {
	data, err := EncodeSummary(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

// ReadSummary loads a run summary written by WriteSummary
func ReadSummary(path string) (*contracts.RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s contracts.RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &s, nil
}
