package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/wonny/finrag-metrics/internal/coverage"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// CoverageHandler serves the coverage report of the last run
type CoverageHandler struct {
	path   string
	logger *logger.Logger
}

// NewCoverageHandler creates a handler over the coverage CSV at path
func NewCoverageHandler(path string, log *logger.Logger) *CoverageHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &CoverageHandler{path: path, logger: log}
}

// CoverageResponse represents the coverage report
type CoverageResponse struct {
	MissingCIKs []string       `json:"missing_ciks"`
	Rows        []coverage.Row `json:"rows"`
}

// GetCoverage returns the coverage rows as JSON
// GET /api/coverage
func (h *CoverageHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.path)
	if errors.Is(err, os.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No coverage report yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to open coverage report")
		respondError(w, http.StatusInternalServerError, "Failed to read coverage report")
		return
	}
	defer f.Close()

	rows, err := coverage.ReadCSV(f)
	if err != nil {
		h.logger.WithError(err).Error("Failed to parse coverage report")
		respondError(w, http.StatusInternalServerError, "Failed to read coverage report")
		return
	}

	respondJSON(w, http.StatusOK, CoverageResponse{
		MissingCIKs: coverage.MissingCIKs(rows),
		Rows:        rows,
	})
}

// DownloadCSV serves the coverage CSV file
// GET /api/coverage.csv
func (h *CoverageHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.path); err != nil {
		respondError(w, http.StatusNotFound, "No coverage report yet")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, h.path)
}
