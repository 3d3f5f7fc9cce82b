package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/pipeline"
	"github.com/wonny/finrag-metrics/internal/reporting"
	"github.com/wonny/finrag-metrics/internal/store"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// RunHandler serves run summaries and triggers runs
// ⭐ SSOT: 런 API 핸들러는 여기서만
type RunHandler struct {
	ctx    context.Context
	runner *pipeline.Runner
	runs   contracts.RunRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewRunHandler creates a run handler; runs may be nil when no database is configured
func NewRunHandler(runner *pipeline.Runner, runs contracts.RunRepository, log *logger.Logger) *RunHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RunHandler{
		ctx:    context.Background(),
		runner: runner,
		runs:   runs,
		logger: log,
		now:    time.Now,
	}
}

// WithContext sets the parent context of triggered runs; cancelling it stops them
func (h *RunHandler) WithContext(ctx context.Context) *RunHandler {
	h.ctx = ctx
	return h
}

// GetLatest returns the latest run summary
// GET /api/runs/latest
func (h *RunHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.runs != nil {
		summary, err := h.runs.Latest(r.Context())
		if err == nil {
			respondJSON(w, http.StatusOK, summary)
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.WithError(err).Warn("Failed to read latest run from database, using metadata file")
		}
	}

	summary, err := reporting.ReadSummary(h.runner.Paths().Metadata)
	if errors.Is(err, os.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No run recorded yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read run metadata")
		respondError(w, http.StatusInternalServerError, "Failed to read run metadata")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// TriggerRequest represents a run request
type TriggerRequest struct {
	Year int `json:"year"` // Optional: window end year (default: current year)
}

// Trigger starts a run in the background; 409 when one is already active
// POST /api/runs
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	runDate := h.now()
	if req.Year > 0 {
		runDate = time.Date(req.Year, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	if err := h.runner.Start(h.ctx, runDate); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"year":   runDate.Year(),
	})
}
