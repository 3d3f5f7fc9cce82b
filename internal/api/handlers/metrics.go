package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	gocache "github.com/patrickmn/go-cache"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/dataset"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// MetricHandler serves records of the final dataset
type MetricHandler struct {
	store  *dataset.Store
	cache  *gocache.Cache
	logger *logger.Logger
}

// NewMetricHandler creates a handler over the final dataset at path.
// Decoded records are cached until the file changes.
func NewMetricHandler(path string, log *logger.Logger) *MetricHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &MetricHandler{
		store:  dataset.NewStore(path),
		cache:  gocache.New(10*time.Minute, 20*time.Minute),
		logger: log,
	}
}

// MetricsResponse represents an entity's records
type MetricsResponse struct {
	CIK     string                            `json:"cik"`
	Year    int                               `json:"year,omitempty"`
	Count   int                               `json:"count"`
	Records []contracts.CanonicalMetricRecord `json:"records"`
}

// GetByEntity returns the records of one entity, optionally for one year
// GET /api/metrics/{cik}?year=2024
func (h *MetricHandler) GetByEntity(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["cik"]
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid CIK")
		return
	}
	cik := contracts.PadCIK(raw)

	year := 0
	if q := r.URL.Query().Get("year"); q != "" {
		y, err := strconv.Atoi(q)
		if err != nil || y <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'year' parameter")
			return
		}
		year = y
	}

	records, err := h.records()
	if errors.Is(err, os.ErrNotExist) {
		respondError(w, http.StatusNotFound, "Final dataset not built yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read final dataset")
		respondError(w, http.StatusInternalServerError, "Failed to read final dataset")
		return
	}

	matched := make([]contracts.CanonicalMetricRecord, 0)
	for _, rec := range records {
		if rec.CIK == cik && (year == 0 || rec.Year == year) {
			matched = append(matched, rec)
		}
	}

	respondJSON(w, http.StatusOK, MetricsResponse{
		CIK:     cik,
		Year:    year,
		Count:   len(matched),
		Records: matched,
	})
}

func (h *MetricHandler) records() ([]contracts.CanonicalMetricRecord, error) {
	info, err := os.Stat(h.store.Path)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size())
	if cached, ok := h.cache.Get(key); ok {
		return cached.([]contracts.CanonicalMetricRecord), nil
	}

	records, err := h.store.Read()
	if err != nil {
		return nil, err
	}
	h.cache.Flush()
	h.cache.Set(key, records, gocache.DefaultExpiration)
	return records, nil
}
