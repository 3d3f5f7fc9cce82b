package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/finrag-metrics/internal/api/handlers"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// Handlers groups the endpoint handlers of the router
type Handlers struct {
	Runs     *handlers.RunHandler
	Coverage *handlers.CoverageHandler
	Metrics  *handlers.MetricHandler

	// Prometheus exposes /metrics when set
	Prometheus http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if h.Prometheus != nil {
		r.Handle("/metrics", h.Prometheus).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Run endpoints
	api.HandleFunc("/runs/latest", h.Runs.GetLatest).Methods("GET")
	api.HandleFunc("/runs", h.Runs.Trigger).Methods("POST")

	// Coverage endpoints
	api.HandleFunc("/coverage", h.Coverage.GetCoverage).Methods("GET")
	api.HandleFunc("/coverage.csv", h.Coverage.DownloadCSV).Methods("GET")

	// Metric endpoints
	api.HandleFunc("/metrics/{cik:[0-9]+}", h.Metrics.GetByEntity).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "finrag-metrics",
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
