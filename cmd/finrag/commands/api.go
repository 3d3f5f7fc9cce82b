package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/finrag-metrics/internal/api"
	"github.com/wonny/finrag-metrics/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                  - Health check
  GET  /api/runs/latest         - 최근 런 요약
  POST /api/runs                - 백그라운드 런 트리거 (진행 중이면 409)
  GET  /api/coverage            - 커버리지 리포트 (JSON)
  GET  /api/coverage.csv        - 커버리지 리포트 (CSV)
  GET  /api/metrics/{cik}?year= - 최종 데이터셋 레코드
  GET  /metrics                 - Prometheus (METRICS_ENABLED)

Example:
  go run ./cmd/finrag api
  go run ./cmd/finrag api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FinRAG Analytical Layer API Server ===")

	// 1. Load config and logger
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Wire the pipeline
	a, err := newApp(context.Background(), cfg, log, appOptions{Upload: true, Email: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// 3. Create handlers; triggered runs stop with the server
	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	paths := a.runner.Paths()
	h := api.Handlers{
		Runs:     handlers.NewRunHandler(a.runner, a.runs, log).WithContext(runCtx),
		Coverage: handlers.NewCoverageHandler(paths.Coverage, log),
		Metrics:  handlers.NewMetricHandler(paths.Final, log),
	}
	if cfg.MetricsEnabled {
		h.Prometheus = a.metrics.Handler()
	}

	// 4. Create router and server
	router := api.NewRouter(h, log)
	server := api.New(cfg, apiPort, log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	port := apiPort
	if port == "" {
		port = cfg.Port
	}
	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	log.Info("Shutting down server...")
	cancelRuns()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
