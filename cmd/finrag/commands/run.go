package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/finrag-metrics/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "분석 레이어 1회 실행",
	Long: `최근 N개 연도(DERIVED_YEARS, 기본 2)의 분석 레이어를 빌드하고
최종 데이터셋과 비교해 커버리지가 개선된 경우에만 병합합니다.

산출물 (ANALYTICAL_LAYER_BASE_DIR):
  analytical_layer_metrics_last2yrs.parquet
  analytical_layer_metrics_final.parquet
  analytical_layer_run_metadata.json
  analytical_layer_coverage_last2yrs.csv

Example:
  go run ./cmd/finrag run
  go run ./cmd/finrag run --year 2024 --no-upload --no-email`,
	RunE: runPipeline,
}

var (
	runYear     int
	runNoUpload bool
	runNoEmail  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runYear, "year", 0, "window end year (default: RUN_YEAR or current year)")
	runCmd.Flags().BoolVar(&runNoUpload, "no-upload", false, "skip object storage upload")
	runCmd.Flags().BoolVar(&runNoEmail, "no-email", false, "skip alert emails")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, appOptions{Upload: !runNoUpload, Email: !runNoEmail})
	if err != nil {
		if !runNoEmail {
			notifyStartupFailure(cfg, log, err)
		}
		return err
	}
	defer a.Close()

	runDate := a.runDate(runYear)
	PrintJobHeader(JobMetadata{
		JobType:   "Analytical Layer Run",
		Tag:       "finrag",
		Timestamp: runDate.Format("2006-01-02"),
		Entities:  len(a.metricsCfg.Entities),
	})

	result, err := a.runner.RunAndNotify(ctx, runDate)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintRunResult(result)
	return nil
}

// PrintRunResult prints the summary of a completed run
func PrintRunResult(result *pipeline.RunResult) {
	s := result.Summary

	fmt.Println()
	PrintKeyValue("Run ID", s.RunID, 16)
	PrintKeyValue("Window", fmt.Sprintf("%d-%d", s.StartYear, s.EndYear), 16)
	PrintKeyValue("Outcome", fmt.Sprintf("%s (%s)", s.Status(), s.Outcome), 16)
	PrintKeyValue("Reason", s.Reason, 16)
	PrintKeyValue("Missing prev", formatCount(s.MissingPrev), 16)
	PrintKeyValue("Missing new", formatCount(s.MissingNew), 16)
	PrintKeyValue("Rows new/prev", fmt.Sprintf("%d / %d", s.RowsNew, s.RowsPrev), 16)
	PrintKeyValue("Entities", fmt.Sprintf("%d ok, %d failed", s.EntitiesOK, s.EntitiesFailed), 16)
	PrintKeyValue("Final dataset", result.Paths.Final, 16)
	PrintKeyValue("Coverage CSV", result.Paths.Coverage, 16)
	if result.Uploaded != nil {
		PrintKeyValue("Uploaded", result.Uploaded.Dataset, 16)
	}

	PrintJobCompletion("Analytical layer run", float64(s.DurationMS)/1000)
}

func formatCount(n *int) string {
	if n == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *n)
}
