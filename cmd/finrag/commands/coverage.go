package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/internal/coverage"
	"github.com/wonny/finrag-metrics/internal/dataset"
	"github.com/wonny/finrag-metrics/internal/metricsconfig"
	"github.com/wonny/finrag-metrics/internal/pipeline"
)

// coverageCmd represents the coverage command
var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "데이터셋 커버리지 진단",
	Long: `Parquet 데이터셋의 파생 지표 커버리지를 진단합니다.

missing_cik    : 윈도우 연도에 파생 지표가 하나도 없는 CIK
missing_metric : (CIK, 연도)별 누락된 파생 지표 목록

Example:
  go run ./cmd/finrag coverage
  go run ./cmd/finrag coverage --dataset ./data/analytical_layer_metrics_final.parquet --out coverage.csv`,
	RunE: runCoverage,
}

var (
	coverageDataset string
	coverageOut     string
	coverageYear    int
)

func init() {
	rootCmd.AddCommand(coverageCmd)

	coverageCmd.Flags().StringVar(&coverageDataset, "dataset", "", "parquet dataset (default: final dataset under ANALYTICAL_LAYER_BASE_DIR)")
	coverageCmd.Flags().StringVar(&coverageOut, "out", "", "write the coverage CSV to this path")
	coverageCmd.Flags().IntVar(&coverageYear, "year", 0, "window end year (default: RUN_YEAR or current year)")
}

func runCoverage(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	metricsCfg, _, err := metricsconfig.Load(cfg.Pipeline.MetricsConfigPath)
	if err != nil {
		return err
	}

	path := coverageDataset
	if path == "" {
		path = pipeline.PathsFor(cfg.Pipeline.BaseDir).Final
	}

	records, err := dataset.NewStore(path).Read()
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	year := coverageYear
	if year <= 0 {
		year = cfg.Pipeline.RunYear
	}
	if year <= 0 {
		year = time.Now().Year()
	}
	window := contracts.LastNYears(year, cfg.Pipeline.DerivedYears)

	inWindow := coverage.FilterYears(records, window)
	rows := coverage.ReportRows(inWindow, metricsCfg)
	missing := coverage.TotalMissing(records, metricsCfg, window)

	fmt.Printf("\nDataset : %s (%d rows)\n", path, len(records))
	fmt.Printf("Window  : %d-%d\n", window.Start, window.End)
	fmt.Printf("Missing derived metrics: %d\n\n", missing)

	widths := []int{14, 10, 5, 40}
	PrintTableHeader([]string{"ISSUE", "CIK", "YEAR", "MISSING METRICS"}, widths)
	for _, r := range rows {
		PrintTableRow([]string{r.IssueType, r.CIK, r.Year, r.MissingMetrics}, widths)
	}

	if coverageOut != "" {
		f, err := os.Create(coverageOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", coverageOut, err)
		}
		defer f.Close()

		if err := coverage.WriteCSV(f, rows); err != nil {
			return err
		}
		fmt.Println()
		PrintSuccess(fmt.Sprintf("Coverage CSV written to %s", coverageOut))
	}

	return nil
}
