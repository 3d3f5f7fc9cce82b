package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finrag",
	Short: "FinRAG analytical layer - SEC 재무 지표 데이터셋 빌더",
	Long: `FinRAG Analytical Layer CLI

SEC EDGAR 공시에서 GAAP 지표와 파생 KPI를 추출해
연도별 분석 데이터셋(Parquet)을 만들고 커버리지가 개선될 때만 병합합니다.

Usage:
  go run ./cmd/finrag [command]

Examples:
  go run ./cmd/finrag run
  go run ./cmd/finrag run --year 2024 --no-upload
  go run ./cmd/finrag coverage --out coverage.csv
  go run ./cmd/finrag scheduler start
  go run ./cmd/finrag api --port 8089`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}
