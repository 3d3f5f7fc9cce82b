package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/finrag-metrics/internal/metricsconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 점검",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "지표 설정 YAML 검증 및 해시 출력",
	Long: `METRICS_CONFIG_PATH (없으면 내장 기본값)의 지표 설정을 읽어
검증하고 런 메타데이터에 기록되는 설정 해시를 출력합니다.

Example:
  go run ./cmd/finrag config check`,
	RunE: checkConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

func checkConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	source := cfg.Pipeline.MetricsConfigPath
	if source == "" {
		source = "(embedded default)"
	}

	metricsCfg, _, err := metricsconfig.Load(cfg.Pipeline.MetricsConfigPath)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	hash, err := metricsconfig.Hash(metricsCfg)
	if err != nil {
		return err
	}

	fmt.Println()
	PrintKeyValue("Source", source, 16)
	PrintKeyValue("Forms", fmt.Sprintf("%v", metricsCfg.Forms), 16)
	PrintKeyValue("Entities", fmt.Sprintf("%d", len(metricsCfg.Entities)), 16)
	PrintKeyValue("GAAP aliases", fmt.Sprintf("%d", len(metricsCfg.GAAP)), 16)
	PrintKeyValue("Derived metrics", fmt.Sprintf("%d", len(metricsCfg.Derived)), 16)
	PrintKeyValue("Exclusions", fmt.Sprintf("%d", len(metricsCfg.Exclusions)), 16)
	PrintKeyValue("Hash", hash, 16)
	PrintKeyValue("Base dir", cfg.Pipeline.BaseDir, 16)
	PrintKeyValue("Statement src", cfg.SEC.StatementSource, 16)
	PrintKeyValue("S3 upload", fmt.Sprintf("%t", cfg.S3Enabled()), 16)
	PrintKeyValue("Alert email", fmt.Sprintf("%t", cfg.SMTPEnabled()), 16)
	PrintKeyValue("Database", fmt.Sprintf("%t", cfg.DatabaseEnabled()), 16)
	fmt.Println()
	PrintSuccess("Configuration is valid")

	return nil
}
