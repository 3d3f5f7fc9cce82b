package config_test

import (
	"fmt"

	"github.com/wonny/finrag-metrics/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Output directory: %s\n", cfg.Pipeline.BaseDir)
	fmt.Printf("Polite delay: %v\n", cfg.Pipeline.PoliteDelay)
	fmt.Printf("Upload enabled: %v\n", cfg.S3Enabled())
}
