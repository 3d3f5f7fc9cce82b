package main

import (
	"os"

	"github.com/wonny/finrag-metrics/cmd/finrag/commands"
)

// main is the entry point for the finrag CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/finrag [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
