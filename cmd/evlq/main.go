package main

import (
	"os"

	"github.com/wonny/evlq/cmd/evlq/commands"
)

// main is the entry point for the evlq CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/evlq [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
