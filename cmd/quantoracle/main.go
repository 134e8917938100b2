package main

import (
	"os"

	"github.com/wonny/quantoracle/cmd/quantoracle/commands"
)

// ⭐ 통합 CLI 진입점: go run ./cmd/quantoracle [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
