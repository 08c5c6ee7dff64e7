package main

import (
	"os"

	"github.com/wonny/dietdash/cmd/dietdash/commands"
)

// main is the entry point for the dietdash CLI
// ⭐ single CLI entry point: go run ./cmd/dietdash [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
