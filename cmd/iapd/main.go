package main

import (
	"os"

	"github.com/advwatch/iapd/backend/cmd/iapd/commands"
)

// main is the entry point for the adviser watch CLI.
// Unified CLI entry point: go run ./cmd/iapd [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
