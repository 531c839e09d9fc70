package commands

import (
	"fmt"
	"time"
)

// Common formatting utilities so every command prints the same run layout.

// RunMetadata holds the header fields of a pipeline run
type RunMetadata struct {
	RunID     string
	Stage     string
	Timestamp string
	Source    string // Optional
}

// PrintRunHeader prints a formatted run header
func PrintRunHeader(meta RunMetadata) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", meta.Stage)
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Run ID    : %s\n", meta.RunID)

	if meta.Source != "" {
		fmt.Printf("  Source    : %s\n", meta.Source)
	}

	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("[%s] Started at %s\n", meta.Stage, meta.Timestamp)
}

// PrintCount prints one labeled counter line of a run summary
func PrintCount(label string, n int) {
	fmt.Printf("  %-22s: %d\n", label, n)
}

// PrintRunCompletion prints the run completion line
func PrintRunCompletion(stage string, duration time.Duration) {
	fmt.Println()
	fmt.Printf("✅ %s completed in %.2fs\n", stage, duration.Seconds())
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintRunFailure prints the run failure line
func PrintRunFailure(stage string, err error) {
	fmt.Println()
	fmt.Printf("❌ %s failed: %v\n", stage, err)
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// Timestamp returns the common timestamp spelling of the run headers
func Timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
