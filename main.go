// =============================================================================
// Club Utilities - Main Entry Point
// =============================================================================
//
// This is the main entry point for the clubutil CLI application. It
// delegates command execution to the cmd package.
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : records, checks, fees, content, mailing, reports
//   - pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/alexKleider/Club-Utilities-sub000/cmd"
)

func main() {
	cmd.Execute()
}
