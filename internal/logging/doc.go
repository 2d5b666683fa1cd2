// Package logging assembles structured slog loggers and formatting helpers used
// across the biliwalle workflows.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so workflow code can tag log
// lines with the run ID, the workflow stage, and the protocol group being
// processed. The package also provides a no-op logger for tests.
package logging
