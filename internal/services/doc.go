// Package services defines shared utilities consumed by the weave, clips, and
// movie workflows.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, workflow stages, and protocol group
//     keys for logging.
//   - Structured error markers plus the Wrap helper that let orchestrators
//     tell per-group data failures (skip and continue) from configuration
//     failures (abort the run).
//
// Use these helpers when wiring new workflow logic so failure handling stays
// uniform across commands.
package services
