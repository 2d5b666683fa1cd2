// Package stage holds what the weave, clips, and movie workflows share: the
// Handler contract the CLI drives, per-output results and run summaries, and
// Settle, which applies group-level failure isolation.
package stage
