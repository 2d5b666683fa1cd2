// Package runner wraps one workflow run in the steps every command shares:
// the health check, an exclusive flock on the output directory so two runs
// never write the same files, and the saveconfig copy once the run ends.
package runner
