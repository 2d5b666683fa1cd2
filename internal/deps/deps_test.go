package deps_test

import (
	"context"
	"strings"
	"testing"

	"biliwalle/internal/deps"
	"biliwalle/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := testsupport.StubBinary(t, binDir, "present", "exit 0\n")
	reqs := []deps.Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := deps.CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path == "" || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be reported, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := deps.Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing tool, got %#v", missing)
	}
}

func TestProbeReadsFirstVersionLine(t *testing.T) {
	binDir := t.TempDir()
	tool := testsupport.StubBinary(t, binDir, "ffmpeg", "echo 'ffmpeg version 7.1 Copyright'\necho 'built with gcc'\n")
	broken := testsupport.StubBinary(t, binDir, "ffprobe", "exit 3\n")

	results := deps.Probe(context.Background(), []deps.Requirement{
		{Name: "FFmpeg", Command: tool},
		{Name: "FFprobe", Command: broken},
	})
	if results[0].Version != "ffmpeg version 7.1 Copyright" {
		t.Fatalf("Version = %q", results[0].Version)
	}
	if !results[1].Available || !strings.Contains(results[1].Detail, "version probe failed") {
		t.Fatalf("expected failed probe detail, got %#v", results[1])
	}
}
