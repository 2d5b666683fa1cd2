package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"biliwalle/internal/stage"
)

func renderSummary(summary stage.Summary, colorize bool) string {
	failedTone := toneOK
	if len(summary.Failed) > 0 {
		failedTone = toneWarn
	}
	lines := sectionHeader(summary.Stage+" summary", colorize)
	lines = append(lines,
		statusLine("Written", toneOK, fmt.Sprintf("%d (%s)", len(summary.Written), humanize.Bytes(uint64(summary.Bytes()))), colorize),
		statusLine("Skipped", toneInfo, fmt.Sprintf("%d (output exists)", len(summary.Skipped)), colorize),
		statusLine("Failed", failedTone, fmt.Sprintf("%d", len(summary.Failed)), colorize),
	)

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	if summary.Total() > 0 {
		b.WriteString("\n\n")
		b.WriteString(renderTable([]column{
			{Title: "Output"},
			{Title: "Status"},
			{Title: "Size", Right: true},
			{Title: "Time", Right: true},
		}, resultRows(summary)))
	}
	if len(summary.Failed) > 0 {
		rows := make([][]string, 0, len(summary.Failed))
		for _, r := range summary.Failed {
			rows = append(rows, []string{r.Name, fmt.Sprint(r.Err)})
		}
		b.WriteString("\n\n")
		b.WriteString(renderTable([]column{{Title: "Failed"}, {Title: "Error", MaxWidth: 80}}, rows))
	}
	return b.String()
}

func resultRows(summary stage.Summary) [][]string {
	rows := make([][]string, 0, summary.Total())
	for _, results := range [][]stage.Result{summary.Written, summary.Skipped, summary.Failed} {
		for _, r := range results {
			size, elapsed := "-", "-"
			if r.Bytes > 0 {
				size = humanize.Bytes(uint64(r.Bytes))
			}
			if r.Duration > 0 {
				elapsed = r.Duration.Round(10 * time.Millisecond).String()
			}
			rows = append(rows, []string{r.Name, string(r.Status), size, elapsed})
		}
	}
	return rows
}
