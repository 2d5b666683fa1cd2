package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"biliwalle/internal/stage"
)

// progressReporter draws one bar per run on a terminal. The bar is created
// on the first notification, when the total is known.
type progressReporter struct {
	out     io.Writer
	label   string
	enabled bool
	bar     *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer, label string, enabled bool) *progressReporter {
	return &progressReporter{out: out, label: label, enabled: enabled}
}

func (p *progressReporter) observe(index, total int, result stage.Result) {
	if !p.enabled {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(p.label),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Describe(fmt.Sprintf("%s %s", p.label, statusGlyph(result.Status)))
	_ = p.bar.Set(index)
}

func (p *progressReporter) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

func statusGlyph(status stage.Status) string {
	switch status {
	case stage.StatusWritten:
		return "+"
	case stage.StatusSkipped:
		return "="
	default:
		return "!"
	}
}
