package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// tone classifies a status line for its label and color.
type tone int

const (
	toneInfo tone = iota
	toneOK
	toneWarn
	toneError
)

const ansiReset = "\x1b[0m"

var toneStyles = map[tone]struct {
	label string
	color string
}{
	toneInfo:  {"INFO", "\x1b[34m"},
	toneOK:    {"OK", "\x1b[32m"},
	toneWarn:  {"WARN", "\x1b[33m"},
	toneError: {"ERROR", "\x1b[31m"},
}

func (t tone) paint(s string, colorize bool) string {
	if !colorize {
		return s
	}
	return toneStyles[t].color + s + ansiReset
}

// statusLine renders "  Label:      [OK] message".
func statusLine(label string, t tone, message string, colorize bool) string {
	text := "[" + toneStyles[t].label + "]"
	if message != "" {
		text += " " + message
	}
	return t.paint(fmt.Sprintf("  %-12s %s", label+":", text), colorize)
}

func sectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	return []string{toneInfo.paint(line, colorize), toneInfo.paint(rule, colorize)}
}

// isTerminal gates colors and the progress bar.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
