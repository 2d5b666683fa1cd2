package movie

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"biliwalle/internal/media/ffmpeg"
	"biliwalle/internal/services"
	"biliwalle/internal/timeline"
)

var (
	transitionLength = regexp.MustCompile(`([0-9]+)s`)
	colorName        = regexp.MustCompile(`^(?:[a-z]+|0x[0-9a-f]{6}|#[0-9a-f]{6})$`)
)

// isTransition reports whether a Trial_type cell marks a transition row.
func isTransition(trialType string) bool {
	return cases.Fold().String(strings.TrimSpace(trialType)) == "transition"
}

// parseTransition reads a transition Video_file cell such as "black_2s".
func parseTransition(token string) (ffmpeg.ConcatSegment, error) {
	color, length, ok := strings.Cut(strings.TrimSpace(token), "_")
	if !ok || strings.Contains(length, "_") {
		return ffmpeg.ConcatSegment{}, badTransition(token, "want <color>_<seconds>s")
	}
	match := transitionLength.FindStringSubmatch(length)
	if match == nil {
		return ffmpeg.ConcatSegment{}, badTransition(token, "no length in seconds")
	}
	secs, err := strconv.Atoi(match[1])
	if err != nil || secs <= 0 || time.Duration(secs) > timeline.MaxPadding/time.Second {
		return ffmpeg.ConcatSegment{}, badTransition(token, fmt.Sprintf("length must be between 1s and %s", timeline.MaxPadding))
	}
	seg, err := blank(color, time.Duration(secs)*time.Second)
	if err != nil {
		return ffmpeg.ConcatSegment{}, badTransition(token, err.Error())
	}
	return seg, nil
}

// blank builds a solid-color segment. Colors are ffmpeg color names or hex
// literals.
func blank(color string, d time.Duration) (ffmpeg.ConcatSegment, error) {
	color = strings.ToLower(strings.TrimSpace(color))
	if !colorName.MatchString(color) {
		return ffmpeg.ConcatSegment{}, fmt.Errorf("unsupported color %q", color)
	}
	return ffmpeg.ConcatSegment{Color: color, Duration: d}, nil
}

func badTransition(token, reason string) error {
	return services.Wrap(services.ErrInvalidInput, Name, "transition", fmt.Sprintf("%q: %s", token, reason), nil)
}
