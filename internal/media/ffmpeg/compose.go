package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"biliwalle/internal/logging"
	"biliwalle/internal/services"
)

// Default encoding settings.
const (
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultSampleRate = 44100
)

// Overlay is an image or video scaled to Height with its aspect ratio kept,
// top-left corner at X, Y on the canvas. Width is the configured box width the
// position was derived from; it does not stretch the source.
type Overlay struct {
	Path   string
	Still  bool
	Width  int
	Height int
	X      int
	Y      int
}

// ComposeOptions describes one clip: a solid canvas, overlays, and an audio
// track that sets the clip length. An empty Audio means silence.
type ComposeOptions struct {
	Width        int
	Height       int
	Background   string
	FPS          int
	Duration     time.Duration
	Audio        string
	SampleRate   int
	Overlays     []Overlay
	VideoCodec   string
	AudioCodec   string
	Output       string
	ProgressFunc ProgressFunc
}

// Compose renders a clip described by opts.
func (e *Executor) Compose(ctx context.Context, opts ComposeOptions) error {
	args, err := ComposeArgs(opts)
	if err != nil {
		return err
	}
	e.logger.Info("composing clip",
		logging.String("output", opts.Output),
		logging.Int("overlays", len(opts.Overlays)),
		logging.Duration("duration", opts.Duration),
	)
	return writeAtomic(opts.Output, func(tmp string) error {
		args[len(args)-1] = tmp
		return e.Run(ctx, RunOptions{Args: args, ProgressHandler: opts.ProgressFunc})
	})
}

// ComposeArgs builds the ffmpeg arguments for Compose. The output path is
// always the last argument.
func ComposeArgs(opts ComposeOptions) ([]string, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "compose", fmt.Sprintf("invalid canvas %dx%d", opts.Width, opts.Height), nil)
	}
	if opts.Duration <= 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "compose", "clip duration must be positive", nil)
	}
	if strings.TrimSpace(opts.Output) == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "compose", "output path is required", nil)
	}
	fps := defaultInt(opts.FPS, 30)
	rate := defaultInt(opts.SampleRate, DefaultSampleRate)
	duration := seconds(opts.Duration)
	background := opts.Background
	if background == "" {
		background = "white"
	}

	args := []string{
		"-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%dx%d:r=%d:d=%s", background, opts.Width, opts.Height, fps, duration),
	}
	if opts.Audio != "" {
		args = append(args, "-i", opts.Audio)
	} else {
		args = append(args, "-f", "lavfi", "-t", duration, "-i", silenceSource(rate))
	}
	for _, o := range opts.Overlays {
		if o.Still {
			args = append(args, "-loop", "1", "-framerate", strconv.Itoa(fps), "-t", duration, "-i", o.Path)
		} else {
			args = append(args, "-i", o.Path)
		}
	}

	var graph []string
	last := "0:v"
	for i, o := range opts.Overlays {
		scaled := fmt.Sprintf("o%d", i)
		graph = append(graph, fmt.Sprintf("[%d:v]scale=-2:%d,setsar=1[%s]", i+2, o.Height, scaled))
		next := fmt.Sprintf("v%d", i)
		graph = append(graph, fmt.Sprintf("[%s][%s]overlay=x=%d:y=%d:eof_action=pass[%s]", last, scaled, o.X, o.Y, next))
		last = next
	}
	graph = append(graph, fmt.Sprintf("[%s]format=yuv420p[vout]", last))

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[vout]",
		"-map", "1:a",
		"-t", duration,
		"-r", strconv.Itoa(fps),
		"-c:v", defaultString(opts.VideoCodec, DefaultVideoCodec),
		"-c:a", defaultString(opts.AudioCodec, DefaultAudioCodec),
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(Channels),
		opts.Output,
	)
	return args, nil
}

func silenceSource(rate int) string {
	return fmt.Sprintf("anullsrc=r=%d:cl=stereo", rate)
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
