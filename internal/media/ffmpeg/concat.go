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

// ConcatSegment is one piece of a movie: a video file, or a blank clip of
// Color when Path is empty. Duration is required for blanks and for videos
// without an audio stream.
type ConcatSegment struct {
	Path     string
	Color    string
	Duration time.Duration
	HasAudio bool
}

// Blank reports whether the segment is a generated solid-color clip.
func (s ConcatSegment) Blank() bool {
	return s.Path == ""
}

// ConcatOptions defines concatenation parameters. Every segment is scaled
// and padded to Width x Height and resampled to FPS and SampleRate.
type ConcatOptions struct {
	Segments     []ConcatSegment
	Width        int
	Height       int
	FPS          int
	SampleRate   int
	VideoCodec   string
	AudioCodec   string
	Output       string
	ProgressFunc ProgressFunc
}

// Concat merges segments into one movie.
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	args, err := ConcatArgs(opts)
	if err != nil {
		return err
	}
	e.logger.Info("concatenating movie",
		logging.Int("segments", len(opts.Segments)),
		logging.String("output", opts.Output),
	)
	return writeAtomic(opts.Output, func(tmp string) error {
		args[len(args)-1] = tmp
		return e.Run(ctx, RunOptions{Args: args, ProgressHandler: opts.ProgressFunc})
	})
}

// ConcatArgs builds the ffmpeg arguments for Concat using the concat filter.
// The output path is always the last argument.
func ConcatArgs(opts ConcatOptions) ([]string, error) {
	if len(opts.Segments) == 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "concat", "no segments provided", nil)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "concat", fmt.Sprintf("invalid canvas %dx%d", opts.Width, opts.Height), nil)
	}
	if strings.TrimSpace(opts.Output) == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "concat", "output path is required", nil)
	}
	fps := defaultInt(opts.FPS, 30)
	rate := defaultInt(opts.SampleRate, DefaultSampleRate)

	var args, graph, pads []string
	for i, seg := range opts.Segments {
		needsDuration := seg.Blank() || !seg.HasAudio
		if needsDuration && seg.Duration <= 0 {
			return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "concat", fmt.Sprintf("segment %d has no duration", i+1), nil)
		}
		if seg.Blank() {
			color := defaultString(seg.Color, "black")
			args = append(args, "-f", "lavfi", "-t", seconds(seg.Duration), "-i",
				fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", color, opts.Width, opts.Height, fps))
			graph = append(graph, fmt.Sprintf("[%d:v]setsar=1,fps=%d,format=yuv420p[v%d]", i, fps, i))
		} else {
			args = append(args, "-i", seg.Path)
			graph = append(graph, fmt.Sprintf(
				"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p[v%d]",
				i, opts.Width, opts.Height, opts.Width, opts.Height, fps, i))
		}
		if seg.Blank() || !seg.HasAudio {
			graph = append(graph, fmt.Sprintf("%s,atrim=duration=%s[a%d]", silenceSource(rate), seconds(seg.Duration), i))
		} else {
			graph = append(graph, fmt.Sprintf("[%d:a]aresample=%d,aformat=sample_fmts=fltp:channel_layouts=stereo[a%d]", i, rate, i))
		}
		pads = append(pads, fmt.Sprintf("[v%d][a%d]", i, i))
	}
	graph = append(graph, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[vout][aout]", strings.Join(pads, ""), len(opts.Segments)))

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[vout]",
		"-map", "[aout]",
		"-r", strconv.Itoa(fps),
		"-c:v", defaultString(opts.VideoCodec, DefaultVideoCodec),
		"-c:a", defaultString(opts.AudioCodec, DefaultAudioCodec),
		"-ar", strconv.Itoa(rate),
		opts.Output,
	)
	return args, nil
}
