package movie

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"biliwalle/internal/config"
	"biliwalle/internal/logging"
	"biliwalle/internal/media/ffmpeg"
	"biliwalle/internal/media/ffprobe"
	"biliwalle/internal/protocol"
	"biliwalle/internal/services"
	"biliwalle/internal/stage"
	"biliwalle/internal/timeline"
)

// Name is the workflow name used in logs and summaries.
const Name = "movie"

// Protocol columns read by the movie workflow.
const (
	ColumnOrder     = "Order"
	ColumnVideo     = "Video_file"
	ColumnTrialType = "Trial_type"
	ColumnOutput    = "Output_video_file"
)

// Concatenator joins segments into one movie.
type Concatenator interface {
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
}

// Prober inspects a media file.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Maker builds one movie per Order group.
type Maker struct {
	cfg      *config.Config
	logger   *slog.Logger
	concat   Concatenator
	prober   Prober
	progress ffmpeg.ProgressFunc
}

// New constructs a Maker.
func New(cfg *config.Config, concat Concatenator, prober Prober, logger *slog.Logger) *Maker {
	return &Maker{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, Name),
		concat: concat,
		prober: prober,
	}
}

// SetProgressFunc receives ffmpeg progress for the movie being rendered.
func (m *Maker) SetProgressFunc(fn ffmpeg.ProgressFunc) {
	m.progress = fn
}

// Name implements stage.Handler.
func (m *Maker) Name() string { return Name }

// HealthCheck implements stage.Handler.
func (m *Maker) HealthCheck(context.Context) stage.Health {
	if err := m.cfg.ValidateFor(config.WorkflowMovie); err != nil {
		return stage.Unhealthy(Name, err.Error())
	}
	return stage.CheckBinaries(Name, m.cfg.FFmpegBinary(), m.cfg.FFprobeBinary())
}

// Run builds every movie in Order sequence.
func (m *Maker) Run(ctx context.Context, observer stage.Observer) (stage.Summary, error) {
	ctx = services.WithStage(ctx, Name)
	logger := logging.WithContext(ctx, m.logger)
	summary := stage.Summary{Stage: Name}

	table, err := protocol.Read(m.cfg.Data.ProtocolCSV)
	if err != nil {
		return summary, err
	}
	if err := table.Require(ColumnOrder, ColumnVideo, ColumnTrialType, ColumnOutput); err != nil {
		return summary, err
	}
	groups, err := table.GroupBy(ColumnOrder)
	if err != nil {
		return summary, err
	}
	interval, err := m.betweenTrial()
	if err != nil {
		return summary, err
	}
	if err := m.cfg.EnsureOutputDir(); err != nil {
		return summary, err
	}
	logger.Info("making movies",
		logging.Int("movies", len(groups)),
		logging.String("outdir", m.cfg.Data.OutDir),
	)

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		groupCtx := services.WithGroup(ctx, group.Name())
		result, err := m.movie(groupCtx, group, interval)
		result, err = stage.Settle(groupCtx, m.logger, result, err)
		if err != nil {
			return summary, err
		}
		summary.Add(result)
		observer.Notify(i+1, len(groups), result)
	}

	logger.Info("movies finished",
		logging.Int("written", len(summary.Written)),
		logging.Int("skipped", len(summary.Skipped)),
		logging.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

// betweenTrial returns the blank appended after each trial video, or nil
// when the configured duration is zero.
func (m *Maker) betweenTrial() (*ffmpeg.ConcatSegment, error) {
	bt := m.cfg.VideoSetting.BetweenTrial
	if bt.Duration <= 0 {
		return nil, nil
	}
	d, err := timeline.Milliseconds(bt.Duration * 1000)
	if err != nil {
		return nil, fmt.Errorf("video_setting.between_trial.duration: %w", err)
	}
	seg, err := blank(bt.BGColor, d)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, Name, "between_trial", "video_setting.between_trial.bg_color", err)
	}
	return &seg, nil
}

func (m *Maker) movie(ctx context.Context, group protocol.Group, interval *ffmpeg.ConcatSegment) (stage.Result, error) {
	logger := logging.WithContext(ctx, m.logger)
	name := group.First(ColumnOutput)
	result := stage.Result{Name: name}
	if name == "" {
		result.Name = group.Name()
		return result, services.Wrap(services.ErrInvalidInput, Name, "group", fmt.Sprintf("empty %s cell", ColumnOutput), nil)
	}
	result.Output = m.cfg.OutputPath(name)
	if !m.cfg.Other.Reprocess && stage.Exists(result.Output) {
		logger.Info("skip existing output", logging.String("output", result.Output))
		result.Status = stage.StatusSkipped
		return result, nil
	}

	started := time.Now()
	segments := make([]ffmpeg.ConcatSegment, 0, len(group.Rows)*2)
	for _, row := range group.Rows {
		token := row.Get(ColumnVideo)
		if isTransition(row.Get(ColumnTrialType)) {
			seg, err := parseTransition(token)
			if err != nil {
				return result, fmt.Errorf("line %d: %w", row.Line, err)
			}
			segments = append(segments, seg)
			continue
		}
		seg, err := m.trial(ctx, token)
		if errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "trial video missing; row skipped", "video_missing",
				logging.Int("line", row.Line),
				logging.String("video", seg.Path),
				logging.String(logging.FieldImpact, "trial left out of the movie"),
				logging.String(logging.FieldErrorHint, "check Video_file against the video directory"),
			)
			continue
		}
		if err != nil {
			return result, err
		}
		segments = append(segments, seg)
		if interval != nil {
			segments = append(segments, *interval)
		}
	}
	if len(segments) == 0 {
		return result, services.Wrap(services.ErrInvalidInput, Name, "group", "no playable rows", nil)
	}

	v := m.cfg.VideoSetting
	err := m.concat.Concat(ctx, ffmpeg.ConcatOptions{
		Segments:     segments,
		Width:        v.OutWidth,
		Height:       v.OutHeight,
		FPS:          v.FPS,
		SampleRate:   m.cfg.AudioSetting.SampleRate,
		VideoCodec:   v.Codec,
		AudioCodec:   v.AudioCodec,
		Output:       result.Output,
		ProgressFunc: m.progress,
	})
	if err != nil {
		return result, err
	}
	result.Status = stage.StatusWritten
	result.Duration = time.Since(started)
	logger.Info("wrote movie",
		logging.String("output", result.Output),
		logging.Int("segments", len(segments)),
	)
	return result, nil
}

// trial probes one trial video. A missing file returns an error matching
// fs.ErrNotExist with the resolved path in the segment.
func (m *Maker) trial(ctx context.Context, name string) (ffmpeg.ConcatSegment, error) {
	path := filepath.Join(m.cfg.Data.VideoDir, name)
	seg := ffmpeg.ConcatSegment{Path: path}
	if name == "" {
		return seg, services.Wrap(services.ErrInvalidInput, Name, "trial", fmt.Sprintf("empty %s cell", ColumnVideo), nil)
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return seg, err
	}
	if err != nil {
		return seg, services.Wrap(services.ErrInvalidInput, Name, "trial", path, err)
	}
	if info.IsDir() {
		return seg, fmt.Errorf("%s is a directory: %w", path, fs.ErrNotExist)
	}
	probe, err := m.prober.Inspect(ctx, path)
	if err != nil {
		return seg, err
	}
	seg.HasAudio = probe.HasAudio()
	seg.Duration = probe.Duration()
	return seg, nil
}
