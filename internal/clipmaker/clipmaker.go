package clipmaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"biliwalle/internal/config"
	"biliwalle/internal/logging"
	"biliwalle/internal/media/ffmpeg"
	"biliwalle/internal/media/ffprobe"
	"biliwalle/internal/protocol"
	"biliwalle/internal/services"
	"biliwalle/internal/stage"
)

// Name is the workflow name used in logs and summaries.
const Name = "clips"

// Composer renders a clip.
type Composer interface {
	Compose(ctx context.Context, opts ffmpeg.ComposeOptions) error
}

// Prober inspects a media file.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Maker renders one clip per protocol row.
type Maker struct {
	cfg      *config.Config
	logger   *slog.Logger
	composer Composer
	prober   Prober
	progress ffmpeg.ProgressFunc
}

// New constructs a Maker.
func New(cfg *config.Config, composer Composer, prober Prober, logger *slog.Logger) *Maker {
	return &Maker{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, Name),
		composer: composer,
		prober:   prober,
	}
}

// SetProgressFunc receives ffmpeg progress for the clip being rendered.
func (m *Maker) SetProgressFunc(fn ffmpeg.ProgressFunc) {
	m.progress = fn
}

// Name implements stage.Handler.
func (m *Maker) Name() string { return Name }

// HealthCheck implements stage.Handler.
func (m *Maker) HealthCheck(context.Context) stage.Health {
	if err := m.cfg.ValidateFor(config.WorkflowClips); err != nil {
		return stage.Unhealthy(Name, err.Error())
	}
	return stage.CheckBinaries(Name, m.cfg.FFmpegBinary(), m.cfg.FFprobeBinary())
}

// Run renders every row in table order.
func (m *Maker) Run(ctx context.Context, observer stage.Observer) (stage.Summary, error) {
	ctx = services.WithStage(ctx, Name)
	logger := logging.WithContext(ctx, m.logger)
	summary := stage.Summary{Stage: Name}

	table, err := protocol.Read(m.cfg.Data.ProtocolCSV)
	if err != nil {
		return summary, err
	}
	l, err := detectLayout(table, m.cfg.VideoSetting)
	if err != nil {
		return summary, err
	}
	if err := m.cfg.EnsureOutputDir(); err != nil {
		return summary, err
	}
	logger.Info("making clips",
		logging.String("layout", l.Name),
		logging.Int("rows", len(table.Rows)),
		logging.String("outdir", m.cfg.Data.OutDir),
	)

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rowCtx := services.WithGroup(ctx, fmt.Sprintf("line %d", row.Line))
		result, err := m.clip(rowCtx, row, l)
		result, err = stage.Settle(rowCtx, m.logger, result, err)
		if err != nil {
			return summary, err
		}
		summary.Add(result)
		observer.Notify(i+1, len(table.Rows), result)
	}

	logger.Info("clips finished",
		logging.Int("written", len(summary.Written)),
		logging.Int("skipped", len(summary.Skipped)),
		logging.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func (m *Maker) clip(ctx context.Context, row protocol.Row, l layout) (stage.Result, error) {
	logger := logging.WithContext(ctx, m.logger)
	name := row.Get(ColumnOutput)
	result := stage.Result{Name: name}
	if name == "" {
		result.Name = fmt.Sprintf("line %d", row.Line)
		return result, services.Wrap(services.ErrInvalidInput, Name, "row", fmt.Sprintf("line %d: empty %s cell", row.Line, ColumnOutput), nil)
	}
	result.Output = m.cfg.OutputPath(name)
	if !m.cfg.Other.Reprocess && stage.Exists(result.Output) {
		logger.Info("skip existing output", logging.String("output", result.Output))
		result.Status = stage.StatusSkipped
		return result, nil
	}

	started := time.Now()
	audio, err := m.resolveAudio(ctx, row.Get(ColumnAudio))
	if err != nil {
		return result, err
	}
	overlays := make([]ffmpeg.Overlay, 0, len(l.Slots))
	for _, s := range l.Slots {
		path, err := m.findObject(row.Get(s.Column), s.Suffix)
		if err != nil {
			return result, err
		}
		still, err := isStill(path)
		if err != nil {
			return result, err
		}
		p := s.Placement
		x, y := centerToTopLeft(p.PositionX, p.PositionY, p.ResizeToWidth, p.ResizeToHeight)
		overlays = append(overlays, ffmpeg.Overlay{
			Path:   path,
			Still:  still,
			Width:  p.ResizeToWidth,
			Height: p.ResizeToHeight,
			X:      x,
			Y:      y,
		})
	}

	v := m.cfg.VideoSetting
	err = m.composer.Compose(ctx, ffmpeg.ComposeOptions{
		Width:        v.OutWidth,
		Height:       v.OutHeight,
		Background:   v.BackgroundHex(),
		FPS:          v.FPS,
		Duration:     audio.Duration,
		Audio:        audio.Path,
		SampleRate:   m.cfg.AudioSetting.SampleRate,
		Overlays:     overlays,
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
	logger.Info("wrote clip",
		logging.String("output", result.Output),
		logging.Duration("length", audio.Duration),
		logging.Int("objects", len(overlays)),
	)
	return result, nil
}
