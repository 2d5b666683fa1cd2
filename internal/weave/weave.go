package weave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"biliwalle/internal/config"
	"biliwalle/internal/logging"
	"biliwalle/internal/media/audio"
	"biliwalle/internal/protocol"
	"biliwalle/internal/services"
	"biliwalle/internal/stage"
	"biliwalle/internal/timeline"
)

// Name is the workflow name used in logs and summaries.
const Name = "weave"

// Encoder writes interleaved stereo samples to an audio file.
type Encoder interface {
	EncodePCM(ctx context.Context, samples []int16, sampleRate int, output string) error
}

// Weaver produces one audio file per protocol group.
type Weaver struct {
	cfg     *config.Config
	logger  *slog.Logger
	decoder audio.Decoder
	encoder Encoder
}

// New constructs a Weaver. The ffmpeg executor satisfies both decoder and
// encoder; tests pass fakes.
func New(cfg *config.Config, decoder audio.Decoder, encoder Encoder, logger *slog.Logger) *Weaver {
	return &Weaver{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, Name),
		decoder: decoder,
		encoder: encoder,
	}
}

// Name implements stage.Handler.
func (w *Weaver) Name() string { return Name }

// HealthCheck implements stage.Handler.
func (w *Weaver) HealthCheck(context.Context) stage.Health {
	if err := w.cfg.ValidateFor(config.WorkflowWeave); err != nil {
		return stage.Unhealthy(Name, err.Error())
	}
	return stage.CheckBinaries(Name, w.cfg.FFmpegBinary())
}

// Run plans every group and then writes them in order. Configuration errors
// abort before any output is produced; group-level errors are recorded in
// the summary.
func (w *Weaver) Run(ctx context.Context, observer stage.Observer) (stage.Summary, error) {
	ctx = services.WithStage(ctx, Name)
	logger := logging.WithContext(ctx, w.logger)
	summary := stage.Summary{Stage: Name}

	table, err := protocol.Read(w.cfg.Data.ProtocolCSV)
	if err != nil {
		return summary, err
	}
	plans, err := BuildPlans(w.cfg, table)
	if err != nil {
		return summary, err
	}
	if err := w.cfg.EnsureOutputDir(); err != nil {
		return summary, err
	}
	logger.Info("weaving audio",
		logging.Int("groups", len(plans)),
		logging.String("policy", w.cfg.AudioSetting.Policy),
		logging.Int("sample_rate", w.cfg.AudioSetting.SampleRate),
		logging.String("outdir", w.cfg.Data.OutDir),
	)

	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		groupCtx := services.WithGroup(ctx, plan.Group)
		result, err := w.weave(groupCtx, plan)
		result, err = stage.Settle(groupCtx, w.logger, result, err)
		if err != nil {
			return summary, err
		}
		summary.Add(result)
		observer.Notify(i+1, len(plans), result)
	}

	logger.Info("weaving finished",
		logging.Int("written", len(summary.Written)),
		logging.Int("skipped", len(summary.Skipped)),
		logging.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func (w *Weaver) weave(ctx context.Context, plan Plan) (stage.Result, error) {
	logger := logging.WithContext(ctx, w.logger)
	result := stage.Result{Name: plan.Group}
	if plan.Output == "" {
		return result, services.Wrap(services.ErrInvalidInput, Name, "plan",
			fmt.Sprintf("group has no %s value", w.cfg.Protocol.OutputColumn), nil)
	}
	result.Output = w.cfg.OutputPath(plan.Output)

	if !w.cfg.Other.Reprocess && stage.Exists(result.Output) {
		logger.Info("skip existing output", logging.String("output", result.Output))
		result.Status = stage.StatusSkipped
		return result, nil
	}

	started := time.Now()
	rate := w.cfg.AudioSetting.SampleRate
	clips := audio.NewClipSet(w.decoder, w.cfg.Data.AudioDir, rate, w.logger)
	defer clips.Close()

	track, err := timeline.Build(ctx, plan.Items, plan.Policy, rate, clips)
	if err != nil {
		return result, err
	}
	samples, err := audio.Mix(track, clips)
	if err != nil {
		return result, err
	}
	if err := w.encoder.EncodePCM(ctx, samples, rate, result.Output); err != nil {
		return result, err
	}

	result.Status = stage.StatusWritten
	result.Duration = time.Since(started)
	logger.Info("wrote audio",
		logging.String("output", result.Output),
		logging.Int("items", len(plan.Items)),
		logging.Int("segments", len(track.Segments)),
		logging.Float64("seconds", track.Seconds()),
	)
	return result, nil
}
