package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"biliwalle/internal/clipmaker"
	"biliwalle/internal/config"
	"biliwalle/internal/media/ffmpeg"
	"biliwalle/internal/media/ffprobe"
	"biliwalle/internal/movie"
	"biliwalle/internal/runner"
	"biliwalle/internal/services"
	"biliwalle/internal/stage"
	"biliwalle/internal/weave"
)

// handlerFactory wires a workflow to the ffmpeg executor.
type handlerFactory func(cfg *config.Config, exec *ffmpeg.Executor, logger *slog.Logger) stage.Handler

func newWeaveCommand(ctx *commandContext) *cobra.Command {
	return newWorkflowCommand(ctx, "weave", "Build one audio file per protocol group",
		func(cfg *config.Config, exec *ffmpeg.Executor, logger *slog.Logger) stage.Handler {
			return weave.New(cfg, exec, exec, logger)
		})
}

func newClipsCommand(ctx *commandContext) *cobra.Command {
	return newWorkflowCommand(ctx, "clips", "Render one stimulus clip per protocol row",
		func(cfg *config.Config, exec *ffmpeg.Executor, logger *slog.Logger) stage.Handler {
			return clipmaker.New(cfg, exec, ffprobe.Prober(exec.FFprobePath()), logger)
		})
}

func newMovieCommand(ctx *commandContext) *cobra.Command {
	return newWorkflowCommand(ctx, "movie", "Concatenate trial videos into one movie per Order",
		func(cfg *config.Config, exec *ffmpeg.Executor, logger *slog.Logger) stage.Handler {
			return movie.New(cfg, exec, ffprobe.Prober(exec.FFprobePath()), logger)
		})
}

func newWorkflowCommand(ctx *commandContext, use, short string, factory handlerFactory) *cobra.Command {
	var noProgress bool
	var reprocess bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("reprocess") {
				cfg.Other.Reprocess = reprocess
			}
			return runWorkflow(cmd, ctx, factory, !noProgress)
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().BoolVar(&reprocess, "reprocess", true, "Overwrite outputs that already exist; --reprocess=false keeps them (overrides other.reprocess)")
	return cmd
}

func runWorkflow(cmd *cobra.Command, ctx *commandContext, factory handlerFactory, progress bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	runCtx := services.WithRunID(signalCtx, uuid.NewString())

	exec, err := ffmpeg.New(logger, cfg.FFmpegBinary(), cfg.FFprobeBinary())
	if err != nil {
		return err
	}
	handler := factory(cfg, exec, logger)

	out := cmd.OutOrStdout()
	colorize := isTerminal(out)
	reporter := newProgressReporter(out, handler.Name(), progress && colorize)
	summary, err := runner.New(cfg, ctx.loadedConfigPath(), logger).Run(runCtx, handler, reporter.observe)
	reporter.finish()
	if summary.Total() > 0 {
		fmt.Fprintln(out, renderSummary(summary, colorize))
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s interrupted after %d outputs: %w", handler.Name(), summary.Total(), err)
	}
	return err
}
