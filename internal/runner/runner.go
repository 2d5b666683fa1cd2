package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"biliwalle/internal/config"
	"biliwalle/internal/logging"
	"biliwalle/internal/services"
	"biliwalle/internal/stage"
)

// LockName is the lock file created in the output directory.
const LockName = ".biliwalle.lock"

// Runner coordinates one workflow run and enforces a single writer per
// output directory.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	configPath string
	lockPath   string
	lock       *flock.Flock
}

// New builds a Runner. configPath is the loaded configuration document, or
// "" when defaults were used.
func New(cfg *config.Config, configPath string, logger *slog.Logger) *Runner {
	lockPath := filepath.Join(cfg.Data.OutDir, LockName)
	return &Runner{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "runner"),
		configPath: strings.TrimSpace(configPath),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
}

// Run checks the handler, holds the output lock while it runs, and saves the
// configuration next to the outputs when requested.
func (r *Runner) Run(ctx context.Context, h stage.Handler, observer stage.Observer) (stage.Summary, error) {
	logger := logging.WithContext(ctx, r.logger)
	if health := h.HealthCheck(ctx); !health.Ready {
		return stage.Summary{Stage: h.Name()}, services.Wrap(services.ErrInvalidConfiguration, h.Name(), "health check", health.Detail, nil)
	}
	if err := r.cfg.EnsureOutputDir(); err != nil {
		return stage.Summary{Stage: h.Name()}, err
	}

	ok, err := r.lock.TryLock()
	if err != nil {
		return stage.Summary{Stage: h.Name()}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return stage.Summary{Stage: h.Name()}, fmt.Errorf("another biliwalle run is writing to %s", r.cfg.Data.OutDir)
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", logging.String("lock", r.lockPath), logging.Error(err))
		}
	}()

	started := time.Now()
	logger.Info("run started", logging.String("workflow", h.Name()), logging.String("lock", r.lockPath))
	summary, err := h.Run(ctx, observer)
	if err != nil {
		return summary, err
	}
	logger.Info("run finished",
		logging.String("workflow", h.Name()),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)

	if r.cfg.Other.SaveConfig {
		r.saveConfig(logger)
	}
	return summary, nil
}

func (r *Runner) saveConfig(logger *slog.Logger) {
	if r.configPath == "" {
		logger.Info("saveconfig set but no configuration file was loaded")
		return
	}
	target, err := r.cfg.SaveCopy(r.configPath)
	if err != nil {
		logging.WarnWithContext(logger, "failed to save configuration copy", "saveconfig_failed",
			logging.String("config", r.configPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "outputs are written but the configuration copy is missing"),
		)
		return
	}
	logger.Info("saved configuration copy", logging.String("path", target))
}
