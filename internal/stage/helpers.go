package stage

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"biliwalle/internal/logging"
	"biliwalle/internal/services"
)

// Settle turns the error of one unit of work into its result. Group-level
// failures are logged and recorded as failed so the run continues; a nil
// return means the caller moves on. Any other error, including
// cancellation, is returned and ends the run.
func Settle(ctx context.Context, logger *slog.Logger, result Result, err error) (Result, error) {
	if err == nil {
		if result.Status == "" {
			result.Status = StatusWritten
		}
		if result.Status == StatusWritten && result.Bytes == 0 && result.Output != "" {
			if info, statErr := os.Stat(result.Output); statErr == nil {
				result.Bytes = info.Size()
			}
		}
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return result, err
	}
	if !services.IsGroupLevel(err) {
		return result, err
	}
	result.Status = StatusFailed
	result.Err = err
	logging.WarnWithContext(
		logging.WithContext(ctx, logger),
		"output skipped after error",
		"output_failed",
		logging.String("output", result.Output),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint(err)),
	)
	return result, nil
}

// Exists reports whether an output is already present, which with
// reprocess disabled means the unit is skipped.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func hint(err error) string {
	switch {
	case errors.Is(err, services.ErrSourceNotFound):
		return "check the file names in the protocol against the input directory"
	case errors.Is(err, services.ErrAmbiguousMatch):
		return "make the file prefix match exactly one input file"
	case errors.Is(err, services.ErrExternalTool):
		return "check that ffmpeg can read the inputs; rerun with --verbose for ffmpeg output"
	default:
		return "check the protocol rows for this output"
	}
}
