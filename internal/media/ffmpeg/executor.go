package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"biliwalle/internal/logging"
	"biliwalle/internal/services"
)

const stderrTailLines = 12

// Progress is one block of ffmpeg's -progress output.
type Progress struct {
	Frame   int
	FPS     float64
	OutTime time.Duration
	Speed   string
	Done    bool
}

// ProgressFunc receives progress blocks as ffmpeg reports them.
type ProgressFunc func(Progress)

// RunOptions configures a single ffmpeg invocation. Stdin and Stdout are
// attached directly when set.
type RunOptions struct {
	Args            []string
	Stdin           io.Reader
	Stdout          io.Writer
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// Executor handles all ffmpeg operations with progress streaming.
type Executor struct {
	logger      *slog.Logger
	ffmpegPath  string
	ffprobePath string
}

// New resolves the ffmpeg and ffprobe executables on PATH.
func New(logger *slog.Logger, ffmpegBinary, ffprobeBinary string) (*Executor, error) {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	ffmpegPath, err := exec.LookPath(ffmpegBinary)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "lookup", fmt.Sprintf("%s not found in PATH", ffmpegBinary), err)
	}
	ffprobePath, err := exec.LookPath(ffprobeBinary)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "lookup", fmt.Sprintf("%s not found in PATH", ffprobeBinary), err)
	}
	return &Executor{
		logger:      logging.NewComponentLogger(logger, "ffmpeg"),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// FFprobePath returns the resolved ffprobe executable.
func (e *Executor) FFprobePath() string {
	return e.ffprobePath
}

// Run executes ffmpeg with the given arguments and streams progress.
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "run", "no arguments provided", nil)
	}

	args := append([]string{"-y", "-hide_banner", "-nostats", "-loglevel", "error", "-progress", "pipe:2"}, opts.Args...)
	e.logger.Debug("executing ffmpeg", logging.String("cmd", e.ffmpegPath), logging.String("args", strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "run", "create stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "run", "start ffmpeg", err)
	}

	// stderr must be drained before Wait closes the pipe
	tail := newTail(stderrTailLines)
	streamOutput(stderr, opts.ProgressHandler, func(line string) {
		tail.add(line)
		e.logger.Debug("ffmpeg output", logging.String("line", line))
		if opts.LogHandler != nil {
			opts.LogHandler(line)
		}
	})

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "run", tail.String(), err)
	}
	return nil
}

// streamOutput splits ffmpeg stderr into progress blocks and plain log lines.
func streamOutput(r io.Reader, progressHandler ProgressFunc, logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var current Progress

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.ContainsAny(key, " \t") {
			if logHandler != nil {
				logHandler(line)
			}
			continue
		}
		switch key {
		case "frame":
			current.Frame, _ = strconv.Atoi(value)
		case "fps":
			current.FPS, _ = strconv.ParseFloat(value, 64)
		case "out_time_us", "out_time_ms":
			// both report microseconds
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				current.OutTime = time.Duration(us) * time.Microsecond
			}
		case "speed":
			current.Speed = strings.TrimSpace(value)
		case "progress":
			current.Done = value == "end"
			if progressHandler != nil {
				progressHandler(current)
			}
			current = Progress{}
		}
	}
}

// writeAtomic runs produce against a hidden temporary path in the output's
// directory and renames the result into place on success. The temporary
// name keeps the extension so ffmpeg infers the same container.
func writeAtomic(output string, produce func(tmp string) error) error {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := filepath.Join(dir, ".partial-"+filepath.Base(output))
	if err := produce(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", output, err)
	}
	return nil
}

type tail struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func newTail(max int) *tail {
	return &tail{max: max}
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == 0 {
		return "ffmpeg failed"
	}
	return strings.Join(t.lines, "; ")
}

// IsCanceled reports whether err came from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
