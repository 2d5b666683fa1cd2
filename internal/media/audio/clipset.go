package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"biliwalle/internal/logging"
	"biliwalle/internal/media/ffmpeg"
	"biliwalle/internal/services"
)

// Decoder turns a media file into interleaved stereo int16 samples.
type Decoder interface {
	DecodePCM(ctx context.Context, path string, sampleRate int) ([]int16, error)
}

// Clip is a decoded source.
type Clip struct {
	Path    string
	Samples []int16
}

// Frames returns the clip length in sample frames.
func (c *Clip) Frames() int64 {
	return int64(len(c.Samples) / ffmpeg.Channels)
}

// ClipSet caches decoded clips for one output and implements
// timeline.Resolver.
type ClipSet struct {
	mu      sync.Mutex
	dir     string
	rate    int
	decoder Decoder
	logger  *slog.Logger
	clips   map[string]*Clip
	closed  bool
}

// NewClipSet returns an empty set resolving relative names against dir.
func NewClipSet(decoder Decoder, dir string, sampleRate int, logger *slog.Logger) *ClipSet {
	return &ClipSet{
		dir:     dir,
		rate:    sampleRate,
		decoder: decoder,
		logger:  logging.NewComponentLogger(logger, "audio"),
		clips:   make(map[string]*Clip),
	}
}

// Path resolves a source name to a file path.
func (s *ClipSet) Path(source string) string {
	if filepath.IsAbs(source) || s.dir == "" {
		return source
	}
	return filepath.Join(s.dir, source)
}

// Frames decodes source on first use and returns its length in frames.
func (s *ClipSet) Frames(ctx context.Context, source string) (int64, error) {
	clip, err := s.load(ctx, source)
	if err != nil {
		return 0, err
	}
	return clip.Frames(), nil
}

// Clip returns a previously decoded clip.
func (s *ClipSet) Clip(source string) (*Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clip, ok := s.clips[source]
	return clip, ok
}

// Len returns the number of decoded clips held.
func (s *ClipSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}

// Close releases every decoded buffer. It is safe to call more than once.
func (s *ClipSet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	for key, clip := range s.clips {
		clip.Samples = nil
		delete(s.clips, key)
	}
	s.closed = true
	return nil
}

func (s *ClipSet) load(ctx context.Context, source string) (*Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, services.Wrap(services.ErrInvalidInput, "audio", "load", "clip set already closed", nil)
	}
	if clip, ok := s.clips[source]; ok {
		return clip, nil
	}

	path := s.Path(source)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, services.Wrap(services.ErrSourceNotFound, "audio", "load", path, nil)
	case err != nil:
		return nil, services.Wrap(services.ErrSourceNotFound, "audio", "load", path, err)
	case info.IsDir():
		return nil, services.Wrap(services.ErrSourceNotFound, "audio", "load", fmt.Sprintf("%s is a directory", path), nil)
	case !info.Mode().IsRegular():
		return nil, services.Wrap(services.ErrSourceNotFound, "audio", "load", fmt.Sprintf("%s is not a regular file", path), nil)
	}
	if err := checkReadable(path); err != nil {
		return nil, services.Wrap(services.ErrSourceNotFound, "audio", "load", fmt.Sprintf("%s is not readable", path), err)
	}

	samples, err := s.decoder.DecodePCM(ctx, path, s.rate)
	if err != nil {
		return nil, err
	}
	clip := &Clip{Path: path, Samples: samples}
	s.clips[source] = clip
	s.logger.Debug("clip decoded",
		logging.String("source", path),
		logging.Int64("frames", clip.Frames()),
	)
	return clip, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
