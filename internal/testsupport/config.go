package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"biliwalle/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The audio and video directories exist, the protocol path is
// <base>/protocol.csv (written only by WithProtocol), and outputs go to
// <base>/out.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Data = config.Data{
		AudioDir:    filepath.Join(base, "audio"),
		VideoDir:    filepath.Join(base, "video"),
		OutDir:      filepath.Join(base, "out"),
		ProtocolCSV: filepath.Join(base, "protocol.csv"),
	}
	cfgVal.VideoSetting.OutWidth = 640
	cfgVal.VideoSetting.OutHeight = 360
	for _, dir := range []string{cfgVal.Data.AudioDir, cfgVal.Data.VideoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProtocol writes the protocol CSV content.
func WithProtocol(content string) ConfigOption {
	return func(b *configBuilder) {
		WriteText(b.t, b.cfg.Data.ProtocolCSV, content)
	}
}

// WithReprocess sets the reprocess toggle.
func WithReprocess(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Other.Reprocess = enabled
	}
}

// WithAudioFiles creates placeholder files in the audio directory.
func WithAudioFiles(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Data.AudioDir, name), 16)
		}
	}
}

// WithVideoFiles creates placeholder files in the video directory.
func WithVideoFiles(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Data.VideoDir, name), 16)
		}
	}
}

// WithStubbedBinaries writes stub executables that exit successfully for the
// provided names and prepends them to PATH. If names is empty, ffmpeg and
// ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		for _, name := range names {
			StubBinary(b.t, filepath.Join(b.baseDir, "bin"), name, "exit 0\n")
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Data.OutDir)
}
