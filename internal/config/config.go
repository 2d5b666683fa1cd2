package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.yaml
var sampleConfig string

// Data contains the input and output locations shared by every workflow.
type Data struct {
	AudioDir    string `toml:"audiodir" yaml:"audiodir"`
	VideoDir    string `toml:"videodir" yaml:"videodir"`
	OutDir      string `toml:"outdir" yaml:"outdir"`
	ProtocolCSV string `toml:"protocolcsv" yaml:"protocolcsv"`
}

// AudioSetting configures the weave workflow. Padding values are milliseconds.
type AudioSetting struct {
	Policy                       string  `toml:"policy" yaml:"policy"`
	SampleRate                   int     `toml:"sample_rate" yaml:"sample_rate"`
	StartPadding                 float64 `toml:"start_padding" yaml:"start_padding"`
	IntervalPadding              float64 `toml:"interval_padding" yaml:"interval_padding"`
	EndPadding                   float64 `toml:"end_padding" yaml:"end_padding"`
	AdditionalPaddingLocation    string  `toml:"additional_padding_location" yaml:"additional_padding_location"`
	AdditionalPaddingValueColumn string  `toml:"additional_padding_value_column" yaml:"additional_padding_value_column"`
	PaddingValueColumn           string  `toml:"padding_value_column" yaml:"padding_value_column"`
	PaddingLocation              string  `toml:"padding_location" yaml:"padding_location"`
	PaddingLocationColumn        string  `toml:"padding_location_column" yaml:"padding_location_column"`
}

// BetweenTrial describes the blank clip inserted after every movie trial.
type BetweenTrial struct {
	Duration float64 `toml:"duration" yaml:"duration"`
	BGColor  string  `toml:"bg_color" yaml:"bg_color"`
}

// ObjectPlacement sizes an object and centers it at PositionX, PositionY.
type ObjectPlacement struct {
	ResizeToWidth  int `toml:"resize_to_width" yaml:"resize_to_width"`
	ResizeToHeight int `toml:"resize_to_height" yaml:"resize_to_height"`
	PositionX      int `toml:"position_x" yaml:"position_x"`
	PositionY      int `toml:"position_y" yaml:"position_y"`
}

// VideoSetting configures the clips and movie workflows.
type VideoSetting struct {
	OutWidth     int                        `toml:"out_width" yaml:"out_width"`
	OutHeight    int                        `toml:"out_height" yaml:"out_height"`
	BGColor      []int                      `toml:"bg_color" yaml:"bg_color"`
	FPS          int                        `toml:"fps" yaml:"fps"`
	Codec        string                     `toml:"codec" yaml:"codec"`
	AudioCodec   string                     `toml:"audio_codec" yaml:"audio_codec"`
	BetweenTrial BetweenTrial               `toml:"between_trial" yaml:"between_trial"`
	Objects      map[string]ObjectPlacement `toml:"objects" yaml:"objects"`
}

// Protocol names the protocol table columns read by the weave workflow.
type Protocol struct {
	GroupColumns   []string `toml:"group_columns" yaml:"group_columns"`
	SequenceColumn string   `toml:"sequence_column" yaml:"sequence_column"`
	FileColumn     string   `toml:"file_column" yaml:"file_column"`
	OutputColumn   string   `toml:"output_column" yaml:"output_column"`
}

// Other holds run toggles.
type Other struct {
	SaveConfig bool `toml:"saveconfig" yaml:"saveconfig"`
	Reprocess  bool `toml:"reprocess" yaml:"reprocess"`
}

// Tools names the external executables.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg" yaml:"ffmpeg"`
	FFprobe string `toml:"ffprobe" yaml:"ffprobe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" yaml:"format"`
	Level  string `toml:"level" yaml:"level"`
	File   string `toml:"file" yaml:"file"`
}

// Config encapsulates all configuration values for biliwalle.
//
// Configuration sections by workflow:
//   - Data: input directories, protocol table, and output directory
//   - AudioSetting: padding policy and sample rate for weave
//   - VideoSetting: canvas, objects, and between-trial blanks for clips and movie
//   - Protocol: column names used to group and order weave rows
//   - Other: saveconfig and reprocess toggles
//   - Tools: ffmpeg and ffprobe executables
//   - Logging: log format, level, and optional file
type Config struct {
	Data         Data         `toml:"data" yaml:"data"`
	AudioSetting AudioSetting `toml:"audio_setting" yaml:"audio_setting"`
	VideoSetting VideoSetting `toml:"video_setting" yaml:"video_setting"`
	Protocol     Protocol     `toml:"protocol" yaml:"protocol"`
	Other        Other        `toml:"other" yaml:"other"`
	Tools        Tools        `toml:"tools" yaml:"tools"`
	Logging      Logging      `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Workflow-specific requirements are
// checked separately by ValidateFor.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := decode(file, resolvedPath, &cfg); err != nil {
			return nil, "", false, invalid("parse config %s: %v", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// decode picks the document format from the file extension; anything that is
// not .toml is read as YAML.
func decode(r io.Reader, path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewDecoder(r).Decode(cfg)
	default:
		err := yaml.NewDecoder(r).Decode(cfg)
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	for _, name := range projectConfigNames {
		projectPath, err := filepath.Abs(name)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
			return projectPath, true, nil
		}
	}

	return defaultPath, false, nil
}

// EnsureOutputDir creates the output directory.
func (c *Config) EnsureOutputDir() error {
	if strings.TrimSpace(c.Data.OutDir) == "" {
		return invalid("data.outdir must be set")
	}
	if err := os.MkdirAll(c.Data.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", c.Data.OutDir, err)
	}
	return nil
}

// OutputPath joins a protocol-provided file name with the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Data.OutDir, strings.TrimSpace(name))
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return c.Tools.FFmpeg
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return c.Tools.FFprobe
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// A .toml path receives the sample re-encoded as TOML.
func CreateSample(path string) error {
	sample := []byte(sampleConfig)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var cfg Config
		if err := yaml.Unmarshal(sample, &cfg); err != nil {
			return fmt.Errorf("decode sample config: %w", err)
		}
		encoded, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode sample config: %w", err)
		}
		sample = encoded
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, sample, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SaveCopy copies the configuration document at source into the output
// directory, keeping its base name.
func (c *Config) SaveCopy(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", errors.New("no configuration file to save")
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}
	if err := c.EnsureOutputDir(); err != nil {
		return "", err
	}
	target := filepath.Join(c.Data.OutDir, filepath.Base(source))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("save config copy: %w", err)
	}
	return target, nil
}
