package config

import (
	"fmt"
	"os"
	"strings"

	"biliwalle/internal/services"
	"biliwalle/internal/timeline"
)

// Workflow names a command that consumes the configuration.
type Workflow string

const (
	WorkflowWeave Workflow = "weave"
	WorkflowClips Workflow = "clips"
	WorkflowMovie Workflow = "movie"
)

// Validate ensures the configuration is usable by any workflow.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateFor checks the inputs a specific workflow needs on disk.
func (c *Config) ValidateFor(w Workflow) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Data.OutDir) == "" {
		return invalid("data.outdir must be set")
	}
	if err := requireFile("data.protocolcsv", c.Data.ProtocolCSV); err != nil {
		return err
	}
	switch w {
	case WorkflowWeave:
		return requireDir("data.audiodir", c.Data.AudioDir)
	case WorkflowClips:
		if err := requireDir("data.audiodir", c.Data.AudioDir); err != nil {
			return err
		}
		if err := requireDir("data.videodir", c.Data.VideoDir); err != nil {
			return err
		}
		return c.validateCanvas()
	case WorkflowMovie:
		if err := requireDir("data.videodir", c.Data.VideoDir); err != nil {
			return err
		}
		return c.validateCanvas()
	default:
		return invalid("unknown workflow %q", w)
	}
}

func (c *Config) validateAudio() error {
	a := c.AudioSetting
	kind, err := timeline.ParsePolicyKind(a.Policy)
	if err != nil {
		return err
	}
	if a.SampleRate <= 0 || a.SampleRate > timeline.MaxSampleRate {
		return invalid("audio_setting.sample_rate must be in 1..%d, got %d", timeline.MaxSampleRate, a.SampleRate)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"audio_setting.start_padding", a.StartPadding},
		{"audio_setting.interval_padding", a.IntervalPadding},
		{"audio_setting.end_padding", a.EndPadding},
	} {
		if p.value < 0 {
			return invalid("%s must be >= 0 (milliseconds), got %v", p.name, p.value)
		}
		if _, err := paddingField(p.name, p.value); err != nil {
			return err
		}
	}
	if _, err := timeline.ParseLocation(a.AdditionalPaddingLocation); err != nil {
		return fmt.Errorf("audio_setting.additional_padding_location: %w", err)
	}
	if _, err := timeline.ParsePlacement(a.PaddingLocation); err != nil {
		return fmt.Errorf("audio_setting.padding_location: %w", err)
	}
	if kind == timeline.PolicyPerRow && a.PaddingValueColumn == "" {
		return invalid("audio_setting.padding_value_column must be set when audio_setting.policy is per_row")
	}
	return nil
}

func (c *Config) validateVideo() error {
	v := c.VideoSetting
	if v.FPS <= 0 {
		return invalid("video_setting.fps must be positive")
	}
	if len(v.BGColor) != 3 {
		return invalid("video_setting.bg_color must be an RGB triple such as [255, 255, 255], got %v", v.BGColor)
	}
	for _, channel := range v.BGColor {
		if channel < 0 || channel > 255 {
			return invalid("video_setting.bg_color values must be between 0 and 255, got %v", v.BGColor)
		}
	}
	if v.BetweenTrial.Duration < 0 {
		return invalid("video_setting.between_trial.duration must be >= 0 (seconds)")
	}
	if _, err := paddingField("video_setting.between_trial.duration", v.BetweenTrial.Duration*1000); err != nil {
		return err
	}
	if v.OutWidth < 0 || v.OutHeight < 0 {
		return invalid("video_setting.out_width and out_height must not be negative")
	}
	for name, obj := range v.Objects {
		if obj.ResizeToWidth <= 0 || obj.ResizeToHeight <= 0 {
			return invalid("video_setting.objects.%s: resize_to_width and resize_to_height must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateCanvas() error {
	if c.VideoSetting.OutWidth <= 0 || c.VideoSetting.OutHeight <= 0 {
		return invalid("video_setting.out_width and video_setting.out_height must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func requireDir(name, path string) error {
	if strings.TrimSpace(path) == "" {
		return invalid("%s must be set", name)
	}
	info, err := os.Stat(path)
	if err != nil {
		return invalid("%s %s doesn't exist, please check", name, path)
	}
	if !info.IsDir() {
		return invalid("%s %s is not a directory", name, path)
	}
	return nil
}

func requireFile(name, path string) error {
	if strings.TrimSpace(path) == "" {
		return invalid("%s must be set", name)
	}
	info, err := os.Stat(path)
	if err != nil {
		return invalid("%s %s doesn't exist, please check", name, path)
	}
	if info.IsDir() {
		return invalid("%s %s is a directory", name, path)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return services.Wrap(services.ErrInvalidConfiguration, "config", "", fmt.Sprintf(format, args...), nil)
}
