package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeData(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeVideo()
	c.normalizeProtocol()
	c.normalizeTools()
	return c.normalizeLogging()
}

func (c *Config) normalizeData() error {
	var err error
	if c.Data.AudioDir, err = expandPath(strings.TrimSpace(c.Data.AudioDir)); err != nil {
		return fmt.Errorf("data.audiodir: %w", err)
	}
	if c.Data.VideoDir, err = expandPath(strings.TrimSpace(c.Data.VideoDir)); err != nil {
		return fmt.Errorf("data.videodir: %w", err)
	}
	if c.Data.OutDir, err = expandPath(strings.TrimSpace(c.Data.OutDir)); err != nil {
		return fmt.Errorf("data.outdir: %w", err)
	}
	if c.Data.ProtocolCSV, err = expandPath(strings.TrimSpace(c.Data.ProtocolCSV)); err != nil {
		return fmt.Errorf("data.protocolcsv: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	a := &c.AudioSetting
	a.Policy = lower(a.Policy)
	if a.Policy == "" {
		a.Policy = defaultPolicy
	}
	if a.SampleRate == 0 {
		a.SampleRate = defaultSampleRate
	}
	a.AdditionalPaddingLocation = lower(a.AdditionalPaddingLocation)
	if a.AdditionalPaddingLocation == "" {
		a.AdditionalPaddingLocation = defaultAdditionalLocation
	}
	a.PaddingLocation = lower(a.PaddingLocation)
	if a.PaddingLocation == "" {
		a.PaddingLocation = defaultPaddingLocation
	}
	a.AdditionalPaddingValueColumn = strings.TrimSpace(a.AdditionalPaddingValueColumn)
	a.PaddingValueColumn = strings.TrimSpace(a.PaddingValueColumn)
	a.PaddingLocationColumn = strings.TrimSpace(a.PaddingLocationColumn)
}

func (c *Config) normalizeVideo() {
	v := &c.VideoSetting
	if len(v.BGColor) == 0 {
		v.BGColor = append([]int(nil), defaultBGColor...)
	}
	if v.FPS == 0 {
		v.FPS = defaultFPS
	}
	v.Codec = strings.TrimSpace(v.Codec)
	if v.Codec == "" {
		v.Codec = defaultCodec
	}
	v.AudioCodec = strings.TrimSpace(v.AudioCodec)
	if v.AudioCodec == "" {
		v.AudioCodec = defaultAudioCodec
	}
	v.BetweenTrial.BGColor = lower(v.BetweenTrial.BGColor)
	if v.BetweenTrial.BGColor == "" {
		v.BetweenTrial.BGColor = defaultBetweenTrialColor
	}
}

func (c *Config) normalizeProtocol() {
	p := &c.Protocol
	columns := p.GroupColumns[:0]
	for _, col := range p.GroupColumns {
		if col = strings.TrimSpace(col); col != "" {
			columns = append(columns, col)
		}
	}
	p.GroupColumns = columns
	if len(p.GroupColumns) == 0 {
		p.GroupColumns = append([]string(nil), defaultGroupColumns...)
	}
	if p.SequenceColumn = strings.TrimSpace(p.SequenceColumn); p.SequenceColumn == "" {
		p.SequenceColumn = defaultSequenceColumn
	}
	if p.FileColumn = strings.TrimSpace(p.FileColumn); p.FileColumn == "" {
		p.FileColumn = defaultFileColumn
	}
	if p.OutputColumn = strings.TrimSpace(p.OutputColumn); p.OutputColumn == "" {
		p.OutputColumn = defaultOutputColumn
	}
}

func (c *Config) normalizeTools() {
	if c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg); c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	if c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe); c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = lower(c.Logging.Format)
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = lower(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func lower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
