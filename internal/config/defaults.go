package config

const (
	defaultConfigPath          = "~/.config/biliwalle/config.yaml"
	defaultSampleRate          = 44100
	defaultPolicy              = "uniform"
	defaultAdditionalLocation  = "start"
	defaultPaddingLocation     = "before"
	defaultFPS                 = 30
	defaultCodec               = "libx264"
	defaultAudioCodec          = "aac"
	defaultBetweenTrialSeconds = 1
	defaultBetweenTrialColor   = "black"
	defaultSequenceColumn      = "Sequence"
	defaultFileColumn          = "File"
	defaultOutputColumn        = "Filename"
	defaultFFmpeg              = "ffmpeg"
	defaultFFprobe             = "ffprobe"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var (
	projectConfigNames  = []string{"biliwalle.yaml", "biliwalle.yml", "biliwalle.toml"}
	defaultGroupColumns = []string{"Sentence_id", "Block", "Condition", "Word"}
	defaultBGColor      = []int{255, 255, 255}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		AudioSetting: AudioSetting{
			Policy:                    defaultPolicy,
			SampleRate:                defaultSampleRate,
			AdditionalPaddingLocation: defaultAdditionalLocation,
			PaddingLocation:           defaultPaddingLocation,
		},
		VideoSetting: VideoSetting{
			BGColor:    append([]int(nil), defaultBGColor...),
			FPS:        defaultFPS,
			Codec:      defaultCodec,
			AudioCodec: defaultAudioCodec,
			BetweenTrial: BetweenTrial{
				Duration: defaultBetweenTrialSeconds,
				BGColor:  defaultBetweenTrialColor,
			},
		},
		Protocol: Protocol{
			GroupColumns:   append([]string(nil), defaultGroupColumns...),
			SequenceColumn: defaultSequenceColumn,
			FileColumn:     defaultFileColumn,
			OutputColumn:   defaultOutputColumn,
		},
		Other: Other{
			Reprocess: true,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
