package config

import (
	"fmt"
	"time"

	"biliwalle/internal/timeline"
)

// PaddingPolicy converts the millisecond audio settings into a validated
// timeline policy. The uniform policy's additional padding is filled in per
// group from the protocol table.
func (c *Config) PaddingPolicy() (timeline.Policy, error) {
	a := c.AudioSetting
	kind, err := timeline.ParsePolicyKind(a.Policy)
	if err != nil {
		return timeline.Policy{}, err
	}
	start, err := paddingField("audio_setting.start_padding", a.StartPadding)
	if err != nil {
		return timeline.Policy{}, err
	}
	end, err := paddingField("audio_setting.end_padding", a.EndPadding)
	if err != nil {
		return timeline.Policy{}, err
	}
	var policy timeline.Policy
	switch kind {
	case timeline.PolicyPerRow:
		policy = timeline.PerRow(timeline.PerRowPolicy{Start: start, End: end})
	default:
		location, err := timeline.ParseLocation(a.AdditionalPaddingLocation)
		if err != nil {
			return timeline.Policy{}, fmt.Errorf("audio_setting.additional_padding_location: %w", err)
		}
		interval, err := paddingField("audio_setting.interval_padding", a.IntervalPadding)
		if err != nil {
			return timeline.Policy{}, err
		}
		policy = timeline.Uniform(timeline.UniformPolicy{
			Start:              start,
			Interval:           interval,
			End:                end,
			AdditionalLocation: location,
		})
	}
	if err := policy.Validate(); err != nil {
		return timeline.Policy{}, err
	}
	return policy, nil
}

func paddingField(name string, ms float64) (time.Duration, error) {
	d, err := timeline.Milliseconds(ms)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// DefaultPlacement is the per-row placement used when the protocol has no
// placement column or the cell is empty.
func (c *Config) DefaultPlacement() (timeline.Placement, error) {
	return timeline.ParsePlacement(c.AudioSetting.PaddingLocation)
}

// BackgroundHex renders the clip canvas color as an ffmpeg color literal.
func (v VideoSetting) BackgroundHex() string {
	if len(v.BGColor) != 3 {
		return "0xFFFFFF"
	}
	return fmt.Sprintf("0x%02X%02X%02X", v.BGColor[0], v.BGColor[1], v.BGColor[2])
}
