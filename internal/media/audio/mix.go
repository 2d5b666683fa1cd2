package audio

import (
	"fmt"
	"math"

	"biliwalle/internal/media/ffmpeg"
	"biliwalle/internal/services"
	"biliwalle/internal/timeline"
)

// ClipLookup returns decoded clips by source name.
type ClipLookup interface {
	Clip(source string) (*Clip, bool)
}

// Silence returns a zeroed interleaved buffer of frames stereo frames.
func Silence(frames int64) []int16 {
	if frames <= 0 {
		return nil
	}
	return make([]int16, frames*ffmpeg.Channels)
}

// Mix renders track into one interleaved buffer. Each audio segment is added
// at its start with saturation; silence contributes nothing.
func Mix(track timeline.Track, clips ClipLookup) ([]int16, error) {
	if track.SampleRate > timeline.MaxSampleRate || track.Frames < 0 || track.Frames > timeline.MaxFrames(track.SampleRate) {
		return nil, services.Wrap(services.ErrInvalidInput, "audio", "mix",
			fmt.Sprintf("track of %d frames at %d Hz exceeds %s", track.Frames, track.SampleRate, timeline.MaxTrack), nil)
	}
	out := Silence(track.Frames)
	for _, seg := range track.Segments {
		if seg.Kind != timeline.AudioFile {
			continue
		}
		clip, ok := clips.Clip(seg.Source)
		if !ok {
			return nil, services.Wrap(services.ErrInvalidInput, "audio", "mix", fmt.Sprintf("%s was not decoded", seg.Source), nil)
		}
		n := min(seg.Frames, clip.Frames())
		if seg.Start < 0 || n > track.Frames-seg.Start {
			return nil, services.Wrap(services.ErrInvalidInput, "audio", "mix", fmt.Sprintf("%s runs past the end of the track", seg.Source), nil)
		}
		base := seg.Start * ffmpeg.Channels
		for i := int64(0); i < n*ffmpeg.Channels; i++ {
			out[base+i] = addSaturating(out[base+i], clip.Samples[i])
		}
	}
	return out, nil
}

func addSaturating(a, b int16) int16 {
	sum := int32(a) + int32(b)
	switch {
	case sum > math.MaxInt16:
		return math.MaxInt16
	case sum < math.MinInt16:
		return math.MinInt16
	default:
		return int16(sum)
	}
}
