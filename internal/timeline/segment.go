package timeline

import (
	"fmt"
	"math"
	"time"

	"biliwalle/internal/services"
)

// Bounds on composed audio. A track is held in memory as interleaved 16-bit
// stereo, so MaxTrack at MaxSampleRate is the largest buffer ever allocated.
const (
	MaxPadding    = time.Hour
	MaxTrack      = 2 * time.Hour
	MaxSampleRate = 192000
)

// Kind distinguishes decoded audio from generated silence.
type Kind int

const (
	AudioFile Kind = iota
	Silence
)

func (k Kind) String() string {
	switch k {
	case AudioFile:
		return "audio"
	case Silence:
		return "silence"
	default:
		return "unknown"
	}
}

// Segment is one placed unit on a track. Source is empty for silence.
type Segment struct {
	Kind   Kind
	Source string
	Start  int64
	Frames int64
}

// End returns the first frame after the segment.
func (s Segment) End() int64 {
	return s.Start + s.Frames
}

// Track is the ordered, contiguous composition of segments for one output.
type Track struct {
	SampleRate int
	Segments   []Segment
	Frames     int64
}

// Seconds returns the total track duration.
func (t Track) Seconds() float64 {
	return framesToSeconds(t.Frames, t.SampleRate)
}

// StartSeconds returns the segment start in seconds at the given rate.
func (s Segment) StartSeconds(sampleRate int) float64 {
	return framesToSeconds(s.Start, sampleRate)
}

// DurationSeconds returns the segment duration in seconds at the given rate.
func (s Segment) DurationSeconds(sampleRate int) float64 {
	return framesToSeconds(s.Frames, sampleRate)
}

// FramesFor converts a duration to a whole number of sample frames,
// round(sampleRate * seconds). Integer arithmetic keeps millisecond
// paddings exact at any rate.
func FramesFor(d time.Duration, sampleRate int) int64 {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	rate := int64(sampleRate)
	whole := int64(d / time.Second)
	frac := int64(d % time.Second)
	return whole*rate + (frac*rate+int64(time.Second)/2)/int64(time.Second)
}

// FramesForSeconds is FramesFor for a real-valued duration in seconds.
func FramesForSeconds(seconds float64, sampleRate int) int64 {
	if seconds <= 0 || sampleRate <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return int64(math.Round(seconds * float64(sampleRate)))
}

func framesToSeconds(frames int64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(frames) / float64(sampleRate)
}

// Milliseconds converts a configured millisecond value to a Duration,
// rounding to the nearest nanosecond. Values that are not finite, negative,
// or longer than MaxPadding fail with ErrInvalidConfiguration.
func Milliseconds(v float64) (time.Duration, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, services.Wrap(services.ErrInvalidConfiguration, "timeline", "padding", fmt.Sprintf("padding must be a finite value >= 0, got %g ms", v), nil)
	}
	if v > float64(MaxPadding/time.Millisecond) {
		return 0, services.Wrap(services.ErrInvalidConfiguration, "timeline", "padding", fmt.Sprintf("padding must be at most %s, got %g ms", MaxPadding, v), nil)
	}
	return time.Duration(math.Round(v * float64(time.Millisecond))), nil
}

// MaxFrames is the frame count of MaxTrack at sampleRate.
func MaxFrames(sampleRate int) int64 {
	return FramesFor(MaxTrack, sampleRate)
}
