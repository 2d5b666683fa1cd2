package timeline

import (
	"context"
	"fmt"
	"time"

	"biliwalle/internal/services"
)

// Item is one audio source in playback order. Padding and Placement are only
// read by the per-row policy; a nil Padding means no silence for the row.
type Item struct {
	Source    string
	Padding   *time.Duration
	Placement Placement
}

// Resolver reports the length of a decoded source in sample frames at the
// track's sample rate. Implementations return an error wrapping
// services.ErrSourceNotFound when the source cannot be read.
type Resolver interface {
	Frames(ctx context.Context, source string) (int64, error)
}

// Build places items and silences on one contiguous track. The caller is
// responsible for ordering items; they are laid out exactly as given.
func Build(ctx context.Context, items []Item, policy Policy, sampleRate int, resolver Resolver) (Track, error) {
	if len(items) == 0 {
		return Track{}, services.Wrap(services.ErrInvalidInput, "timeline", "build", "no items to place", nil)
	}
	if sampleRate <= 0 || sampleRate > MaxSampleRate {
		return Track{}, services.Wrap(services.ErrInvalidInput, "timeline", "build", fmt.Sprintf("sample rate must be in 1..%d, got %d", MaxSampleRate, sampleRate), nil)
	}
	if resolver == nil {
		return Track{}, services.Wrap(services.ErrInvalidInput, "timeline", "build", "no source resolver", nil)
	}
	if err := policy.Validate(); err != nil {
		return Track{}, err
	}
	if policy.Kind == PolicyPerRow {
		if err := validateItems(items); err != nil {
			return Track{}, err
		}
	}

	b := &builder{ctx: ctx, rate: sampleRate, limit: MaxFrames(sampleRate), resolver: resolver}
	var err error
	switch policy.Kind {
	case PolicyUniform:
		err = b.uniform(items, policy.Uniform)
	case PolicyPerRow:
		err = b.perRow(items, policy.PerRow)
	}
	if err != nil {
		return Track{}, err
	}
	return Track{SampleRate: sampleRate, Segments: b.segments, Frames: b.cursor}, nil
}

// uniform: optional start silence, then each clip followed by the interval
// padding, except the last which is followed by the end padding.
func (b *builder) uniform(items []Item, p UniformPolicy) error {
	start, interval, end := p.effective()
	if err := b.silence(start); err != nil {
		return err
	}
	last := len(items) - 1
	for i, item := range items {
		if err := b.audio(item.Source); err != nil {
			return err
		}
		gap := interval
		if i == last {
			gap = end
		}
		if err := b.silence(gap); err != nil {
			return err
		}
	}
	return nil
}

// perRow: optional start silence, then each clip with its own silence before
// or after it, then optional end silence.
func (b *builder) perRow(items []Item, p PerRowPolicy) error {
	if err := b.silence(p.Start); err != nil {
		return err
	}
	for _, item := range items {
		if item.Padding == nil {
			if err := b.audio(item.Source); err != nil {
				return err
			}
			continue
		}
		switch item.Placement {
		case PlaceBefore:
			if err := b.silence(*item.Padding); err != nil {
				return err
			}
			if err := b.audio(item.Source); err != nil {
				return err
			}
		case PlaceAfter:
			if err := b.audio(item.Source); err != nil {
				return err
			}
			if err := b.silence(*item.Padding); err != nil {
				return err
			}
		}
	}
	return b.silence(p.End)
}

type builder struct {
	ctx      context.Context
	rate     int
	limit    int64
	resolver Resolver
	segments []Segment
	cursor   int64
}

func (b *builder) audio(source string) error {
	frames, err := b.resolver.Frames(b.ctx, source)
	if err != nil {
		return err
	}
	if frames < 0 {
		return services.Wrap(services.ErrInvalidInput, "timeline", "build", fmt.Sprintf("negative length for %s", source), nil)
	}
	return b.emit(Segment{Kind: AudioFile, Source: source, Frames: frames})
}

// silence emits nothing for durations that round to zero frames.
func (b *builder) silence(d time.Duration) error {
	frames := FramesFor(d, b.rate)
	if frames == 0 {
		return nil
	}
	return b.emit(Segment{Kind: Silence, Frames: frames})
}

// emit appends seg at the cursor. The track may not grow past MaxTrack.
func (b *builder) emit(seg Segment) error {
	if seg.Frames > b.limit-b.cursor {
		return services.Wrap(services.ErrInvalidInput, "timeline", "build",
			fmt.Sprintf("track would exceed %s at %d Hz", MaxTrack, b.rate), nil)
	}
	seg.Start = b.cursor
	b.segments = append(b.segments, seg)
	b.cursor += seg.Frames
	return nil
}

func validateItems(items []Item) error {
	for i, item := range items {
		if item.Padding == nil {
			continue
		}
		if *item.Padding < 0 || *item.Padding > MaxPadding {
			return services.Wrap(services.ErrInvalidConfiguration, "timeline", "build", fmt.Sprintf("item %d (%s): padding must be in 0..%s, got %s", i+1, item.Source, MaxPadding, *item.Padding), nil)
		}
		if _, err := ParsePlacement(string(item.Placement)); err != nil {
			return fmt.Errorf("item %d (%s): %w", i+1, item.Source, err)
		}
	}
	return nil
}
