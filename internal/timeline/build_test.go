package timeline_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"biliwalle/internal/services"
	"biliwalle/internal/timeline"
)

const rate = 44100

type fakeResolver struct {
	seconds map[string]float64
	calls   int
}

func (f *fakeResolver) Frames(_ context.Context, source string) (int64, error) {
	f.calls++
	secs, ok := f.seconds[source]
	if !ok {
		return 0, services.Wrap(services.ErrSourceNotFound, "test", "resolve", source, nil)
	}
	return timeline.FramesForSeconds(secs, rate), nil
}

type want struct {
	kind  timeline.Kind
	start float64
	dur   float64
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func pad(d time.Duration) *time.Duration { return &d }

func assertSegments(t *testing.T, track timeline.Track, expected []want) {
	t.Helper()
	if len(track.Segments) != len(expected) {
		t.Fatalf("got %d segments, want %d: %+v", len(track.Segments), len(expected), track.Segments)
	}
	for i, w := range expected {
		seg := track.Segments[i]
		if seg.Kind != w.kind {
			t.Fatalf("segment %d kind = %s, want %s", i, seg.Kind, w.kind)
		}
		if got := seg.StartSeconds(track.SampleRate); math.Abs(got-w.start) > 1e-9 {
			t.Fatalf("segment %d start = %v, want %v", i, got, w.start)
		}
		if got := seg.DurationSeconds(track.SampleRate); math.Abs(got-w.dur) > 1e-9 {
			t.Fatalf("segment %d duration = %v, want %v", i, got, w.dur)
		}
	}
}

func assertContiguous(t *testing.T, track timeline.Track) {
	t.Helper()
	var cursor, sum int64
	for i, seg := range track.Segments {
		if seg.Start != cursor {
			t.Fatalf("segment %d starts at %d, want %d", i, seg.Start, cursor)
		}
		if seg.Start < 0 || seg.Frames < 0 {
			t.Fatalf("segment %d has negative placement: %+v", i, seg)
		}
		cursor = seg.End()
		sum += seg.Frames
	}
	if track.Frames != cursor || track.Frames != sum {
		t.Fatalf("track frames = %d, want end %d and sum %d", track.Frames, cursor, sum)
	}
}

func TestBuildUniformAdditionalAtStart(t *testing.T) {
	resolver := &fakeResolver{seconds: map[string]float64{"a.wav": 2.0, "b.wav": 3.0}}
	policy := timeline.Uniform(timeline.UniformPolicy{
		Start:              ms(1000),
		Interval:           ms(500),
		End:                ms(1000),
		Additional:         ms(500),
		AdditionalLocation: timeline.LocationStart,
	})
	items := []timeline.Item{{Source: "a.wav"}, {Source: "b.wav"}}

	track, err := timeline.Build(context.Background(), items, policy, rate, resolver)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	assertSegments(t, track, []want{
		{timeline.Silence, 0, 1.5},
		{timeline.AudioFile, 1.5, 2.0},
		{timeline.Silence, 3.5, 0.5},
		{timeline.AudioFile, 4.0, 3.0},
		{timeline.Silence, 7.0, 1.0},
	})
	if track.Seconds() != 8.0 {
		t.Fatalf("total = %v, want 8.0", track.Seconds())
	}
	if track.Segments[1].Source != "a.wav" || track.Segments[3].Source != "b.wav" {
		t.Fatalf("unexpected sources: %+v", track.Segments)
	}
	assertContiguous(t, track)
}

func TestBuildUniformAdditionalLocations(t *testing.T) {
	resolver := &fakeResolver{seconds: map[string]float64{"a": 1, "b": 1, "c": 1}}
	items := []timeline.Item{{Source: "a"}, {Source: "b"}, {Source: "c"}}
	base := timeline.UniformPolicy{Start: ms(100), Interval: ms(200), End: ms(300), Additional: ms(1000)}

	tests := []struct {
		location timeline.Location
		total    float64
		first    float64
		gap      float64
		tail     float64
	}{
		{timeline.LocationStart, 3 + 1.1 + 0.4 + 0.3, 1.1, 0.2, 0.3},
		{timeline.LocationMiddle, 3 + 0.1 + 2.4 + 0.3, 0.1, 1.2, 0.3},
		{timeline.LocationEnd, 3 + 0.1 + 0.4 + 1.3, 0.1, 0.2, 1.3},
	}
	for _, tt := range tests {
		p := base
		p.AdditionalLocation = tt.location
		track, err := timeline.Build(context.Background(), items, timeline.Uniform(p), rate, resolver)
		if err != nil {
			t.Fatalf("%s: Build returned error: %v", tt.location, err)
		}
		assertContiguous(t, track)
		if math.Abs(track.Seconds()-tt.total) > 1e-9 {
			t.Fatalf("%s: total = %v, want %v", tt.location, track.Seconds(), tt.total)
		}
		segs := track.Segments
		if got := segs[0].DurationSeconds(rate); math.Abs(got-tt.first) > 1e-9 {
			t.Fatalf("%s: start padding = %v, want %v", tt.location, got, tt.first)
		}
		if got := segs[2].DurationSeconds(rate); math.Abs(got-tt.gap) > 1e-9 {
			t.Fatalf("%s: interval padding = %v, want %v", tt.location, got, tt.gap)
		}
		if got := segs[len(segs)-1].DurationSeconds(rate); math.Abs(got-tt.tail) > 1e-9 {
			t.Fatalf("%s: end padding = %v, want %v", tt.location, got, tt.tail)
		}
	}
}

func TestBuildUniformSkipsZeroPadding(t *testing.T) {
	resolver := &fakeResolver{seconds: map[string]float64{"a": 1, "b": 2}}
	items := []timeline.Item{{Source: "a"}, {Source: "b"}}

	track, err := timeline.Build(context.Background(), items, timeline.Uniform(timeline.UniformPolicy{}), rate, resolver)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	assertSegments(t, track, []want{
		{timeline.AudioFile, 0, 1},
		{timeline.AudioFile, 1, 2},
	})
}

func TestBuildPerRow(t *testing.T) {
	resolver := &fakeResolver{seconds: map[string]float64{"one.wav": 1.0, "two.wav": 1.0}}
	policy := timeline.PerRow(timeline.PerRowPolicy{Start: 0, End: ms(200)})
	items := []timeline.Item{
		{Source: "one.wav", Padding: pad(ms(500)), Placement: timeline.PlaceBefore},
		{Source: "two.wav"},
	}

	track, err := timeline.Build(context.Background(), items, policy, rate, resolver)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	assertSegments(t, track, []want{
		{timeline.Silence, 0, 0.5},
		{timeline.AudioFile, 0.5, 1.0},
		{timeline.AudioFile, 1.5, 1.0},
		{timeline.Silence, 2.5, 0.2},
	})
	if math.Abs(track.Seconds()-2.7) > 1e-9 {
		t.Fatalf("total = %v, want 2.7", track.Seconds())
	}
	assertContiguous(t, track)
}

func TestBuildPerRowAfterPlacementAndStartPadding(t *testing.T) {
	resolver := &fakeResolver{seconds: map[string]float64{"x": 0.25}}
	policy := timeline.PerRow(timeline.PerRowPolicy{Start: ms(100)})
	items := []timeline.Item{{Source: "x", Padding: pad(ms(750)), Placement: timeline.PlaceAfter}}

	track, err := timeline.Build(context.Background(), items, policy, rate, resolver)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	assertSegments(t, track, []want{
		{timeline.Silence, 0, 0.1},
		{timeline.AudioFile, 0.1, 0.25},
		{timeline.Silence, 0.35, 0.75},
	})
}

func TestBuildSilenceFrameCountIsRounded(t *testing.T) {
	resolver := &fakeResolver{seconds: map[string]float64{"a": 1}}
	policy := timeline.Uniform(timeline.UniformPolicy{Start: 1500 * time.Microsecond})

	track, err := timeline.Build(context.Background(), []timeline.Item{{Source: "a"}}, policy, 1000, resolver)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got := track.Segments[0].Frames; got != 2 {
		t.Fatalf("silence frames = %d, want round(1.5) = 2", got)
	}
}

func TestBuildRejectsEmptyItems(t *testing.T) {
	_, err := timeline.Build(context.Background(), nil, timeline.Uniform(timeline.UniformPolicy{}), rate, &fakeResolver{})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildRejectsInvalidSampleRate(t *testing.T) {
	items := []timeline.Item{{Source: "a"}}
	_, err := timeline.Build(context.Background(), items, timeline.Uniform(timeline.UniformPolicy{}), 0, &fakeResolver{})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildRejectsTrackLongerThanLimit(t *testing.T) {
	// each item is an hour of audio plus a full hour of interval padding
	resolver := &fakeResolver{seconds: map[string]float64{"a": 3600, "b": 3600}}
	items := []timeline.Item{{Source: "a"}, {Source: "b"}}
	policy := timeline.Uniform(timeline.UniformPolicy{Interval: timeline.MaxPadding})

	_, err := timeline.Build(context.Background(), items, policy, rate, resolver)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := timeline.Build(context.Background(), items[:1], policy, timeline.MaxSampleRate+1, resolver); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for sample rate above the limit, got %v", err)
	}
}

func TestMillisecondsBounds(t *testing.T) {
	d, err := timeline.Milliseconds(1.5)
	if err != nil || d != 1500*time.Microsecond {
		t.Fatalf("Milliseconds(1.5) = %v, %v", d, err)
	}
	if d, err := timeline.Milliseconds(float64(timeline.MaxPadding / time.Millisecond)); err != nil || d != timeline.MaxPadding {
		t.Fatalf("Milliseconds(max) = %v, %v", d, err)
	}
	for _, v := range []float64{-1, 9e12, math.Inf(1), math.NaN()} {
		if _, err := timeline.Milliseconds(v); !errors.Is(err, services.ErrInvalidConfiguration) {
			t.Fatalf("Milliseconds(%g): expected ErrInvalidConfiguration, got %v", v, err)
		}
	}
	if got := timeline.MaxFrames(10); got != 72000 {
		t.Fatalf("MaxFrames(10) = %d, want 72000", got)
	}
}

func TestBuildRejectsInvalidPolicyBeforeResolving(t *testing.T) {
	items := []timeline.Item{{Source: "a"}, {Source: "b"}}
	tests := []struct {
		name   string
		policy timeline.Policy
		items  []timeline.Item
	}{
		{"negative start", timeline.Uniform(timeline.UniformPolicy{Start: -ms(1)}), items},
		{"negative additional", timeline.Uniform(timeline.UniformPolicy{Additional: -ms(1)}), items},
		{"unknown location", timeline.Uniform(timeline.UniformPolicy{AdditionalLocation: "sideways"}), items},
		{"negative per-row end", timeline.PerRow(timeline.PerRowPolicy{End: -ms(5)}), items},
		{"unknown kind", timeline.Policy{Kind: "v3"}, items},
		{"negative row padding", timeline.PerRow(timeline.PerRowPolicy{}), []timeline.Item{
			{Source: "a"},
			{Source: "b", Padding: pad(-ms(10)), Placement: timeline.PlaceAfter},
		}},
		{"oversized interval", timeline.Uniform(timeline.UniformPolicy{Interval: timeline.MaxPadding + time.Second}), items},
		{"oversized row padding", timeline.PerRow(timeline.PerRowPolicy{}), []timeline.Item{
			{Source: "a", Padding: pad(timeline.MaxPadding + time.Second), Placement: timeline.PlaceBefore},
		}},
		{"unknown placement", timeline.PerRow(timeline.PerRowPolicy{}), []timeline.Item{
			{Source: "a", Padding: pad(ms(10)), Placement: "during"},
		}},
	}
	for _, tt := range tests {
		resolver := &fakeResolver{seconds: map[string]float64{"a": 1, "b": 1}}
		_, err := timeline.Build(context.Background(), tt.items, tt.policy, rate, resolver)
		if !errors.Is(err, services.ErrInvalidConfiguration) {
			t.Fatalf("%s: expected ErrInvalidConfiguration, got %v", tt.name, err)
		}
		if resolver.calls != 0 {
			t.Fatalf("%s: resolver called %d times before validation failed", tt.name, resolver.calls)
		}
	}
}

func TestBuildMissingSource(t *testing.T) {
	resolver := &fakeResolver{seconds: map[string]float64{"a": 1}}
	items := []timeline.Item{{Source: "a"}, {Source: "missing.wav"}}

	_, err := timeline.Build(context.Background(), items, timeline.Uniform(timeline.UniformPolicy{}), rate, resolver)
	if !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestBuildIsDeterministicAndContiguous(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(6)
		resolver := &fakeResolver{seconds: map[string]float64{}}
		items := make([]timeline.Item, n)
		for i := range items {
			name := string(rune('a' + i))
			resolver.seconds[name] = rng.Float64() * 4
			items[i] = timeline.Item{Source: name}
			if rng.Intn(2) == 0 {
				items[i].Padding = pad(ms(rng.Intn(2000)))
				items[i].Placement = []timeline.Placement{timeline.PlaceBefore, timeline.PlaceAfter}[rng.Intn(2)]
			}
		}
		policies := []timeline.Policy{
			timeline.Uniform(timeline.UniformPolicy{
				Start:              ms(rng.Intn(1000)),
				Interval:           ms(rng.Intn(1000)),
				End:                ms(rng.Intn(1000)),
				Additional:         ms(rng.Intn(1000)),
				AdditionalLocation: []timeline.Location{timeline.LocationStart, timeline.LocationMiddle, timeline.LocationEnd}[rng.Intn(3)],
			}),
			timeline.PerRow(timeline.PerRowPolicy{Start: ms(rng.Intn(1000)), End: ms(rng.Intn(1000))}),
		}
		for _, policy := range policies {
			first, err := timeline.Build(context.Background(), items, policy, rate, resolver)
			if err != nil {
				t.Fatalf("round %d: Build returned error: %v", round, err)
			}
			second, err := timeline.Build(context.Background(), items, policy, rate, resolver)
			if err != nil {
				t.Fatalf("round %d: second Build returned error: %v", round, err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("round %d: builds differ:\n%+v\n%+v", round, first, second)
			}
			assertContiguous(t, first)
			audio := 0
			for _, seg := range first.Segments {
				if seg.Kind == timeline.AudioFile {
					if seg.Source != items[audio].Source {
						t.Fatalf("round %d: audio order broken at %d", round, audio)
					}
					audio++
				}
			}
			if audio != n {
				t.Fatalf("round %d: placed %d audio segments, want %d", round, audio, n)
			}
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if p, err := timeline.ParsePlacement(" After "); err != nil || p != timeline.PlaceAfter {
		t.Fatalf("ParsePlacement = %q, %v", p, err)
	}
	if _, err := timeline.ParsePlacement(""); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected empty placement to be rejected, got %v", err)
	}
	if l, err := timeline.ParseLocation("interval"); err != nil || l != timeline.LocationMiddle {
		t.Fatalf("ParseLocation(interval) = %q, %v", l, err)
	}
	if k, err := timeline.ParsePolicyKind("per-row"); err != nil || k != timeline.PolicyPerRow {
		t.Fatalf("ParsePolicyKind(per-row) = %q, %v", k, err)
	}
	if _, err := timeline.ParsePolicyKind("v9"); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected unknown policy to be rejected, got %v", err)
	}
}
