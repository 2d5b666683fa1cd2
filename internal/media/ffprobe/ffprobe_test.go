package ffprobe_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"biliwalle/internal/media/ffprobe"
	"biliwalle/internal/services"
	"biliwalle/internal/testsupport"
)

func TestResultHelpers(t *testing.T) {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 640, Height: 480},
			{CodecType: "audio"},
		},
		Format: ffprobe.Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 || !result.HasAudio() {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.Duration() != 123450*time.Millisecond {
		t.Fatalf("unexpected Duration: %v", result.Duration())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	video, ok := result.PrimaryVideo()
	if !ok || video.Width != 640 {
		t.Fatalf("unexpected primary video: %+v %v", video, ok)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := ffprobe.Result{
		Format: ffprobe.Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.Duration() != 0 {
		t.Fatalf("expected zero Duration, got %v", result.Duration())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.HasAudio() {
		t.Fatal("expected no audio")
	}
	if _, ok := result.PrimaryVideo(); ok {
		t.Fatal("expected no video stream")
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{{Duration: "1.5"}, {Duration: "2.25"}},
		Format:  ffprobe.Format{Duration: "N/A"},
	}
	if result.DurationSeconds() != 2.25 {
		t.Fatalf("expected longest stream duration, got %v", result.DurationSeconds())
	}
}

func TestInspectParsesJSON(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "bin")
	testsupport.StubBinary(t, bin, "ffprobe", `cat <<'JSON'
{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"44100","channels":2}],
 "format":{"filename":"a.wav","nb_streams":1,"duration":"2.000000","size":"352844"}}
JSON
`)
	result, err := ffprobe.Prober("ffprobe").Inspect(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.Duration() != 2*time.Second || !result.HasAudio() || result.Streams[0].Channels != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInspectErrors(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "bin")
	testsupport.StubBinary(t, bin, "ffprobe", "echo 'a.wav: Invalid data found' >&2\nexit 1\n")

	_, err := ffprobe.Inspect(context.Background(), "ffprobe", "a.wav")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, err := ffprobe.Inspect(context.Background(), "ffprobe", " "); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty path, got %v", err)
	}
}
