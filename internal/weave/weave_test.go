package weave_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"biliwalle/internal/config"
	"biliwalle/internal/logging"
	"biliwalle/internal/protocol"
	"biliwalle/internal/services"
	"biliwalle/internal/stage"
	"biliwalle/internal/testsupport"
	"biliwalle/internal/timeline"
	"biliwalle/internal/weave"
)

// rate 10: one decoded frame per 100ms, two samples per frame
const rate = 10

type fakeDecoder struct {
	frames map[string]int
	err    map[string]error
}

func (f *fakeDecoder) DecodePCM(_ context.Context, path string, _ int) ([]int16, error) {
	name := filepath.Base(path)
	if err := f.err[name]; err != nil {
		return nil, err
	}
	n := f.frames[name]
	if n == 0 {
		n = 10
	}
	samples := make([]int16, n*2)
	for i := range samples {
		samples[i] = 100
	}
	return samples, nil
}

type fakeEncoder struct {
	outputs []string
	lengths map[string]int
}

func (f *fakeEncoder) EncodePCM(_ context.Context, samples []int16, _ int, output string) error {
	if f.lengths == nil {
		f.lengths = make(map[string]int)
	}
	f.outputs = append(f.outputs, filepath.Base(output))
	f.lengths[filepath.Base(output)] = len(samples)
	return os.WriteFile(output, []byte("RIFF"), 0o644)
}

const uniformCSV = "Sentence_id,Block,Condition,Word,Sequence,File,Filename,Additional_padding\n" +
	"2,1,A,cat,2,cat2.wav,s2.wav,0\n" +
	"2,1,A,cat,1,cat1.wav,s2.wav,0\n" +
	"1,1,A,dog,1,dog1.wav,s1.wav,500\n" +
	"1,1,A,dog,2,dog2.wav,s1.wav,500\n"

func newConfig(t *testing.T, csv string, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	opts = append([]testsupport.ConfigOption{testsupport.WithProtocol(csv)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.AudioSetting.SampleRate = rate
	cfg.AudioSetting.StartPadding = 100
	cfg.AudioSetting.IntervalPadding = 200
	cfg.AudioSetting.EndPadding = 100
	cfg.AudioSetting.AdditionalPaddingValueColumn = "Additional_padding"
	return cfg
}

func run(t *testing.T, cfg *config.Config, decoder *fakeDecoder, encoder *fakeEncoder) (stage.Summary, error) {
	t.Helper()
	w := weave.New(cfg, decoder, encoder, logging.NewNop())
	return w.Run(context.Background(), nil)
}

func names(results []stage.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = filepath.Base(r.Output)
	}
	return out
}

func TestRunWritesOneFilePerGroupInKeyOrder(t *testing.T) {
	cfg := newConfig(t, uniformCSV, testsupport.WithAudioFiles("cat1.wav", "cat2.wav", "dog1.wav", "dog2.wav"))
	encoder := &fakeEncoder{}

	summary, err := run(t, cfg, &fakeDecoder{}, encoder)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !slices.Equal(encoder.outputs, []string{"s1.wav", "s2.wav"}) {
		t.Fatalf("outputs = %v", encoder.outputs)
	}
	if len(summary.Written) != 2 || summary.Written[0].Bytes != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// s1: 1+5 start, 10 clip, 2 interval, 10 clip, 1 end = 29 frames
	if got := encoder.lengths["s1.wav"]; got != 29*2 {
		t.Fatalf("s1 samples = %d, want %d", got, 29*2)
	}
	// s2: no additional padding
	if got := encoder.lengths["s2.wav"]; got != 24*2 {
		t.Fatalf("s2 samples = %d, want %d", got, 24*2)
	}
}

func TestRunSkipsExistingOutputsWithoutReprocess(t *testing.T) {
	cfg := newConfig(t, uniformCSV,
		testsupport.WithAudioFiles("cat1.wav", "cat2.wav", "dog1.wav", "dog2.wav"),
		testsupport.WithReprocess(false),
	)
	testsupport.WriteFile(t, filepath.Join(cfg.Data.OutDir, "s1.wav"), 8)
	decoder := &fakeDecoder{err: map[string]error{
		"dog1.wav": errors.New("skipped groups must not be decoded"),
	}}
	encoder := &fakeEncoder{}

	summary, err := run(t, cfg, decoder, encoder)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !slices.Equal(names(summary.Skipped), []string{"s1.wav"}) || !slices.Equal(encoder.outputs, []string{"s2.wav"}) {
		t.Fatalf("skipped=%v encoded=%v", names(summary.Skipped), encoder.outputs)
	}
}

func TestRunIsolatesMissingSource(t *testing.T) {
	cfg := newConfig(t, uniformCSV, testsupport.WithAudioFiles("cat1.wav", "cat2.wav", "dog1.wav"))
	encoder := &fakeEncoder{}

	summary, err := run(t, cfg, &fakeDecoder{}, encoder)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Failed) != 1 || !errors.Is(summary.Failed[0].Err, services.ErrSourceNotFound) {
		t.Fatalf("expected one missing-source failure, got %+v", summary.Failed)
	}
	if !slices.Equal(encoder.outputs, []string{"s2.wav"}) {
		t.Fatalf("outputs = %v", encoder.outputs)
	}
	if _, err := os.Stat(filepath.Join(cfg.Data.OutDir, "s1.wav")); !os.IsNotExist(err) {
		t.Fatalf("expected no output for failed group, stat err = %v", err)
	}
}

func TestRunIsolatesEmptyGroup(t *testing.T) {
	csv := "Sentence_id,Block,Condition,Word,Sequence,File,Filename,Additional_padding\n" +
		"1,1,A,dog,1,,s1.wav,0\n" +
		"2,1,A,cat,1,cat1.wav,s2.wav,0\n"
	cfg := newConfig(t, csv, testsupport.WithAudioFiles("cat1.wav"))

	summary, err := run(t, cfg, &fakeDecoder{}, &fakeEncoder{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Failed) != 1 || !errors.Is(summary.Failed[0].Err, services.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput failure, got %+v", summary.Failed)
	}
	if len(summary.Written) != 1 {
		t.Fatalf("expected the other group written, got %+v", summary.Written)
	}
}

func TestRunIsolatesDecoderFailure(t *testing.T) {
	cfg := newConfig(t, uniformCSV, testsupport.WithAudioFiles("cat1.wav", "cat2.wav", "dog1.wav", "dog2.wav"))
	decoder := &fakeDecoder{err: map[string]error{
		"cat2.wav": services.Wrap(services.ErrExternalTool, "ffmpeg", "run", "invalid data", nil),
	}}

	summary, err := run(t, cfg, decoder, &fakeEncoder{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Failed) != 1 || len(summary.Written) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunAbortsOnMalformedPaddingBeforeWriting(t *testing.T) {
	csv := "Sentence_id,Block,Condition,Word,Sequence,File,Filename,Additional_padding\n" +
		"1,1,A,dog,1,dog1.wav,s1.wav,0\n" +
		"2,1,A,cat,1,cat1.wav,s2.wav,lots\n"
	cfg := newConfig(t, csv, testsupport.WithAudioFiles("cat1.wav", "dog1.wav"))
	encoder := &fakeEncoder{}

	_, err := run(t, cfg, &fakeDecoder{}, encoder)
	if !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if len(encoder.outputs) != 0 {
		t.Fatalf("expected nothing written, got %v", encoder.outputs)
	}
}

func TestRunRejectsOversizedPaddingBeforeWriting(t *testing.T) {
	csv := "Sentence_id,Block,Condition,Word,Sequence,File,Filename,Additional_padding\n" +
		"1,1,A,dog,1,dog1.wav,s1.wav,9e12\n" +
		"2,1,A,cat,1,cat1.wav,s2.wav,0\n"
	cfg := newConfig(t, csv, testsupport.WithAudioFiles("cat1.wav", "dog1.wav"))
	cfg.AudioSetting.SampleRate = 44100
	encoder := &fakeEncoder{}

	_, err := run(t, cfg, &fakeDecoder{}, encoder)
	if !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if len(encoder.outputs) != 0 {
		t.Fatalf("expected nothing written, got %v", encoder.outputs)
	}
}

func TestRunIsolatesOverlongTrack(t *testing.T) {
	cfg := newConfig(t, uniformCSV, testsupport.WithAudioFiles("cat1.wav", "cat2.wav", "dog1.wav", "dog2.wav"))
	// two hours at rate 10 is 72000 frames
	decoder := &fakeDecoder{frames: map[string]int{"dog1.wav": 80000}}
	encoder := &fakeEncoder{}

	summary, err := run(t, cfg, decoder, encoder)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Failed) != 1 || !errors.Is(summary.Failed[0].Err, services.ErrInvalidInput) {
		t.Fatalf("expected one InvalidInput failure, got %+v", summary.Failed)
	}
	if !slices.Equal(encoder.outputs, []string{"s2.wav"}) {
		t.Fatalf("outputs = %v", encoder.outputs)
	}
}

func TestRunRequiresColumns(t *testing.T) {
	cfg := newConfig(t, "Sentence_id,Block,Condition,Word,File,Filename\n1,1,A,dog,a.wav,s1.wav\n")
	if _, err := run(t, cfg, &fakeDecoder{}, &fakeEncoder{}); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected missing Sequence column error, got %v", err)
	}
}

func TestRunStopsWhenCanceled(t *testing.T) {
	cfg := newConfig(t, uniformCSV, testsupport.WithAudioFiles("cat1.wav", "cat2.wav", "dog1.wav", "dog2.wav"))
	encoder := &fakeEncoder{}
	ctx, cancel := context.WithCancel(context.Background())

	w := weave.New(cfg, &fakeDecoder{}, encoder, logging.NewNop())
	summary, err := w.Run(ctx, func(index, total int, _ stage.Result) {
		if index == 1 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(encoder.outputs) != 1 || len(summary.Written) != 1 {
		t.Fatalf("expected exactly one group before cancel, got %v", encoder.outputs)
	}
}

func TestBuildPlansPerRow(t *testing.T) {
	csv := "Sentence_id,Block,Condition,Word,Sequence,File,Filename,Padding,Where\n" +
		"1,1,A,dog,2,b.wav,s1.wav,,\n" +
		"1,1,A,dog,1,a.wav,s1.wav,500,after\n" +
		"1,1,A,dog,3,c.wav,s1.wav,250,\n"
	cfg := newConfig(t, csv)
	cfg.AudioSetting.Policy = "per_row"
	cfg.AudioSetting.PaddingValueColumn = "Padding"
	cfg.AudioSetting.PaddingLocationColumn = "Where"
	cfg.AudioSetting.PaddingLocation = "before"

	table, err := protocol.Read(cfg.Data.ProtocolCSV)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	plans, err := weave.BuildPlans(cfg, table)
	if err != nil {
		t.Fatalf("BuildPlans returned error: %v", err)
	}
	if len(plans) != 1 || plans[0].Policy.Kind != timeline.PolicyPerRow {
		t.Fatalf("unexpected plans: %+v", plans)
	}
	items := plans[0].Items
	if len(items) != 3 || items[0].Source != "a.wav" || items[1].Source != "b.wav" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if *items[0].Padding != 500*time.Millisecond || items[0].Placement != timeline.PlaceAfter {
		t.Fatalf("item a = %+v", items[0])
	}
	if items[1].Padding != nil {
		t.Fatalf("expected empty padding cell to mean no padding, got %v", *items[1].Padding)
	}
	if *items[2].Padding != 250*time.Millisecond || items[2].Placement != timeline.PlaceBefore {
		t.Fatalf("item c = %+v", items[2])
	}

	badCSV := "Sentence_id,Block,Condition,Word,Sequence,File,Filename,Padding,Where\n" +
		"1,1,A,dog,1,a.wav,s1.wav,500,sideways\n"
	testsupport.WriteText(t, cfg.Data.ProtocolCSV, badCSV)
	table, err = protocol.Read(cfg.Data.ProtocolCSV)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if _, err := weave.BuildPlans(cfg, table); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected unknown placement to be rejected, got %v", err)
	}
}

func TestBuildPlansRejectsNegativePadding(t *testing.T) {
	csv := "Sentence_id,Block,Condition,Word,Sequence,File,Filename,Additional_padding\n" +
		"1,1,A,dog,1,a.wav,s1.wav,-5\n"
	cfg := newConfig(t, csv)
	table, err := protocol.Read(cfg.Data.ProtocolCSV)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if _, err := weave.BuildPlans(cfg, table); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := newConfig(t, uniformCSV, testsupport.WithStubbedBinaries("ffmpeg"))
	w := weave.New(cfg, &fakeDecoder{}, &fakeEncoder{}, logging.NewNop())
	if h := w.HealthCheck(context.Background()); !h.Ready {
		t.Fatalf("expected ready, got %+v", h)
	}
	cfg.Data.AudioDir = filepath.Join(t.TempDir(), "missing")
	if h := w.HealthCheck(context.Background()); h.Ready {
		t.Fatal("expected missing audio dir to fail the health check")
	}
}
