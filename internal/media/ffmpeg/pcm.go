package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"biliwalle/internal/logging"
	"biliwalle/internal/services"
)

// Channels is the channel count of every PCM buffer exchanged with ffmpeg.
const Channels = 2

// DecodePCM decodes any ffmpeg-readable file to interleaved stereo
// little-endian int16 samples at sampleRate.
func (e *Executor) DecodePCM(ctx context.Context, path string, sampleRate int) ([]int16, error) {
	if sampleRate <= 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "ffmpeg", "decode", fmt.Sprintf("sample rate must be positive, got %d", sampleRate), nil)
	}
	var out bytes.Buffer
	err := e.Run(ctx, RunOptions{
		Args: []string{
			"-i", path,
			"-vn",
			"-f", "s16le",
			"-acodec", "pcm_s16le",
			"-ar", strconv.Itoa(sampleRate),
			"-ac", strconv.Itoa(Channels),
			"pipe:1",
		},
		Stdout: &out,
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	samples := BytesToSamples(out.Bytes())
	e.logger.Debug("decoded audio",
		logging.String("source", path),
		logging.Int("samples", len(samples)),
	)
	return samples, nil
}

// EncodePCM writes interleaved stereo samples to output. The container and
// codec follow the output extension.
func (e *Executor) EncodePCM(ctx context.Context, samples []int16, sampleRate int, output string) error {
	if sampleRate <= 0 {
		return services.Wrap(services.ErrInvalidInput, "ffmpeg", "encode", fmt.Sprintf("sample rate must be positive, got %d", sampleRate), nil)
	}
	return writeAtomic(output, func(tmp string) error {
		return e.Run(ctx, RunOptions{
			Args:  EncodeArgs(sampleRate, tmp),
			Stdin: bytes.NewReader(SamplesToBytes(samples)),
		})
	})
}

// EncodeArgs builds the arguments that read raw PCM from stdin and write
// output.
func EncodeArgs(sampleRate int, output string) []string {
	args := []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(Channels),
		"-i", "pipe:0",
	}
	args = append(args, AudioCodecArgs(output)...)
	return append(args, "-ar", strconv.Itoa(sampleRate), output)
}

// AudioCodecArgs picks an audio codec for the output extension. Unknown
// extensions are left to ffmpeg's defaults.
func AudioCodecArgs(output string) []string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".wav":
		return []string{"-c:a", "pcm_s16le"}
	case ".mp3":
		return []string{"-c:a", "libmp3lame", "-q:a", "2"}
	case ".m4a", ".aac", ".mp4":
		return []string{"-c:a", "aac", "-b:a", "192k"}
	case ".flac":
		return []string{"-c:a", "flac"}
	case ".ogg", ".oga":
		return []string{"-c:a", "libvorbis", "-q:a", "5"}
	case ".opus":
		return []string{"-c:a", "libopus", "-b:a", "128k"}
	default:
		return nil
	}
}

// BytesToSamples converts little-endian bytes to int16 samples. A trailing
// odd byte is dropped.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
