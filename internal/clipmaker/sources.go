package clipmaker

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"biliwalle/internal/services"
	"biliwalle/internal/timeline"
)

var digits = regexp.MustCompile(`[0-9]+`)

// audioSource is a row's audio: a file, or generated silence when Path is
// empty.
type audioSource struct {
	Path     string
	Duration time.Duration
}

// resolveAudio interprets an Audio_file cell. Names containing "silence"
// (any case) carry their length in seconds as the first number, e.g.
// "silence_3s". Other names are glob patterns inside the audio directory;
// the first match wins.
func (m *Maker) resolveAudio(ctx context.Context, name string) (audioSource, error) {
	if name == "" {
		return audioSource{}, services.Wrap(services.ErrInvalidInput, "clips", "audio", fmt.Sprintf("empty %s cell", ColumnAudio), nil)
	}
	if folded := cases.Fold().String(name); strings.Contains(folded, "silence") {
		match := digits.FindString(folded)
		if match == "" {
			return audioSource{}, services.Wrap(services.ErrInvalidInput, "clips", "audio",
				fmt.Sprintf("silence token %q has no duration in seconds", name), nil)
		}
		secs, err := strconv.Atoi(match)
		if err != nil || secs <= 0 || time.Duration(secs) > timeline.MaxPadding/time.Second {
			return audioSource{}, services.Wrap(services.ErrInvalidInput, "clips", "audio",
				fmt.Sprintf("silence token %q must last between 1s and %s", name, timeline.MaxPadding), err)
		}
		return audioSource{Duration: time.Duration(secs) * time.Second}, nil
	}

	pattern := filepath.Join(m.cfg.Data.AudioDir, name)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return audioSource{}, services.Wrap(services.ErrInvalidInput, "clips", "audio", fmt.Sprintf("bad pattern %q", pattern), err)
	}
	if len(matches) == 0 {
		return audioSource{}, services.Wrap(services.ErrSourceNotFound, "clips", "audio",
			fmt.Sprintf("%s not found in %s", name, m.cfg.Data.AudioDir), nil)
	}
	path := matches[0]
	info, err := m.prober.Inspect(ctx, path)
	if err != nil {
		return audioSource{}, err
	}
	duration := info.Duration()
	if duration <= 0 {
		return audioSource{}, services.Wrap(services.ErrExternalTool, "clips", "audio", fmt.Sprintf("%s reports no duration", path), nil)
	}
	return audioSource{Path: path, Duration: duration}, nil
}

// findObject resolves an object prefix to exactly one file in the video
// directory.
func (m *Maker) findObject(prefix, suffix string) (string, error) {
	if prefix == "" {
		return "", services.Wrap(services.ErrInvalidInput, "clips", "object", "empty object cell", nil)
	}
	pattern := filepath.Join(m.cfg.Data.VideoDir, prefix+suffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "clips", "object", fmt.Sprintf("bad pattern %q", pattern), err)
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", services.Wrap(services.ErrSourceNotFound, "clips", "object", fmt.Sprintf("file pattern %s matches nothing", pattern), nil)
	default:
		return "", services.Wrap(services.ErrAmbiguousMatch, "clips", "object",
			fmt.Sprintf("file pattern %s matches %d files; make sure it is unique", pattern, len(matches)), nil)
	}
}

// Extensions missing from minimal mime tables.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// isStill reports whether path is an image (true) or a video (false).
func isStill(path string) (bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	typ, ok := mediaTypes[ext]
	if !ok {
		typ = mime.TypeByExtension(ext)
	}
	switch {
	case strings.HasPrefix(typ, "image/"):
		return true, nil
	case strings.HasPrefix(typ, "video/"):
		return false, nil
	default:
		return false, services.Wrap(services.ErrInvalidInput, "clips", "object",
			fmt.Sprintf("%s is not a video or an image", filepath.Base(path)), nil)
	}
}
