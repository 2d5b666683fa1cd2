// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes ffprobe and returns a Result; helper methods report stream
// counts, whether audio is present, the primary video stream, and the media
// duration. The clip and movie workflows use it to size generated silence
// and blank segments.
package ffprobe
