// Package ffmpeg runs the ffmpeg binary for decoding, encoding, compositing,
// and concatenating stimulus media.
//
// Executor.Run is the single entry point that starts ffmpeg with
// "-progress pipe:2", parses progress blocks from stderr, forwards other
// stderr lines to the component logger at debug level, and wraps failures in
// services.ErrExternalTool with the tail of stderr. Outputs are written to a
// hidden temporary file next to the target and renamed into place, so an
// interrupted run never leaves a partial file that looks finished.
//
// The argument builders (ComposeArgs, ConcatArgs, EncodeArgs) are pure and
// tested without an ffmpeg installation.
package ffmpeg
