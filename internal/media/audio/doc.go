// Package audio decodes protocol audio sources and mixes timeline tracks.
//
// A ClipSet is scoped to one output: it resolves source names against the
// audio directory, decodes each file once through a Decoder, reports clip
// lengths to the timeline builder, and drops every buffer on Close. Mix
// renders a timeline.Track into a single interleaved stereo int16 buffer.
package audio
