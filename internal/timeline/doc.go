// Package timeline lays out audio clips and generated silence on a single
// contiguous track.
//
// Build is a pure function of its inputs: it asks a Resolver for the length
// of each source, validates the padding policy, and appends every segment at
// a running cursor. Positions are counted in sample frames at the track's
// sample rate so that starts and durations add up exactly; the Seconds helpers
// expose the real-valued view.
//
// Two padding policies exist as variants of Policy:
//   - Uniform: fixed start, interval, and end padding, plus an optional
//     additional amount added to one of those three locations.
//   - PerRow: every item carries its own optional padding and a placement
//     (before or after its audio); start and end padding apply once.
//
// Decoding sources and writing the mixed result are left to the audio
// package.
package timeline
