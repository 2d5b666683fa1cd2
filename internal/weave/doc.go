// Package weave builds one audio file per protocol group.
//
// A run has two phases. Planning reads the whole protocol, groups and orders
// the rows, and turns every padding cell into a typed timeline item; any
// malformed value aborts before a single file is written. Execution then
// walks the plans in order, skipping outputs that already exist when
// reprocess is off, and for each group decodes the sources, lays out the
// timeline, mixes it, and encodes the result. Failures tied to one group's
// data are logged and the run moves on.
package weave
