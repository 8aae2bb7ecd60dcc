// Package channels provides the output and input channels pulses are played
// on: single-ended channels (flux lines), IQ channels (drive lines) and IQ
// channels with a readout input (resonators).
//
// Channels with an Octave attached reference their frequency converters by
// path. The converter finds its channel again by scanning the tree, so
// neither side stores a back pointer.
package channels
