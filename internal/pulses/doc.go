// Package pulses defines the pulse shapes used by the device: DRAG Gaussian
// gates, flat-top cosine flux/drive pulses and square readout pulses.
//
// A pulse lives in the operations Dict of a channel and is named after its
// key there. Its parameters are usually references into a pulse set, so
// editing a pulse set amplitude changes every pulse generated from it.
//
// Waveform synthesis is not done here. Constant waveforms are written to the
// QUA config directly; shaped waveforms are written as descriptors (shape
// name plus parameters) and turned into samples by a Synthesizer when one is
// available.
package pulses
