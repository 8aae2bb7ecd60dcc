// Package octave models the Octave frequency converter unit: five
// up-converters feeding RF outputs, two down-converters reading RF inputs,
// and the Octave that holds them.
//
// A converter does not store the channel it serves. It scans the tree for
// the IQ channels whose frequency_converter_up or frequency_converter_down
// reference resolves to it and takes the OPX ports from them.
package octave
