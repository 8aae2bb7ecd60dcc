// Package pulseset groups the drive pulses of a qubit into named gate sets.
//
// A pulse set owns the shared calibration parameters (amplitudes, length,
// phases) and populates its channel with one pulse per gate. The pulses hold
// references back into the set, so a calibration written to the set shows up
// in every gate at the next config generation.
package pulseset
