// Package roots provides the top-level component of a device configuration.
//
// A Root owns the lab information, network and wiring descriptions, the
// Octaves and the qubits. It generates the device config from the tree,
// opens a machine on the orchestration service on first use and keeps it
// until CloseQM, and saves itself split over a few JSON documents so the
// slowly changing parts (wiring, network, information) live apart from the
// calibrated state.
//
// GenerateEmptySingleFeedline builds a starting configuration from wiring,
// network and information alone: one Octave, one readout line shared by all
// qubits and one drive converter per qubit, with every port and frequency
// converter bound by reference so later edits to the wiring propagate.
package roots
