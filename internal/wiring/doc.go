// Package wiring records which controller ports feed which lines of the
// device: IQ drive lines, readout feed lines and single-ended flux lines.
//
// Ports are (controller, number) pairs and are written to JSON as
// two-element arrays, e.g. ["con1", 3]. Channel fields elsewhere in the tree
// reference them by path, for example `#/wiring/drive_lines/q1/port_I`.
package wiring
