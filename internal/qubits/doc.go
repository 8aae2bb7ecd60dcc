// Package qubits provides the superconducting qubit components: transmons
// with their drive, flux and readout channels, readout resonators, and qubit
// pairs with an optional tunable coupler.
package qubits
