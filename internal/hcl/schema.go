package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes every top-level block a description file may hold.
type fileRoot struct {
	Information []*InformationBlock `hcl:"information,block"`
	Network     []*NetworkBlock     `hcl:"network,block"`
	Wiring      []*WiringBlock      `hcl:"wiring,block"`
	Build       []*BuildBlock       `hcl:"build,block"`
	Remain      hcl.Body            `hcl:",remain"`
}

// InformationBlock is the `information` block.
type InformationBlock struct {
	UserName          string  `hcl:"user_name,optional"`
	UserKUTag         string  `hcl:"user_ku_tag,optional"`
	DeviceName        string  `hcl:"device_name"`
	FridgeName        string  `hcl:"fridge_name,optional"`
	ProjectName       string  `hcl:"project_name,optional"`
	StatePath         string  `hcl:"state_path,optional"`
	DataPath          *string `hcl:"data_path,optional"`
	CalibrationDBPath *string `hcl:"calibration_db_path,optional"`
}

// NetworkBlock is the `network` block.
type NetworkBlock struct {
	Host        string         `hcl:"host"`
	ClusterName string         `hcl:"cluster_name"`
	Octaves     []*OctaveBlock `hcl:"octave,block"`
}

// OctaveBlock is an `octave "<name>"` block inside network.
type OctaveBlock struct {
	Name       string `hcl:"name,label"`
	Host       string `hcl:"host"`
	Port       *int   `hcl:"port,optional"`
	Controller string `hcl:"controller,optional"`
}

// WiringBlock is the `wiring` block.
type WiringBlock struct {
	FeedLines  []*FeedLineBlock  `hcl:"feed_line,block"`
	DriveLines []*DriveLineBlock `hcl:"drive_line,block"`
	FluxLines  []*FluxLineBlock  `hcl:"flux_line,block"`
}

// FeedLineBlock is a `feed_line "<name>"` block.
type FeedLineBlock struct {
	Name    string    `hcl:"name,label"`
	OutputI cty.Value `hcl:"output_I"`
	OutputQ cty.Value `hcl:"output_Q"`
	InputI  cty.Value `hcl:"input_I"`
	InputQ  cty.Value `hcl:"input_Q"`
}

// DriveLineBlock is a `drive_line "<qubit>"` block.
type DriveLineBlock struct {
	Qubit string    `hcl:"qubit,label"`
	PortI cty.Value `hcl:"port_I"`
	PortQ cty.Value `hcl:"port_Q"`
}

// FluxLineBlock is a `flux_line "<qubit>"` block.
type FluxLineBlock struct {
	Qubit string    `hcl:"qubit,label"`
	Port  cty.Value `hcl:"port"`
}

// BuildBlock is the `build` block: starting values for a generated
// configuration.
type BuildBlock struct {
	ReadoutLOFrequency *float64      `hcl:"readout_lo_frequency,optional"`
	GateLength         *int          `hcl:"gate_length,optional"`
	PiPulseAmplitude   *float64      `hcl:"pi_pulse_amplitude,optional"`
	ReadoutLength      *int          `hcl:"readout_length,optional"`
	ReadoutAmplitude   *float64      `hcl:"readout_amplitude,optional"`
	DefaultGateShape   string        `hcl:"default_gate_shape,optional"`
	Qubits             []*QubitBlock `hcl:"qubit,block"`
}

// QubitBlock is a `qubit "<name>"` block inside build.
type QubitBlock struct {
	Name                      string   `hcl:"name,label"`
	Frequency                 *float64 `hcl:"frequency,optional"`
	DriveLOFrequency          *float64 `hcl:"drive_lo_frequency,optional"`
	ResonatorFrequencyBare    *float64 `hcl:"resonator_frequency_bare,optional"`
	ResonatorFrequencyCoupled *float64 `hcl:"resonator_frequency_coupled,optional"`
}
