// Package qm is the boundary to the hardware orchestration service. The
// service client lives outside this module and plugs in through Connector;
// components only see the interfaces declared here.
package qm

import (
	"context"
	"errors"

	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
)

// ErrNoConnector is returned when a machine is requested from a root that
// has no Connector configured.
var ErrNoConnector = errors.New("qm: no connector configured")

// OctaveDevice is the network address of one Octave.
type OctaveDevice struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Settings tell a Connector where the orchestration service is.
type Settings struct {
	Host              string         `json:"host"`
	ClusterName       string         `json:"cluster_name"`
	CalibrationDBPath string         `json:"calibration_db_path,omitempty"`
	Octaves           []OctaveDevice `json:"octaves,omitempty"`
}

// Connector opens a Manager session.
type Connector interface {
	Connect(ctx context.Context, settings Settings) (Manager, error)
}

// Manager is a session with the orchestration service.
type Manager interface {
	// Open starts a machine running cfg.
	Open(ctx context.Context, cfg quam.Config) (Machine, error)
	Close() error
}

// ExecuteOptions tune a program run.
type ExecuteOptions struct {
	// DryRun compiles the program without running it.
	DryRun bool
}

// Machine is an opened quantum machine.
type Machine interface {
	Execute(ctx context.Context, program qua.Program, opts ExecuteOptions) (Job, error)
	// CalibrateElement runs the mixer calibration of element at the given
	// LO and intermediate frequencies.
	CalibrateElement(ctx context.Context, element string, lo, intermediate float64) error
	Octave() Octave
	Close() error
}

// Octave controls the Octaves attached to a machine.
type Octave interface {
	SetLOFrequency(ctx context.Context, element string, frequency float64) error
	SetRFOutputGain(ctx context.Context, element string, gain float64) error
}

// Job is a running or finished program.
type Job interface {
	ID() string
	Wait(ctx context.Context) error
}

// Provider hands out the machine of a tree. The root implements it; other
// components reach it through quam.RootOf.
type Provider interface {
	Machine(ctx context.Context) (Machine, error)
}
