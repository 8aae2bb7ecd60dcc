package labber

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/squidquam/internal/quam"
)

func init() {
	quam.Register("labber.LabberInstrument", func() quam.Component { return NewDevice("") })
	quam.Register("labber.RhodeSchwarzLocalOscillator", func() quam.Component { return NewRohdeSchwarzLO() })
}

// Device is an instrument controlled through a Labber server. The connection
// is opened on first use and cached.
type Device struct {
	quam.Base
	IP             quam.Value[string]  `json:"ip"`
	InstrumentName quam.Value[string]  `json:"instrument_name"`
	Interface      quam.Value[string]  `json:"interface"`
	Server         quam.Value[*Server] `json:"labber_server"`

	mu         sync.Mutex
	instrument Instrument
}

// NewDevice returns a device called name that connects through the server
// at the root's labber_server.
func NewDevice(name string) *Device {
	d := &Device{}
	d.init(name)
	return d
}

func (d *Device) init(name string) {
	d.Interface = quam.Lit(DefaultInterface)
	d.Server = quam.Ref[*Server]("#/labber_server")
	if name != "" {
		d.InstrumentName = quam.Lit(name)
	}
}

// Instrument returns the connected instrument, connecting once.
func (d *Device) Instrument(ctx context.Context) (Instrument, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.instrument != nil {
		return d.instrument, nil
	}

	server, err := d.Server.Get(d)
	if errors.Is(err, quam.ErrNotSet) {
		return nil, ErrNoServer
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoServer, err)
	}
	name, err := d.InstrumentName.Get(d)
	if err != nil {
		return nil, fmt.Errorf("instrument_name: %w", err)
	}
	ip, err := d.IP.Get(d)
	if err != nil {
		return nil, fmt.Errorf("instrument %s ip: %w", name, err)
	}
	iface, _, err := d.Interface.Lookup(d)
	if err != nil {
		return nil, err
	}

	inst, err := server.ConnectInstrument(ctx, name, ip, iface)
	if err != nil {
		return nil, err
	}
	d.instrument = inst
	return inst, nil
}

// SetValue sets parameter on the instrument.
func (d *Device) SetValue(ctx context.Context, parameter string, value any) error {
	inst, err := d.Instrument(ctx)
	if err != nil {
		return err
	}
	if err := inst.SetValue(ctx, parameter, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", parameter, err)
	}
	return nil
}

// RohdeSchwarzInstrument is the Labber driver name of the R&S RF source.
const RohdeSchwarzInstrument = "Rohde&Schwarz RF Source"

// RohdeSchwarzLO is a Rohde & Schwarz RF source used as a local oscillator.
type RohdeSchwarzLO struct {
	Device
	Frequency quam.Value[float64] `json:"frequency" unit:"Hz"`
	Power     quam.Value[float64] `json:"power" unit:"dBm"`
}

func NewRohdeSchwarzLO() *RohdeSchwarzLO {
	lo := &RohdeSchwarzLO{}
	lo.init(RohdeSchwarzInstrument)
	return lo
}

// Initialize sets the power and frequency of the instrument to the stored
// values.
func (lo *RohdeSchwarzLO) Initialize(ctx context.Context) error {
	power, err := lo.Power.Get(lo)
	if err != nil {
		return fmt.Errorf("power: %w", err)
	}
	frequency, err := lo.Frequency.Get(lo)
	if err != nil {
		return fmt.Errorf("frequency: %w", err)
	}
	if err := lo.SetPower(ctx, power); err != nil {
		return err
	}
	return lo.SetFrequency(ctx, frequency)
}

func (lo *RohdeSchwarzLO) SetPower(ctx context.Context, power float64) error {
	return lo.SetValue(ctx, "Power", power)
}

func (lo *RohdeSchwarzLO) SetFrequency(ctx context.Context, frequency float64) error {
	return lo.SetValue(ctx, "Frequency", frequency)
}

// SetOutput turns the RF output on or off.
func (lo *RohdeSchwarzLO) SetOutput(ctx context.Context, on bool) error {
	return lo.SetValue(ctx, "Output", on)
}
