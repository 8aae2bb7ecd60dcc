package pulses

import (
	"errors"
	"fmt"
	"math"

	"github.com/vk/squidquam/internal/quam"
)

// ErrNotAttached is returned when a pulse is asked for its name or channel
// before it has been stored in a channel's operations.
var ErrNotAttached = errors.New("pulses: pulse is not attached to a channel")

// Element is the channel a pulse is played on.
type Element interface {
	quam.Component
	Name() (string, error)
	IsIQ() bool
}

// Pulse is implemented by every pulse shape.
type Pulse interface {
	quam.Component
	quam.ConfigApplier
	// Operation is "control" or "measurement".
	Operation() string
	// Waveforms returns the waveform per config slot: "I" and "Q" for IQ
	// elements, "single" otherwise.
	Waveforms(iq bool) (map[string]Waveform, error)
	common() *Common
}

// Common holds the parameters every pulse has.
type Common struct {
	quam.Base
	Length        quam.Value[int]     `json:"length" unit:"ns" long_name:"Pulse length"`
	AxisAngle     quam.Value[float64] `json:"axis_angle" unit:"rad" long_name:"IQ axis angle"`
	DigitalMarker quam.Value[string]  `json:"digital_marker"`
}

func (c *Common) common() *Common { return c }

// ID returns the operation name of the pulse on its channel.
func (c *Common) ID() (string, error) {
	id, err := quam.KeyFromParentDict(c)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAttached, err)
	}
	return id, nil
}

// Channel returns the element owning the operations Dict the pulse is in.
func (c *Common) Channel() (Element, error) {
	ops := quam.ParentOf(c)
	if ops == nil {
		return nil, ErrNotAttached
	}
	el, ok := quam.ParentOf(ops).(Element)
	if !ok {
		return nil, fmt.Errorf("%w: operations are held by %T", ErrNotAttached, quam.ParentOf(ops))
	}
	return el, nil
}

// PulseName is the name of the pulse in the QUA config:
// <channel>.<id>.pulse.
func (c *Common) PulseName() (string, error) {
	el, err := c.Channel()
	if err != nil {
		return "", err
	}
	name, err := el.Name()
	if err != nil {
		return "", err
	}
	id, err := c.ID()
	if err != nil {
		return "", err
	}
	return quam.FormatName(name, id, "pulse"), nil
}

// axisAngle resolves the axis angle relative to owner, the concrete pulse
// embedding c, so that sibling references see the whole pulse.
func (c *Common) axisAngle(owner quam.Component) (float64, error) {
	angle, _, err := c.AxisAngle.Lookup(owner)
	return angle, err
}

// PulseName returns the config name of any pulse.
func PulseName(p Pulse) (string, error) {
	return p.common().PulseName()
}

// Length returns the resolved length of any pulse, in ns.
func Length(p Pulse) (int, error) {
	return p.common().Length.Get(p)
}

// constantIQ splits a constant complex amplitude into config slots.
func constantIQ(amplitude, angle float64, iq bool) (map[string]Waveform, error) {
	if !iq {
		if angle != 0 {
			return nil, fmt.Errorf("pulses: axis angle %g needs an IQ channel", angle)
		}
		return map[string]Waveform{"single": Constant(amplitude)}, nil
	}
	return map[string]Waveform{
		"I": Constant(amplitude * math.Cos(angle)),
		"Q": Constant(amplitude * math.Sin(angle)),
	}, nil
}

// shapedIQ builds descriptor slots for a shaped waveform.
func shapedIQ(shape string, params map[string]any, angle float64, iq bool) (map[string]Waveform, error) {
	params["axis_angle"] = angle
	if !iq {
		if angle != 0 {
			return nil, fmt.Errorf("pulses: axis angle %g needs an IQ channel", angle)
		}
		return map[string]Waveform{"single": Shaped(shape, "I", params)}, nil
	}
	return map[string]Waveform{
		"I": Shaped(shape, "I", params),
		"Q": Shaped(shape, "Q", params),
	}, nil
}

// applyPulse writes p's pulse and waveform entries.
func applyPulse(cfg quam.Config, p Pulse) (string, map[string]any, error) {
	c := p.common()
	name, err := c.PulseName()
	if err != nil {
		return "", nil, err
	}
	el, err := c.Channel()
	if err != nil {
		return "", nil, err
	}
	length, err := c.Length.Get(p)
	if err != nil {
		return "", nil, fmt.Errorf("pulse %s length: %w", name, err)
	}
	if length <= 0 {
		return "", nil, fmt.Errorf("pulse %s: length must be positive, got %d", name, length)
	}

	wfs, err := p.Waveforms(el.IsIQ())
	if err != nil {
		return "", nil, fmt.Errorf("pulse %s: %w", name, err)
	}

	slots := make(map[string]any, len(wfs))
	waveforms := cfg.Section("waveforms")
	for slot, wf := range wfs {
		wfName := quam.FormatName(name, "wf", slot)
		waveforms[wfName] = wf.Config(length)
		slots[slot] = wfName
	}

	entry := map[string]any{
		"operation": p.Operation(),
		"length":    length,
		"waveforms": slots,
	}
	marker, ok, err := c.DigitalMarker.Lookup(p)
	if err != nil {
		return "", nil, err
	}
	if ok && marker != "" {
		entry["digital_marker"] = marker
	}
	cfg.Section("pulses")[name] = entry
	return name, entry, nil
}
