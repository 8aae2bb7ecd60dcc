package pulseset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/squidquam/internal/channels"
	"github.com/vk/squidquam/internal/pulses"
	"github.com/vk/squidquam/internal/quam"
)

// ErrUnknownGate is returned when individual parameters name a gate the set
// does not define.
var ErrUnknownGate = errors.New("pulseset: unknown gate")

// Set is implemented by every pulse set.
type Set interface {
	quam.Component
	// PulseClass is the registered class of the pulses the set creates.
	PulseClass() string
	Gates() []string
	// IndividualParameters returns per-gate pulse parameters. Strings with
	// the reference syntax stay references in the created pulses.
	IndividualParameters() (map[string]map[string]any, error)
	SharedParameters() (map[string]any, error)
	set() *PulseSet
}

// PulseSet holds what all sets share: the suffix of the created pulses and
// the channel they are added to.
type PulseSet struct {
	quam.Base
	PulseName quam.Value[string]           `json:"pulse_name"`
	Channel   quam.Value[channels.Channel] `json:"channel"`
}

func newPulseSet() PulseSet {
	return PulseSet{
		PulseName: quam.Ref[string]("#./name_from_parent_dict"),
		Channel:   quam.Ref[channels.Channel]("#../../xy"),
	}
}

func (s *PulseSet) set() *PulseSet { return s }

func (s *PulseSet) Property(name string) (any, bool, error) {
	if name == "name_from_parent_dict" {
		key, err := quam.KeyFromParentDict(s)
		return key, true, err
	}
	return nil, false, nil
}

// OperationName is the channel operation of gate: <gate>_<pulse name>.
func OperationName(s Set, gate string) (string, error) {
	name, err := s.set().PulseName.Get(s)
	if err != nil {
		return "", fmt.Errorf("pulse_name: %w", err)
	}
	return gate + "_" + name, nil
}

// ChannelOf resolves the channel the set populates.
func ChannelOf(s Set) (channels.Channel, error) {
	ch, err := s.set().Channel.Get(s)
	if err != nil {
		return nil, fmt.Errorf("pulse set channel: %w", err)
	}
	return ch, nil
}

// ref returns an absolute reference to attr of s.
func ref(s Set, attr string) (string, error) {
	return quam.ReferenceOf(s, attr)
}

// AddDrivePulses creates one pulse per gate on the set's channel. Shared
// parameters apply to every gate; individual parameters override them.
func AddDrivePulses(s Set) error {
	gates := s.Gates()
	individual, err := s.IndividualParameters()
	if err != nil {
		return err
	}
	for gate := range individual {
		if !slices.Contains(gates, gate) {
			return fmt.Errorf("%w: %q is not one of %v", ErrUnknownGate, gate, gates)
		}
	}
	shared, err := s.SharedParameters()
	if err != nil {
		return err
	}
	ch, err := ChannelOf(s)
	if err != nil {
		return err
	}

	for _, gate := range gates {
		params := make(map[string]any, len(shared)+len(individual[gate]))
		for k, v := range shared {
			params[k] = v
		}
		for k, v := range individual[gate] {
			params[k] = v
		}
		p, err := newPulse(s.PulseClass(), params)
		if err != nil {
			return fmt.Errorf("gate %s: %w", gate, err)
		}
		op, err := OperationName(s, gate)
		if err != nil {
			return err
		}
		ch.Ops().Set(op, p)
	}
	return nil
}

// newPulse builds a pulse of class and decodes params into it. Unknown
// parameter names are rejected.
func newPulse(class string, params map[string]any) (pulses.Pulse, error) {
	c, err := quam.New(class)
	if err != nil {
		return nil, err
	}
	p, ok := c.(pulses.Pulse)
	if !ok {
		return nil, fmt.Errorf("pulseset: class %s is not a pulse", class)
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("parameters for %s: %w", class, err)
	}
	return p, nil
}

// SetAsDefaultGateShape points the plain gate operations of the channel
// (x90, x180, ...) at this set's pulses, creating the pulses first if any is
// missing.
func SetAsDefaultGateShape(s Set) error {
	ch, err := ChannelOf(s)
	if err != nil {
		return err
	}
	ops := ch.Ops()
	for _, gate := range s.Gates() {
		op, err := OperationName(s, gate)
		if err != nil {
			return err
		}
		if !ops.Has(op) {
			if err := AddDrivePulses(s); err != nil {
				return err
			}
			break
		}
	}
	for _, gate := range s.Gates() {
		op, err := OperationName(s, gate)
		if err != nil {
			return err
		}
		ops.SetRef(gate, "#./"+op)
	}
	return nil
}
