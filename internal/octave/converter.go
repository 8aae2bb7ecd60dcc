package octave

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/vk/squidquam/internal/channels"
	"github.com/vk/squidquam/internal/qm"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/wiring"
)

var (
	// ErrNoChannel is returned when no IQ channel references a converter.
	ErrNoChannel = errors.New("octave: converter is not referenced by any channel")
	// ErrAmbiguousChannel is returned when channels referencing the same
	// converter disagree on the OPX ports.
	ErrAmbiguousChannel = errors.New("octave: converter is connected to different OPX ports")
	// ErrLOMissing is returned when generating config for a converter without
	// an LO frequency.
	ErrLOMissing = errors.New("octave: LO_frequency must be specified")
	// ErrDuplicateConverter is returned when two converters of one Octave
	// share an id.
	ErrDuplicateConverter = errors.New("octave: duplicate converter id")
	// ErrIFConflict is returned when an IF output is already wired to a
	// different OPX input.
	ErrIFConflict = errors.New("octave: IF output already assigned")
	// ErrNotAttached is returned for converters outside an Octave.
	ErrNotAttached = errors.New("octave: converter is not attached to an Octave")
)

func init() {
	quam.Register("octave.OctaveUpConverterSQuID", func() quam.Component { return NewUpConverter() })
	quam.Register("octave.OctaveDownConverterSQuID", func() quam.Component { return NewDownConverter() })
}

// converter holds what up- and down-converters share.
type converter struct {
	quam.Base
	ID       quam.Value[int]     `json:"id"`
	LO       quam.Value[float64] `json:"LO_frequency" unit:"Hz" long_name:"LO frequency"`
	LOSource quam.Value[string]  `json:"LO_source" description:"internal or external"`
}

func newConverter(source string) converter {
	return converter{
		ID:       quam.Ref[int]("#./id_from_parent_dict"),
		LOSource: quam.Lit(source),
	}
}

func (c *converter) idFromParentDict() (int, error) {
	key, err := quam.KeyFromParentDict(c)
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("octave: converter key %q is not a port number", key)
	}
	return id, nil
}

func (c *converter) Property(name string) (any, bool, error) {
	if name == "id_from_parent_dict" {
		id, err := c.idFromParentDict()
		return id, true, err
	}
	return nil, false, nil
}

// octave returns the Octave the converter belongs to.
func (c *converter) octave() (*Octave, error) {
	dict := quam.ParentOf(c)
	if dict == nil {
		return nil, ErrNotAttached
	}
	o, ok := quam.ParentOf(dict).(*Octave)
	if !ok {
		return nil, fmt.Errorf("%w: held by %T", ErrNotAttached, quam.ParentOf(dict))
	}
	return o, nil
}

// port returns the Octave name and converter id.
func (c *converter) port(owner quam.Component) (string, int, error) {
	o, err := c.octave()
	if err != nil {
		return "", 0, err
	}
	name, err := o.name()
	if err != nil {
		return "", 0, err
	}
	id, err := c.ID.Get(owner)
	if err != nil {
		return "", 0, fmt.Errorf("converter id: %w", err)
	}
	return name, id, nil
}

func (c *converter) lo(owner quam.Component) (float64, error) {
	f, err := c.LO.Get(owner)
	if errors.Is(err, quam.ErrNotSet) {
		return 0, ErrLOMissing
	}
	return f, err
}

// agreeingPorts requires all matched port pairs to be equal.
func agreeingPorts(matches [][2]wiring.Port) (wiring.Port, wiring.Port, error) {
	if len(matches) == 0 {
		return wiring.Port{}, wiring.Port{}, ErrNoChannel
	}
	first := matches[0]
	for _, m := range matches[1:] {
		if m != first {
			return wiring.Port{}, wiring.Port{}, fmt.Errorf("%w: %s/%s and %s/%s", ErrAmbiguousChannel, first[0], first[1], m[0], m[1])
		}
	}
	return first[0], first[1], nil
}

// UpConverter drives one RF output of an Octave.
type UpConverter struct {
	converter
	Gain             quam.Value[float64] `json:"gain" unit:"dB" description:"Output gain, -20 to 20 dB in steps of 0.5"`
	OutputMode       quam.Value[string]  `json:"output_mode" description:"always_on, always_off, triggered or triggered_reversed"`
	InputAttenuators quam.Value[string]  `json:"input_attenuators" description:"on or off"`
}

func NewUpConverter() *UpConverter {
	return &UpConverter{
		converter:        newConverter("internal"),
		Gain:             quam.Lit(0.0),
		OutputMode:       quam.Lit("always_on"),
		InputAttenuators: quam.Lit("off"),
	}
}

var _ channels.UpConverter = (*UpConverter)(nil)

// LOFrequency resolves the LO frequency.
func (u *UpConverter) LOFrequency() (float64, error) { return u.lo(u) }

// RFOutput returns the Octave name and RF output number.
func (u *UpConverter) RFOutput() (string, int, error) { return u.port(u) }

// DefaultElement is the element the orchestration service creates for the
// converter's mixer.
func (u *UpConverter) DefaultElement() (string, error) {
	name, id, err := u.port(u)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("__oct__%s_%d_IQmixer", name, id), nil
}

func (u *UpConverter) Property(name string) (any, bool, error) {
	if name == "default_element" {
		v, err := u.DefaultElement()
		return v, true, err
	}
	return u.converter.Property(name)
}

type upLinked interface {
	UpConverter() (channels.UpConverter, error)
	OutputPorts() (wiring.Port, wiring.Port, error)
}

// FindOPXOutputs returns the OPX ports of the channels using u.
func (u *UpConverter) FindOPXOutputs() (wiring.Port, wiring.Port, error) {
	var matches [][2]wiring.Port
	err := quam.Iterate(quam.RootOf(u), func(c quam.Component) error {
		ch, ok := c.(upLinked)
		if !ok {
			return nil
		}
		up, err := ch.UpConverter()
		if err != nil && !errors.Is(err, quam.ErrNotSet) {
			return fmt.Errorf("up-converter of %s: %w", channelRef(c), err)
		}
		if err != nil || up == nil || !quam.Same(up, u) {
			return nil
		}
		i, q, err := ch.OutputPorts()
		if err != nil {
			return err
		}
		matches = append(matches, [2]wiring.Port{i, q})
		return nil
	})
	if err != nil {
		return wiring.Port{}, wiring.Port{}, err
	}
	return agreeingPorts(matches)
}

// ApplyToConfig writes the RF output entry. Outputs no channel uses are
// left out of the config.
func (u *UpConverter) ApplyToConfig(cfg quam.Config) error {
	portI, portQ, err := u.FindOPXOutputs()
	if errors.Is(err, ErrNoChannel) {
		return nil
	}
	name, id, perr := u.port(u)
	if perr != nil {
		return perr
	}
	if err != nil {
		return fmt.Errorf("RF output %d of %s: %w", id, name, err)
	}
	lo, err := u.LOFrequency()
	if err != nil {
		return fmt.Errorf("RF output %d of %s: %w", id, name, err)
	}
	outputs := cfg.Section("octaves", name, "RF_outputs")
	key := strconv.Itoa(id)
	if _, dup := outputs[key]; dup {
		return fmt.Errorf("%w: RF output %d of %s", ErrDuplicateConverter, id, name)
	}

	source, _, err := u.LOSource.Lookup(u)
	if err != nil {
		return err
	}
	gain, _, err := u.Gain.Lookup(u)
	if err != nil {
		return err
	}
	mode, _, err := u.OutputMode.Lookup(u)
	if err != nil {
		return err
	}
	att, _, err := u.InputAttenuators.Lookup(u)
	if err != nil {
		return err
	}
	outputs[key] = map[string]any{
		"LO_frequency":      lo,
		"LO_source":         source,
		"gain":              gain,
		"output_mode":       mode,
		"input_attenuators": att,
		"I_connection":      portI.Tuple(),
		"Q_connection":      portQ.Tuple(),
	}
	return nil
}

// machineOctave returns the Octave controller of the tree's opened machine.
func machineOctave(ctx context.Context, c quam.Component) (qm.Octave, error) {
	p, ok := quam.RootOf(c).(qm.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: root %T cannot open a machine", qm.ErrNoConnector, quam.RootOf(c))
	}
	m, err := p.Machine(ctx)
	if err != nil {
		return nil, err
	}
	return m.Octave(), nil
}

// SetLOFrequency retunes the LO on the running machine.
func (u *UpConverter) SetLOFrequency(ctx context.Context, frequency float64) error {
	el, err := u.DefaultElement()
	if err != nil {
		return err
	}
	o, err := machineOctave(ctx, u)
	if err != nil {
		return err
	}
	return o.SetLOFrequency(ctx, el, frequency)
}

// SetGain changes the RF output gain on the running machine.
func (u *UpConverter) SetGain(ctx context.Context, gain float64) error {
	el, err := u.DefaultElement()
	if err != nil {
		return err
	}
	o, err := machineOctave(ctx, u)
	if err != nil {
		return err
	}
	return o.SetRFOutputGain(ctx, el, gain)
}

// DownConverter reads one RF input of an Octave.
type DownConverter struct {
	converter
	IFModeI   quam.Value[string] `json:"IF_mode_I" description:"direct, envelope, mixer or off"`
	IFModeQ   quam.Value[string] `json:"IF_mode_Q" description:"direct, envelope, mixer or off"`
	IFOutputI quam.Value[int]    `json:"IF_output_I"`
	IFOutputQ quam.Value[int]    `json:"IF_output_Q"`
}

func NewDownConverter() *DownConverter {
	return &DownConverter{
		converter: newConverter("internal"),
		IFModeI:   quam.Lit("direct"),
		IFModeQ:   quam.Lit("direct"),
		IFOutputI: quam.Lit(1),
		IFOutputQ: quam.Lit(2),
	}
}

var _ channels.DownConverter = (*DownConverter)(nil)

func (d *DownConverter) LOFrequency() (float64, error) { return d.lo(d) }

// RFInput returns the Octave name and RF input number.
func (d *DownConverter) RFInput() (string, int, error) { return d.port(d) }

type downLinked interface {
	DownConverter() (channels.DownConverter, error)
	InputPorts() (wiring.Port, wiring.Port, error)
}

// FindOPXInputs returns the OPX ports of the channels reading from d.
func (d *DownConverter) FindOPXInputs() (wiring.Port, wiring.Port, error) {
	var matches [][2]wiring.Port
	err := quam.Iterate(quam.RootOf(d), func(c quam.Component) error {
		ch, ok := c.(downLinked)
		if !ok {
			return nil
		}
		down, err := ch.DownConverter()
		if err != nil && !errors.Is(err, quam.ErrNotSet) {
			return fmt.Errorf("down-converter of %s: %w", channelRef(c), err)
		}
		if err != nil || down == nil || !quam.Same(down, d) {
			return nil
		}
		i, q, err := ch.InputPorts()
		if err != nil {
			return err
		}
		matches = append(matches, [2]wiring.Port{i, q})
		return nil
	})
	if err != nil {
		return wiring.Port{}, wiring.Port{}, err
	}
	return agreeingPorts(matches)
}

// ApplyToConfig writes the RF input entry and claims the IF outputs feeding
// the OPX inputs. Inputs no channel reads are left out of the config.
func (d *DownConverter) ApplyToConfig(cfg quam.Config) error {
	portI, portQ, err := d.FindOPXInputs()
	if errors.Is(err, ErrNoChannel) {
		return nil
	}
	name, id, perr := d.port(d)
	if perr != nil {
		return perr
	}
	if err != nil {
		return fmt.Errorf("RF input %d of %s: %w", id, name, err)
	}
	lo, err := d.LOFrequency()
	if err != nil {
		return fmt.Errorf("RF input %d of %s: %w", id, name, err)
	}
	inputs := cfg.Section("octaves", name, "RF_inputs")
	key := strconv.Itoa(id)
	if _, dup := inputs[key]; dup {
		return fmt.Errorf("%w: RF input %d of %s", ErrDuplicateConverter, id, name)
	}

	source, _, err := d.LOSource.Lookup(d)
	if err != nil {
		return err
	}
	modeI, _, err := d.IFModeI.Lookup(d)
	if err != nil {
		return err
	}
	modeQ, _, err := d.IFModeQ.Lookup(d)
	if err != nil {
		return err
	}
	inputs[key] = map[string]any{
		"RF_source":    "RF_in",
		"LO_frequency": lo,
		"LO_source":    source,
		"IF_mode_I":    modeI,
		"IF_mode_Q":    modeQ,
	}

	outI, err := d.IFOutputI.Get(d)
	if err != nil {
		return err
	}
	outQ, err := d.IFOutputQ.Get(d)
	if err != nil {
		return err
	}

	ifOutputs := cfg.Section("octaves", name, "IF_outputs")
	for k, pair := range []struct {
		out  int
		port wiring.Port
	}{{outI, portI}, {outQ, portQ}} {
		label := fmt.Sprintf("IF_out%d", pair.out)
		existing, ok := ifOutputs[label].(map[string]any)
		if !ok {
			ifOutputs[label] = map[string]any{"port": pair.port.Tuple(), "name": fmt.Sprintf("out%d", k+1)}
			continue
		}
		if prev, _ := existing["port"].([]any); !slices.Equal(prev, pair.port.Tuple()) {
			return fmt.Errorf("%w: %s is wired to %v, cannot assign %s", ErrIFConflict, label, prev, pair.port)
		}
	}
	return nil
}

// channelRef names c in errors.
func channelRef(c quam.Component) string {
	ref, err := quam.ReferenceOf(c)
	if err != nil {
		return fmt.Sprintf("%T", c)
	}
	return ref
}
