package channels

import (
	"fmt"

	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/wiring"
)

func init() {
	quam.Register("channels.IQChannel", func() quam.Component { return NewIQChannel() })
	quam.Register("channels.InOutIQChannel", func() quam.Component { return NewInOutIQChannel() })
}

// IQChannel is an output pair driving an IQ mixer, usually the up-converter
// of an Octave.
type IQChannel struct {
	Common
	OPXOutputI           quam.Value[wiring.Port] `json:"opx_output_I"`
	OPXOutputQ           quam.Value[wiring.Port] `json:"opx_output_Q"`
	OPXOutputOffsetI     quam.Value[float64]     `json:"opx_output_offset_I" unit:"V"`
	OPXOutputOffsetQ     quam.Value[float64]     `json:"opx_output_offset_Q" unit:"V"`
	FrequencyConverterUp quam.Value[UpConverter] `json:"frequency_converter_up"`

	IntermediateFrequency quam.Value[float64] `json:"intermediate_frequency" unit:"Hz" long_name:"Intermediate frequency"`
	RFFrequency           quam.Value[float64] `json:"RF_frequency" unit:"Hz" long_name:"RF frequency"`
}

func NewIQChannel() *IQChannel {
	return &IQChannel{
		Common:                newCommon(),
		OPXOutputOffsetI:      quam.Lit(0.0),
		OPXOutputOffsetQ:      quam.Lit(0.0),
		IntermediateFrequency: quam.Ref[float64]("#./inferred_intermediate_frequency"),
	}
}

func (ch *IQChannel) IsIQ() bool { return true }

// UpConverter returns the frequency converter of the output, or nil when
// none is attached.
func (ch *IQChannel) UpConverter() (UpConverter, error) {
	up, _, err := ch.FrequencyConverterUp.Lookup(ch)
	return up, err
}

// LOFrequency is the local oscillator frequency of the up-converter.
func (ch *IQChannel) LOFrequency() (float64, error) {
	up, err := ch.UpConverter()
	if err != nil {
		return 0, err
	}
	if up == nil {
		return 0, fmt.Errorf("channel has no frequency converter: %w", quam.ErrNotSet)
	}
	return up.LOFrequency()
}

// OutputPorts resolves the I and Q output ports.
func (ch *IQChannel) OutputPorts() (wiring.Port, wiring.Port, error) {
	return ch.outputPorts(ch)
}

func (ch *IQChannel) outputPorts(owner quam.Component) (wiring.Port, wiring.Port, error) {
	i, err := ch.OPXOutputI.Get(owner)
	if err != nil {
		return wiring.Port{}, wiring.Port{}, fmt.Errorf("opx_output_I: %w", err)
	}
	q, err := ch.OPXOutputQ.Get(owner)
	if err != nil {
		return wiring.Port{}, wiring.Port{}, fmt.Errorf("opx_output_Q: %w", err)
	}
	return i, q, nil
}

// InferredIntermediateFrequency is RF_frequency - LO frequency.
func (ch *IQChannel) InferredIntermediateFrequency() (float64, error) {
	rf, err := ch.RFFrequency.Get(ch)
	if err != nil {
		return 0, fmt.Errorf("RF_frequency: %w", err)
	}
	lo, err := ch.LOFrequency()
	if err != nil {
		return 0, err
	}
	return rf - lo, nil
}

// InferredRFFrequency is LO frequency + intermediate_frequency.
func (ch *IQChannel) InferredRFFrequency() (float64, error) {
	lo, err := ch.LOFrequency()
	if err != nil {
		return 0, err
	}
	f, err := ch.IntermediateFrequency.Get(ch)
	if err != nil {
		return 0, fmt.Errorf("intermediate_frequency: %w", err)
	}
	return lo + f, nil
}

func (ch *IQChannel) Property(name string) (any, bool, error) {
	switch name {
	case "inferred_intermediate_frequency":
		v, err := ch.InferredIntermediateFrequency()
		return v, true, err
	case "inferred_RF_frequency":
		v, err := ch.InferredRFFrequency()
		return v, true, err
	case "name":
		v, err := ch.Name()
		return v, true, err
	}
	return nil, false, nil
}

func (ch *IQChannel) ApplyToConfig(cfg quam.Config) error {
	name, element, err := ch.element(ch, cfg)
	if err != nil {
		return err
	}
	cfg.Section("elements")[name] = element
	return nil
}

// element builds the element entry and declares the controller outputs.
// owner is the outermost component embedding ch.
func (ch *IQChannel) element(owner quam.Component, cfg quam.Config) (string, map[string]any, error) {
	name, err := ch.Name()
	if err != nil {
		return "", nil, err
	}
	portI, portQ, err := ch.outputPorts(owner)
	if err != nil {
		return "", nil, fmt.Errorf("element %s %w", name, err)
	}
	offI, _, err := ch.OPXOutputOffsetI.Lookup(owner)
	if err != nil {
		return "", nil, err
	}
	offQ, _, err := ch.OPXOutputOffsetQ.Lookup(owner)
	if err != nil {
		return "", nil, err
	}
	ops, err := ch.operationsConfig()
	if err != nil {
		return "", nil, fmt.Errorf("element %s: %w", name, err)
	}

	element := map[string]any{"operations": ops}
	up, _, err := ch.FrequencyConverterUp.Lookup(owner)
	if err != nil {
		return "", nil, fmt.Errorf("element %s frequency_converter_up: %w", name, err)
	}
	if up != nil {
		octave, port, err := up.RFOutput()
		if err != nil {
			return "", nil, fmt.Errorf("element %s: %w", name, err)
		}
		element["RF_inputs"] = map[string]any{"port": []any{octave, port}}
	} else {
		element["mixInputs"] = map[string]any{"I": portI.Tuple(), "Q": portQ.Tuple()}
	}

	if f, ok, err := ch.IntermediateFrequency.Lookup(owner); err != nil {
		return "", nil, fmt.Errorf("element %s intermediate_frequency: %w", name, err)
	} else if ok {
		element["intermediate_frequency"] = f
	}

	declareOutput(cfg, portI, offI)
	declareOutput(cfg, portQ, offQ)
	return name, element, nil
}

// InOutIQChannel is an IQChannel whose signal comes back through an input
// pair, a readout resonator's feed line.
type InOutIQChannel struct {
	IQChannel
	OPXInputI              quam.Value[wiring.Port]   `json:"opx_input_I"`
	OPXInputQ              quam.Value[wiring.Port]   `json:"opx_input_Q"`
	OPXInputOffsetI        quam.Value[float64]       `json:"opx_input_offset_I" unit:"V"`
	OPXInputOffsetQ        quam.Value[float64]       `json:"opx_input_offset_Q" unit:"V"`
	InputGain              quam.Value[float64]       `json:"input_gain" unit:"dB"`
	FrequencyConverterDown quam.Value[DownConverter] `json:"frequency_converter_down"`
	TimeOfFlight           quam.Value[int]           `json:"time_of_flight" unit:"ns" long_name:"Time of flight"`
	Smearing               quam.Value[int]           `json:"smearing" unit:"ns"`
}

func NewInOutIQChannel() *InOutIQChannel {
	return &InOutIQChannel{
		IQChannel:       *NewIQChannel(),
		OPXInputOffsetI: quam.Lit(0.0),
		OPXInputOffsetQ: quam.Lit(0.0),
		InputGain:       quam.Lit(0.0),
		TimeOfFlight:    quam.Lit(24),
		Smearing:        quam.Lit(0),
	}
}

// OutputPorts resolves the I and Q output ports.
func (ch *InOutIQChannel) OutputPorts() (wiring.Port, wiring.Port, error) {
	return ch.outputPorts(ch)
}

// InputPorts resolves the I and Q input ports.
func (ch *InOutIQChannel) InputPorts() (wiring.Port, wiring.Port, error) {
	i, err := ch.OPXInputI.Get(ch)
	if err != nil {
		return wiring.Port{}, wiring.Port{}, fmt.Errorf("opx_input_I: %w", err)
	}
	q, err := ch.OPXInputQ.Get(ch)
	if err != nil {
		return wiring.Port{}, wiring.Port{}, fmt.Errorf("opx_input_Q: %w", err)
	}
	return i, q, nil
}

// DownConverter returns the frequency converter of the input, or nil.
func (ch *InOutIQChannel) DownConverter() (DownConverter, error) {
	down, _, err := ch.FrequencyConverterDown.Lookup(ch)
	return down, err
}

func (ch *InOutIQChannel) ApplyToConfig(cfg quam.Config) error {
	name, element, err := ch.element(ch, cfg)
	if err != nil {
		return err
	}

	inI, inQ, err := ch.InputPorts()
	if err != nil {
		return fmt.Errorf("element %s %w", name, err)
	}
	offI, _, err := ch.OPXInputOffsetI.Lookup(ch)
	if err != nil {
		return err
	}
	offQ, _, err := ch.OPXInputOffsetQ.Lookup(ch)
	if err != nil {
		return err
	}
	gain, _, err := ch.InputGain.Lookup(ch)
	if err != nil {
		return err
	}
	tof, err := ch.TimeOfFlight.Get(ch)
	if err != nil {
		return fmt.Errorf("element %s time_of_flight: %w", name, err)
	}
	smearing, _, err := ch.Smearing.Lookup(ch)
	if err != nil {
		return err
	}

	down, _, err := ch.FrequencyConverterDown.Lookup(ch)
	if err != nil {
		return fmt.Errorf("element %s frequency_converter_down: %w", name, err)
	}
	if down != nil {
		octave, port, err := down.RFInput()
		if err != nil {
			return fmt.Errorf("element %s: %w", name, err)
		}
		element["RF_outputs"] = map[string]any{"port": []any{octave, port}}
	} else {
		element["outputs"] = map[string]any{"out1": inI.Tuple(), "out2": inQ.Tuple()}
	}
	element["time_of_flight"] = tof
	element["smearing"] = smearing

	declareInput(cfg, inI, offI, gain)
	declareInput(cfg, inQ, offQ, gain)
	cfg.Section("elements")[name] = element
	return nil
}

// Measure emits a measure statement for op, which must be a measurement
// pulse.
func (ch *InOutIQChannel) Measure(b qua.Builder, op string, opts qua.MeasureOptions) (qua.Var, qua.Var, error) {
	if !ch.Operations.Has(op) {
		return qua.Var{}, qua.Var{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownOperation, op, ch.Operations.Keys())
	}
	p, err := ch.Operations.Get(op)
	if err != nil {
		return qua.Var{}, qua.Var{}, err
	}
	if p.Operation() != "measurement" {
		return qua.Var{}, qua.Var{}, fmt.Errorf("channels: operation %q is a %s pulse, not a measurement", op, p.Operation())
	}
	name, err := ch.Name()
	if err != nil {
		return qua.Var{}, qua.Var{}, err
	}
	i, q := b.Measure(op, name, opts)
	return i, q, nil
}

var (
	_ Channel = (*SingleChannel)(nil)
	_ Channel = (*FluxLine)(nil)
	_ Channel = (*IQChannel)(nil)
	_ Channel = (*InOutIQChannel)(nil)
)
