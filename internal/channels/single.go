package channels

import (
	"fmt"

	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/wiring"
)

func init() {
	quam.Register("channels.SingleChannel", func() quam.Component { return NewSingleChannel() })
	quam.Register("channels.FluxLine", func() quam.Component { return NewFluxLine() })
}

// SingleChannel is a single-ended analog output.
type SingleChannel struct {
	Common
	OPXOutput             quam.Value[wiring.Port] `json:"opx_output"`
	OPXOutputOffset       quam.Value[float64]     `json:"opx_output_offset" unit:"V"`
	IntermediateFrequency quam.Value[float64]     `json:"intermediate_frequency" unit:"Hz"`
}

func NewSingleChannel() *SingleChannel {
	return &SingleChannel{
		Common:          newCommon(),
		OPXOutputOffset: quam.Lit(0.0),
	}
}

func (ch *SingleChannel) IsIQ() bool { return false }

func (ch *SingleChannel) ApplyToConfig(cfg quam.Config) error {
	return ch.apply(ch, cfg)
}

func (ch *SingleChannel) apply(owner quam.Component, cfg quam.Config) error {
	name, err := ch.Name()
	if err != nil {
		return err
	}
	port, err := ch.OPXOutput.Get(owner)
	if err != nil {
		return fmt.Errorf("element %s opx_output: %w", name, err)
	}
	offset, _, err := ch.OPXOutputOffset.Lookup(owner)
	if err != nil {
		return err
	}
	ops, err := ch.operationsConfig()
	if err != nil {
		return fmt.Errorf("element %s: %w", name, err)
	}

	element := map[string]any{
		"singleInput": map[string]any{"port": port.Tuple()},
		"operations":  ops,
	}
	if f, ok, err := ch.IntermediateFrequency.Lookup(owner); err != nil {
		return err
	} else if ok {
		element["intermediate_frequency"] = f
	}
	cfg.Section("elements")[name] = element
	declareOutput(cfg, port, offset)
	return nil
}

// FluxLine is the flux bias line of a tunable transmon or coupler.
type FluxLine struct {
	SingleChannel
	IndependentOffset quam.Value[float64] `json:"independent_offset" unit:"V"`
	JointOffset       quam.Value[float64] `json:"joint_offset" unit:"V"`
	MinOffset         quam.Value[float64] `json:"min_offset" unit:"V"`
}

func NewFluxLine() *FluxLine {
	return &FluxLine{
		SingleChannel:     *NewSingleChannel(),
		IndependentOffset: quam.Lit(0.0),
		JointOffset:       quam.Lit(0.0),
		MinOffset:         quam.Lit(0.0),
	}
}

func (f *FluxLine) ApplyToConfig(cfg quam.Config) error {
	return f.apply(f, cfg)
}

// Offset returns the named idle offset: "independent", "joint" or "min".
func (f *FluxLine) Offset(which string) (float64, error) {
	switch which {
	case "independent":
		return f.IndependentOffset.Get(f)
	case "joint":
		return f.JointOffset.Get(f)
	case "min":
		return f.MinOffset.Get(f)
	}
	return 0, fmt.Errorf("channels: unknown flux offset %q", which)
}
