package wiring

import "github.com/vk/squidquam/internal/quam"

func init() {
	quam.Register("wiring.OPXSingleChannelWiring", func() quam.Component { return &SingleChannelWiring{} })
	quam.Register("wiring.OPXIQChannelWiring", func() quam.Component { return &IQChannelWiring{} })
	quam.Register("wiring.OPXFeedLineWiring", func() quam.Component { return &FeedLineWiring{} })
	quam.Register("wiring.OPXWiring", func() quam.Component { return NewOPXWiring() })
}

// SingleChannelWiring is a single-ended output such as a flux line.
type SingleChannelWiring struct {
	quam.Base
	Port Port `json:"port"`
}

// IQChannelWiring is an I/Q output pair, typically a drive line.
type IQChannelWiring struct {
	quam.Base
	PortI Port `json:"port_I"`
	PortQ Port `json:"port_Q"`
}

// DefaultOctavePort returns the Octave RF output the pair feeds.
func (w *IQChannelWiring) DefaultOctavePort() (int, error) {
	return DefaultOctavePort(w.PortI, w.PortQ)
}

func (w *IQChannelWiring) Property(name string) (any, bool, error) {
	if name == "default_octave_port" {
		p, err := w.DefaultOctavePort()
		return p, true, err
	}
	return nil, false, nil
}

// FeedLineWiring is a readout line: an output pair towards the device and an
// input pair back from it.
type FeedLineWiring struct {
	quam.Base
	OutputI Port `json:"output_I"`
	OutputQ Port `json:"output_Q"`
	InputI  Port `json:"input_I"`
	InputQ  Port `json:"input_Q"`
}

// DefaultOctavePortIn returns the Octave RF output fed by the line's outputs.
func (w *FeedLineWiring) DefaultOctavePortIn() (int, error) {
	return DefaultOctavePort(w.OutputI, w.OutputQ)
}

// DefaultOctavePortOut returns the Octave RF input read by the line's inputs.
func (w *FeedLineWiring) DefaultOctavePortOut() (int, error) {
	return DefaultOctavePort(w.InputI, w.InputQ)
}

func (w *FeedLineWiring) Property(name string) (any, bool, error) {
	switch name {
	case "default_octave_port_in":
		p, err := w.DefaultOctavePortIn()
		return p, true, err
	case "default_octave_port_out":
		p, err := w.DefaultOctavePortOut()
		return p, true, err
	}
	return nil, false, nil
}

// OPXWiring collects all lines, keyed by qubit name for drive and flux lines.
type OPXWiring struct {
	quam.Base
	DriveLines *quam.Dict[*IQChannelWiring]     `json:"drive_lines"`
	FeedLines  *quam.Dict[*FeedLineWiring]      `json:"feed_lines"`
	FluxLines  *quam.Dict[*SingleChannelWiring] `json:"flux_lines"`
}

// NewOPXWiring returns wiring with empty line collections.
func NewOPXWiring() *OPXWiring {
	return &OPXWiring{
		DriveLines: quam.NewDict[*IQChannelWiring](),
		FeedLines:  quam.NewDict[*FeedLineWiring](),
		FluxLines:  quam.NewDict[*SingleChannelWiring](),
	}
}
