package qubits

import (
	"fmt"

	"github.com/vk/squidquam/internal/channels"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
)

func init() {
	quam.Register("qubits.ReadoutResonator", func() quam.Component { return NewReadoutResonator() })
}

// ReadoutResonator is the resonator a qubit is read out through.
type ReadoutResonator struct {
	quam.Base
	quam.Annotated
	Channel       *channels.InOutIQChannel `json:"channel"`
	DepletionTime quam.Value[int]          `json:"depletion_time" unit:"ns" long_name:"Depletion time" description:"The resonator depletion time"`

	FrequencyBare quam.Value[float64] `json:"frequency_bare" unit:"Hz" long_name:"Bare frequency" description:"The bare resonator frequency, i.e., as measured at high power"`
	FrequencyQ0   quam.Value[float64] `json:"frequency_q0" unit:"Hz" long_name:"Q0 frequency" description:"The dispersively shifted resonator frequency with the qubit in state |0⟩"`
	FrequencyQ1   quam.Value[float64] `json:"frequency_q1" unit:"Hz" long_name:"Q1 frequency" description:"The dispersively shifted resonator frequency with the qubit in state |1⟩"`

	QInt       quam.Value[float64] `json:"Q_int" long_name:"Internal quality factor" description:"The internal quality factor of the resonator"`
	QExt       quam.Value[float64] `json:"Q_ext" long_name:"External quality factor" description:"The external quality factor of the resonator"`
	ThresholdG quam.Value[float64] `json:"threshold_g" unit:"V" long_name:"Ground state threshold" description:"Demodulated I above which the qubit is taken to be excited"`
}

func NewReadoutResonator() *ReadoutResonator {
	return &ReadoutResonator{
		Annotated: quam.Annotated{Metadata: map[string]*quam.Metadata{
			"readout_frequency": {
				Unit:        "Hz",
				LongName:    "Readout frequency",
				Description: "The readout frequency of the resonator",
			},
		}},
	}
}

// Name is <qubit name>.resonator.
func (r *ReadoutResonator) Name() (string, error) {
	parent, ok := quam.ParentOf(r).(interface{ Name() (string, error) })
	if !ok {
		return "", fmt.Errorf("resonator is not held by a qubit: %w", quam.ErrNoParent)
	}
	name, err := parent.Name()
	if err != nil {
		return "", err
	}
	return quam.FormatName(name, "resonator"), nil
}

// ReadoutFrequency is the RF frequency of the readout channel.
func (r *ReadoutResonator) ReadoutFrequency() (float64, error) {
	if r.Channel == nil {
		return 0, fmt.Errorf("resonator channel: %w", quam.ErrNotSet)
	}
	return r.Channel.RFFrequency.Get(r.Channel)
}

// SetReadoutFrequency sets the RF frequency of the readout channel.
func (r *ReadoutResonator) SetReadoutFrequency(f float64) error {
	if r.Channel == nil {
		return fmt.Errorf("resonator channel: %w", quam.ErrNotSet)
	}
	r.Channel.RFFrequency.Set(f)
	return nil
}

func (r *ReadoutResonator) Property(name string) (any, bool, error) {
	switch name {
	case "readout_frequency":
		f, err := r.ReadoutFrequency()
		return f, true, err
	case "name":
		n, err := r.Name()
		return n, true, err
	}
	return nil, false, nil
}

// Measure measures op on the readout channel.
func (r *ReadoutResonator) Measure(b qua.Builder, op string, opts qua.MeasureOptions) (qua.Var, qua.Var, error) {
	if r.Channel == nil {
		return qua.Var{}, qua.Var{}, fmt.Errorf("resonator channel: %w", quam.ErrNotSet)
	}
	return r.Channel.Measure(b, op, opts)
}
