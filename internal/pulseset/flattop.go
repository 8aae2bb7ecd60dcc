package pulseset

import (
	"fmt"
	"time"

	"github.com/vk/squidquam/internal/pulses"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
)

func init() {
	quam.Register("pulseset.PulseSetFlattopCosine", func() quam.Component { return NewFlattopCosine() })
}

// FlattopCosineGates are the two edges of a flat-top pulse.
var FlattopCosineGates = []string{"rise", "fall"}

// FlattopCosine is a flat-top pulse split into a rise and a fall edge so the
// plateau length can be chosen at runtime. The fall edge is a negative rise
// played on a sticky element.
type FlattopCosine struct {
	PulseSet
	quam.Annotated

	Amplitude    quam.Value[float64] `json:"amplitude" unit:"V" long_name:"Pulse amplitude" description:"Peak amplitude of the pulse."`
	RiseFallTime quam.Value[int]     `json:"rise_fall_time" unit:"ns" long_name:"Rise and fall time" description:"Duration of each of the rise and fall parts."`
}

func NewFlattopCosine() *FlattopCosine {
	return &FlattopCosine{PulseSet: newPulseSet()}
}

func (s *FlattopCosine) PulseClass() string { return "pulses.FlatTopCosinePulse" }

func (s *FlattopCosine) Gates() []string { return FlattopCosineGates }

func (s *FlattopCosine) Property(name string) (any, bool, error) {
	if name == "negative_amplitude" {
		a, err := s.Amplitude.Get(s)
		return -a, true, err
	}
	return s.PulseSet.Property(name)
}

func (s *FlattopCosine) IndividualParameters() (map[string]map[string]any, error) {
	amp, err := ref(s, "amplitude")
	if err != nil {
		return nil, err
	}
	neg, err := ref(s, "negative_amplitude")
	if err != nil {
		return nil, err
	}
	return map[string]map[string]any{
		"rise": {"return_part": pulses.ReturnRise, "amplitude": amp},
		"fall": {"return_part": pulses.ReturnRise, "amplitude": neg},
	}, nil
}

func (s *FlattopCosine) SharedParameters() (map[string]any, error) {
	length, err := ref(s, "rise_fall_time")
	if err != nil {
		return nil, err
	}
	return map[string]any{"length": length}, nil
}

// PlayFlattop plays the rise, holds for plateau and plays the fall.
func (s *FlattopCosine) PlayFlattop(b qua.Builder, plateau time.Duration) error {
	ch, err := ChannelOf(s)
	if err != nil {
		return err
	}
	for i, gate := range FlattopCosineGates {
		if i == 1 {
			if err := ch.Wait(b, plateau); err != nil {
				return err
			}
		}
		op, err := OperationName(s, gate)
		if err != nil {
			return err
		}
		if err := ch.Play(b, op, qua.PlayOptions{}); err != nil {
			return fmt.Errorf("flattop %s: %w", gate, err)
		}
	}
	return nil
}

var (
	_ Set = (*DragGaussian)(nil)
	_ Set = (*FlattopCosine)(nil)
)
