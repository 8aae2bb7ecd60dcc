package pulses

import (
	"fmt"
	"math"

	"github.com/vk/squidquam/internal/quam"
)

func init() {
	quam.Register("pulses.DragGaussianPulse", func() quam.Component { return NewDragGaussianPulse() })
	quam.Register("pulses.FlatTopCosinePulse", func() quam.Component { return NewFlatTopCosinePulse() })
	quam.Register("pulses.SquareReadoutPulse", func() quam.Component { return NewSquareReadoutPulse() })
}

// DragGaussianPulse is a Gaussian with a DRAG derivative correction on the
// quadrature.
type DragGaussianPulse struct {
	Common
	Amplitude     quam.Value[float64] `json:"amplitude" unit:"V"`
	Sigma         quam.Value[float64] `json:"sigma" unit:"ns"`
	Alpha         quam.Value[float64] `json:"alpha" long_name:"DRAG coefficient"`
	Anharmonicity quam.Value[float64] `json:"anharmonicity" unit:"Hz"`
	Detuning      quam.Value[float64] `json:"detuning" unit:"Hz"`
	Subtracted    quam.Value[bool]    `json:"subtracted" description:"Subtract the final value so the pulse starts and ends at zero"`
}

func NewDragGaussianPulse() *DragGaussianPulse {
	return &DragGaussianPulse{
		Common: Common{
			AxisAngle: quam.Lit(0.0),
		},
		Alpha:      quam.Lit(0.0),
		Detuning:   quam.Lit(0.0),
		Subtracted: quam.Lit(true),
	}
}

func (p *DragGaussianPulse) Operation() string { return "control" }

func (p *DragGaussianPulse) Waveforms(iq bool) (map[string]Waveform, error) {
	amplitude, err := p.Amplitude.Get(p)
	if err != nil {
		return nil, fmt.Errorf("amplitude: %w", err)
	}
	sigma, err := p.Sigma.Get(p)
	if err != nil {
		return nil, fmt.Errorf("sigma: %w", err)
	}
	if sigma <= 0 {
		return nil, fmt.Errorf("sigma must be positive, got %g", sigma)
	}
	alpha, _, err := p.Alpha.Lookup(p)
	if err != nil {
		return nil, fmt.Errorf("alpha: %w", err)
	}
	anharmonicity, hasAnharmonicity, err := p.Anharmonicity.Lookup(p)
	if err != nil {
		return nil, fmt.Errorf("anharmonicity: %w", err)
	}
	if alpha != 0 && !hasAnharmonicity {
		return nil, fmt.Errorf("alpha %g needs the qubit anharmonicity", alpha)
	}
	detuning, _, err := p.Detuning.Lookup(p)
	if err != nil {
		return nil, fmt.Errorf("detuning: %w", err)
	}
	subtracted, _, err := p.Subtracted.Lookup(p)
	if err != nil {
		return nil, fmt.Errorf("subtracted: %w", err)
	}
	angle, err := p.axisAngle(p)
	if err != nil {
		return nil, fmt.Errorf("axis_angle: %w", err)
	}

	params := map[string]any{
		"amplitude":  amplitude,
		"sigma":      sigma,
		"alpha":      alpha,
		"detuning":   detuning,
		"subtracted": subtracted,
	}
	if hasAnharmonicity {
		params["anharmonicity"] = anharmonicity
	}
	return shapedIQ("drag_gaussian", params, angle, iq)
}

func (p *DragGaussianPulse) ApplyToConfig(cfg quam.Config) error {
	_, _, err := applyPulse(cfg, p)
	return err
}

// Return parts of a flat-top pulse.
const (
	ReturnAll  = "all"
	ReturnRise = "rise"
	ReturnFall = "fall"
)

// FlatTopCosinePulse rises with a cosine edge, holds, and falls. Playing only
// the rise or the fall lets a program hold the plateau for a runtime
// duration.
type FlatTopCosinePulse struct {
	Common
	Amplitude  quam.Value[float64] `json:"amplitude" unit:"V"`
	FlatLength quam.Value[int]     `json:"flat_length" unit:"ns"`
	ReturnPart quam.Value[string]  `json:"return_part" description:"all, rise or fall"`
}

func NewFlatTopCosinePulse() *FlatTopCosinePulse {
	return &FlatTopCosinePulse{
		Common: Common{
			AxisAngle: quam.Lit(0.0),
		},
		FlatLength: quam.Lit(0),
		ReturnPart: quam.Lit(ReturnAll),
	}
}

func (p *FlatTopCosinePulse) Operation() string { return "control" }

// RiseFallLength is the duration of one cosine edge, in ns.
func (p *FlatTopCosinePulse) RiseFallLength() (int, error) {
	length, err := p.Length.Get(p)
	if err != nil {
		return 0, err
	}
	part, err := p.returnPart()
	if err != nil {
		return 0, err
	}
	if part != ReturnAll {
		return length, nil
	}
	flat, _, err := p.FlatLength.Lookup(p)
	if err != nil {
		return 0, err
	}
	if flat > length {
		return 0, fmt.Errorf("flat length %d exceeds pulse length %d", flat, length)
	}
	return (length - flat) / 2, nil
}

func (p *FlatTopCosinePulse) returnPart() (string, error) {
	part, ok, err := p.ReturnPart.Lookup(p)
	if err != nil {
		return "", err
	}
	if !ok {
		return ReturnAll, nil
	}
	switch part {
	case ReturnAll, ReturnRise, ReturnFall:
		return part, nil
	}
	return "", fmt.Errorf("return_part must be %q, %q or %q, got %q", ReturnAll, ReturnRise, ReturnFall, part)
}

func (p *FlatTopCosinePulse) Property(name string) (any, bool, error) {
	if name == "rise_fall_length" {
		v, err := p.RiseFallLength()
		return v, true, err
	}
	return nil, false, nil
}

func (p *FlatTopCosinePulse) Waveforms(iq bool) (map[string]Waveform, error) {
	amplitude, err := p.Amplitude.Get(p)
	if err != nil {
		return nil, fmt.Errorf("amplitude: %w", err)
	}
	riseFall, err := p.RiseFallLength()
	if err != nil {
		return nil, err
	}
	part, err := p.returnPart()
	if err != nil {
		return nil, err
	}
	flat, _, err := p.FlatLength.Lookup(p)
	if err != nil {
		return nil, err
	}
	angle, err := p.axisAngle(p)
	if err != nil {
		return nil, fmt.Errorf("axis_angle: %w", err)
	}

	params := map[string]any{
		"amplitude":        amplitude,
		"flat_length":      flat,
		"rise_fall_length": riseFall,
		"return_part":      part,
	}
	return shapedIQ("flattop_cosine", params, angle, iq)
}

func (p *FlatTopCosinePulse) ApplyToConfig(cfg quam.Config) error {
	_, _, err := applyPulse(cfg, p)
	return err
}

// SquareReadoutPulse is a constant readout tone with matching integration
// weights.
type SquareReadoutPulse struct {
	Common
	Amplitude               quam.Value[float64] `json:"amplitude" unit:"V"`
	IntegrationWeightsAngle quam.Value[float64] `json:"integration_weights_angle" unit:"rad"`
}

func NewSquareReadoutPulse() *SquareReadoutPulse {
	return &SquareReadoutPulse{
		Common: Common{
			AxisAngle:     quam.Lit(0.0),
			DigitalMarker: quam.Lit("ON"),
		},
		IntegrationWeightsAngle: quam.Lit(0.0),
	}
}

func (p *SquareReadoutPulse) Operation() string { return "measurement" }

func (p *SquareReadoutPulse) Waveforms(iq bool) (map[string]Waveform, error) {
	amplitude, err := p.Amplitude.Get(p)
	if err != nil {
		return nil, fmt.Errorf("amplitude: %w", err)
	}
	angle, err := p.axisAngle(p)
	if err != nil {
		return nil, fmt.Errorf("axis_angle: %w", err)
	}
	return constantIQ(amplitude, angle, iq)
}

// Integration weight labels written for readout pulses.
const (
	WeightCos      = "iw1"
	WeightSin      = "iw2"
	WeightMinusSin = "iw3"
)

func (p *SquareReadoutPulse) ApplyToConfig(cfg quam.Config) error {
	name, entry, err := applyPulse(cfg, p)
	if err != nil {
		return err
	}
	length := entry["length"].(int)
	phi, _, err := p.IntegrationWeightsAngle.Lookup(p)
	if err != nil {
		return err
	}

	cos, sin := math.Cos(phi), math.Sin(phi)
	weights := map[string][2]float64{
		WeightCos:      {cos, -sin},
		WeightSin:      {sin, cos},
		WeightMinusSin: {-sin, -cos},
	}

	iw := cfg.Section("integration_weights")
	labels := make(map[string]any, len(weights))
	for label, w := range weights {
		wName := quam.FormatName(name, label)
		iw[wName] = map[string]any{
			"cosine": []any{[]any{w[0], length}},
			"sine":   []any{[]any{w[1], length}},
		}
		labels[label] = wName
	}
	entry["integration_weights"] = labels
	return nil
}
