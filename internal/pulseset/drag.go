package pulseset

import (
	"math"

	"github.com/vk/squidquam/internal/quam"
)

func init() {
	quam.Register("pulseset.PulseSetDragGaussian", func() quam.Component { return NewDragGaussian() })
}

// DragGaussianGates are the single-qubit rotations of a DRAG pulse set.
var DragGaussianGates = []string{"x90", "x180", "y90", "y180", "-x90", "-y90"}

// DragGaussian is a set of DRAG Gaussian pulses differing only in amplitude
// and rotation axis.
type DragGaussian struct {
	PulseSet
	quam.Annotated

	Amplitude90  quam.Value[float64] `json:"amplitude_90" unit:"V" long_name:"π/2-pulse peak amplitude" description:"Amplitude of the π/2 pulse."`
	Amplitude180 quam.Value[float64] `json:"amplitude_180" unit:"V" long_name:"π-pulse peak amplitude" description:"Amplitude of the π pulse."`
	Length       quam.Value[int]     `json:"length" unit:"ns" long_name:"Pulse length" description:"Length of the window containing the pulse."`

	Sigma              quam.Value[float64] `json:"sigma" unit:"ns" long_name:"Pulse sigma" description:"Width of the Gaussian waveform pulse."`
	SigmaToLengthRatio quam.Value[float64] `json:"sigma_to_length_ratio" long_name:"Sigma to length ratio"`

	PhaseX quam.Value[float64] `json:"phase_x" unit:"degree" long_name:"X-axis phase" description:"Phase of the pulse in the X-axis."`
	PhaseY quam.Value[float64] `json:"phase_y" unit:"degree" long_name:"Y-axis phase" description:"Phase of the pulse in the Y-axis."`

	Anharmonicity quam.Value[float64] `json:"anharmonicity" unit:"Hz" long_name:"Waveform anharmonicity" description:"Anharmonicity used in the calculation of the DRAG waveform."`
	Detuning      quam.Value[float64] `json:"detuning" unit:"Hz" long_name:"Detuning" description:"Detuning of the pulse from the channel RF frequency."`
	Alpha         quam.Value[float64] `json:"alpha" long_name:"DRAG coefficient" description:"Coefficient for the derivative of the pulse."`
	Subtracted    quam.Value[bool]    `json:"subtracted" long_name:"Subtracted" description:"Whether the pulse is shifted such that the end points are 0"`
	DigitalMarker quam.Value[string]  `json:"digital_marker"`
}

// DefaultSigmaToLengthRatio puts five sigma inside the pulse window.
const DefaultSigmaToLengthRatio = 0.2

func NewDragGaussian() *DragGaussian {
	return &DragGaussian{
		PulseSet:           newPulseSet(),
		Sigma:              quam.Ref[float64]("#./inferred_sigma"),
		SigmaToLengthRatio: quam.Lit(DefaultSigmaToLengthRatio),
		PhaseX:             quam.Lit(0.0),
		PhaseY:             quam.Lit(90.0),
		Detuning:           quam.Lit(0.0),
		Alpha:              quam.Lit(0.0),
		Subtracted:         quam.Lit(true),
	}
}

func (s *DragGaussian) PulseClass() string { return "pulses.DragGaussianPulse" }

func (s *DragGaussian) Gates() []string { return DragGaussianGates }

// InferredSigma is length * sigma_to_length_ratio.
func (s *DragGaussian) InferredSigma() (float64, error) {
	length, err := s.Length.Get(s)
	if err != nil {
		return 0, err
	}
	ratio, err := s.SigmaToLengthRatio.Get(s)
	if err != nil {
		return 0, err
	}
	return float64(length) * ratio, nil
}

func (s *DragGaussian) Property(name string) (any, bool, error) {
	switch name {
	case "amplitude_m90":
		a, err := s.Amplitude90.Get(s)
		return -a, true, err
	case "inferred_sigma":
		v, err := s.InferredSigma()
		return v, true, err
	case "axis_angle_x":
		v, err := radians(s, s.PhaseX)
		return v, true, err
	case "axis_angle_y":
		v, err := radians(s, s.PhaseY)
		return v, true, err
	}
	return s.PulseSet.Property(name)
}

func radians(owner quam.Component, deg quam.Value[float64]) (float64, error) {
	d, err := deg.Get(owner)
	if err != nil {
		return 0, err
	}
	return d * math.Pi / 180, nil
}

func (s *DragGaussian) IndividualParameters() (map[string]map[string]any, error) {
	refs := map[string]string{}
	for _, attr := range []string{"amplitude_90", "amplitude_180", "amplitude_m90", "axis_angle_x", "axis_angle_y"} {
		r, err := ref(s, attr)
		if err != nil {
			return nil, err
		}
		refs[attr] = r
	}
	gate := func(amplitude, axis string) map[string]any {
		return map[string]any{"amplitude": refs[amplitude], "axis_angle": refs[axis]}
	}
	return map[string]map[string]any{
		"x90":  gate("amplitude_90", "axis_angle_x"),
		"x180": gate("amplitude_180", "axis_angle_x"),
		"y90":  gate("amplitude_90", "axis_angle_y"),
		"y180": gate("amplitude_180", "axis_angle_y"),
		"-x90": gate("amplitude_m90", "axis_angle_x"),
		"-y90": gate("amplitude_m90", "axis_angle_y"),
	}, nil
}

func (s *DragGaussian) SharedParameters() (map[string]any, error) {
	out := make(map[string]any)
	for _, attr := range []string{"length", "sigma", "anharmonicity", "alpha", "detuning", "subtracted", "digital_marker"} {
		r, err := ref(s, attr)
		if err != nil {
			return nil, err
		}
		out[attr] = r
	}
	return out, nil
}
