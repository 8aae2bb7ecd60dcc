package pulses

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/squidquam/internal/quam"
)

// element is a minimal channel holding operations.
type element struct {
	quam.Base
	ID         string            `json:"id"`
	IQ         bool              `json:"iq"`
	Operations *quam.Dict[Pulse] `json:"operations"`
	Params     *quam.Dict[any]   `json:"params"`
}

func (e *element) Name() (string, error) { return e.ID, nil }
func (e *element) IsIQ() bool            { return e.IQ }

func newElement(id string, iq bool) *element {
	e := &element{ID: id, IQ: iq, Operations: quam.NewDict[Pulse](), Params: quam.NewDict[any]()}
	quam.Adopt(e)
	return e
}

func TestPulseName(t *testing.T) {
	e := newElement("q1.xy", true)
	p := NewDragGaussianPulse()

	_, err := PulseName(p)
	require.ErrorIs(t, err, ErrNotAttached)

	e.Operations.Set("x180_drag", p)
	name, err := PulseName(p)
	require.NoError(t, err)
	assert.Equal(t, "q1.xy.x180_drag.pulse", name)
}

func TestDragGaussian_Config(t *testing.T) {
	e := newElement("q1.xy", true)
	e.Params.Set("amp", 0.4)
	p := NewDragGaussianPulse()
	p.Length = quam.Lit(40)
	p.Amplitude = quam.Ref[float64]("#/params/amp")
	p.Sigma = quam.Lit(8.0)
	p.AxisAngle = quam.Lit(math.Pi / 2)
	e.Operations.Set("y180", p)

	cfg := quam.BaseConfig()
	require.NoError(t, p.ApplyToConfig(cfg))

	entry, ok := cfg.Lookup("pulses", "q1.xy.y180.pulse")
	require.True(t, ok)
	pulse := entry.(map[string]any)
	assert.Equal(t, "control", pulse["operation"])
	assert.Equal(t, 40, pulse["length"])
	assert.Equal(t, map[string]any{"I": "q1.xy.y180.pulse.wf.I", "Q": "q1.xy.y180.pulse.wf.Q"}, pulse["waveforms"])
	assert.NotContains(t, pulse, "digital_marker")

	wf, ok := cfg.Lookup("waveforms", "q1.xy.y180.pulse.wf.Q")
	require.True(t, ok)
	desc := wf.(map[string]any)
	assert.Equal(t, "drag_gaussian", desc["shape"])
	assert.Equal(t, "Q", desc["component"])
	params := desc["parameters"].(map[string]any)
	assert.Equal(t, 0.4, params["amplitude"])
	assert.Equal(t, 40, params["length"])
	assert.Equal(t, math.Pi/2, params["axis_angle"])
	assert.NotContains(t, params, "anharmonicity")

	// Parameters are read at generation time.
	e.Params.Set("amp", 0.2)
	cfg = quam.BaseConfig()
	require.NoError(t, p.ApplyToConfig(cfg))
	wf, _ = cfg.Lookup("waveforms", "q1.xy.y180.pulse.wf.I", "parameters", "amplitude")
	assert.Equal(t, 0.2, wf)
}

func TestDragGaussian_Validation(t *testing.T) {
	e := newElement("q1.xy", true)
	p := NewDragGaussianPulse()
	p.Length = quam.Lit(40)
	p.Amplitude = quam.Lit(0.1)
	p.Sigma = quam.Lit(8.0)
	p.Alpha = quam.Lit(0.5)
	e.Operations.Set("x90", p)

	err := p.ApplyToConfig(quam.BaseConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anharmonicity")

	p.Anharmonicity = quam.Lit(-200e6)
	require.NoError(t, p.ApplyToConfig(quam.BaseConfig()))

	p.Length = quam.Lit(0)
	require.Error(t, p.ApplyToConfig(quam.BaseConfig()))
}

func TestFlatTopCosine(t *testing.T) {
	testCases := []struct {
		name     string
		part     string
		length   int
		flat     int
		expected int
		wantErr  bool
	}{
		{name: "all", part: ReturnAll, length: 100, flat: 20, expected: 40},
		{name: "rise", part: ReturnRise, length: 16, expected: 16},
		{name: "fall", part: ReturnFall, length: 16, expected: 16},
		{name: "flat too long", part: ReturnAll, length: 10, flat: 20, wantErr: true},
		{name: "bad part", part: "middle", length: 16, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewFlatTopCosinePulse()
			p.Length = quam.Lit(tc.length)
			p.FlatLength = quam.Lit(tc.flat)
			p.ReturnPart = quam.Lit(tc.part)

			got, err := p.RiseFallLength()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)

			v, found, err := p.Property("rise_fall_length")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestFlatTopCosine_SingleChannel(t *testing.T) {
	e := newElement("q1.z", false)
	p := NewFlatTopCosinePulse()
	p.Length = quam.Lit(16)
	p.Amplitude = quam.Lit(-0.3)
	p.ReturnPart = quam.Lit(ReturnFall)
	e.Operations.Set("fall", p)

	cfg := quam.BaseConfig()
	require.NoError(t, p.ApplyToConfig(cfg))
	slots, _ := cfg.Lookup("pulses", "q1.z.fall.pulse", "waveforms")
	assert.Equal(t, map[string]any{"single": "q1.z.fall.pulse.wf.single"}, slots)

	p.AxisAngle = quam.Lit(1.0)
	require.Error(t, p.ApplyToConfig(quam.BaseConfig()))
}

func TestSquareReadout_Config(t *testing.T) {
	e := newElement("q1.resonator", true)
	p := NewSquareReadoutPulse()
	p.Length = quam.Lit(1000)
	p.Amplitude = quam.Lit(0.1)
	e.Operations.Set("readout", p)

	cfg := quam.BaseConfig()
	require.NoError(t, p.ApplyToConfig(cfg))

	entry, _ := cfg.Lookup("pulses", "q1.resonator.readout.pulse")
	pulse := entry.(map[string]any)
	assert.Equal(t, "measurement", pulse["operation"])
	assert.Equal(t, "ON", pulse["digital_marker"])
	assert.Equal(t, map[string]any{
		WeightCos:      "q1.resonator.readout.pulse.iw1",
		WeightSin:      "q1.resonator.readout.pulse.iw2",
		WeightMinusSin: "q1.resonator.readout.pulse.iw3",
	}, pulse["integration_weights"])

	wf, _ := cfg.Lookup("waveforms", "q1.resonator.readout.pulse.wf.I")
	assert.Equal(t, map[string]any{"type": "constant", "sample": 0.1}, wf)
	wf, _ = cfg.Lookup("waveforms", "q1.resonator.readout.pulse.wf.Q")
	assert.Equal(t, map[string]any{"type": "constant", "sample": 0.0}, wf)

	iw, _ := cfg.Lookup("integration_weights", "q1.resonator.readout.pulse.iw1")
	assert.Equal(t, map[string]any{
		"cosine": []any{[]any{1.0, 1000}},
		"sine":   []any{[]any{-0.0, 1000}},
	}, iw)
}

type fakeSynth struct{ calls int }

func (f *fakeSynth) Samples(shape string, params map[string]any) ([]float64, []float64, error) {
	f.calls++
	if shape == "broken" {
		return nil, nil, errors.New("boom")
	}
	return []float64{1, 2}, []float64{3, 4}, nil
}

func TestSynthesize(t *testing.T) {
	e := newElement("q1.xy", true)
	p := NewDragGaussianPulse()
	p.Length = quam.Lit(40)
	p.Amplitude = quam.Lit(0.1)
	p.Sigma = quam.Lit(8.0)
	e.Operations.Set("x180", p)

	cfg := quam.BaseConfig()
	require.NoError(t, p.ApplyToConfig(cfg))
	synth := &fakeSynth{}
	require.NoError(t, Synthesize(cfg, synth))
	assert.Equal(t, 2, synth.calls)

	wf, _ := cfg.Lookup("waveforms", "q1.xy.x180.pulse.wf.Q")
	assert.Equal(t, map[string]any{"type": "arbitrary", "samples": []float64{3, 4}}, wf)

	cfg.Section("waveforms")["bad"] = map[string]any{"shape": "broken"}
	require.Error(t, Synthesize(cfg, synth))
}
