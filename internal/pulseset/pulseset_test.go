package pulseset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/squidquam/internal/channels"
	"github.com/vk/squidquam/internal/pulses"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/wiring"
)

type qubit struct {
	quam.Base
	XY        *channels.IQChannel `json:"xy"`
	PulseSets *quam.Dict[Set]     `json:"pulse_sets"`
}

func (q *qubit) Name() (string, error) { return quam.KeyFromParentDict(q) }

type root struct {
	quam.Base
	Qubits *quam.Dict[*qubit] `json:"qubits"`
}

func newRoot(sets map[string]Set) (*root, *qubit) {
	xy := channels.NewIQChannel()
	xy.OPXOutputI = quam.Lit(wiring.NewPort("con1", 1))
	xy.OPXOutputQ = quam.Lit(wiring.NewPort("con1", 2))
	q := &qubit{XY: xy, PulseSets: quam.NewDict[Set]()}
	for name, s := range sets {
		q.PulseSets.Set(name, s)
	}
	r := &root{Qubits: quam.NewDict[*qubit]()}
	r.Qubits.Set("q1", q)
	quam.Adopt(r)
	return r, q
}

func newDrag() *DragGaussian {
	s := NewDragGaussian()
	s.Amplitude90 = quam.Lit(0.1)
	s.Amplitude180 = quam.Lit(0.2)
	s.Length = quam.Lit(40)
	s.Anharmonicity = quam.Lit(-200e6)
	return s
}

func drag(t *testing.T, q *qubit, op string) *pulses.DragGaussianPulse {
	t.Helper()
	p, err := q.XY.Operations.Get(op)
	require.NoError(t, err)
	d, ok := p.(*pulses.DragGaussianPulse)
	require.True(t, ok, "got %T", p)
	return d
}

func TestDragGaussian_AddDrivePulses(t *testing.T) {
	s := newDrag()
	_, q := newRoot(map[string]Set{"drag": s})

	require.NoError(t, AddDrivePulses(s))
	assert.Equal(t, []string{"x90_drag", "x180_drag", "y90_drag", "y180_drag", "-x90_drag", "-y90_drag"}, q.XY.Operations.Keys())

	testCases := []struct {
		op        string
		amplitude float64
		axis      float64
	}{
		{op: "x90_drag", amplitude: 0.1, axis: 0},
		{op: "x180_drag", amplitude: 0.2, axis: 0},
		{op: "y180_drag", amplitude: 0.2, axis: math.Pi / 2},
		{op: "-x90_drag", amplitude: -0.1, axis: 0},
		{op: "-y90_drag", amplitude: -0.1, axis: math.Pi / 2},
	}
	for _, tc := range testCases {
		t.Run(tc.op, func(t *testing.T) {
			p := drag(t, q, tc.op)
			amp, err := p.Amplitude.Get(p)
			require.NoError(t, err)
			assert.InDelta(t, tc.amplitude, amp, 1e-12)
			axis, err := p.AxisAngle.Get(p)
			require.NoError(t, err)
			assert.InDelta(t, tc.axis, axis, 1e-12)
			assert.True(t, p.Amplitude.IsRef())
		})
	}

	p := drag(t, q, "x180_drag")
	sigma, err := p.Sigma.Get(p)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, sigma, 1e-12)

	s.Amplitude180.Set(0.25)
	amp, err := p.Amplitude.Get(p)
	require.NoError(t, err)
	assert.Equal(t, 0.25, amp, "set edits propagate to the pulses")
}

func TestSetAsDefaultGateShape(t *testing.T) {
	s := newDrag()
	_, q := newRoot(map[string]Set{"drag": s})

	require.NoError(t, SetAsDefaultGateShape(s))
	_, ref, ok := q.XY.Operations.Raw("x180")
	require.True(t, ok)
	assert.Equal(t, "#./x180_drag", ref)

	p, err := q.XY.Operations.Get("x180")
	require.NoError(t, err)
	assert.True(t, quam.Same(p, drag(t, q, "x180_drag")))

	name, err := pulses.PulseName(p)
	require.NoError(t, err)
	assert.Equal(t, "q1.xy.x180_drag.pulse", name)

	cfg, err := quam.GenerateConfig(q)
	require.NoError(t, err)
	op, ok := cfg.Lookup("elements", "q1.xy", "operations", "x180")
	require.True(t, ok)
	assert.Equal(t, "q1.xy.x180_drag.pulse", op)
}

func TestSetAsDefaultGateShape_SwitchesSets(t *testing.T) {
	dragSet := newDrag()
	other := newDrag()
	other.Amplitude180 = quam.Lit(0.3)
	_, q := newRoot(map[string]Set{"drag": dragSet, "drag2": other})

	require.NoError(t, SetAsDefaultGateShape(dragSet))
	require.NoError(t, SetAsDefaultGateShape(other))

	p, err := q.XY.Operations.Get("x180")
	require.NoError(t, err)
	d := p.(*pulses.DragGaussianPulse)
	amp, err := d.Amplitude.Get(d)
	require.NoError(t, err)
	assert.Equal(t, 0.3, amp)
	assert.Equal(t, 18, q.XY.Operations.Len())
}

type badSet struct {
	*DragGaussian
	individual map[string]map[string]any
}

func (b *badSet) IndividualParameters() (map[string]map[string]any, error) {
	return b.individual, nil
}

func TestAddDrivePulses_Errors(t *testing.T) {
	t.Run("unknown gate", func(t *testing.T) {
		s := &badSet{DragGaussian: newDrag(), individual: map[string]map[string]any{"z90": {}}}
		newRoot(map[string]Set{"bad": s})
		require.ErrorIs(t, AddDrivePulses(s), ErrUnknownGate)
	})
	t.Run("unknown parameter", func(t *testing.T) {
		s := &badSet{DragGaussian: newDrag(), individual: map[string]map[string]any{"x90": {"bogus": 1}}}
		newRoot(map[string]Set{"bad": s})
		err := AddDrivePulses(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})
	t.Run("detached set", func(t *testing.T) {
		require.Error(t, AddDrivePulses(newDrag()))
	})
}

func TestAddDrivePulses_IndividualOverridesShared(t *testing.T) {
	s := &badSet{DragGaussian: newDrag()}
	_, q := newRoot(map[string]Set{"drag": s})

	individual, err := s.DragGaussian.IndividualParameters()
	require.NoError(t, err)
	individual["x90"]["length"] = 20
	individual["x90"]["sigma"] = 3.0
	s.individual = individual
	require.NoError(t, AddDrivePulses(s))

	testCases := []struct {
		op          string
		length      int
		sigma       float64
		lengthIsRef bool
	}{
		{op: "x90_drag", length: 20, sigma: 3},
		{op: "x180_drag", length: 40, sigma: 8, lengthIsRef: true},
		{op: "y90_drag", length: 40, sigma: 8, lengthIsRef: true},
	}
	for _, tc := range testCases {
		t.Run(tc.op, func(t *testing.T) {
			p := drag(t, q, tc.op)
			length, err := p.Length.Get(p)
			require.NoError(t, err)
			assert.Equal(t, tc.length, length)
			sigma, err := p.Sigma.Get(p)
			require.NoError(t, err)
			assert.InDelta(t, tc.sigma, sigma, 1e-12)
			assert.Equal(t, tc.lengthIsRef, p.Length.IsRef())
		})
	}
}

func TestDragGaussian_LengthFromSigmaIsACycle(t *testing.T) {
	s := newDrag()
	newRoot(map[string]Set{"drag": s})
	s.Length = quam.Ref[int]("#./sigma")

	_, err := s.Length.Get(s)
	require.ErrorIs(t, err, quam.ErrReferenceCycle)
	_, err = s.InferredSigma()
	require.ErrorIs(t, err, quam.ErrReferenceCycle)

	s.Sigma = quam.Lit(6.0)
	length, err := s.Length.Get(s)
	require.NoError(t, err)
	assert.Equal(t, 6, length)
}

func TestFlattopCosine(t *testing.T) {
	s := NewFlattopCosine()
	s.Amplitude = quam.Lit(0.1)
	s.RiseFallTime = quam.Lit(16)
	_, q := newRoot(map[string]Set{"flattop": s})

	require.NoError(t, AddDrivePulses(s))
	p, err := q.XY.Operations.Get("fall_flattop")
	require.NoError(t, err)
	fall := p.(*pulses.FlatTopCosinePulse)
	amp, err := fall.Amplitude.Get(fall)
	require.NoError(t, err)
	assert.Equal(t, -0.1, amp)
	rf, err := fall.RiseFallLength()
	require.NoError(t, err)
	assert.Equal(t, 16, rf)

	rec := qua.NewRecorder()
	require.NoError(t, s.PlayFlattop(rec, 100*time.Nanosecond))
	require.Equal(t, []string{
		"play(rise_flattop, q1.xy)",
		"wait(25, q1.xy)",
		"play(fall_flattop, q1.xy)",
	}, statements(rec))
}

func statements(rec *qua.Recorder) []string {
	var out []string
	for _, s := range rec.Statements() {
		out = append(out, s.String())
	}
	return out
}
