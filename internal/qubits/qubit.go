package qubits

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vk/squidquam/internal/channels"
	"github.com/vk/squidquam/internal/macros"
	"github.com/vk/squidquam/internal/octave"
	"github.com/vk/squidquam/internal/pulseset"
	"github.com/vk/squidquam/internal/qm"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
)

var (
	// ErrT1Missing is returned when a thermalization time is needed but T1
	// was never measured.
	ErrT1Missing = errors.New("qubits: T1 not specified")
	// ErrUnknownPulseSet is returned for a gate shape the qubit has no pulse
	// set for.
	ErrUnknownPulseSet = errors.New("qubits: pulse set not defined")
	// ErrNoOctave is returned when calibrating a mixer that is not an Octave
	// up-converter.
	ErrNoOctave = errors.New("qubits: mixer calibration needs an Octave up-converter")
)

func init() {
	quam.Register("qubits.ScQubit", func() quam.Component { return NewScQubit() })
	quam.Register("qubits.FluxTunableTransmon", func() quam.Component { return NewFluxTunableTransmon() })
}

// Qubit is implemented by every qubit type.
type Qubit interface {
	quam.Component
	Name() (string, error)
	SetDefaultGateShape(shape string) error
	qubit() *ScQubit
}

// Transmon returns the ScQubit every qubit type is built on.
func Transmon(q Qubit) *ScQubit { return q.qubit() }

// ScQubit is a superconducting qubit with a drive line and a readout
// resonator.
type ScQubit struct {
	quam.Base
	quam.Annotated

	// ID is a string or a number. Numbers name the qubit q<id>.
	ID        quam.Value[any]     `json:"id"`
	XY        *channels.IQChannel `json:"xy"`
	Resonator *ReadoutResonator   `json:"resonator"`

	TransitionFrequencies []*float64 `json:"transition_frequencies" unit:"Hz" long_name:"Transition frequencies" description:"Transition frequencies of the qubit in the form [f01, f12, ...]"`

	T1                       quam.Value[float64] `json:"T1" unit:"s" long_name:"T1" description:"Qubit decay rate"`
	T2Ramsey                 quam.Value[float64] `json:"T2ramsey" unit:"s" long_name:"T2 Ramsey" description:"Dephasing time as measured by a Ramsey experiment"`
	T2Echo                   quam.Value[float64] `json:"T2echo" unit:"s" long_name:"T2 echo" description:"Dephasing time as measured by an echo experiment"`
	ThermalizationTimeFactor quam.Value[int]     `json:"thermalization_time_factor" long_name:"Thermalization time factor" description:"Factor to multiply the T1 time in cooldown qubit resets. exp(-5) = 0.0067"`

	PulseSets *quam.Dict[pulseset.Set] `json:"pulse_sets"`
}

func NewScQubit() *ScQubit {
	return &ScQubit{
		ID:                       quam.Ref[any]("#./id_from_parent_dict"),
		TransitionFrequencies:    []*float64{nil, nil},
		ThermalizationTimeFactor: quam.Lit(5),
		PulseSets:                quam.NewDict[pulseset.Set](),
	}
}

func (q *ScQubit) qubit() *ScQubit { return q }

// Name is the id for string ids and q<id> for numeric ones.
func (q *ScQubit) Name() (string, error) {
	id, err := q.ID.Get(q)
	if err != nil {
		return "", fmt.Errorf("qubit id: %w", err)
	}
	switch v := id.(type) {
	case string:
		return v, nil
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("q%d", int(v)), nil
		}
	case int:
		return fmt.Sprintf("q%d", v), nil
	}
	return "", fmt.Errorf("%w: qubit id %v (%T)", quam.ErrTypeMismatch, id, id)
}

func (q *ScQubit) transition(i int) (float64, bool) {
	if i >= len(q.TransitionFrequencies) || q.TransitionFrequencies[i] == nil {
		return 0, false
	}
	return *q.TransitionFrequencies[i], true
}

func (q *ScQubit) setTransition(i int, f float64) {
	for len(q.TransitionFrequencies) <= i {
		q.TransitionFrequencies = append(q.TransitionFrequencies, nil)
	}
	q.TransitionFrequencies[i] = &f
}

// F01 is the g-e transition frequency in Hz.
func (q *ScQubit) F01() (float64, bool) { return q.transition(0) }

// F12 is the e-f transition frequency in Hz.
func (q *ScQubit) F12() (float64, bool) { return q.transition(1) }

func (q *ScQubit) SetF01(f float64) { q.setTransition(0, f) }
func (q *ScQubit) SetF12(f float64) { q.setTransition(1, f) }

// Anharmonicity is f_12 - f_01, known only when both are.
func (q *ScQubit) Anharmonicity() (float64, bool) {
	f01, ok01 := q.F01()
	f12, ok12 := q.F12()
	if !ok01 || !ok12 {
		return 0, false
	}
	return f12 - f01, true
}

// ThermalizationTime is thermalization_time_factor * T1.
func (q *ScQubit) ThermalizationTime() (time.Duration, error) {
	t1, ok, err := q.T1.Lookup(q)
	if err != nil {
		return 0, err
	}
	if !ok {
		name, _ := q.Name()
		return 0, fmt.Errorf("%w for qubit %s", ErrT1Missing, name)
	}
	factor, err := q.ThermalizationTimeFactor.Get(q)
	if err != nil {
		return 0, err
	}
	return time.Duration(float64(factor) * t1 * float64(time.Second)), nil
}

func (q *ScQubit) Property(name string) (any, bool, error) {
	switch name {
	case "id_from_parent_dict":
		key, err := quam.KeyFromParentDict(q)
		return key, true, err
	case "name":
		n, err := q.Name()
		return n, true, err
	case "f_01", "f_12", "anharmonicity":
		var (
			v  float64
			ok bool
		)
		switch name {
		case "f_01":
			v, ok = q.F01()
		case "f_12":
			v, ok = q.F12()
		default:
			v, ok = q.Anharmonicity()
		}
		if !ok {
			return nil, true, nil
		}
		return v, true, nil
	case "thermalization_time":
		d, err := q.ThermalizationTime()
		return d.Seconds(), true, err
	}
	return nil, false, nil
}

// SetDefaultGateShape makes the pulse set called shape the qubit's default
// gates.
func (q *ScQubit) SetDefaultGateShape(shape string) error {
	if !q.PulseSets.Has(shape) {
		name, _ := q.Name()
		return fmt.Errorf("%w: %q for qubit %s, defined are %v", ErrUnknownPulseSet, shape, name, q.PulseSets.Keys())
	}
	s, err := q.PulseSets.Get(shape)
	if err != nil {
		return err
	}
	return pulseset.SetAsDefaultGateShape(s)
}

// DriveElement is the element name of the drive channel.
func (q *ScQubit) DriveElement() (string, error) {
	if q.XY == nil {
		return "", fmt.Errorf("qubit xy channel: %w", quam.ErrNotSet)
	}
	return q.XY.Name()
}

// ReadoutElement is the element name of the resonator channel.
func (q *ScQubit) ReadoutElement() (string, error) {
	if q.Resonator == nil || q.Resonator.Channel == nil {
		return "", fmt.Errorf("qubit resonator channel: %w", quam.ErrNotSet)
	}
	return q.Resonator.Channel.Name()
}

// Threshold is the resonator's ground state threshold.
func (q *ScQubit) Threshold() (float64, error) {
	if q.Resonator == nil {
		return 0, fmt.Errorf("qubit resonator: %w", quam.ErrNotSet)
	}
	return q.Resonator.ThresholdG.Get(q.Resonator)
}

// Play plays op on the drive channel.
func (q *ScQubit) Play(b qua.Builder, op string, opts qua.PlayOptions) error {
	if q.XY == nil {
		return fmt.Errorf("qubit xy channel: %w", quam.ErrNotSet)
	}
	return q.XY.Play(b, op, opts)
}

// Measure measures op on the resonator.
func (q *ScQubit) Measure(b qua.Builder, op string, opts qua.MeasureOptions) (qua.Var, qua.Var, error) {
	if q.Resonator == nil {
		return qua.Var{}, qua.Var{}, fmt.Errorf("qubit resonator: %w", quam.ErrNotSet)
	}
	return q.Resonator.Measure(b, op, opts)
}

// Reset resets the qubit. Without an explicit relaxation time the
// thermalization time is used.
func (q *ScQubit) Reset(b qua.Builder, opts macros.ResetOptions) (*qua.Var, error) {
	return macros.ResetQubit(b, q, opts)
}

// Align aligns the drive channel with elements.
func (q *ScQubit) Align(b qua.Builder, elements ...string) error {
	drive, err := q.DriveElement()
	if err != nil {
		return err
	}
	b.Align(append([]string{drive}, elements...)...)
	return nil
}

// AlignResonator aligns the drive and readout channels with elements.
func (q *ScQubit) AlignResonator(b qua.Builder, elements ...string) error {
	readout, err := q.ReadoutElement()
	if err != nil {
		return err
	}
	return q.Align(b, append([]string{readout}, elements...)...)
}

// Wait aligns with elements and waits d on the drive channel.
func (q *ScQubit) Wait(b qua.Builder, d time.Duration, elements ...string) error {
	if err := q.Align(b, elements...); err != nil {
		return err
	}
	return q.XY.Wait(b, d)
}

// CalibrateDriveMixer runs the Octave mixer calibration of the drive
// channel.
func (q *ScQubit) CalibrateDriveMixer(ctx context.Context) error {
	if q.XY == nil {
		return fmt.Errorf("qubit xy channel: %w", quam.ErrNotSet)
	}
	return calibrate(ctx, q, q.XY)
}

// CalibrateReadoutMixer runs the Octave mixer calibration of the readout
// channel.
func (q *ScQubit) CalibrateReadoutMixer(ctx context.Context) error {
	if q.Resonator == nil || q.Resonator.Channel == nil {
		return fmt.Errorf("qubit resonator channel: %w", quam.ErrNotSet)
	}
	return calibrate(ctx, q, &q.Resonator.Channel.IQChannel)
}

func calibrate(ctx context.Context, q *ScQubit, ch *channels.IQChannel) error {
	up, err := ch.UpConverter()
	if err != nil {
		return err
	}
	if _, ok := up.(*octave.UpConverter); !ok {
		return fmt.Errorf("%w, got %T", ErrNoOctave, up)
	}
	name, err := ch.Name()
	if err != nil {
		return err
	}
	lo, err := ch.LOFrequency()
	if err != nil {
		return err
	}
	intermediate, err := ch.IntermediateFrequency.Get(ch)
	if err != nil {
		return fmt.Errorf("element %s intermediate_frequency: %w", name, err)
	}
	p, ok := quam.RootOf(q).(qm.Provider)
	if !ok {
		return fmt.Errorf("%w: root %T cannot open a machine", qm.ErrNoConnector, quam.RootOf(q))
	}
	m, err := p.Machine(ctx)
	if err != nil {
		return err
	}
	return m.CalibrateElement(ctx, name, lo, intermediate)
}

// FluxTunableTransmon is a transmon with a flux line.
type FluxTunableTransmon struct {
	ScQubit
	Z *channels.FluxLine `json:"z"`
}

func NewFluxTunableTransmon() *FluxTunableTransmon {
	return &FluxTunableTransmon{ScQubit: *NewScQubit()}
}

var (
	_ Qubit        = (*ScQubit)(nil)
	_ Qubit        = (*FluxTunableTransmon)(nil)
	_ macros.Qubit = (*ScQubit)(nil)
)
