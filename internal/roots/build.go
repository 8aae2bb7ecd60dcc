package roots

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/vk/squidquam/internal/channels"
	"github.com/vk/squidquam/internal/ctxlog"
	"github.com/vk/squidquam/internal/information"
	"github.com/vk/squidquam/internal/network"
	"github.com/vk/squidquam/internal/octave"
	"github.com/vk/squidquam/internal/pulses"
	"github.com/vk/squidquam/internal/pulseset"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/qubits"
	"github.com/vk/squidquam/internal/wiring"
)

var (
	// ErrFeedLineCount is returned by GenerateEmptySingleFeedline for wiring
	// without exactly one feed line.
	ErrFeedLineCount = errors.New("roots: single feed line wiring required")
	// ErrPortInUse is returned when two lines map onto the same Octave port.
	ErrPortInUse = errors.New("roots: octave RF output already in use")
)

// Names used by the generated configuration.
const (
	OctaveName          = "octave1"
	DragPulseSet        = "drag_gaussian"
	FlattopPulseSet     = "flattop_cosine"
	ReadoutOperation    = "readout"
	DragSharedParamsKey = "drag_gaussian_pulse_parameters"
)

// BuildOptions are the starting values of a generated configuration.
// Frequency maps are keyed by qubit name; missing qubits fall back to
// ReadoutLOFrequency, and qubit frequencies to the drive LO.
type BuildOptions struct {
	ResonatorFrequenciesBare    map[string]float64
	ResonatorFrequenciesCoupled map[string]float64
	QubitFrequencies            map[string]float64
	DriveLOFrequencies          map[string]float64
	ReadoutLOFrequency          float64

	GateLength       int
	PiPulseAmplitude float64
	ReadoutLength    int
	ReadoutAmplitude float64
}

// DefaultBuildOptions returns the options used for zero fields.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		ReadoutLOFrequency: 6e9,
		GateLength:         40,
		PiPulseAmplitude:   0.4,
		ReadoutLength:      1000,
		ReadoutAmplitude:   0.1,
	}
}

func (o BuildOptions) withDefaults() BuildOptions {
	d := DefaultBuildOptions()
	if o.ReadoutLOFrequency == 0 {
		o.ReadoutLOFrequency = d.ReadoutLOFrequency
	}
	if o.GateLength == 0 {
		o.GateLength = d.GateLength
	}
	if o.PiPulseAmplitude == 0 {
		o.PiPulseAmplitude = d.PiPulseAmplitude
	}
	if o.ReadoutLength == 0 {
		o.ReadoutLength = d.ReadoutLength
	}
	if o.ReadoutAmplitude == 0 {
		o.ReadoutAmplitude = d.ReadoutAmplitude
	}
	return o
}

func frequency(m map[string]float64, qubit string, fallback float64) float64 {
	if f, ok := m[qubit]; ok {
		return f
	}
	return fallback
}

// GenerateEmptySingleFeedline builds a root for the qubits named by the
// drive lines of w, all read out through its only feed line. Qubits with a
// flux line of the same name become flux-tunable transmons.
func GenerateEmptySingleFeedline(ctx context.Context, w *wiring.OPXWiring, n *network.OPXNetwork, info *information.Information, opts BuildOptions) (*Root, error) {
	logger := ctxlog.FromContext(ctx)
	opts = opts.withDefaults()

	if w.FeedLines.Len() != 1 {
		return nil, fmt.Errorf("%w: found %d feed lines %v", ErrFeedLineCount, w.FeedLines.Len(), w.FeedLines.Keys())
	}
	feed, err := w.FeedLines.Get(w.FeedLines.Keys()[0])
	if err != nil {
		return nil, err
	}
	if _, err := n.Octave(OctaveName); err != nil {
		return nil, err
	}

	r := New()
	r.Wiring, r.Network, r.Information = w, n, info
	quam.Adopt(r)

	o, err := newOctave(r)
	if err != nil {
		return nil, err
	}

	readoutUp, readoutDown, err := addReadoutConverters(o, feed, opts.ReadoutLOFrequency)
	if err != nil {
		return nil, err
	}

	shared := quam.NewDict[any]()
	shared.Set("length", opts.GateLength)
	shared.Set("subtracted", true)
	shared.Set("sigma_to_length_ratio", pulseset.DefaultSigmaToLengthRatio)
	r.SharedQubitParameters.Set(DragSharedParamsKey, shared)

	for _, name := range w.DriveLines.Keys() {
		if err := addQubit(r, o, name, feed, readoutUp, readoutDown, opts); err != nil {
			return nil, fmt.Errorf("qubit %s: %w", name, err)
		}
		logger.Debug("Generated qubit.", "qubit", name)
	}

	logger.Debug("Generated single feed line configuration.", "qubits", r.Qubits.Len(), "rf_outputs", o.RFOutputs.Len())
	return r, nil
}

func newOctave(r *Root) (*octave.Octave, error) {
	o := octave.NewOctave()
	r.Octaves.Set(OctaveName, o)
	quam.Adopt(o)

	host := "#/network/octave_networks/" + OctaveName + "/octave_host"
	port := "#/network/octave_networks/" + OctaveName + "/octave_port"
	o.IP = quam.Ref[string](host)
	o.Port = quam.Ref[int](port)
	db, err := quam.ReferenceOf(r.Information, "calibration_db_path")
	if err != nil {
		return nil, err
	}
	o.CalibrationDBPath = quam.Ref[string](db)
	return o, nil
}

func addReadoutConverters(o *octave.Octave, feed *wiring.FeedLineWiring, lo float64) (string, string, error) {
	in, err := feed.DefaultOctavePortIn()
	if err != nil {
		return "", "", fmt.Errorf("feed line outputs: %w", err)
	}
	out, err := feed.DefaultOctavePortOut()
	if err != nil {
		return "", "", fmt.Errorf("feed line inputs: %w", err)
	}

	up := octave.NewUpConverter()
	up.LO = quam.Lit(lo)
	o.RFOutputs.Set(strconv.Itoa(in), up)
	quam.Adopt(up)
	upRef, err := quam.ReferenceOf(up)
	if err != nil {
		return "", "", err
	}

	down := octave.NewDownConverter()
	down.LO = quam.Ref[float64](upRef + "/LO_frequency")
	o.RFInputs.Set(strconv.Itoa(out), down)
	quam.Adopt(down)
	downRef, err := quam.ReferenceOf(down)
	if err != nil {
		return "", "", err
	}
	return upRef, downRef, nil
}

func addQubit(r *Root, o *octave.Octave, name string, feed *wiring.FeedLineWiring, readoutUp, readoutDown string, opts BuildOptions) error {
	drive, err := r.Wiring.DriveLines.Get(name)
	if err != nil {
		return err
	}
	port, err := drive.DefaultOctavePort()
	if err != nil {
		return fmt.Errorf("drive line: %w", err)
	}
	key := strconv.Itoa(port)
	if o.RFOutputs.Has(key) {
		return fmt.Errorf("%w: RF output %s", ErrPortInUse, key)
	}

	driveLO := frequency(opts.DriveLOFrequencies, name, opts.ReadoutLOFrequency)
	up := octave.NewUpConverter()
	up.LO = quam.Lit(driveLO)
	o.RFOutputs.Set(key, up)
	quam.Adopt(up)

	var q qubits.Qubit
	sc := qubits.NewScQubit()
	if r.Wiring.FluxLines.Has(name) {
		ft := qubits.NewFluxTunableTransmon()
		ft.Z = channels.NewFluxLine()
		ft.Z.OPXOutput = quam.Ref[wiring.Port]("#/wiring/flux_lines/" + name + "/port")
		q, sc = ft, &ft.ScQubit
	} else {
		q = sc
	}
	r.Qubits.Set(name, q)

	qubitFrequency := frequency(opts.QubitFrequencies, name, driveLO)
	sc.XY = channels.NewIQChannel()
	sc.XY.OPXOutputI = quam.Ref[wiring.Port](quam.MustReferenceOf(drive, "port_I"))
	sc.XY.OPXOutputQ = quam.Ref[wiring.Port](quam.MustReferenceOf(drive, "port_Q"))
	sc.XY.FrequencyConverterUp = quam.Ref[channels.UpConverter](quam.MustReferenceOf(up))
	sc.XY.RFFrequency = quam.Lit(qubitFrequency)
	sc.TransitionFrequencies = []*float64{nil, nil}
	sc.SetF01(qubitFrequency)

	coupled := frequency(opts.ResonatorFrequenciesCoupled, name, opts.ReadoutLOFrequency)
	ch := channels.NewInOutIQChannel()
	ch.OPXInputI = quam.Ref[wiring.Port](quam.MustReferenceOf(feed, "input_I"))
	ch.OPXInputQ = quam.Ref[wiring.Port](quam.MustReferenceOf(feed, "input_Q"))
	ch.OPXOutputI = quam.Ref[wiring.Port](quam.MustReferenceOf(feed, "output_I"))
	ch.OPXOutputQ = quam.Ref[wiring.Port](quam.MustReferenceOf(feed, "output_Q"))
	ch.FrequencyConverterUp = quam.Ref[channels.UpConverter](readoutUp)
	ch.FrequencyConverterDown = quam.Ref[channels.DownConverter](readoutDown)
	ch.RFFrequency = quam.Lit(coupled)

	readout := pulses.NewSquareReadoutPulse()
	readout.Length = quam.Lit(opts.ReadoutLength)
	readout.Amplitude = quam.Lit(opts.ReadoutAmplitude)
	ch.Operations.Set(ReadoutOperation, readout)

	sc.Resonator = qubits.NewReadoutResonator()
	sc.Resonator.Channel = ch
	sc.Resonator.FrequencyBare = quam.Lit(frequency(opts.ResonatorFrequenciesBare, name, opts.ReadoutLOFrequency))
	sc.Resonator.FrequencyQ0 = quam.Lit(coupled)

	sharedRef := "#/shared_qubit_parameters/" + DragSharedParamsKey + "/"
	drag := pulseset.NewDragGaussian()
	drag.Amplitude180 = quam.Lit(opts.PiPulseAmplitude)
	drag.Amplitude90 = quam.Lit(opts.PiPulseAmplitude / 2)
	drag.Length = quam.Ref[int](sharedRef + "length")
	drag.Subtracted = quam.Ref[bool](sharedRef + "subtracted")
	drag.SigmaToLengthRatio = quam.Ref[float64](sharedRef + "sigma_to_length_ratio")
	drag.Anharmonicity = quam.Ref[float64]("#../../anharmonicity")
	sc.PulseSets.Set(DragPulseSet, drag)

	flattop := pulseset.NewFlattopCosine()
	flattop.Amplitude = quam.Lit(0.4)
	flattop.RiseFallTime = quam.Lit(16)
	sc.PulseSets.Set(FlattopPulseSet, flattop)

	quam.Adopt(q)
	for _, s := range []pulseset.Set{drag, flattop} {
		if err := pulseset.AddDrivePulses(s); err != nil {
			return err
		}
	}
	return nil
}
