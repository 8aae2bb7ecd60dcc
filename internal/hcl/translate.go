package hcl

import (
	"fmt"

	"github.com/vk/squidquam/internal/information"
	"github.com/vk/squidquam/internal/network"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/roots"
	"github.com/vk/squidquam/internal/wiring"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// portType is the shape of a port literal: ["con1", 3].
var portType = cty.Tuple([]cty.Type{cty.String, cty.Number})

// decodePort converts a port tuple into a wiring.Port.
func decodePort(val cty.Value) (wiring.Port, error) {
	if !val.IsKnown() || val.IsNull() {
		return wiring.Port{}, fmt.Errorf("%w: value is null", ErrInvalidPort)
	}
	ty := val.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return wiring.Port{}, fmt.Errorf("%w: want [controller, number], got %s", ErrInvalidPort, ty.FriendlyName())
	}
	converted, err := convert.Convert(val, portType)
	if err != nil {
		return wiring.Port{}, fmt.Errorf("%w: %v", ErrInvalidPort, err)
	}

	elems := converted.AsValueSlice()
	var (
		controller string
		number     int
	)
	if err := gocty.FromCtyValue(elems[0], &controller); err != nil {
		return wiring.Port{}, fmt.Errorf("%w: controller: %v", ErrInvalidPort, err)
	}
	if err := gocty.FromCtyValue(elems[1], &number); err != nil {
		return wiring.Port{}, fmt.Errorf("%w: port number: %v", ErrInvalidPort, err)
	}
	if number < 1 {
		return wiring.Port{}, fmt.Errorf("%w: port number %d", ErrInvalidPort, number)
	}
	return wiring.NewPort(controller, number), nil
}

// decodePorts decodes vals into the ports dst points at, naming the
// attribute in errors.
func decodePorts(owner string, vals map[string]cty.Value, dst map[string]*wiring.Port) error {
	for name, val := range vals {
		p, err := decodePort(val)
		if err != nil {
			return fmt.Errorf("%s %s: %w", owner, name, err)
		}
		*dst[name] = p
	}
	return nil
}

func translateInformation(b *InformationBlock) (*information.Information, error) {
	if b.DeviceName == "" {
		return nil, fmt.Errorf("information: device_name must not be empty")
	}
	info := information.New()
	info.UserName = b.UserName
	info.UserKUTag = b.UserKUTag
	info.DeviceName = b.DeviceName
	info.FridgeName = b.FridgeName
	info.ProjectName = b.ProjectName
	info.StatePath = b.StatePath
	if b.DataPath != nil {
		info.DataPath = quam.Lit(*b.DataPath)
	}
	if b.CalibrationDBPath != nil {
		info.CalibrationDBPath = quam.Lit(*b.CalibrationDBPath)
	}
	quam.Adopt(info)
	return info, nil
}

func translateNetwork(b *NetworkBlock) (*network.OPXNetwork, error) {
	n := network.NewOPXNetwork()
	n.Host = b.Host
	n.ClusterName = b.ClusterName
	for _, o := range b.Octaves {
		if n.OctaveNetworks.Has(o.Name) {
			return nil, fmt.Errorf("%w: octave %q", ErrDuplicateName, o.Name)
		}
		on := network.NewOctaveNetwork()
		on.OctaveHost = o.Host
		if o.Port != nil {
			on.OctavePort = *o.Port
		}
		on.Controller = o.Controller
		n.OctaveNetworks.Set(o.Name, on)
	}
	quam.Adopt(n)
	return n, nil
}

func translateWiring(b *WiringBlock) (*wiring.OPXWiring, error) {
	w := wiring.NewOPXWiring()
	for _, f := range b.FeedLines {
		if w.FeedLines.Has(f.Name) {
			return nil, fmt.Errorf("%w: feed_line %q", ErrDuplicateName, f.Name)
		}
		line := &wiring.FeedLineWiring{}
		err := decodePorts("feed_line "+f.Name,
			map[string]cty.Value{"output_I": f.OutputI, "output_Q": f.OutputQ, "input_I": f.InputI, "input_Q": f.InputQ},
			map[string]*wiring.Port{"output_I": &line.OutputI, "output_Q": &line.OutputQ, "input_I": &line.InputI, "input_Q": &line.InputQ})
		if err != nil {
			return nil, err
		}
		w.FeedLines.Set(f.Name, line)
	}
	for _, d := range b.DriveLines {
		if w.DriveLines.Has(d.Qubit) {
			return nil, fmt.Errorf("%w: drive_line %q", ErrDuplicateName, d.Qubit)
		}
		line := &wiring.IQChannelWiring{}
		err := decodePorts("drive_line "+d.Qubit,
			map[string]cty.Value{"port_I": d.PortI, "port_Q": d.PortQ},
			map[string]*wiring.Port{"port_I": &line.PortI, "port_Q": &line.PortQ})
		if err != nil {
			return nil, err
		}
		w.DriveLines.Set(d.Qubit, line)
	}
	for _, f := range b.FluxLines {
		if w.FluxLines.Has(f.Qubit) {
			return nil, fmt.Errorf("%w: flux_line %q", ErrDuplicateName, f.Qubit)
		}
		p, err := decodePort(f.Port)
		if err != nil {
			return nil, fmt.Errorf("flux_line %s port: %w", f.Qubit, err)
		}
		w.FluxLines.Set(f.Qubit, &wiring.SingleChannelWiring{Port: p})
	}
	quam.Adopt(w)
	return w, nil
}

func translateBuild(b *BuildBlock) roots.BuildOptions {
	opts := roots.BuildOptions{
		ResonatorFrequenciesBare:    map[string]float64{},
		ResonatorFrequenciesCoupled: map[string]float64{},
		QubitFrequencies:            map[string]float64{},
		DriveLOFrequencies:          map[string]float64{},
	}
	if b.ReadoutLOFrequency != nil {
		opts.ReadoutLOFrequency = *b.ReadoutLOFrequency
	}
	if b.GateLength != nil {
		opts.GateLength = *b.GateLength
	}
	if b.PiPulseAmplitude != nil {
		opts.PiPulseAmplitude = *b.PiPulseAmplitude
	}
	if b.ReadoutLength != nil {
		opts.ReadoutLength = *b.ReadoutLength
	}
	if b.ReadoutAmplitude != nil {
		opts.ReadoutAmplitude = *b.ReadoutAmplitude
	}
	set := func(m map[string]float64, name string, v *float64) {
		if v != nil {
			m[name] = *v
		}
	}
	for _, q := range b.Qubits {
		set(opts.QubitFrequencies, q.Name, q.Frequency)
		set(opts.DriveLOFrequencies, q.Name, q.DriveLOFrequency)
		set(opts.ResonatorFrequenciesBare, q.Name, q.ResonatorFrequencyBare)
		set(opts.ResonatorFrequenciesCoupled, q.Name, q.ResonatorFrequencyCoupled)
	}
	return opts
}
