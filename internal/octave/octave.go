package octave

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/vk/squidquam/internal/qm"
	"github.com/vk/squidquam/internal/quam"
)

// ErrNotEmpty is returned when initializing converters of an Octave that
// already has some.
var ErrNotEmpty = errors.New("octave: frequency converters already initialized")

// Port counts of an Octave.
const (
	NumRFOutputs = 5
	NumRFInputs  = 2
)

func init() {
	quam.Register("octave.OctaveSQuID", func() quam.Component { return NewOctave() })
}

// Octave is one Octave unit.
type Octave struct {
	quam.Base
	Name              quam.Value[string]         `json:"name"`
	IP                quam.Value[string]         `json:"ip"`
	Port              quam.Value[int]            `json:"port"`
	CalibrationDBPath quam.Value[string]         `json:"calibration_db_path"`
	RFOutputs         *quam.Dict[*UpConverter]   `json:"RF_outputs"`
	RFInputs          *quam.Dict[*DownConverter] `json:"RF_inputs"`
}

func NewOctave() *Octave {
	return &Octave{
		Name:      quam.Ref[string]("#./name_from_parent_dict"),
		RFOutputs: quam.NewDict[*UpConverter](),
		RFInputs:  quam.NewDict[*DownConverter](),
	}
}

func (o *Octave) name() (string, error) {
	name, err := o.Name.Get(o)
	if err != nil {
		return "", fmt.Errorf("octave name: %w", err)
	}
	return name, nil
}

func (o *Octave) Property(name string) (any, bool, error) {
	if name == "name_from_parent_dict" {
		key, err := quam.KeyFromParentDict(o)
		return key, true, err
	}
	return nil, false, nil
}

// InitializeFrequencyConverters adds the default converters: up-converters
// 1 to 5 and down-converters 1 and 2. The second down-converter takes its LO
// from outside.
func (o *Octave) InitializeFrequencyConverters() error {
	if o.RFOutputs.Len() > 0 {
		return fmt.Errorf("%w: RF_outputs is not empty", ErrNotEmpty)
	}
	if o.RFInputs.Len() > 0 {
		return fmt.Errorf("%w: RF_inputs is not empty", ErrNotEmpty)
	}
	for i := 1; i <= NumRFOutputs; i++ {
		o.RFOutputs.Set(strconv.Itoa(i), NewUpConverter())
	}
	for i := 1; i <= NumRFInputs; i++ {
		d := NewDownConverter()
		if i == 2 {
			d.LOSource = quam.Lit("external")
		}
		o.RFInputs.Set(strconv.Itoa(i), d)
	}
	return nil
}

// ApplyToConfig opens the Octave's config entry. Converters fill it in.
func (o *Octave) ApplyToConfig(cfg quam.Config) error {
	name, err := o.name()
	if err != nil {
		return err
	}
	octaves := cfg.Section("octaves")
	if _, dup := octaves[name]; dup {
		return fmt.Errorf("octave %s is defined twice", name)
	}
	octaves[name] = map[string]any{
		"RF_outputs": map[string]any{},
		"RF_inputs":  map[string]any{},
		"IF_outputs": map[string]any{},
		"loopbacks":  []any{},
	}
	return nil
}

// ConnectionSettings returns the network address the orchestration service
// reaches the Octave at.
func (o *Octave) ConnectionSettings() (qm.OctaveDevice, error) {
	name, err := o.name()
	if err != nil {
		return qm.OctaveDevice{}, err
	}
	host, err := o.IP.Get(o)
	if err != nil {
		return qm.OctaveDevice{}, fmt.Errorf("octave %s ip: %w", name, err)
	}
	port, err := o.Port.Get(o)
	if err != nil {
		return qm.OctaveDevice{}, fmt.Errorf("octave %s port: %w", name, err)
	}
	return qm.OctaveDevice{Name: name, Host: host, Port: port}, nil
}

// Controller returns the Octave controller of the opened machine.
func (o *Octave) Controller(ctx context.Context) (qm.Octave, error) {
	return machineOctave(ctx, o)
}
