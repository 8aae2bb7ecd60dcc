package roots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vk/squidquam/internal/ctxlog"
	"github.com/vk/squidquam/internal/information"
	"github.com/vk/squidquam/internal/labber"
	"github.com/vk/squidquam/internal/network"
	"github.com/vk/squidquam/internal/octave"
	"github.com/vk/squidquam/internal/qm"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/qubits"
	"github.com/vk/squidquam/internal/statestore"
	"github.com/vk/squidquam/internal/wiring"
)

// ErrNoStatePath is returned when saving or reloading without a path and
// information.state_path is empty.
var ErrNoStatePath = errors.New("roots: information.state_path must be set")

// ClassName is the registered class of Root.
const ClassName = "SQuIDRoot1"

func init() {
	quam.Register(ClassName, func() quam.Component { return New() })
}

// DefaultContentMapping splits the slowly changing descriptions into their
// own documents. Everything else goes to state.json.
var DefaultContentMapping = quam.ContentMapping{
	"wiring.json":      "wiring",
	"network.json":     "network",
	"information.json": "information",
}

// Root is the SQuID lab root type 1 for superconducting qubits.
type Root struct {
	quam.Base
	Network               *network.OPXNetwork                `json:"network"`
	Wiring                *wiring.OPXWiring                  `json:"wiring"`
	Information           *information.Information           `json:"information"`
	Octaves               *quam.Dict[*octave.Octave]         `json:"octaves"`
	Qubits                *quam.Dict[qubits.Qubit]           `json:"qubits"`
	Pairs                 *quam.Dict[*qubits.QubitPair]      `json:"qubit_pairs"`
	SharedQubitParameters *quam.Dict[*quam.Dict[any]]        `json:"shared_qubit_parameters"`
	LabberServer          *labber.Server                     `json:"labber_server,omitempty"`
	LocalOscillators      *quam.Dict[*labber.RohdeSchwarzLO] `json:"local_oscillators,omitempty"`

	mu        sync.Mutex
	connector qm.Connector
	manager   qm.Manager
	machine   qm.Machine
	config    quam.Config
	initial   *Root
}

// QuAMSCQ1 is the name Root went by in earlier configurations.
type QuAMSCQ1 = Root

// New returns an empty root.
func New() *Root {
	r := &Root{
		Network:               network.NewOPXNetwork(),
		Wiring:                wiring.NewOPXWiring(),
		Information:           information.New(),
		Octaves:               quam.NewDict[*octave.Octave](),
		Qubits:                quam.NewDict[qubits.Qubit](),
		Pairs:                 quam.NewDict[*qubits.QubitPair](),
		SharedQubitParameters: quam.NewDict[*quam.Dict[any]](),
	}
	quam.Adopt(r)
	return r
}

// SetConnector sets how the root reaches the orchestration service. It
// drops any open machine.
func (r *Root) SetConnector(c qm.Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connector = c
	r.closeLocked()
}

// SetLabberDialer sets how the Labber server is reached, adding the server
// when the root has none.
func (r *Root) SetLabberDialer(d labber.Dialer) {
	if r.LabberServer == nil {
		r.LabberServer = labber.NewServer()
		quam.Attach(r, r.LabberServer)
	}
	r.LabberServer.SetDialer(d)
}

// AddLocalOscillator stores lo under name.
func (r *Root) AddLocalOscillator(name string, lo *labber.RohdeSchwarzLO) {
	if r.LocalOscillators == nil {
		r.LocalOscillators = quam.NewDict[*labber.RohdeSchwarzLO]()
		quam.Attach(r, r.LocalOscillators)
	}
	r.LocalOscillators.Set(name, lo)
}

// InitializeLocalOscillators sets the stored power and frequency on every
// local oscillator, in key order.
func (r *Root) InitializeLocalOscillators(ctx context.Context) error {
	for _, name := range r.LocalOscillators.Keys() {
		lo, err := r.LocalOscillators.Get(name)
		if err != nil {
			return err
		}
		if err := lo.Initialize(ctx); err != nil {
			return fmt.Errorf("local oscillator %s: %w", name, err)
		}
		ctxlog.FromContext(ctx).Debug("Initialized local oscillator.", "name", name)
	}
	return nil
}

// Octave returns the first Octave, or nil when there is none.
func (r *Root) Octave() *octave.Octave {
	keys := r.Octaves.Keys()
	if len(keys) == 0 {
		return nil
	}
	o, err := r.Octaves.Get(keys[0])
	if err != nil {
		return nil
	}
	return o
}

// QubitPairs implements qubits.PairHolder.
func (r *Root) QubitPairs() ([]*qubits.QubitPair, error) {
	return r.Pairs.Values()
}

// Resonators returns the readout resonator of every qubit, keyed by qubit.
func (r *Root) Resonators() (map[string]*qubits.ReadoutResonator, error) {
	out := make(map[string]*qubits.ReadoutResonator, r.Qubits.Len())
	for _, name := range r.Qubits.Keys() {
		q, err := r.Qubits.Get(name)
		if err != nil {
			return nil, err
		}
		out[name] = qubits.Transmon(q).Resonator
	}
	return out, nil
}

// SetDefaultGateShape makes shape the default gates of every qubit.
func (r *Root) SetDefaultGateShape(shape string) error {
	for _, name := range r.Qubits.Keys() {
		q, err := r.Qubits.Get(name)
		if err != nil {
			return err
		}
		if err := q.SetDefaultGateShape(shape); err != nil {
			return fmt.Errorf("qubit %s: %w", name, err)
		}
	}
	return nil
}

// PrintInfo writes the lab information summary.
func (r *Root) PrintInfo(w io.Writer) error {
	return r.Information.PrintInfo(w)
}

// Config returns the device config, generating it on first use. The same
// map is returned until ResetConfig.
func (r *Root) Config() (quam.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configLocked()
}

func (r *Root) configLocked() (quam.Config, error) {
	if r.config != nil {
		return r.config, nil
	}
	cfg, err := quam.GenerateConfig(r)
	if err != nil {
		return nil, err
	}
	r.config = cfg
	return cfg, nil
}

// ResetConfig drops the cached config. An open machine keeps running the
// config it was opened with.
func (r *Root) ResetConfig() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = nil
}

// Settings are the orchestration service connection settings described by
// the tree.
func (r *Root) Settings() (qm.Settings, error) {
	s := qm.Settings{
		Host:        r.Network.Host,
		ClusterName: r.Network.ClusterName,
	}
	o := r.Octave()
	if o == nil {
		return s, nil
	}
	dev, err := o.ConnectionSettings()
	if err != nil {
		return qm.Settings{}, err
	}
	s.Octaves = []qm.OctaveDevice{dev}
	db, _, err := o.CalibrationDBPath.Lookup(o)
	if err != nil {
		return qm.Settings{}, fmt.Errorf("octave calibration_db_path: %w", err)
	}
	s.CalibrationDBPath = db
	return s, nil
}

// Machine implements qm.Provider. The manager and the machine are opened at
// most once and cached until CloseQM.
func (r *Root) Machine(ctx context.Context) (qm.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.machine != nil {
		return r.machine, nil
	}
	logger := ctxlog.FromContext(ctx)

	if r.manager == nil {
		if r.connector == nil {
			return nil, qm.ErrNoConnector
		}
		settings, err := r.Settings()
		if err != nil {
			return nil, err
		}
		logger.Debug("Connecting to orchestration service.", "host", settings.Host, "cluster", settings.ClusterName, "octaves", len(settings.Octaves))
		mgr, err := r.connector.Connect(ctx, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", settings.Host, err)
		}
		r.manager = mgr
	}

	cfg, err := r.configLocked()
	if err != nil {
		return nil, err
	}
	m, err := r.manager.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open machine: %w", err)
	}
	logger.Debug("Opened machine.", "elements", len(cfg.Section("elements")))
	r.machine = m
	return m, nil
}

// Execute runs program on the machine, opening it if needed.
func (r *Root) Execute(ctx context.Context, program qua.Program, opts qm.ExecuteOptions) (qm.Job, error) {
	m, err := r.Machine(ctx)
	if err != nil {
		return nil, err
	}
	return m.Execute(ctx, program, opts)
}

// CloseQM closes the machine and the manager session if they are open.
func (r *Root) CloseQM() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Root) closeLocked() error {
	var errs []error
	if r.machine != nil {
		errs = append(errs, r.machine.Close())
		r.machine = nil
	}
	if r.manager != nil {
		errs = append(errs, r.manager.Close())
		r.manager = nil
	}
	return errors.Join(errs...)
}

// SaveOptions tune Save. A nil Mapping uses DefaultContentMapping.
type SaveOptions struct {
	Mapping quam.ContentMapping
	Ignore  []string
}

// Save writes the root to path, a directory or a single .json file. An
// empty path means information.state_path.
func (r *Root) Save(ctx context.Context, path string, opts SaveOptions) error {
	path, err := r.statePath(path)
	if err != nil {
		return err
	}
	mapping := opts.Mapping
	if mapping == nil {
		mapping = DefaultContentMapping
	}
	ctxlog.FromContext(ctx).Debug("Saving root.", "path", path)
	return quam.Save(ctx, r, statestore.Open(path), mapping, opts.Ignore...)
}

func (r *Root) statePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if r.Information == nil || r.Information.StatePath == "" {
		return "", ErrNoStatePath
	}
	return r.Information.StatePath, nil
}

// Load reads a root saved at path.
func Load(ctx context.Context, path string) (*Root, error) {
	return LoadFrom(ctx, statestore.Open(path))
}

// LoadFrom reads a root from store.
func LoadFrom(ctx context.Context, store statestore.Store) (*Root, error) {
	r := New()
	if err := quam.Load(ctx, r, store); err != nil {
		return nil, err
	}
	return r, nil
}

// Initial returns the root as last saved at information.state_path, loaded
// once and cached.
func (r *Root) Initial(ctx context.Context) (*Root, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initial != nil {
		return r.initial, nil
	}
	path, err := r.statePath("")
	if err != nil {
		return nil, err
	}
	initial, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}
	r.initial = initial
	return initial, nil
}

var (
	_ qm.Provider       = (*Root)(nil)
	_ qubits.PairHolder = (*Root)(nil)
)
