package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/squidquam/internal/qm"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
)

// FakeQM is an in-memory orchestration service. It implements every
// interface of package qm and records what it was asked to do.
type FakeQM struct {
	mu sync.Mutex

	Connects   int
	Settings   qm.Settings
	Configs    []quam.Config
	Programs   []qua.Program
	LO         map[string]float64
	Gain       map[string]float64
	Calibrated []string
	Closed     int
	ConnectErr error
	ExecuteErr error
}

// NewFakeQM returns an empty fake.
func NewFakeQM() *FakeQM {
	return &FakeQM{LO: map[string]float64{}, Gain: map[string]float64{}}
}

var (
	_ qm.Connector = (*FakeQM)(nil)
	_ qm.Manager   = (*fakeManager)(nil)
	_ qm.Machine   = (*fakeMachine)(nil)
	_ qm.Octave    = (*fakeMachine)(nil)
)

func (f *FakeQM) Connect(_ context.Context, settings qm.Settings) (qm.Manager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConnectErr != nil {
		return nil, f.ConnectErr
	}
	f.Connects++
	f.Settings = settings
	return &fakeManager{f: f}, nil
}

// Opened returns how many machines were opened.
func (f *FakeQM) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Configs)
}

type fakeManager struct{ f *FakeQM }

func (m *fakeManager) Open(_ context.Context, cfg quam.Config) (qm.Machine, error) {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	m.f.Configs = append(m.f.Configs, cfg)
	return &fakeMachine{f: m.f}, nil
}

func (m *fakeManager) Close() error { return nil }

type fakeMachine struct{ f *FakeQM }

type fakeJob struct{ id string }

func (j fakeJob) ID() string                 { return j.id }
func (j fakeJob) Wait(context.Context) error { return nil }

func (m *fakeMachine) Execute(_ context.Context, program qua.Program, _ qm.ExecuteOptions) (qm.Job, error) {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	if m.f.ExecuteErr != nil {
		return nil, m.f.ExecuteErr
	}
	m.f.Programs = append(m.f.Programs, program)
	return fakeJob{id: fmt.Sprintf("job-%d", len(m.f.Programs))}, nil
}

func (m *fakeMachine) CalibrateElement(_ context.Context, element string, lo, intermediate float64) error {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	m.f.Calibrated = append(m.f.Calibrated, fmt.Sprintf("%s@%g%+g", element, lo, intermediate))
	return nil
}

func (m *fakeMachine) Octave() qm.Octave { return m }

func (m *fakeMachine) SetLOFrequency(_ context.Context, element string, frequency float64) error {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	m.f.LO[element] = frequency
	return nil
}

func (m *fakeMachine) SetRFOutputGain(_ context.Context, element string, gain float64) error {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	m.f.Gain[element] = gain
	return nil
}

func (m *fakeMachine) Close() error {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	m.f.Closed++
	return nil
}

// FakeProvider is a qm.Provider around a FakeQM, for trees without a root
// that opens machines itself.
type FakeProvider struct {
	QM *FakeQM
}

func (p FakeProvider) Machine(ctx context.Context) (qm.Machine, error) {
	mgr, err := p.QM.Connect(ctx, qm.Settings{})
	if err != nil {
		return nil, err
	}
	return mgr.Open(ctx, quam.BaseConfig())
}
