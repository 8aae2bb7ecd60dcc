package testutil

import (
	"context"
	"sync"

	"github.com/vk/squidquam/internal/labber"
)

// FakeLabber is an in-memory Labber server. Values set on its instruments
// are kept per instrument name.
type FakeLabber struct {
	mu sync.Mutex

	Dials      int
	Hosts      []string
	Connected  []labber.Address
	Values     map[string]map[string]any
	DialErr    error
	SetErr     error
	connectErr error
}

// NewFakeLabber returns an empty fake.
func NewFakeLabber() *FakeLabber {
	return &FakeLabber{Values: map[string]map[string]any{}}
}

var (
	_ labber.Dialer     = (*FakeLabber)(nil)
	_ labber.Client     = (*fakeLabberClient)(nil)
	_ labber.Instrument = (*fakeInstrument)(nil)
)

func (f *FakeLabber) Dial(_ context.Context, host string) (labber.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DialErr != nil {
		return nil, f.DialErr
	}
	f.Dials++
	f.Hosts = append(f.Hosts, host)
	return &fakeLabberClient{f: f}, nil
}

// FailConnect makes every following instrument connection fail with err.
func (f *FakeLabber) FailConnect(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
}

// Value returns what was last set on parameter of instrument.
func (f *FakeLabber) Value(instrument, parameter string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Values[instrument][parameter]
	return v, ok
}

// Connections returns how many instrument connections were opened.
func (f *FakeLabber) Connections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Connected)
}

type fakeLabberClient struct{ f *FakeLabber }

func (c *fakeLabberClient) ConnectInstrument(_ context.Context, name string, addr labber.Address) (labber.Instrument, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if c.f.connectErr != nil {
		return nil, c.f.connectErr
	}
	c.f.Connected = append(c.f.Connected, addr)
	return &fakeInstrument{f: c.f, name: name}, nil
}

type fakeInstrument struct {
	f    *FakeLabber
	name string
}

func (i *fakeInstrument) SetValue(_ context.Context, parameter string, value any) error {
	i.f.mu.Lock()
	defer i.f.mu.Unlock()
	if i.f.SetErr != nil {
		return i.f.SetErr
	}
	if i.f.Values[i.name] == nil {
		i.f.Values[i.name] = map[string]any{}
	}
	i.f.Values[i.name][parameter] = value
	return nil
}
