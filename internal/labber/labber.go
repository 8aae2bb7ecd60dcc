// Package labber is the boundary to the Labber instrument server and holds
// the components of instruments controlled through it. The server client
// lives outside this module and plugs in through Dialer.
package labber

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/squidquam/internal/ctxlog"
	"github.com/vk/squidquam/internal/quam"
)

var (
	// ErrNoDialer is returned when a server is used before SetDialer.
	ErrNoDialer = errors.New("labber: no dialer configured")
	// ErrNoServer is returned when an instrument has no server to connect
	// through.
	ErrNoServer = errors.New("labber: instrument has no server")
)

// DefaultHost is where the Labber server runs unless configured otherwise.
const DefaultHost = "localhost"

// DefaultInterface is the instrument interface used when none is set.
const DefaultInterface = "TCPIP"

func init() {
	quam.Register("labber.LabberServer", func() quam.Component { return NewServer() })
}

// Address tells the server how to reach an instrument.
type Address struct {
	Interface string `json:"interface"`
	Address   string `json:"address"`
}

// Dialer opens a client session with a Labber server.
type Dialer interface {
	Dial(ctx context.Context, host string) (Client, error)
}

// Client is a session with a Labber server.
type Client interface {
	ConnectInstrument(ctx context.Context, name string, addr Address) (Instrument, error)
}

// Instrument is a connected instrument.
type Instrument interface {
	SetValue(ctx context.Context, parameter string, value any) error
}

// Server is a Labber server. The client is dialled on first use and cached.
type Server struct {
	quam.Base
	Host quam.Value[string] `json:"host"`

	mu     sync.Mutex
	dialer Dialer
	client Client
}

func NewServer() *Server {
	return &Server{Host: quam.Lit(DefaultHost)}
}

// SetDialer sets how the server is reached. It drops a cached client.
func (s *Server) SetDialer(d Dialer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialer = d
	s.client = nil
}

// Client returns the client session, dialling the server once.
func (s *Server) Client(ctx context.Context) (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	if s.dialer == nil {
		return nil, ErrNoDialer
	}
	host, err := s.Host.Get(s)
	if err != nil {
		return nil, fmt.Errorf("labber server host: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Connecting to Labber server.", "host", host)
	c, err := s.dialer.Dial(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Labber server %s: %w", host, err)
	}
	s.client = c
	return c, nil
}

// ConnectInstrument connects the instrument name at ip. An empty iface
// means DefaultInterface.
func (s *Server) ConnectInstrument(ctx context.Context, name, ip, iface string) (Instrument, error) {
	c, err := s.Client(ctx)
	if err != nil {
		return nil, err
	}
	if iface == "" {
		iface = DefaultInterface
	}
	inst, err := c.ConnectInstrument(ctx, name, Address{Interface: iface, Address: ip})
	if err != nil {
		return nil, fmt.Errorf("failed to connect instrument %s at %s: %w", name, ip, err)
	}
	ctxlog.FromContext(ctx).Debug("Connected instrument.", "instrument", name, "address", ip, "interface", iface)
	return inst, nil
}

// SetValue sets parameter of inst.
func (s *Server) SetValue(ctx context.Context, inst Instrument, parameter string, value any) error {
	return inst.SetValue(ctx, parameter, value)
}
