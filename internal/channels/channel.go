package channels

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vk/squidquam/internal/pulses"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/wiring"
)

// ErrUnknownOperation is returned when playing an operation the channel
// does not define.
var ErrUnknownOperation = errors.New("channels: unknown operation")

// Channel is any element of the QUA config.
type Channel interface {
	pulses.Element
	quam.ConfigApplier
	Ops() *quam.Dict[pulses.Pulse]
	Play(b qua.Builder, op string, opts qua.PlayOptions) error
	Wait(b qua.Builder, d time.Duration) error
}

// UpConverter is a frequency converter driving an IQ channel's output.
type UpConverter interface {
	quam.Component
	LOFrequency() (float64, error)
	RFOutput() (octave string, port int, err error)
}

// DownConverter is a frequency converter feeding an IQ channel's input.
type DownConverter interface {
	quam.Component
	LOFrequency() (float64, error)
	RFInput() (octave string, port int, err error)
}

type namer interface {
	Name() (string, error)
}

// Common holds what all channels share: an optional explicit id and the
// operations.
type Common struct {
	quam.Base
	ID         quam.Value[string]       `json:"id"`
	Operations *quam.Dict[pulses.Pulse] `json:"operations"`
}

func newCommon() Common {
	return Common{Operations: quam.NewDict[pulses.Pulse]()}
}

// Ops returns the operations Dict.
func (c *Common) Ops() *quam.Dict[pulses.Pulse] { return c.Operations }

// Name is the element name: the explicit id when set, otherwise
// <parent name>.<field name>. A channel held in a field called "channel"
// takes its parent's name unchanged.
func (c *Common) Name() (string, error) {
	if id, ok, err := c.ID.Lookup(c); err != nil || ok {
		return id, err
	}
	parent := quam.ParentOf(c)
	if parent == nil {
		return "", fmt.Errorf("channel has no id and no parent: %w", quam.ErrNoParent)
	}
	attr, err := quam.NameFromParentComponent(c)
	if err != nil {
		return "", fmt.Errorf("channel has no id: %w", err)
	}
	pn, ok := parent.(namer)
	if !ok {
		return attr, nil
	}
	parentName, err := pn.Name()
	if err != nil {
		return "", err
	}
	if attr == "channel" {
		return parentName, nil
	}
	return quam.FormatName(parentName, attr), nil
}

// Play emits a play statement for op.
func (c *Common) Play(b qua.Builder, op string, opts qua.PlayOptions) error {
	if !c.Operations.Has(op) {
		return fmt.Errorf("%w: %q (have %v)", ErrUnknownOperation, op, c.Operations.Keys())
	}
	name, err := c.Name()
	if err != nil {
		return err
	}
	b.Play(op, name, opts)
	return nil
}

// Wait emits a wait of d on this channel.
func (c *Common) Wait(b qua.Builder, d time.Duration) error {
	name, err := c.Name()
	if err != nil {
		return err
	}
	b.Wait(qua.Lit(qua.Cycles(d)), name)
	return nil
}

// operationsConfig maps operation names to config pulse names. Aliases
// resolve to the pulse they point at.
func (c *Common) operationsConfig() (map[string]any, error) {
	out := make(map[string]any, c.Operations.Len())
	for _, op := range c.Operations.Keys() {
		p, err := c.Operations.Get(op)
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", op, err)
		}
		name, err := pulses.PulseName(p)
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", op, err)
		}
		out[op] = name
	}
	return out, nil
}

func portKey(p wiring.Port) string {
	return strconv.Itoa(p.Number)
}

func declareOutput(cfg quam.Config, p wiring.Port, offset float64) {
	cfg.Section("controllers", p.Controller, "analog_outputs")[portKey(p)] = map[string]any{"offset": offset}
}

func declareInput(cfg quam.Config, p wiring.Port, offset, gain float64) {
	cfg.Section("controllers", p.Controller, "analog_inputs")[portKey(p)] = map[string]any{"offset": offset, "gain_db": gain}
}
