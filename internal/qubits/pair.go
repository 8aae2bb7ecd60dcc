package qubits

import (
	"errors"
	"fmt"

	"github.com/vk/squidquam/internal/channels"
	"github.com/vk/squidquam/internal/quam"
)

var (
	// ErrSameQubit is returned when pairing a qubit with itself.
	ErrSameQubit = errors.New("qubits: cannot pair a qubit with itself")
	// ErrPairNotFound is returned when no pair has the requested control
	// and target.
	ErrPairNotFound = errors.New("qubits: qubit pair not found")
)

func init() {
	quam.Register("qubits.QubitPair", func() quam.Component { return NewQubitPair() })
	quam.Register("qubits.TunableCoupler", func() quam.Component { return &TunableCoupler{} })
}

// PairHolder is implemented by the root holding the tree's qubit pairs.
type PairHolder interface {
	QubitPairs() ([]*QubitPair, error)
}

// QubitPair couples a control and a target qubit, usually referenced from
// the root's qubits.
type QubitPair struct {
	quam.Base
	QubitControl quam.Value[Qubit] `json:"qubit_control"`
	QubitTarget  quam.Value[Qubit] `json:"qubit_target"`
	Coupler      *TunableCoupler   `json:"coupler"`
	Extras       *quam.Dict[any]   `json:"extras"`
}

func NewQubitPair() *QubitPair {
	return &QubitPair{Extras: quam.NewDict[any]()}
}

// Qubits resolves the control and target qubits.
func (p *QubitPair) Qubits() (control, target Qubit, err error) {
	control, err = p.QubitControl.Get(p)
	if err != nil {
		return nil, nil, fmt.Errorf("qubit_control: %w", err)
	}
	target, err = p.QubitTarget.Get(p)
	if err != nil {
		return nil, nil, fmt.Errorf("qubit_target: %w", err)
	}
	return control, target, nil
}

// Name is <control>@<target>.
func (p *QubitPair) Name() (string, error) {
	control, target, err := p.Qubits()
	if err != nil {
		return "", err
	}
	c, err := control.Name()
	if err != nil {
		return "", err
	}
	t, err := target.Name()
	if err != nil {
		return "", err
	}
	return c + "@" + t, nil
}

// TunableCoupler is the flux-tunable coupler between the qubits of a pair.
type TunableCoupler struct {
	quam.Base
	ID quam.Value[string] `json:"id"`
	Z  *channels.FluxLine `json:"z"`
}

// Name is the id when set, otherwise <pair name>.coupler.
func (c *TunableCoupler) Name() (string, error) {
	if id, ok, err := c.ID.Lookup(c); err != nil || ok {
		return id, err
	}
	pair, ok := quam.ParentOf(c).(*QubitPair)
	if !ok {
		return "", fmt.Errorf("coupler has no id and no pair: %w", quam.ErrNoParent)
	}
	name, err := pair.Name()
	if err != nil {
		return "", err
	}
	return quam.FormatName(name, "coupler"), nil
}

// Pair returns the pair with q as control and other as target.
func (q *ScQubit) Pair(other Qubit) (*QubitPair, error) {
	if quam.Same(q, other) {
		return nil, ErrSameQubit
	}
	holder, ok := quam.RootOf(q).(PairHolder)
	if !ok {
		return nil, fmt.Errorf("%w: root %T holds no pairs", ErrPairNotFound, quam.RootOf(q))
	}
	pairs, err := holder.QubitPairs()
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		control, target, err := p.Qubits()
		if err != nil {
			return nil, err
		}
		if quam.Same(control, q) && quam.Same(target, other) {
			return p, nil
		}
	}
	cn, _ := q.Name()
	tn, _ := other.Name()
	return nil, fmt.Errorf("%w: qubit_control=%s, qubit_target=%s", ErrPairNotFound, cn, tn)
}
