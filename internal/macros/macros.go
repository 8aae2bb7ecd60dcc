// Package macros holds reusable program fragments built from DSL primitives.
package macros

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/squidquam/internal/qua"
)

// Reset methods.
const (
	Active   = "active"
	Cooldown = "cooldown"
	None     = "none"
)

// ErrUnknownMethod is returned for a reset method that is neither built in
// nor given as a custom function.
var ErrUnknownMethod = errors.New("macros: unknown reset method")

// Qubit is what the reset macros need from a qubit.
type Qubit interface {
	// DriveElement is the element the qubit is driven on.
	DriveElement() (string, error)
	// ReadoutElement is the element of its readout resonator.
	ReadoutElement() (string, error)
	Measure(b qua.Builder, op string, opts qua.MeasureOptions) (qua.Var, qua.Var, error)
	Play(b qua.Builder, op string, opts qua.PlayOptions) error
	// Threshold is the readout I threshold between ground and excited.
	Threshold() (float64, error)
	// ThermalizationTime is how long the qubit takes to decay on its own.
	ThermalizationTime() (time.Duration, error)
}

// ResetFunc is a user supplied reset. It may return the counter of an
// active loop, or nil.
type ResetFunc func(b qua.Builder, q Qubit, opts ResetOptions) (*qua.Var, error)

// ResetOptions configure ResetQubit. The zero value is an active reset with
// defaults taken from the qubit.
type ResetOptions struct {
	// Method is Active, Cooldown or None. Ignored when Custom is set.
	Method string
	Custom ResetFunc
	// ReadoutPulse is the measurement operation. Defaults to "flattop".
	ReadoutPulse string
	// MaxTries bounds the active loop. Defaults to 10.
	MaxTries int
	// Threshold overrides the qubit's readout threshold.
	Threshold *float64
	// RelaxationTime is waited before each conditional pulse and, for
	// cooldown, is the cooldown time. Defaults to the thermalization time.
	RelaxationTime time.Duration
	// Save streams the active reset counter as "<element>.reset_count".
	Save bool
}

func (o ResetOptions) withDefaults() ResetOptions {
	if o.Method == "" {
		o.Method = Active
	}
	if o.ReadoutPulse == "" {
		o.ReadoutPulse = "flattop"
	}
	if o.MaxTries == 0 {
		o.MaxTries = 10
	}
	return o
}

// ResetQubit resets q using the method in opts. The counter of an active
// reset is returned; other methods return nil.
func ResetQubit(b qua.Builder, q Qubit, opts ResetOptions) (*qua.Var, error) {
	opts = opts.withDefaults()
	if opts.Custom != nil {
		return opts.Custom(b, q, opts)
	}
	switch opts.Method {
	case Active:
		v, err := ActiveReset(b, q, opts)
		if err != nil {
			return nil, err
		}
		return &v, nil
	case Cooldown:
		return nil, CooldownReset(b, q, opts.RelaxationTime)
	case None:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Method)
}

// ActiveReset measures the qubit and plays a conditional x180 until the
// readout falls below the threshold or MaxTries is reached. It returns the
// loop counter.
func ActiveReset(b qua.Builder, q Qubit, opts ResetOptions) (qua.Var, error) {
	opts = opts.withDefaults()
	drive, err := q.DriveElement()
	if err != nil {
		return qua.Var{}, err
	}
	readout, err := q.ReadoutElement()
	if err != nil {
		return qua.Var{}, err
	}
	threshold, err := threshold(q, opts)
	if err != nil {
		return qua.Var{}, err
	}
	relaxation, err := relaxationTime(q, opts.RelaxationTime)
	if err != nil {
		return qua.Var{}, err
	}

	i := b.Declare(qua.Fixed)
	counter := b.Declare(qua.Int)
	b.Assign(counter, qua.Lit(0))
	b.Align(drive, readout)

	excited := qua.Gt(i, qua.Lit(threshold))
	var loopErr error
	b.While(qua.And(excited, qua.Lt(counter, qua.Lit(opts.MaxTries))), func() {
		if _, _, err := q.Measure(b, opts.ReadoutPulse, qua.MeasureOptions{I: &i}); err != nil {
			loopErr = err
			return
		}
		b.Align(drive, readout)
		b.Wait(qua.Lit(qua.Cycles(relaxation)), drive)
		if err := q.Play(b, "x180", qua.PlayOptions{Condition: excited}); err != nil {
			loopErr = err
			return
		}
		b.Assign(counter, qua.Add(counter, qua.Lit(1)))
	})
	if loopErr != nil {
		return qua.Var{}, loopErr
	}
	if opts.Save {
		b.Save(counter, drive+".reset_count")
	}
	return counter, nil
}

// CooldownReset waits for the qubit to thermalize. A zero cooldown uses the
// qubit's thermalization time.
func CooldownReset(b qua.Builder, q Qubit, cooldown time.Duration) error {
	drive, err := q.DriveElement()
	if err != nil {
		return err
	}
	readout, err := q.ReadoutElement()
	if err != nil {
		return err
	}
	cooldown, err = relaxationTime(q, cooldown)
	if err != nil {
		return err
	}
	b.Align(drive, readout)
	b.Wait(qua.Lit(qua.Cycles(cooldown)), drive)
	return nil
}

func threshold(q Qubit, opts ResetOptions) (float64, error) {
	if opts.Threshold != nil {
		return *opts.Threshold, nil
	}
	return q.Threshold()
}

func relaxationTime(q Qubit, d time.Duration) (time.Duration, error) {
	if d > 0 {
		return d, nil
	}
	return q.ThermalizationTime()
}
