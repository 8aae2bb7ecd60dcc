package wiring

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPortMismatch is returned when an I/Q port pair does not map onto an
// Octave port.
var ErrPortMismatch = errors.New("wiring: I/Q ports do not form an octave pair")

// Port is a controller port.
type Port struct {
	Controller string
	Number     int
}

// NewPort is shorthand for Port{controller, number}.
func NewPort(controller string, number int) Port {
	return Port{Controller: controller, Number: number}
}

func (p Port) String() string {
	return fmt.Sprintf("(%s, %d)", p.Controller, p.Number)
}

// Tuple returns the port in the form the QUA config expects.
func (p Port) Tuple() []any {
	return []any{p.Controller, p.Number}
}

// MarshalJSON writes ["con1", 3].
func (p Port) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Tuple())
}

// UnmarshalJSON reads ["con1", 3].
func (p *Port) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("port must be a [controller, number] pair: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("port must have 2 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &p.Controller); err != nil {
		return fmt.Errorf("port controller: %w", err)
	}
	if err := json.Unmarshal(parts[1], &p.Number); err != nil {
		return fmt.Errorf("port number: %w", err)
	}
	return nil
}

// DefaultOctavePort returns the Octave port an I/Q pair is wired to by
// convention: both ports on the same controller, I odd and Q = I+1, giving
// Octave port Q/2. So (1,2)->1, (3,4)->2 ... (9,10)->5.
func DefaultOctavePort(i, q Port) (int, error) {
	if i.Controller != q.Controller {
		return 0, fmt.Errorf("%w: ports %s and %s are on different controllers", ErrPortMismatch, i, q)
	}
	if i.Number%2 != 1 {
		return 0, fmt.Errorf("%w: I port %d is not odd", ErrPortMismatch, i.Number)
	}
	if q.Number != i.Number+1 {
		return 0, fmt.Errorf("%w: Q port %d does not follow I port %d", ErrPortMismatch, q.Number, i.Number)
	}
	return q.Number / 2, nil
}
