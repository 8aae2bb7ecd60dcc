package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/qubits"
	"github.com/vk/squidquam/internal/roots"
)

var heading = lipgloss.NewStyle().Bold(true).Underline(true)

// printQubits writes one line per qubit with its measured parameters in SI
// units. Unset parameters are skipped.
func printQubits(w io.Writer, root *roots.Root) error {
	if root.Qubits.Len() == 0 {
		return nil
	}
	qs, err := root.Qubits.Values()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, heading.Render("Qubits"))

	for _, q := range qs {
		sq := qubits.Transmon(q)
		name, err := sq.Name()
		if err != nil {
			return err
		}

		line := name
		if f, ok := sq.F01(); ok {
			line += "  f01=" + formatParam(sq, "transition_frequencies", f)
		}
		if a, ok := sq.Anharmonicity(); ok {
			line += "  anharmonicity=" + quam.Metadata{Unit: "Hz"}.Format(a)
		}
		for _, p := range []struct {
			field string
			value quam.Value[float64]
		}{
			{"T1", sq.T1},
			{"T2ramsey", sq.T2Ramsey},
			{"T2echo", sq.T2Echo},
		} {
			v, ok, err := p.value.Lookup(sq)
			if err != nil {
				return err
			}
			if ok {
				line += "  " + p.field + "=" + formatParam(sq, p.field, v)
			}
		}
		if sq.Resonator != nil {
			if f, err := sq.Resonator.ReadoutFrequency(); err == nil {
				line += "  readout=" + quam.Metadata{Unit: "Hz"}.Format(f)
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatParam(c quam.Component, field string, v float64) string {
	md, _ := quam.MetadataOf(c, field)
	return md.Format(v)
}
