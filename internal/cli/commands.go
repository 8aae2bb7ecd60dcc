package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/squidquam/internal/macros"
	"github.com/vk/squidquam/internal/qua"
	"github.com/vk/squidquam/internal/qubits"
	"github.com/vk/squidquam/internal/roots"
	"gopkg.in/yaml.v3"
)

func newBuildCommand(o *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build [DESCRIPTION_PATH...]",
		Short: "Generate a starting configuration from device descriptions",
		Long: `Reads the HCL device description and generates an empty single feed line
configuration: an Octave, one qubit per drive line with DRAG and flat-top
pulse sets, and a readout resonator per qubit.

The result is saved to --out, or to the description's state_path, or to the
configured state_path, in that order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := o.app.Build(cmd.Context(), args, out)
			if err != nil {
				return err
			}
			name := root.Information.DeviceName
			fmt.Fprintf(o.outW, "Built %s: %d qubit(s), %d octave(s).\n", name, root.Qubits.Len(), root.Octaves.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory or .json file to save the configuration to.")
	return cmd
}

func newValidateCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [DESCRIPTION_PATH...]",
		Short: "Check that a device description generates a valid device config",
		Long: `Generates the configuration, builds its device config and checks that it
survives a save and load in memory. Nothing is written to disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := o.app.Validate(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(o.outW, "%s is valid: %d file(s), %d qubit(s), %d element(s).\n",
				report.Device, report.Files, report.Qubits, len(report.Elements))
			return nil
		},
	}
}

func newConfigCommand(o *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config [STATE_PATH]",
		Short: "Print the device config generated from a saved configuration",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "json" && format != "yaml" {
				return usageError("invalid format: must be 'json' or 'yaml'")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := o.app.LoadRoot(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			cfg, err := root.Config()
			if err != nil {
				return err
			}

			var b []byte
			if format == "yaml" {
				b, err = yaml.Marshal(map[string]any(cfg))
			} else {
				b, err = json.MarshalIndent(cfg, "", "  ")
				b = append(b, '\n')
			}
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = o.outW.Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format. Options: 'json' or 'yaml'.")
	return cmd
}

func newInfoCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info [STATE_PATH]",
		Short: "Print the lab information and qubit parameters of a saved configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := o.app.LoadRoot(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			if err := root.PrintInfo(o.outW); err != nil {
				return err
			}
			return printQubits(o.outW, root)
		},
	}
}

func newGateShapeCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "gate-shape SHAPE [STATE_PATH]",
		Short: "Make a pulse set the default gates of every qubit",
		Long: `Adds the gates of the pulse set SHAPE (for example drag_gaussian or
flattop_cosine) as the default x90, x180, ... operations of every qubit's
drive channel and saves the configuration back.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args[1:])
			if path == "" {
				path = o.app.Config().StatePath
			}
			root, err := o.app.LoadRoot(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := root.SetDefaultGateShape(args[0]); err != nil {
				return err
			}
			if err := root.Save(cmd.Context(), path, roots.SaveOptions{}); err != nil {
				return err
			}
			fmt.Fprintf(o.outW, "Default gate shape of %d qubit(s) set to %s.\n", root.Qubits.Len(), args[0])
			return nil
		},
	}
}

func newResetCommand(o *options) *cobra.Command {
	var (
		opts      macros.ResetOptions
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "reset QUBIT [STATE_PATH]",
		Short: "Print the program statements of a qubit reset",
		Long: `Records the reset macro of QUBIT without running it and prints the
resulting program, one statement per line.

Methods: active (measure and conditionally flip until in the ground state),
cooldown (wait for the qubit to thermalize) and none.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := o.app.LoadRoot(cmd.Context(), firstArg(args[1:]))
			if err != nil {
				return err
			}
			q, err := root.Qubits.Get(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = &threshold
			}

			rec := qua.NewRecorder()
			if _, err := qubits.Transmon(q).Reset(rec, opts); err != nil {
				return err
			}
			if stmts := rec.Statements(); len(stmts) > 0 {
				fmt.Fprintln(o.outW, qua.Format(stmts))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Method, "method", macros.Active, "Reset method. Options: 'active', 'cooldown' or 'none'.")
	flags.StringVar(&opts.ReadoutPulse, "readout-pulse", roots.ReadoutOperation, "Resonator operation used to measure.")
	flags.IntVar(&opts.MaxTries, "max-tries", 10, "Bound on active reset attempts.")
	flags.Float64Var(&threshold, "threshold", 0, "Readout threshold (default: the resonator's threshold_g).")
	flags.DurationVar(&opts.RelaxationTime, "relaxation", 0, "Wait before each attempt, or the cooldown time (default: thermalization time).")
	flags.BoolVar(&opts.Save, "save", false, "Stream the active reset counter.")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
