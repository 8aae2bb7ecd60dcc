package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/squidquam/internal/app"
	"github.com/vk/squidquam/internal/hcl"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError marks bad input on the command line. It exits with code 2.
func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// options are the persistent flags shared by every command, plus the App
// built from them before a command runs.
type options struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	outW io.Writer
	logW io.Writer
	app  *app.App
}

// Execute runs the command line args. Command output goes to outW and logs
// to logW. Every returned error is an *ExitError.
func Execute(ctx context.Context, args []string, outW, logW io.Writer) error {
	cmd := NewRootCommand(outW, logW)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Argument count and unknown command errors come from cobra itself.
	if strings.HasPrefix(err.Error(), "unknown command") || strings.Contains(err.Error(), "arg(s)") {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

// NewRootCommand builds the squidquam command tree.
func NewRootCommand(outW, logW io.Writer) *cobra.Command {
	o := &options{outW: outW, logW: logW}

	root := &cobra.Command{
		Use:   "squidquam",
		Short: "SQuID lab QuAM device configurations",
		Long: `squidquam builds, inspects and edits QuAM configurations of
superconducting qubit devices.

Device descriptions are HCL files with information, network, wiring and
build blocks. Built configurations are saved as JSON state directories.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: o.setup,
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "Path to the TOML config file (default: ./"+app.DefaultConfigFile+" if present).")
	flags.StringVar(&o.envFile, "env-file", ".env", "Env file with SQUIDQUAM_* overrides; ignored when missing.")
	flags.StringVar(&o.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&o.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newBuildCommand(o),
		newValidateCommand(o),
		newConfigCommand(o),
		newInfoCommand(o),
		newGateShapeCommand(o),
		newResetCommand(o),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the App.
func (o *options) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(o.configPath, o.envFile)
	if err != nil {
		return usageError("%v", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	cfg, err = app.NewConfig(*cfg)
	if err != nil {
		return usageError("%v", err)
	}

	o.app = app.NewApp(o.logW, cfg, hcl.NewLoader())
	return nil
}
