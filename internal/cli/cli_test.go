package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/squidquam/internal/app"
	"github.com/vk/squidquam/internal/roots"
	"github.com/vk/squidquam/internal/testutil"
	"gopkg.in/yaml.v3"
)

type env struct {
	descDir  string
	stateDir string
	flags    []string
}

func newEnv(t *testing.T) env {
	t.Helper()
	for _, k := range []string{app.EnvLogLevel, app.EnvLogFormat, app.EnvStatePath, app.EnvNetworkDrives, app.EnvSubjectDB} {
		t.Setenv(k, "")
	}

	stateDir := filepath.Join(t.TempDir(), "state")
	cfgDir := testutil.WriteFiles(t, map[string]string{
		"squidquam.toml": fmt.Sprintf(`
log_level  = "warn"
state_path = %q

[lab]
network_drives = ["/mnt/squidquam-test"]
`, stateDir),
	})
	return env{
		descDir:  testutil.WriteFiles(t, testutil.SampleDescription()),
		stateDir: stateDir,
		flags: []string{
			"--config", filepath.Join(cfgDir, "squidquam.toml"),
			"--env-file", filepath.Join(cfgDir, "missing.env"),
		},
	}
}

func (e env) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, logs := &bytes.Buffer{}, &testutil.SafeBuffer{}
	err := Execute(context.Background(), append(append([]string{}, e.flags...), args...), out, logs)
	return out.String(), logs.String(), err
}

func TestExecute_Help(t *testing.T) {
	e := newEnv(t)
	out, _, err := e.run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	for _, sub := range []string{"build", "validate", "config", "info", "gate-shape"} {
		assert.Contains(t, out, sub)
	}
}

func TestExecute_Workflow(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "validate", e.descDir)
	require.NoError(t, err)
	assert.Contains(t, out, "D7 is valid: 4 file(s), 2 qubit(s), 5 element(s)")

	out, _, err = e.run(t, "build", e.descDir)
	require.NoError(t, err)
	assert.Equal(t, "Built D7: 2 qubit(s), 1 octave(s).\n", out)
	assert.FileExists(t, filepath.Join(e.stateDir, "wiring.json"))

	out, _, err = e.run(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "D7")
	assert.Contains(t, out, "Qubits")
	assert.Contains(t, out, "f01=5.1 GHz")
	assert.Contains(t, out, "readout=6 GHz")

	out, _, err = e.run(t, "config")
	require.NoError(t, err)
	var asJSON map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &asJSON))
	assert.Contains(t, asJSON["elements"], "q1.xy")

	out, _, err = e.run(t, "config", "--format", "yaml", e.stateDir)
	require.NoError(t, err)
	var asYAML map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &asYAML))
	assert.Contains(t, asYAML["elements"], "q1.resonator")

	out, _, err = e.run(t, "gate-shape", roots.DragPulseSet)
	require.NoError(t, err)
	assert.Contains(t, out, "set to drag_gaussian")

	out, _, err = e.run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, `"x180": "q1.xy.x180_drag_gaussian.pulse"`)

	out, _, err = e.run(t, "reset", "q1", "--threshold", "0.001", "--relaxation", "200ns", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "while(")
	assert.Contains(t, out, "play(x180, q1.xy, condition=")
	assert.Contains(t, out, "measure(readout, q1.resonator")
	assert.Contains(t, out, "save(")

	out, _, err = e.run(t, "reset", "q2", e.stateDir, "--method", "cooldown", "--relaxation", "1us")
	require.NoError(t, err)
	assert.Equal(t, "align(q2.xy, q2.resonator)\nwait(250, q2.xy)\n", out)
}

func TestExecute_LogFlagsOverrideConfig(t *testing.T) {
	e := newEnv(t)
	_, logs, err := e.run(t, "--log-level", "debug", "--log-format", "json", "validate", e.descDir)
	require.NoError(t, err)
	assert.Contains(t, logs, `"msg":"Device description loaded."`)
}

func TestExecute_Errors(t *testing.T) {
	e := newEnv(t)

	testCases := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{name: "invalid log level", args: []string{"--log-level=foo", "info"}, code: 2, contains: "log_level"},
		{name: "unknown flag", args: []string{"--nope", "info"}, code: 2, contains: "unknown flag"},
		{name: "unknown command", args: []string{"explode"}, code: 2, contains: "unknown command"},
		{name: "too many args", args: []string{"info", "a", "b"}, code: 2, contains: "arg(s)"},
		{name: "bad format", args: []string{"config", "--format", "xml"}, code: 2, contains: "format"},
		{name: "missing description", args: []string{"build", filepath.Join(e.descDir, "nope")}, code: 1, contains: "no description files"},
		{name: "unknown gate shape", args: []string{"gate-shape", "sinc"}, code: 1},
		{name: "unknown qubit", args: []string{"reset", "q9", "--method", "none"}, code: 1},
		{name: "unknown reset method", args: []string{"reset", "q1", "--method", "warm"}, code: 1, contains: "warm"},
	}

	// The gate shape case needs a saved configuration.
	_, _, err := e.run(t, "build", e.descDir)
	require.NoError(t, err)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := e.run(t, tc.args...)
			require.Error(t, err)

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "expected an ExitError, got %T", err)
			assert.Equal(t, tc.code, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.contains)
		})
	}
}

func TestExecute_MissingConfigFile(t *testing.T) {
	e := newEnv(t)
	e.flags[1] = filepath.Join(t.TempDir(), "absent.toml")
	_, _, err := e.run(t, "info")

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}
