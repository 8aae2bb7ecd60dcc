package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/squidquam/internal/information"
	"github.com/vk/squidquam/internal/testutil"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogLevel, EnvLogFormat, EnvStatePath, EnvNetworkDrives, EnvSubjectDB} {
		t.Setenv(k, "")
	}
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "upper case level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "no drives", mutate: func(c *Config) { c.Lab.NetworkDrives = nil }, wantErr: true},
		{name: "no subject db", mutate: func(c *Config) { c.Lab.SubjectDB = "" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			got, err := NewConfig(cfg)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "text", got.LogFormat)
			assert.Contains(t, []string{"info", "debug"}, got.LogLevel)
		})
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	dir := testutil.WriteFiles(t, map[string]string{
		"squidquam.toml": `
log_level    = "debug"
state_path   = "state"
descriptions = ["devices/d7", "/abs/d8.hcl"]

[lab]
subject_db = "db/ids.json"
`,
	})

	cfg, err := LoadConfig(filepath.Join(dir, "squidquam.toml"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat, "undefined keys keep their defaults")
	assert.Equal(t, filepath.Join(dir, "state"), cfg.StatePath)
	assert.Equal(t, []string{filepath.Join(dir, "devices/d7"), "/abs/d8.hcl"}, cfg.Descriptions)
	assert.Equal(t, information.DefaultLab.NetworkDrives, cfg.Lab.NetworkDrives)
	assert.Equal(t, "db/ids.json", cfg.Lab.SubjectDB)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := testutil.WriteFiles(t, map[string]string{
		"squidquam.toml": "log_level = \"warn\"\n",
	})
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "JSON")
	t.Setenv(EnvNetworkDrives, "/mnt/a"+string(os.PathListSeparator)+"/mnt/b")

	cfg, err := LoadConfig(filepath.Join(dir, "squidquam.toml"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"/mnt/a", "/mnt/b"}, cfg.Lab.NetworkDrives)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnv(t)
	// Unset rather than blank so godotenv is allowed to set it; t.Setenv
	// restores the original state afterwards.
	require.NoError(t, os.Unsetenv(EnvSubjectDB))

	dir := testutil.WriteFiles(t, map[string]string{
		".env": EnvSubjectDB + "=lab/subjects.json\n",
	})

	cfg, err := LoadConfig("", filepath.Join(dir, ".env"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "lab/subjects.json", cfg.Lab.SubjectDB)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	dir := testutil.WriteFiles(t, map[string]string{
		"unknown.toml": "log_colour = \"red\"\n",
		"invalid.toml": "log_format = \"xml\"\n",
		"broken.toml":  "log_level = \n",
	})

	testCases := []struct {
		name  string
		path  string
		isErr error
	}{
		{name: "missing named file", path: filepath.Join(dir, "nope.toml"), isErr: os.ErrNotExist},
		{name: "unknown key", path: filepath.Join(dir, "unknown.toml"), isErr: ErrInvalidConfig},
		{name: "invalid value", path: filepath.Join(dir, "invalid.toml"), isErr: ErrInvalidConfig},
		{name: "syntax error", path: filepath.Join(dir, "broken.toml")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(tc.path)
			require.Error(t, err)
			if tc.isErr != nil {
				assert.ErrorIs(t, err, tc.isErr)
			}
		})
	}
}

func TestLabInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lab.NetworkDrives = []string{"/mnt/x"}
	lab := cfg.LabInfo()
	lab.NetworkDrives[0] = "changed"
	assert.Equal(t, "/mnt/x", cfg.Lab.NetworkDrives[0])
	assert.Equal(t, information.DefaultLab.SubjectDB, lab.SubjectDB)
}
