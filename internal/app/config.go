package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/vk/squidquam/internal/information"
)

// DefaultConfigFile is the config file looked up when none is named.
const DefaultConfigFile = "squidquam.toml"

// Environment variables that override the config file.
const (
	EnvLogLevel      = "SQUIDQUAM_LOG_LEVEL"
	EnvLogFormat     = "SQUIDQUAM_LOG_FORMAT"
	EnvStatePath     = "SQUIDQUAM_STATE_PATH"
	EnvNetworkDrives = "SQUIDQUAM_NETWORK_DRIVES"
	EnvSubjectDB     = "SQUIDQUAM_SUBJECT_DB"
)

// ErrInvalidConfig is returned by NewConfig for values it cannot accept.
var ErrInvalidConfig = errors.New("app: invalid configuration")

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	// StatePath is where built configurations are saved and loaded from
	// when a description does not set information.state_path.
	StatePath string `toml:"state_path"`
	// Descriptions are the HCL files or directories read when a command
	// names none.
	Descriptions []string  `toml:"descriptions"`
	Lab          LabConfig `toml:"lab"`
}

// LabConfig locates the shared network drive.
type LabConfig struct {
	NetworkDrives []string `toml:"network_drives"`
	SubjectDB     string   `toml:"subject_db"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Lab: LabConfig{
			NetworkDrives: append([]string(nil), information.DefaultLab.NetworkDrives...),
			SubjectDB:     information.DefaultLab.SubjectDB,
		},
	}
}

// LabInfo converts the lab section for information components.
func (c *Config) LabInfo() *information.Lab {
	return &information.Lab{
		NetworkDrives: append([]string(nil), c.Lab.NetworkDrives...),
		SubjectDB:     c.Lab.SubjectDB,
	}
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("%w: log_level must be 'debug', 'info', 'warn', or 'error', got %q", ErrInvalidConfig, cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("%w: log_format must be 'text' or 'json', got %q", ErrInvalidConfig, cfg.LogFormat)
	}

	if len(cfg.Lab.NetworkDrives) == 0 {
		return nil, fmt.Errorf("%w: lab.network_drives must not be empty", ErrInvalidConfig)
	}
	if cfg.Lab.SubjectDB == "" {
		return nil, fmt.Errorf("%w: lab.subject_db must be set", ErrInvalidConfig)
	}

	return &cfg, nil
}

// LoadConfig builds the configuration from defaults, the TOML file at path,
// any .env files and SQUIDQUAM_* environment variables, in that order.
//
// An empty path falls back to DefaultConfigFile and tolerates its absence.
// A named file must exist. Missing .env files are ignored.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := decodeConfigFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg)

	return NewConfig(cfg)
}

// decodeConfigFile overlays the keys defined in the file onto cfg.
func decodeConfigFile(path string, cfg *Config) error {
	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = raw.LogFormat
	}
	if meta.IsDefined("state_path") {
		cfg.StatePath = raw.StatePath
	}
	if meta.IsDefined("descriptions") {
		cfg.Descriptions = raw.Descriptions
	}
	if meta.IsDefined("lab", "network_drives") {
		cfg.Lab.NetworkDrives = raw.Lab.NetworkDrives
	}
	if meta.IsDefined("lab", "subject_db") {
		cfg.Lab.SubjectDB = raw.Lab.SubjectDB
	}

	// Relative paths in the file are relative to the file.
	dir := filepath.Dir(path)
	if cfg.StatePath != "" && meta.IsDefined("state_path") && !filepath.IsAbs(cfg.StatePath) {
		cfg.StatePath = filepath.Join(dir, cfg.StatePath)
	}
	if meta.IsDefined("descriptions") {
		for i, p := range cfg.Descriptions {
			if !filepath.IsAbs(p) {
				cfg.Descriptions[i] = filepath.Join(dir, p)
			}
		}
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}
	return nil
}

// loadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set.
func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStatePath)); v != "" {
		cfg.StatePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNetworkDrives)); v != "" {
		cfg.Lab.NetworkDrives = filepath.SplitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSubjectDB)); v != "" {
		cfg.Lab.SubjectDB = v
	}
}
