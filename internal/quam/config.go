package quam

import (
	"fmt"
	"strings"
)

// Config is a QUA configuration dictionary. Nested sections are
// map[string]any so the result can be marshalled as-is.
type Config map[string]any

// ConfigApplier is implemented by components that contribute to the QUA
// configuration.
type ConfigApplier interface {
	ApplyToConfig(cfg Config) error
}

// ConfigVersion is the QUA configuration schema version written by
// BaseConfig.
const ConfigVersion = 1

// BaseConfig returns the empty configuration every generation starts from.
func BaseConfig() Config {
	return Config{
		"version":     ConfigVersion,
		"controllers": map[string]any{},
		"elements":    map[string]any{},
		"pulses":      map[string]any{},
		"waveforms":   map[string]any{},
		"digital_waveforms": map[string]any{
			"ON": map[string]any{"samples": []any{[]any{1, 0}}},
		},
		"integration_weights": map[string]any{},
		"mixers":              map[string]any{},
		"oscillators":         map[string]any{},
		"octaves":             map[string]any{},
	}
}

// Section returns the nested map under keys, creating missing levels.
func (c Config) Section(keys ...string) map[string]any {
	cur := map[string]any(c)
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[k] = next
		}
		cur = next
	}
	return cur
}

// Lookup returns the value under keys without creating anything.
func (c Config) Lookup(keys ...string) (any, bool) {
	var cur any = map[string]any(c)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GenerateConfig builds the configuration of the tree below root by letting
// every ConfigApplier write its part, in iteration order.
func GenerateConfig(root Component) (Config, error) {
	cfg := BaseConfig()
	err := Iterate(root, func(c Component) error {
		applier, ok := c.(ConfigApplier)
		if !ok {
			return nil
		}
		if err := applier.ApplyToConfig(cfg); err != nil {
			path, _ := PathOf(c)
			return fmt.Errorf("applying %T at /%s to config: %w", c, FormatPath(path), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// FormatPath joins path segments with slashes.
func FormatPath(path []string) string {
	return strings.Join(path, "/")
}
