package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/squidquam/internal/inmemorystore"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/roots"
)

// ErrRoundTrip is returned when a generated configuration does not survive
// being saved and loaded again.
var ErrRoundTrip = errors.New("app: configuration changed across save and load")

// Report summarizes a validated description.
type Report struct {
	Device   string
	Files    int
	Qubits   int
	Elements []string
}

// Validate generates the configuration described by paths, builds its
// device config, and checks that saving and reloading it yields the same
// elements. Nothing is written to disk.
func (a *App) Validate(ctx context.Context, paths ...string) (*Report, error) {
	ctx = a.Context(ctx)
	dev, err := a.Describe(ctx, paths...)
	if err != nil {
		return nil, err
	}
	root, err := dev.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate configuration: %w", err)
	}
	cfg, err := root.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to generate device config: %w", err)
	}

	store := inmemorystore.New()
	if err := quam.Save(ctx, root, store, roots.DefaultContentMapping); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}
	reloaded, err := roots.LoadFrom(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoundTrip, err)
	}
	reloadedCfg, err := reloaded.Config()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoundTrip, err)
	}

	elements := keys(cfg.Section("elements"))
	if got := keys(reloadedCfg.Section("elements")); !slices.Equal(elements, got) {
		return nil, fmt.Errorf("%w: elements %v became %v", ErrRoundTrip, elements, got)
	}

	a.logger.Debug("Description validated.", "device", dev.Information.DeviceName, "elements", len(elements))
	return &Report{
		Device:   dev.Information.DeviceName,
		Files:    len(dev.Files),
		Qubits:   root.Qubits.Len(),
		Elements: elements,
	}, nil
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
