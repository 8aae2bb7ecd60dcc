package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/squidquam/internal/ctxlog"
	"github.com/vk/squidquam/internal/fsutil"
	"github.com/vk/squidquam/internal/information"
	"github.com/vk/squidquam/internal/network"
	"github.com/vk/squidquam/internal/roots"
	"github.com/vk/squidquam/internal/wiring"
)

var (
	// ErrNoFiles is returned when none of the given paths holds a .hcl file.
	ErrNoFiles = errors.New("hcl: no description files found")
	// ErrDuplicateBlock is returned when a singleton block appears twice.
	ErrDuplicateBlock = errors.New("hcl: block defined more than once")
	// ErrMissingBlock is returned when a required block is absent.
	ErrMissingBlock = errors.New("hcl: required block missing")
	// ErrDuplicateName is returned for two labelled blocks of the same kind
	// and name.
	ErrDuplicateName = errors.New("hcl: duplicate block name")
	// ErrInvalidPort is returned for a port that is not a [controller, number]
	// tuple.
	ErrInvalidPort = errors.New("hcl: invalid port")
)

// Device is a loaded description.
type Device struct {
	Information *information.Information
	Network     *network.OPXNetwork
	Wiring      *wiring.OPXWiring
	Build       roots.BuildOptions
	// DefaultGateShape, when set, is applied to every generated qubit.
	DefaultGateShape string
	// Files are the files the description was read from.
	Files []string
}

// Generate builds the starting configuration the description asks for.
func (d *Device) Generate(ctx context.Context) (*roots.Root, error) {
	r, err := roots.GenerateEmptySingleFeedline(ctx, d.Wiring, d.Network, d.Information, d.Build)
	if err != nil {
		return nil, err
	}
	if d.DefaultGateShape != "" {
		if err := r.SetDefaultGateShape(d.DefaultGateShape); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Loader reads device descriptions from HCL files.
type Loader struct{}

// NewLoader creates a new HCL description loader.
func NewLoader() *Loader {
	return &Loader{}
}

// blocks collects the singleton blocks of all files, remembering where each
// came from.
type blocks struct {
	information *InformationBlock
	network     *NetworkBlock
	wiring      *WiringBlock
	build       *BuildBlock
	origin      map[string]string
}

func (b *blocks) claim(kind, file string) error {
	if prev, ok := b.origin[kind]; ok {
		return fmt.Errorf("%w: %s in %s and %s", ErrDuplicateBlock, kind, prev, file)
	}
	b.origin[kind] = file
	return nil
}

// Load parses every .hcl file below paths and translates the merged blocks.
// The information, network and wiring blocks are required; build is not.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Device, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v", ErrNoFiles, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	all := &blocks{origin: make(map[string]string)}
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := all.merge(file, &root); err != nil {
			return nil, err
		}
	}

	for _, kind := range []string{"information", "network", "wiring"} {
		if _, ok := all.origin[kind]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingBlock, kind)
		}
	}

	d := &Device{Files: files}
	if d.Information, err = translateInformation(all.information); err != nil {
		return nil, err
	}
	if d.Network, err = translateNetwork(all.network); err != nil {
		return nil, err
	}
	if d.Wiring, err = translateWiring(all.wiring); err != nil {
		return nil, err
	}
	if all.build != nil {
		d.Build = translateBuild(all.build)
		d.DefaultGateShape = all.build.DefaultGateShape
	}

	logger.Debug("HCL loading complete.", "drive_lines", d.Wiring.DriveLines.Len(), "feed_lines", d.Wiring.FeedLines.Len(), "octaves", d.Network.OctaveNetworks.Len())
	return d, nil
}

func (b *blocks) merge(file string, root *fileRoot) error {
	for _, blk := range root.Information {
		if err := b.claim("information", file); err != nil {
			return err
		}
		b.information = blk
	}
	for _, blk := range root.Network {
		if err := b.claim("network", file); err != nil {
			return err
		}
		b.network = blk
	}
	for _, blk := range root.Wiring {
		if err := b.claim("wiring", file); err != nil {
			return err
		}
		b.wiring = blk
	}
	for _, blk := range root.Build {
		if err := b.claim("build", file); err != nil {
			return err
		}
		b.build = blk
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl", fsutil.SkipHidden())
			if err != nil {
				return nil, err
			}
			for _, p := range found {
				add(p)
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	return allFiles, nil
}
