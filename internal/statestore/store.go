package statestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/squidquam/internal/fsutil"
)

// ErrNotFound is returned by Get for a document the store does not hold.
var ErrNotFound = errors.New("statestore: document not found")

// Store persists named JSON documents.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

// SingleDocument is implemented by stores that keep everything in one file;
// savers must not split the tree across documents for them.
type SingleDocument interface {
	SingleDocument() bool
}

// Open returns a File store for paths ending in .json and a Dir store
// otherwise.
func Open(path string) Store {
	if strings.HasSuffix(path, ".json") {
		return NewFile(path)
	}
	return NewDir(path)
}

// Dir stores each document as a file in a directory.
type Dir struct {
	path string
}

// NewDir returns a store rooted at path. The directory is created on first
// write.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory backing the store.
func (d *Dir) Path() string { return d.path }

func (d *Dir) Put(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", d.path, err)
	}
	return os.WriteFile(filepath.Join(d.path, name), data, 0o644)
}

func (d *Dir) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(d.path, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return b, err
}

// List returns the .json documents directly inside the directory.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	files, err := fsutil.FindFilesByExtension(d.path, ".json", fsutil.Shallow())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	return names, nil
}

// File keeps the whole tree in a single JSON file.
type File struct {
	path string
}

// NewFile returns a single-file store.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) SingleDocument() bool { return true }

// Put writes data to the file regardless of name.
func (f *File) Put(ctx context.Context, name string, data []byte) error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(f.path, data, 0o644)
}

func (f *File) Get(ctx context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, f.path)
	}
	return b, err
}

func (f *File) List(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(f.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return []string{filepath.Base(f.path)}, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("statestore: invalid document name %q", name)
	}
	return nil
}
