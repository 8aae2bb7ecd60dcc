// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoExtension is returned by FindFilesByExtension for an empty extension.
var ErrNoExtension = errors.New("fsutil: extension must not be empty")

type findOptions struct {
	shallow    bool
	skipHidden bool
}

// FindOption tunes FindFilesByExtension.
type FindOption func(*findOptions)

// Shallow stops the search from descending below rootPath.
func Shallow() FindOption { return func(o *findOptions) { o.shallow = true } }

// SkipHidden ignores files and directories whose name starts with a dot.
func SkipHidden() FindOption { return func(o *findOptions) { o.skipHidden = true } }

// FindFilesByExtension searches rootPath for all files ending with extension
// and returns their full paths in lexical order.
func FindFilesByExtension(rootPath string, extension string, opts ...FindOption) ([]string, error) {
	if extension == "" {
		return nil, ErrNoExtension
	}
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}

	root := filepath.Clean(rootPath)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		hidden := o.skipHidden && path != root && strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if path != root && (o.shallow || hidden) {
				return filepath.SkipDir
			}
			return nil
		}
		if !hidden && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FirstExistingDir returns the first candidate that is an existing directory.
func FirstExistingDir(candidates []string) (string, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, true
		}
	}
	return "", false
}
