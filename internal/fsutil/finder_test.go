package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.hcl"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.hcl"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.json"), nil, 0o644))

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(root, "a.hcl"), filepath.Join(root, "sub", "b.hcl")}, files)
}

func TestFirstExistingDir(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	got, ok := FirstExistingDir([]string{"", filepath.Join(root, "missing"), file, root})
	require.True(t, ok)
	assert.Equal(t, root, got)

	_, ok = FirstExistingDir([]string{filepath.Join(root, "missing")})
	assert.False(t, ok)
}

func TestFindFilesByExtension_Options(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"sub", ".git"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	for _, f := range []string{"b.json", "a.json", ".hidden.json", "sub/c.json", ".git/d.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), nil, 0o644))
	}

	testCases := []struct {
		name string
		opts []FindOption
		want []string
	}{
		{name: "all", want: []string{".git/d.json", ".hidden.json", "a.json", "b.json", "sub/c.json"}},
		{name: "shallow", opts: []FindOption{Shallow()}, want: []string{".hidden.json", "a.json", "b.json"}},
		{name: "skip hidden", opts: []FindOption{SkipHidden()}, want: []string{"a.json", "b.json", "sub/c.json"}},
		{name: "both", opts: []FindOption{Shallow(), SkipHidden()}, want: []string{"a.json", "b.json"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			files, err := FindFilesByExtension(root, ".json", tc.opts...)
			require.NoError(t, err)
			want := make([]string, len(tc.want))
			for i, f := range tc.want {
				want[i] = filepath.Join(root, filepath.FromSlash(f))
			}
			assert.Equal(t, want, files)
		})
	}
}

func TestFindFilesByExtension_EmptyExtension(t *testing.T) {
	_, err := FindFilesByExtension(t.TempDir(), "")
	require.ErrorIs(t, err, ErrNoExtension)
}
