package loader

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastertools/spin-loader/pkg/loader/assets"
	"github.com/fastertools/spin-loader/pkg/loader/config"
	"github.com/fastertools/spin-loader/pkg/manifest"
)

// countingResolver records calls so tests can check that resolution stops
// at the first failure.
type countingResolver struct {
	assets.Resolver
	calls int
}

func (r *countingResolver) ResolvePattern(baseDir, pattern string) ([]assets.Match, error) {
	r.calls++
	return r.Resolver.ResolvePattern(baseDir, pattern)
}

func (r *countingResolver) ResolvePlacement(baseDir, source string) (string, error) {
	r.calls++
	return r.Resolver.ResolvePlacement(baseDir, source)
}

func TestResolveMounts(t *testing.T) {
	fsys := fstest.MapFS{
		"base/a.txt":       {Data: []byte("a")},
		"base/b.txt":       {Data: []byte("b")},
		"base/dir/c.txt":   {Data: []byte("c")},
		"base/public/x.js": {Data: []byte("x")},
	}
	resolver := assets.NewFSResolver(fsys)

	mounts, err := resolveMounts(slog.Default(), resolver, "/base", []config.RawFileMount{
		config.RawFilePattern("*.txt"),
		config.RawFilePattern("nothing/*"),
		config.RawDirectoryPlacement{Source: "public", Destination: "/www/./public"},
		config.RawFilePattern("dir/c.txt"),
	})
	require.NoError(t, err)

	assert.Equal(t, []manifest.FileMount{
		{Host: filepath.Join("/base", "a.txt"), Guest: "a.txt"},
		{Host: filepath.Join("/base", "b.txt"), Guest: "b.txt"},
		{Host: filepath.Join("/base", "public"), Guest: "/www/public", Directory: true},
		{Host: filepath.Join("/base", "dir", "c.txt"), Guest: "dir/c.txt"},
	}, mounts)
}

func TestResolveMounts_Empty(t *testing.T) {
	mounts, err := resolveMounts(slog.Default(), assets.NewFSResolver(fstest.MapFS{}), "/", nil)
	require.NoError(t, err)
	assert.Empty(t, mounts)
}

func TestResolveMounts_StopsAtFirstFailure(t *testing.T) {
	fsys := fstest.MapFS{"base/a.txt": {Data: []byte("a")}}
	resolver := &countingResolver{Resolver: assets.NewFSResolver(fsys)}

	mounts, err := resolveMounts(slog.Default(), resolver, "/base", []config.RawFileMount{
		config.RawFilePattern("a.txt"),
		config.RawDirectoryPlacement{Source: "missing", Destination: "/m"},
		config.RawFilePattern("a.txt"),
	})
	require.Error(t, err)
	assert.Nil(t, mounts)
	assert.True(t, errors.Is(err, manifest.ErrMountSourceNotFound))
	assert.Contains(t, err.Error(), "files[1]")
	assert.Equal(t, 2, resolver.calls)
}
