package oci

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastertools/spin-loader/pkg/manifest"
)

// wasmHeader is the magic number and version of a Wasm binary
var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func testRegistry(t *testing.T) string {
	t.Helper()
	s := httptest.NewServer(registry.New(registry.Logger(log.New(io.Discard, "", 0))))
	t.Cleanup(s.Close)
	return strings.TrimPrefix(s.URL, "http://")
}

func publish(t *testing.T, reference string, module []byte) digest.Digest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.wasm")
	require.NoError(t, os.WriteFile(path, module, 0o600))

	parcel, err := NewPublisher(WithKeychain(authn.NewMultiKeychain())).Publish(context.Background(), reference, path)
	require.NoError(t, err)
	return parcel
}

func TestNewFetcher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	f, err := NewFetcher(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	d := digest.FromBytes(wasmHeader)
	assert.Equal(t, filepath.Join(dir, "sha256", d.Encoded()+".wasm"), f.CachePath(d))
}

func TestFetcher_Fetch(t *testing.T) {
	reg := testRegistry(t)
	reference := reg + "/test/component:1.0.0"
	parcel := publish(t, reference, wasmHeader)
	assert.Equal(t, digest.FromBytes(wasmHeader), parcel)

	f, err := NewFetcher(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	ref := manifest.RemoteReference{Reference: reference, Parcel: parcel.String()}

	path, err := f.Fetch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, f.CachePath(parcel), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wasmHeader, content)

	// second fetch is served from the cache
	stat1, err := os.Stat(path)
	require.NoError(t, err)
	path2, err := f.Fetch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, path, path2)
	stat2, err := os.Stat(path2)
	require.NoError(t, err)
	assert.Equal(t, stat1.ModTime(), stat2.ModTime())
}

func TestFetcher_Fetch_CacheSurvivesRegistry(t *testing.T) {
	s := httptest.NewServer(registry.New(registry.Logger(log.New(io.Discard, "", 0))))
	reference := strings.TrimPrefix(s.URL, "http://") + "/offline/component:v1"
	parcel := publish(t, reference, wasmHeader)

	cache := t.TempDir()
	f, err := NewFetcher(cache)
	require.NoError(t, err)
	ref := manifest.RemoteReference{Reference: reference, Parcel: parcel.String()}

	_, err = f.Fetch(context.Background(), ref)
	require.NoError(t, err)
	s.Close()

	// a fresh fetcher has an empty memo but finds the verified file on disk
	f2, err := NewFetcher(cache)
	require.NoError(t, err)
	path, err := f2.Fetch(context.Background(), ref)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestFetcher_Fetch_RepairsCorruptCache(t *testing.T) {
	reg := testRegistry(t)
	reference := reg + "/test/corrupt:1.0.0"
	parcel := publish(t, reference, wasmHeader)

	f, err := NewFetcher(t.TempDir())
	require.NoError(t, err)

	cachePath := f.CachePath(parcel)
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0o750))
	require.NoError(t, os.WriteFile(cachePath, []byte("truncated"), 0o600))

	path, err := f.Fetch(context.Background(), manifest.RemoteReference{Reference: reference, Parcel: parcel.String()})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wasmHeader, content)
}

func TestFetcher_Fetch_Errors(t *testing.T) {
	reg := testRegistry(t)
	reference := reg + "/test/errors:1.0.0"
	publish(t, reference, wasmHeader)

	f, err := NewFetcher(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("parcel is not a digest", func(t *testing.T) {
		_, err := f.Fetch(ctx, manifest.RemoteReference{Reference: reference, Parcel: "parcel"})
		assert.ErrorIs(t, err, ErrInvalidParcel)
	})

	t.Run("parcel not in artifact", func(t *testing.T) {
		other := digest.FromString("something else")
		_, err := f.Fetch(ctx, manifest.RemoteReference{Reference: reference, Parcel: other.String()})
		assert.ErrorIs(t, err, ErrParcelNotFound)
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, err := f.Fetch(ctx, manifest.RemoteReference{
			Reference: reg + "/test/errors:missing",
			Parcel:    digest.FromBytes(wasmHeader).String(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to pull")
	})

	t.Run("bad reference", func(t *testing.T) {
		_, err := f.Fetch(ctx, manifest.RemoteReference{
			Reference: "Not A Reference",
			Parcel:    digest.FromBytes(wasmHeader).String(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid reference")
	})
}

func TestFetcher_FetchAll(t *testing.T) {
	reg := testRegistry(t)
	modA := append(append([]byte{}, wasmHeader...), 'a')
	modB := append(append([]byte{}, wasmHeader...), 'b')
	refA := reg + "/app/a:v1"
	refB := reg + "/app/b:v1"
	parcelA := publish(t, refA, modA)
	parcelB := publish(t, refB, modB)

	app := &manifest.Application{
		Components: []manifest.Component{
			{ID: "a", Source: manifest.RemoteReference{Reference: refA, Parcel: parcelA.String()}},
			{ID: "local", Source: manifest.FileReference{Path: "/tmp/local.wasm"}},
			{ID: "b", Source: manifest.RemoteReference{Reference: refB, Parcel: parcelB.String()}},
		},
	}

	f, err := NewFetcher(t.TempDir(), WithConcurrency(2))
	require.NoError(t, err)

	paths, err := f.FetchAll(context.Background(), app)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, f.CachePath(parcelA), paths["a"])
	assert.Equal(t, f.CachePath(parcelB), paths["b"])
	assert.NotContains(t, paths, "local")
}

func TestFetcher_FetchAll_ComponentError(t *testing.T) {
	app := &manifest.Application{
		Components: []manifest.Component{
			{ID: "broken", Source: manifest.RemoteReference{Reference: "example.com/x:v1", Parcel: "nope"}},
		},
	}

	f, err := NewFetcher(t.TempDir())
	require.NoError(t, err)

	_, err = f.FetchAll(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParcel)

	var cerr *manifest.ComponentError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "broken", cerr.ID)
}
