package oci

import (
	"encoding/json"
	"testing"
	"time"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWASMImage(t *testing.T) {
	module := []byte("wasm module bytes")
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	img, err := newWASMImage(module, created)
	require.NoError(t, err)

	var cfg WASMConfig
	raw, err := img.RawConfigFile()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &cfg))

	want := digest.FromBytes(module).String()
	assert.Equal(t, "2024-01-01T00:00:00Z", cfg.Created)
	assert.Equal(t, WASMArchitecture, cfg.Architecture)
	assert.Equal(t, WASMOS, cfg.OS)
	assert.Equal(t, []string{want}, cfg.LayerDigests)
	assert.Equal(t, []string{want}, cfg.RootFS.DiffIDs)
	assert.Contains(t, string(raw), `"layerDigests"`)
}

func TestWASMImage_Manifest(t *testing.T) {
	module := []byte("wasm module bytes")
	img, err := newWASMImage(module, time.Now())
	require.NoError(t, err)

	m, err := img.Manifest()
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.SchemaVersion)
	assert.Equal(t, types.OCIManifestSchema1, m.MediaType)
	assert.Equal(t, types.MediaType(WASMConfigMediaType), m.Config.MediaType)

	require.Len(t, m.Layers, 1)
	assert.Equal(t, types.MediaType(WASMLayerMediaType), m.Layers[0].MediaType)
	assert.Equal(t, digest.FromBytes(module).String(), m.Layers[0].Digest.String())
	assert.Equal(t, int64(len(module)), m.Layers[0].Size)

	configName, err := img.ConfigName()
	require.NoError(t, err)
	assert.Equal(t, configName, m.Config.Digest)

	raw, err := img.RawManifest()
	require.NoError(t, err)
	size, err := img.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(len(raw)), size)

	d, err := img.Digest()
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes(raw).String(), d.String())
}

func TestWASMImage_LayerLookup(t *testing.T) {
	img, err := newWASMImage([]byte("module"), time.Now())
	require.NoError(t, err)

	layerDigest, err := img.layer.Digest()
	require.NoError(t, err)
	found, err := img.LayerByDigest(layerDigest)
	require.NoError(t, err)
	assert.Equal(t, img.layer, found)

	diffID, err := img.layer.DiffID()
	require.NoError(t, err)
	found, err = img.LayerByDiffID(diffID)
	require.NoError(t, err)
	assert.Equal(t, img.layer, found)

	missing := v1.Hash{Algorithm: "sha256", Hex: "nonexistent"}
	_, err = img.LayerByDigest(missing)
	assert.ErrorContains(t, err, "layer not found")
	_, err = img.LayerByDiffID(missing)
	assert.ErrorContains(t, err, "layer not found")
}
