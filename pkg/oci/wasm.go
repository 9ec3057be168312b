package oci

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/static"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

// WASMConfig is the config blob of a Wasm OCI artifact
type WASMConfig struct {
	Created      string   `json:"created"`
	Architecture string   `json:"architecture"`
	OS           string   `json:"os"`
	LayerDigests []string `json:"layerDigests"` // camelCase, read by Spin
	RootFS       struct {
		Type    string   `json:"type"`
		DiffIDs []string `json:"diff_ids"`
	} `json:"rootfs"`
	Config struct{} `json:"config"`
}

// wasmImage is a single-layer v1.Image carrying a raw Wasm config
type wasmImage struct {
	layer  v1.Layer
	config []byte
	diffID v1.Hash
}

// newWASMImage wraps module bytes in a single-layer OCI image
func newWASMImage(module []byte, created time.Time) (*wasmImage, error) {
	sum := sha256.Sum256(module)
	diffID := v1.Hash{Algorithm: "sha256", Hex: hex.EncodeToString(sum[:])}

	cfg := WASMConfig{
		Created:      created.UTC().Format(time.RFC3339),
		Architecture: WASMArchitecture,
		OS:           WASMOS,
		LayerDigests: []string{diffID.String()},
	}
	cfg.RootFS.Type = "layers"
	cfg.RootFS.DiffIDs = []string{diffID.String()}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return &wasmImage{
		layer:  static.NewLayer(module, WASMLayerMediaType),
		config: raw,
		diffID: diffID,
	}, nil
}

func (w *wasmImage) Layers() ([]v1.Layer, error) {
	return []v1.Layer{w.layer}, nil
}

func (w *wasmImage) MediaType() (types.MediaType, error) {
	return types.OCIManifestSchema1, nil
}

func (w *wasmImage) Size() (int64, error) {
	raw, err := w.RawManifest()
	if err != nil {
		return 0, err
	}
	return int64(len(raw)), nil
}

func (w *wasmImage) ConfigName() (v1.Hash, error) {
	h := sha256.Sum256(w.config)
	return v1.Hash{Algorithm: "sha256", Hex: hex.EncodeToString(h[:])}, nil
}

// ConfigFile returns the standard view of the config. The Wasm specific
// fields are only present in RawConfigFile.
func (w *wasmImage) ConfigFile() (*v1.ConfigFile, error) {
	return &v1.ConfigFile{
		Architecture: WASMArchitecture,
		OS:           WASMOS,
		RootFS: v1.RootFS{
			Type:    "layers",
			DiffIDs: []v1.Hash{w.diffID},
		},
	}, nil
}

func (w *wasmImage) RawConfigFile() ([]byte, error) {
	return w.config, nil
}

func (w *wasmImage) Digest() (v1.Hash, error) {
	raw, err := w.RawManifest()
	if err != nil {
		return v1.Hash{}, err
	}
	h := sha256.Sum256(raw)
	return v1.Hash{Algorithm: "sha256", Hex: hex.EncodeToString(h[:])}, nil
}

func (w *wasmImage) Manifest() (*v1.Manifest, error) {
	layerDigest, err := w.layer.Digest()
	if err != nil {
		return nil, err
	}
	layerSize, err := w.layer.Size()
	if err != nil {
		return nil, err
	}
	configHash, err := w.ConfigName()
	if err != nil {
		return nil, err
	}

	return &v1.Manifest{
		SchemaVersion: 2,
		MediaType:     types.OCIManifestSchema1,
		Config: v1.Descriptor{
			MediaType: WASMConfigMediaType,
			Size:      int64(len(w.config)),
			Digest:    configHash,
		},
		Layers: []v1.Descriptor{{
			MediaType: WASMLayerMediaType,
			Size:      layerSize,
			Digest:    layerDigest,
		}},
	}, nil
}

func (w *wasmImage) RawManifest() ([]byte, error) {
	m, err := w.Manifest()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (w *wasmImage) LayerByDigest(h v1.Hash) (v1.Layer, error) {
	layerDigest, err := w.layer.Digest()
	if err != nil {
		return nil, err
	}
	if layerDigest == h {
		return w.layer, nil
	}
	return nil, fmt.Errorf("layer not found: %s", h)
}

func (w *wasmImage) LayerByDiffID(h v1.Hash) (v1.Layer, error) {
	diffID, err := w.layer.DiffID()
	if err != nil {
		return nil, err
	}
	if diffID == h {
		return w.layer, nil
	}
	return nil, fmt.Errorf("layer not found: %s", h)
}
