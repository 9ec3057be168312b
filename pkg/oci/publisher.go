package oci

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/opencontainers/go-digest"
)

// Publisher pushes Wasm modules to OCI registries
type Publisher struct {
	settings *settings
	now      func() time.Time
}

// NewPublisher creates a publisher
func NewPublisher(opts ...Option) *Publisher {
	return &Publisher{settings: newSettings(opts), now: time.Now}
}

// Publish pushes the module at wasmPath as reference and returns its parcel
// digest, ready to be used in a manifest's component source.
func (p *Publisher) Publish(ctx context.Context, reference, wasmPath string) (digest.Digest, error) {
	module, err := os.ReadFile(filepath.Clean(wasmPath))
	if err != nil {
		return "", fmt.Errorf("failed to read module: %w", err)
	}

	ref, err := name.ParseReference(reference, p.settings.nameOptions()...)
	if err != nil {
		return "", fmt.Errorf("invalid reference %s: %w", reference, err)
	}

	img, err := newWASMImage(module, p.now())
	if err != nil {
		return "", fmt.Errorf("failed to create image: %w", err)
	}

	if err := remote.Write(ref, img, p.settings.remoteOptions(ctx)...); err != nil {
		return "", fmt.Errorf("failed to push to registry: %w", err)
	}

	p.settings.logger.Debug("module published", "reference", ref.String(), "bytes", len(module))
	return digest.FromBytes(module), nil
}
