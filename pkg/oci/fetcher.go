package oci

import (
	"context"
	_ "crypto/sha256" // registers the digest algorithm used by parcels
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/fastertools/spin-loader/pkg/manifest"
)

var (
	// ErrInvalidParcel is returned when a parcel is not a well-formed digest
	ErrInvalidParcel = errors.New("invalid parcel digest")

	// ErrParcelNotFound is returned when the artifact has no layer with the parcel digest
	ErrParcelNotFound = errors.New("parcel not found in artifact")

	// ErrDigestMismatch is returned when downloaded content does not hash to the parcel
	ErrDigestMismatch = errors.New("content does not match parcel digest")
)

// Option configures a Fetcher or a Publisher
type Option func(*settings)

type settings struct {
	keychain    authn.Keychain
	insecure    bool
	logger      *slog.Logger
	memoSize    int
	concurrency int
}

func newSettings(opts []Option) *settings {
	s := &settings{
		keychain:    authn.DefaultKeychain,
		logger:      slog.Default(),
		memoSize:    DefaultMemoSize,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// WithKeychain sets the credential source for registry requests
func WithKeychain(k authn.Keychain) Option {
	return func(s *settings) { s.keychain = k }
}

// WithInsecure allows plain HTTP registries
func WithInsecure(insecure bool) Option {
	return func(s *settings) { s.insecure = insecure }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMemoSize bounds the in-memory map of resolved references
func WithMemoSize(n int) Option {
	return func(s *settings) { s.memoSize = n }
}

// WithConcurrency sets how many references FetchAll pulls at once
func WithConcurrency(n int) Option {
	return func(s *settings) { s.concurrency = n }
}

func (s *settings) nameOptions() []name.Option {
	if s.insecure {
		return []name.Option{name.Insecure}
	}
	return nil
}

func (s *settings) remoteOptions(ctx context.Context) []remote.Option {
	return []remote.Option{
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(s.keychain),
	}
}

// Fetcher downloads remote module sources into a local cache
type Fetcher struct {
	cacheDir string
	settings *settings
	memo     *lru.Cache[string, string]

	// serializes writes to the cache directory
	mu sync.Mutex
}

// NewFetcher creates a fetcher caching modules under cacheDir
func NewFetcher(cacheDir string, opts ...Option) (*Fetcher, error) {
	s := newSettings(opts)
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	size := s.memoSize
	if size < 1 {
		size = DefaultMemoSize
	}
	memo, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Fetcher{cacheDir: cacheDir, settings: s, memo: memo}, nil
}

// CachePath returns where the module with digest d is stored
func (f *Fetcher) CachePath(d digest.Digest) string {
	return filepath.Join(f.cacheDir, d.Algorithm().String(), d.Encoded()+".wasm")
}

// Fetch returns the local path of the module named by ref, downloading it
// when it is not cached yet.
func (f *Fetcher) Fetch(ctx context.Context, ref manifest.RemoteReference) (string, error) {
	d, err := digest.Parse(ref.Parcel)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidParcel, ref.Parcel, err)
	}

	key := ref.Reference + "@" + d.String()
	if p, ok := f.memo.Get(key); ok {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		f.memo.Remove(key)
	}

	logger := f.settings.logger.With("reference", ref.Reference, "parcel", d.String())
	cachePath := f.CachePath(d)

	ok, err := verifyFile(cachePath, d)
	switch {
	case err != nil:
		return "", err
	case ok:
		logger.Debug("module cache hit", "path", cachePath)
		f.memo.Add(key, cachePath)
		return cachePath, nil
	}

	logger.Debug("pulling module")
	if err := f.pull(ctx, ref.Reference, d, cachePath); err != nil {
		return "", err
	}
	f.memo.Add(key, cachePath)
	return cachePath, nil
}

// FetchAll fetches every remote component of app. The result maps
// component ids to local module paths.
func (f *Fetcher) FetchAll(ctx context.Context, app *manifest.Application) (map[string]string, error) {
	remotes := app.RemoteComponents()
	paths := make([]string, len(remotes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.settings.concurrency)
	for i, c := range remotes {
		ref := c.Source.(manifest.RemoteReference)
		g.Go(func() error {
			p, err := f.Fetch(gctx, ref)
			if err != nil {
				return &manifest.ComponentError{ID: c.ID, Field: "source", Err: err}
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(remotes))
	for i, c := range remotes {
		out[c.ID] = paths[i]
	}
	return out, nil
}

func (f *Fetcher) pull(ctx context.Context, reference string, d digest.Digest, cachePath string) error {
	ref, err := name.ParseReference(reference, f.settings.nameOptions()...)
	if err != nil {
		return fmt.Errorf("invalid reference %s: %w", reference, err)
	}

	img, err := remote.Image(ref, f.settings.remoteOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", reference, err)
	}

	hash, err := v1.NewHash(d.String())
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidParcel, d, err)
	}

	m, err := img.Manifest()
	if err != nil {
		return fmt.Errorf("failed to get manifest: %w", err)
	}
	if !hasLayer(m, hash) {
		return fmt.Errorf("%w: %s in %s", ErrParcelNotFound, d, reference)
	}

	layer, err := img.LayerByDigest(hash)
	if err != nil {
		return fmt.Errorf("%w: %s in %s: %v", ErrParcelNotFound, d, reference, err)
	}

	// The layer digest covers the blob as stored, so read it without decompression.
	rc, err := layer.Compressed()
	if err != nil {
		return fmt.Errorf("failed to get layer content: %w", err)
	}
	defer func() { _ = rc.Close() }()

	return f.write(cachePath, d, rc)
}

func hasLayer(m *v1.Manifest, h v1.Hash) bool {
	for _, l := range m.Layers {
		if l.Digest == h {
			return true
		}
	}
	return false
}

// write stores r at cachePath if it hashes to d
func (f *Fetcher) write(cachePath string, d digest.Digest, r io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cachePath), filepath.Base(cachePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpName := tmp.Name()

	verifier := d.Verifier()
	_, err = io.Copy(io.MultiWriter(tmp, verifier), r)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write module content: %w", err)
	}
	if !verifier.Verified() {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s", ErrDigestMismatch, d)
	}

	if err := os.Rename(tmpName, cachePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to finalize cache file: %w", err)
	}
	return nil
}

// verifyFile reports whether path exists and hashes to d. A file with the
// wrong content is removed.
func verifyFile(path string, d digest.Digest) (bool, error) {
	file, err := os.Open(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open cached module: %w", err)
	}

	verifier := d.Verifier()
	_, err = io.Copy(verifier, file)
	_ = file.Close()
	if err != nil {
		return false, fmt.Errorf("failed to read cached module: %w", err)
	}
	if verifier.Verified() {
		return true, nil
	}

	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to evict corrupt cached module: %w", err)
	}
	return false, nil
}
