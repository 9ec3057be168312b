package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/fastertools/spin-loader/pkg/loader/assets"
	"github.com/fastertools/spin-loader/pkg/loader/config"
	"github.com/fastertools/spin-loader/pkg/manifest"
)

// Option configures a load
type Option func(*options)

type options struct {
	resolver    assets.Resolver
	logger      *slog.Logger
	concurrency int
}

// WithResolver sets the resolver used for file mounts
func WithResolver(r assets.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithConcurrency resolves up to n components at a time. Values below 1
// are treated as 1.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		resolver:    assets.NewOSResolver(),
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// FromFile loads the manifest at manifestPath, resolving relative paths
// against baseDir. The application origin records manifestPath as given.
func FromFile(ctx context.Context, manifestPath, baseDir string, opts ...Option) (*manifest.Application, error) {
	data, err := os.ReadFile(filepath.Clean(manifestPath)) // #nosec G304 - path is supplied by the caller on purpose
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest %s: %v", manifest.ErrIO, manifestPath, err)
	}

	doc, err := config.ParseDocument(data, config.FormatFromPath(manifestPath))
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", manifestPath)
	}

	app, err := FromDocument(ctx, doc, baseDir, manifest.FileOrigin{Path: manifestPath}, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", manifestPath)
	}
	return app, nil
}

// FromDocument builds an Application from an already parsed document
func FromDocument(ctx context.Context, doc config.Document, baseDir string, origin manifest.ApplicationOrigin, opts ...Option) (*manifest.Application, error) {
	o := newOptions(opts)
	logger := o.logger.With("load_id", uuid.NewString(), "origin", origin.String())
	started := time.Now()
	logger.Debug("loading application", "base_dir", baseDir)

	raw, err := config.Resolve(doc)
	if err != nil {
		return nil, err
	}

	var app *manifest.Application
	switch m := raw.(type) {
	case *config.RawAppManifestV1:
		app, err = assembleV1(ctx, o, logger, m, baseDir, origin)
	default:
		err = fmt.Errorf("%w: %s", manifest.ErrSchemaVersion, raw.SchemaVersion())
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("application loaded",
		"name", app.Info.Name,
		"components", len(app.Components),
		"elapsed", time.Since(started))
	return app, nil
}

type resolvedComponent struct {
	component manifest.Component
	trigger   manifest.ComponentTrigger
}

func assembleV1(ctx context.Context, o *options, logger *slog.Logger, raw *config.RawAppManifestV1, baseDir string, origin manifest.ApplicationOrigin) (*manifest.Application, error) {
	appTrigger, err := applicationTrigger(raw.Info.Trigger)
	if err != nil {
		return nil, errors.Wrap(err, "trigger")
	}

	seen := make(map[string]struct{}, len(raw.Components))
	for _, c := range raw.Components {
		if _, dup := seen[c.ID]; dup {
			return nil, &manifest.ComponentError{ID: c.ID, Field: "id", Err: manifest.ErrDuplicateComponentID}
		}
		seen[c.ID] = struct{}{}
	}

	results := make([]resolvedComponent, len(raw.Components))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i := range raw.Components {
		c := raw.Components[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resolved, err := resolveComponent(logger.With("component", c.ID), o.resolver, baseDir, appTrigger, c)
			if err != nil {
				return err
			}
			results[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	app := &manifest.Application{
		Info: manifest.ApplicationInfo{
			Name:          raw.Info.Name,
			Version:       raw.Info.Version,
			Description:   raw.Info.Description,
			Authors:       raw.Info.Authors,
			SchemaVersion: raw.SchemaVersion(),
			Trigger:       appTrigger,
			Origin:        origin,
		},
		Components:        make([]manifest.Component, 0, len(results)),
		ComponentTriggers: make(map[string]manifest.ComponentTrigger, len(results)),
	}
	for _, r := range results {
		app.Components = append(app.Components, r.component)
		app.ComponentTriggers[r.component.ID] = r.trigger
	}
	return app, nil
}

func resolveComponent(logger *slog.Logger, resolver assets.Resolver, baseDir string, appTrigger manifest.ApplicationTrigger, raw config.RawComponentManifest) (resolvedComponent, error) {
	source := resolveSource(logger, baseDir, raw.Source)

	mounts, err := resolveMounts(logger, resolver, baseDir, raw.Files)
	if err != nil {
		return resolvedComponent{}, &manifest.ComponentError{ID: raw.ID, Field: "files", Err: err}
	}

	trigger, err := normalizeTrigger(appTrigger, raw.Trigger)
	if err != nil {
		return resolvedComponent{}, &manifest.ComponentError{ID: raw.ID, Field: "trigger", Err: err}
	}

	return resolvedComponent{
		component: manifest.Component{
			ID:          raw.ID,
			Source:      source,
			Mounts:      mounts,
			Environment: raw.Environment,
		},
		trigger: trigger,
	}, nil
}
