package loader

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/pkg/errors"

	"github.com/fastertools/spin-loader/pkg/loader/assets"
	"github.com/fastertools/spin-loader/pkg/loader/config"
	"github.com/fastertools/spin-loader/pkg/manifest"
)

// resolveMounts expands a component's files declarations in order. The
// first failing declaration aborts resolution.
func resolveMounts(logger *slog.Logger, resolver assets.Resolver, baseDir string, raw []config.RawFileMount) ([]manifest.FileMount, error) {
	var mounts []manifest.FileMount

	for i, decl := range raw {
		switch m := decl.(type) {
		case config.RawFilePattern:
			matches, err := resolver.ResolvePattern(baseDir, string(m))
			if err != nil {
				return nil, errors.Wrapf(err, "files[%d] pattern %q", i, string(m))
			}
			if len(matches) == 0 {
				logger.Debug("file pattern matched nothing", "pattern", string(m))
			}
			for _, match := range matches {
				mounts = append(mounts, manifest.FileMount{
					Host:  match.Absolute,
					Guest: match.Relative,
				})
			}

		case config.RawDirectoryPlacement:
			if !path.IsAbs(m.Destination) {
				return nil, errors.Wrapf(
					fmt.Errorf("%w: destination %q must be an absolute guest path", manifest.ErrInvalidMount, m.Destination),
					"files[%d] placement %q", i, m.Source)
			}
			host, err := resolver.ResolvePlacement(baseDir, m.Source)
			if err != nil {
				return nil, errors.Wrapf(err, "files[%d] placement %q -> %q", i, m.Source, m.Destination)
			}
			mounts = append(mounts, manifest.FileMount{
				Host:      host,
				Guest:     path.Clean(m.Destination),
				Directory: true,
			})

		default:
			panic(fmt.Sprintf("loader: unhandled file mount type %T", decl))
		}
	}

	return mounts, nil
}
