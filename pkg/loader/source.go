package loader

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fastertools/spin-loader/pkg/loader/config"
	"github.com/fastertools/spin-loader/pkg/manifest"
)

// resolveSource turns a declared module source into a resolved one.
//
// File references are made absolute against baseDir. Whether the module
// exists is not checked here: the file may be produced by a build step
// after the manifest is loaded, and the runtime reports a missing module
// when it instantiates the component.
func resolveSource(logger *slog.Logger, baseDir string, raw config.RawModuleSource) manifest.ModuleSource {
	switch src := raw.(type) {
	case config.RawFileReference:
		return manifest.FileReference{Path: absModulePath(logger, baseDir, string(src))}
	case config.RawRemoteReference:
		return manifest.RemoteReference{Reference: src.Reference, Parcel: src.Parcel}
	default:
		// config.Resolve only produces the two variants above
		panic("loader: unhandled module source type")
	}
}

func absModulePath(logger *slog.Logger, baseDir, rel string) string {
	p := filepath.FromSlash(rel)
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}

	_, err := os.Stat(p)
	switch {
	case err == nil:
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			return resolved
		}
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("module file does not exist yet", "path", p)
	default:
		logger.Debug("cannot stat module file", "path", p, "error", err)
	}
	return p
}
