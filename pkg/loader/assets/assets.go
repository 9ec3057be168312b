// Package assets resolves file mount declarations against a base directory.
//
// It is the only part of the loader that touches the filesystem, and it only
// reads: globs are expanded and directories are stat'ed, nothing is copied.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fastertools/spin-loader/pkg/manifest"
)

// Match is a file matched by a pattern
type Match struct {
	// Absolute is the host path of the file
	Absolute string
	// Relative is the slash-separated path below the base directory
	Relative string
}

// Resolver expands patterns and validates placements beneath a base directory
type Resolver interface {
	// ResolvePattern expands a glob anchored at baseDir. Zero matches is
	// not an error.
	ResolvePattern(baseDir, pattern string) ([]Match, error)

	// ResolvePlacement checks that baseDir/source is an existing directory
	// and returns its absolute host path.
	ResolvePlacement(baseDir, source string) (string, error)
}

// FSResolver implements Resolver on top of an fs.FS per base directory
type FSResolver struct {
	open func(baseDir string) (fs.FS, string, error)
}

// NewOSResolver returns a resolver backed by the host filesystem
func NewOSResolver() *FSResolver {
	return &FSResolver{
		open: func(baseDir string) (fs.FS, string, error) {
			abs, err := filepath.Abs(baseDir)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %v", manifest.ErrIO, err)
			}
			return os.DirFS(abs), abs, nil
		},
	}
}

// NewFSResolver returns a resolver backed by fsys. Base directories are
// slash paths inside fsys; a leading "/" is ignored.
func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{
		open: func(baseDir string) (fs.FS, string, error) {
			root := "/" + strings.Trim(filepath.ToSlash(baseDir), "/")
			dir := strings.TrimPrefix(root, "/")
			if dir == "" {
				return fsys, root, nil
			}
			sub, err := fs.Sub(fsys, dir)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %v", manifest.ErrIO, err)
			}
			return sub, root, nil
		},
	}
}

// ResolvePattern implements Resolver
func (r *FSResolver) ResolvePattern(baseDir, pattern string) ([]Match, error) {
	clean, err := cleanRelative(pattern)
	if err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(clean) {
		return nil, fmt.Errorf("%w: malformed pattern %q", manifest.ErrInvalidMount, pattern)
	}

	fsys, root, err := r.open(baseDir)
	if err != nil {
		return nil, err
	}

	found, err := doublestar.Glob(fsys, clean, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		if errors.Is(err, doublestar.ErrBadPattern) {
			return nil, fmt.Errorf("%w: malformed pattern %q", manifest.ErrInvalidMount, pattern)
		}
		return nil, fmt.Errorf("%w: expanding %q: %v", manifest.ErrIO, pattern, err)
	}
	sort.Strings(found)

	matches := make([]Match, 0, len(found))
	for _, rel := range found {
		matches = append(matches, Match{
			Absolute: filepath.Join(root, filepath.FromSlash(rel)),
			Relative: rel,
		})
	}
	return matches, nil
}

// ResolvePlacement implements Resolver
func (r *FSResolver) ResolvePlacement(baseDir, source string) (string, error) {
	clean, err := cleanRelative(source)
	if err != nil {
		return "", err
	}

	fsys, root, err := r.open(baseDir)
	if err != nil {
		return "", err
	}

	info, err := fs.Stat(fsys, clean)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %s", manifest.ErrMountSourceNotFound, filepath.Join(root, clean))
	case err != nil:
		return "", fmt.Errorf("%w: %v", manifest.ErrIO, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %s is not a directory", manifest.ErrMountSourceNotFound, filepath.Join(root, clean))
	}

	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// cleanRelative normalizes a declared path and rejects anything that is
// absolute or escapes the base directory.
func cleanRelative(p string) (string, error) {
	slashed := filepath.ToSlash(p)
	if slashed == "" {
		return "", fmt.Errorf("%w: empty path", manifest.ErrInvalidMount)
	}
	if path.IsAbs(slashed) || filepath.IsAbs(p) {
		return "", fmt.Errorf("%w: %q must be relative to the application directory", manifest.ErrInvalidMount, p)
	}
	clean := path.Clean(slashed)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes the application directory", manifest.ErrInvalidMount, p)
	}
	return clean, nil
}
