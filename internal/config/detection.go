package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is a detected application manifest
type ManifestFile struct {
	Path   string
	Format string
}

// ManifestCandidates are the file names looked for, in priority order
var ManifestCandidates = []string{"spin.toml", "spin.yaml", "spin.yml", "spin.json"}

// FindManifest returns the first manifest candidate present in dir
func FindManifest(dir string) (*ManifestFile, error) {
	var tried []string
	for _, name := range ManifestCandidates {
		p := filepath.Join(dir, name)
		tried = append(tried, p)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return &ManifestFile{Path: p, Format: detectFormat(name)}, nil
		}
	}
	return nil, fmt.Errorf("no application manifest found. Looked for: %v", tried)
}

func detectFormat(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "toml"
	}
}
