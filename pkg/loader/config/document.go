// Package config turns a manifest document into a typed, version-specific
// raw manifest. It performs no filesystem access: paths are kept exactly as
// written and are resolved later by the loader.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/fastertools/spin-loader/pkg/manifest"
)

// Document is an untyped manifest document
type Document = map[string]any

// Format is the encoding of a manifest document
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the document format from a file extension.
// Anything that is not YAML or JSON is treated as TOML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// ParseDocument decodes raw bytes into an untyped document
func ParseDocument(data []byte, format Format) (Document, error) {
	doc := Document{}

	switch format {
	case FormatTOML, "":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: invalid TOML: %v", manifest.ErrManifestParse, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: invalid YAML: %v", manifest.ErrManifestParse, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON: %v", manifest.ErrManifestParse, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", manifest.ErrManifestParse, format)
	}

	// An empty YAML document decodes to a nil map
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
