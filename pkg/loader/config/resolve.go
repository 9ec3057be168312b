package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/fastertools/spin-loader/pkg/manifest"
)

// Resolve checks the schema version of doc and decodes it into the raw
// manifest for that version. The version is validated before any other
// field is looked at.
func Resolve(doc Document) (RawAppManifestAnyVersion, error) {
	version, err := schemaVersion(doc)
	if err != nil {
		return nil, err
	}

	switch version {
	case manifest.SchemaV1:
		return resolveV1(doc)
	default:
		return nil, fmt.Errorf("%w: no decoder for %s %q", manifest.ErrSchemaVersion, manifest.VersionField, version)
	}
}

// ResolveBytes parses and resolves a manifest in one step
func ResolveBytes(data []byte, format Format) (RawAppManifestAnyVersion, error) {
	doc, err := ParseDocument(data, format)
	if err != nil {
		return nil, err
	}
	return Resolve(doc)
}

func schemaVersion(doc Document) (manifest.SchemaVersion, error) {
	raw, ok := doc[manifest.VersionField]
	if !ok {
		return "", fmt.Errorf("%w: missing required field %s", manifest.ErrSchemaVersion, manifest.VersionField)
	}
	tag, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", manifest.ErrSchemaVersion, manifest.VersionField, raw)
	}
	return manifest.ParseSchemaVersion(tag)
}

type v1Document struct {
	Name        string        `mapstructure:"name"`
	Version     string        `mapstructure:"version"`
	Description string        `mapstructure:"description"`
	Authors     []string      `mapstructure:"authors"`
	Trigger     v1AppTrigger  `mapstructure:"trigger"`
	Components  []v1Component `mapstructure:"component"`
}

type v1AppTrigger struct {
	Type string `mapstructure:"type"`
	Base string `mapstructure:"base"`
}

type v1Component struct {
	ID          string            `mapstructure:"id"`
	Source      any               `mapstructure:"source"`
	Environment map[string]string `mapstructure:"environment"`
	Files       []any             `mapstructure:"files"`
	Trigger     any               `mapstructure:"trigger"`
}

func resolveV1(doc Document) (*RawAppManifestV1, error) {
	if err := validateV1(doc); err != nil {
		return nil, err
	}

	var parsed v1Document
	if err := mapstructure.Decode(doc, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", manifest.ErrInvalidManifest, err)
	}

	out := &RawAppManifestV1{
		Info: RawAppInformation{
			Name:        parsed.Name,
			Version:     parsed.Version,
			Description: parsed.Description,
			Authors:     parsed.Authors,
			Trigger: RawAppTrigger{
				Type: parsed.Trigger.Type,
				Base: parsed.Trigger.Base,
			},
		},
		Components: make([]RawComponentManifest, 0, len(parsed.Components)),
	}

	for i, c := range parsed.Components {
		source, err := rawSource(c.Source)
		if err != nil {
			return nil, errors.Wrapf(err, "component[%d] %q: source", i, c.ID)
		}

		files := make([]RawFileMount, 0, len(c.Files))
		for j, f := range c.Files {
			mount, err := rawFileMount(f)
			if err != nil {
				return nil, errors.Wrapf(err, "component[%d] %q: files[%d]", i, c.ID, j)
			}
			files = append(files, mount)
		}

		out.Components = append(out.Components, RawComponentManifest{
			ID:          c.ID,
			Source:      source,
			Environment: c.Environment,
			Files:       files,
			Trigger:     c.Trigger,
		})
	}

	return out, nil
}

func rawSource(v any) (RawModuleSource, error) {
	switch src := v.(type) {
	case string:
		return RawFileReference(src), nil
	case map[string]any:
		ref, _ := src["reference"].(string)
		parcel, _ := src["parcel"].(string)
		if ref == "" || parcel == "" {
			return nil, fmt.Errorf("%w: remote source needs both reference and parcel", manifest.ErrInvalidManifest)
		}
		return RawRemoteReference{Reference: ref, Parcel: parcel}, nil
	default:
		return nil, fmt.Errorf("%w: expected a file path or a remote reference, got %T", manifest.ErrInvalidManifest, v)
	}
}

func rawFileMount(v any) (RawFileMount, error) {
	switch m := v.(type) {
	case string:
		return RawFilePattern(m), nil
	case map[string]any:
		source, sok := m["source"].(string)
		dest, dok := m["destination"].(string)
		if !sok || !dok {
			return nil, fmt.Errorf("%w: placement needs string source and destination", manifest.ErrInvalidManifest)
		}
		return RawDirectoryPlacement{Source: source, Destination: dest}, nil
	default:
		return nil, fmt.Errorf("%w: expected a pattern or a placement, got %T", manifest.ErrInvalidManifest, v)
	}
}
