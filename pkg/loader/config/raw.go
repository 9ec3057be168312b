package config

import "github.com/fastertools/spin-loader/pkg/manifest"

// RawAppManifestAnyVersion is a raw manifest of any supported schema version.
// Switch over the concrete type to handle each version.
type RawAppManifestAnyVersion interface {
	SchemaVersion() manifest.SchemaVersion
	isRawAppManifest()
}

// RawAppManifestV1 is a spin_version "1" manifest
type RawAppManifestV1 struct {
	Info       RawAppInformation
	Components []RawComponentManifest
}

// SchemaVersion implements RawAppManifestAnyVersion
func (*RawAppManifestV1) SchemaVersion() manifest.SchemaVersion { return manifest.SchemaV1 }

func (*RawAppManifestV1) isRawAppManifest() {}

// RawAppInformation is the application metadata as declared
type RawAppInformation struct {
	Name        string
	Version     string
	Description string
	Authors     []string
	Trigger     RawAppTrigger
}

// RawAppTrigger is the application-level trigger declaration
type RawAppTrigger struct {
	Type string
	Base string
}

// RawComponentManifest is a component as declared
type RawComponentManifest struct {
	ID          string
	Source      RawModuleSource
	Environment map[string]string
	Files       []RawFileMount

	// Trigger is kept untyped; its expected shape depends on the
	// application trigger type and is checked by the loader.
	Trigger any
}

// RawModuleSource is a module source as declared
type RawModuleSource interface {
	isRawModuleSource()
}

// RawFileReference is a module path relative to the base directory
type RawFileReference string

func (RawFileReference) isRawModuleSource() {}

// RawRemoteReference names a module in a remote content-addressed store
type RawRemoteReference struct {
	Reference string
	Parcel    string
}

func (RawRemoteReference) isRawModuleSource() {}

// RawFileMount is a files entry as declared
type RawFileMount interface {
	isRawFileMount()
}

// RawFilePattern is a glob relative to the base directory
type RawFilePattern string

func (RawFilePattern) isRawFileMount() {}

// RawDirectoryPlacement maps a host directory to a guest directory
type RawDirectoryPlacement struct {
	Source      string
	Destination string
}

func (RawDirectoryPlacement) isRawFileMount() {}
