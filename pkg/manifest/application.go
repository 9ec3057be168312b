package manifest

import "fmt"

// SchemaVersion is the manifest schema discriminator (the spin_version field)
type SchemaVersion string

const (
	// SchemaV1 is the first manifest schema
	SchemaV1 SchemaVersion = "1"
)

// VersionField is the name of the document field holding the schema version
const VersionField = "spin_version"

// KnownSchemaVersions lists every schema version the loader understands
var KnownSchemaVersions = []SchemaVersion{SchemaV1}

// ParseSchemaVersion validates a raw version tag
func ParseSchemaVersion(v string) (SchemaVersion, error) {
	for _, known := range KnownSchemaVersions {
		if SchemaVersion(v) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unknown %s %q (supported: %v)", ErrSchemaVersion, VersionField, v, KnownSchemaVersions)
}

// ApplicationOrigin records where an application was loaded from
type ApplicationOrigin interface {
	isApplicationOrigin()
	String() string
}

// FileOrigin is an application loaded from a manifest on the local filesystem.
// Path is recorded exactly as it was passed to the loader.
type FileOrigin struct {
	Path string
}

func (FileOrigin) isApplicationOrigin() {}

func (o FileOrigin) String() string { return "file:" + o.Path }

// RemoteOrigin is reserved for applications loaded from a remote reference
type RemoteOrigin struct {
	Reference string
}

func (RemoteOrigin) isApplicationOrigin() {}

func (o RemoteOrigin) String() string { return "remote:" + o.Reference }

// ApplicationInfo holds application metadata
type ApplicationInfo struct {
	Name          string
	Version       string
	Description   string
	Authors       []string
	SchemaVersion SchemaVersion
	Trigger       ApplicationTrigger
	Origin        ApplicationOrigin
}

// Application is a fully resolved Spin application
type Application struct {
	Info ApplicationInfo

	// Components in manifest order
	Components []Component

	// ComponentTriggers maps a component id to its resolved trigger
	ComponentTriggers map[string]ComponentTrigger
}

// Component looks up a component by id
func (a *Application) Component(id string) (*Component, bool) {
	for i := range a.Components {
		if a.Components[i].ID == id {
			return &a.Components[i], true
		}
	}
	return nil, false
}

// TriggerFor returns the resolved trigger configuration of a component
func (a *Application) TriggerFor(id string) (ComponentTrigger, bool) {
	t, ok := a.ComponentTriggers[id]
	return t, ok
}

// RemoteComponents returns the components whose module lives in a remote store
func (a *Application) RemoteComponents() []Component {
	var out []Component
	for _, c := range a.Components {
		if _, ok := c.Source.(RemoteReference); ok {
			out = append(out, c)
		}
	}
	return out
}
