package manifest

// Component is one WebAssembly module plus its configuration
type Component struct {
	ID          string
	Source      ModuleSource
	Mounts      []FileMount
	Environment map[string]string
}

// ModuleSource is where the component's Wasm module comes from
type ModuleSource interface {
	isModuleSource()
}

// FileReference is a module on the local filesystem.
// The path is absolute; it is not guaranteed to exist at load time.
type FileReference struct {
	Path string
}

func (FileReference) isModuleSource() {}

// RemoteReference is a content-addressed module held in a remote store.
// Reference names the artifact and Parcel the digest of the module inside it.
type RemoteReference struct {
	Reference string
	Parcel    string
}

func (RemoteReference) isModuleSource() {}

// FileMount maps a host path into the component's guest filesystem
type FileMount struct {
	// Host is the absolute host path
	Host string
	// Guest is the path seen by the component. For files expanded from a
	// pattern it is the path relative to the base directory.
	Guest string
	// Directory is set for explicit directory placements
	Directory bool
}
