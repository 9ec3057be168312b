package manifest

import (
	"errors"
	"fmt"
)

// Error kinds returned by the loader. Match them with errors.Is.
var (
	ErrSchemaVersion        = errors.New("unsupported " + VersionField)
	ErrManifestParse        = errors.New("manifest is not well-formed")
	ErrInvalidManifest      = errors.New("manifest does not match schema")
	ErrMountSourceNotFound  = errors.New("mount source not found")
	ErrInvalidMount         = errors.New("invalid file mount")
	ErrTriggerShapeMismatch = errors.New("trigger does not match application trigger type")
	ErrUnsupportedTrigger   = errors.New("unsupported application trigger")
	ErrUnknownSubstitution  = errors.New("unknown substitution token")
	ErrDuplicateComponentID = errors.New("duplicate component id")
	ErrIO                   = errors.New("i/o error")
)

// ComponentError attaches the offending component and field to a load failure
type ComponentError struct {
	ID    string
	Field string
	Err   error
}

func (e *ComponentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("component %q: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("component %q: %s: %v", e.ID, e.Field, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }
