package config

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/fastertools/spin-loader/pkg/manifest"
)

//go:embed schema_v1.cue
var schemaV1Source string

// cue values are not safe for concurrent evaluation
var (
	schemaMu  sync.Mutex
	schemaCtx *cue.Context
	schemaV1  cue.Value
	schemaErr error
	schemaOne sync.Once
)

func compiledSchemaV1() (cue.Value, error) {
	schemaOne.Do(func() {
		schemaCtx = cuecontext.New()
		patterns := schemaCtx.CompileString(schemaV1Source, cue.Filename("schema_v1.cue"))
		if patterns.Err() != nil {
			schemaErr = fmt.Errorf("failed to compile manifest schema: %w", patterns.Err())
			return
		}
		schemaV1 = patterns.LookupPath(cue.ParsePath("#Manifest"))
		if !schemaV1.Exists() {
			schemaErr = fmt.Errorf("manifest schema not found")
		}
	})
	return schemaV1, schemaErr
}

// validateV1 unifies the document with the v1 schema
func validateV1(doc Document) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	schema, err := compiledSchemaV1()
	if err != nil {
		return err
	}

	value := schemaCtx.Encode(doc)
	if value.Err() != nil {
		return fmt.Errorf("%w: %v", manifest.ErrInvalidManifest, value.Err())
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", manifest.ErrInvalidManifest, err)
	}
	return nil
}
