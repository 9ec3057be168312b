package loader

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/fastertools/spin-loader/pkg/loader/config"
	"github.com/fastertools/spin-loader/pkg/manifest"
)

var substitutionToken = regexp.MustCompile(`\$\{([^}]*)\}`)

// applicationTrigger resolves the application-level trigger declaration
func applicationTrigger(raw config.RawAppTrigger) (manifest.ApplicationTrigger, error) {
	switch raw.Type {
	case "http":
		base := raw.Base
		if base == "" {
			base = manifest.DefaultHTTPBase
		}
		return manifest.HTTPTriggerConfig{Base: base}, nil
	default:
		return nil, fmt.Errorf("%w: %q", manifest.ErrUnsupportedTrigger, raw.Type)
	}
}

// normalizeTrigger interprets a component's trigger block according to the
// application trigger type and fills in executor defaults.
func normalizeTrigger(app manifest.ApplicationTrigger, raw any) (manifest.ComponentTrigger, error) {
	switch app.(type) {
	case manifest.HTTPTriggerConfig:
		return normalizeHTTPTrigger(raw)
	default:
		return nil, fmt.Errorf("%w: %T", manifest.ErrUnsupportedTrigger, app)
	}
}

func normalizeHTTPTrigger(raw any) (manifest.HTTPConfig, error) {
	table, ok := raw.(map[string]any)
	if !ok {
		return manifest.HTTPConfig{}, fmt.Errorf("%w: expected an http trigger table, got %s", manifest.ErrTriggerShapeMismatch, describe(raw))
	}

	// The route is passed through verbatim; the runtime validates its syntax.
	route, ok := table["route"].(string)
	if !ok {
		return manifest.HTTPConfig{}, fmt.Errorf("%w: http trigger needs a string route, got %s", manifest.ErrTriggerShapeMismatch, describe(table["route"]))
	}

	executor, err := httpExecutor(table["executor"])
	if err != nil {
		return manifest.HTTPConfig{}, err
	}

	return manifest.HTTPConfig{Route: route, Executor: executor}, nil
}

func httpExecutor(raw any) (manifest.HTTPExecutor, error) {
	if raw == nil {
		return manifest.SpinExecutor{}, nil
	}

	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: executor must be a table, got %s", manifest.ErrTriggerShapeMismatch, describe(raw))
	}

	kind, _ := table["type"].(string)
	switch kind {
	case "spin":
		return manifest.SpinExecutor{}, nil
	case "wagi":
		wagi := manifest.WagiExecutor{
			Entrypoint: manifest.DefaultWagiEntrypoint,
			Argv:       manifest.DefaultWagiArgv,
		}
		if v, present := table["entrypoint"]; present {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: wagi entrypoint must be a string, got %s", manifest.ErrTriggerShapeMismatch, describe(v))
			}
			wagi.Entrypoint = s
		}
		if v, present := table["argv"]; present {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: wagi argv must be a string, got %s", manifest.ErrTriggerShapeMismatch, describe(v))
			}
			wagi.Argv = s
		}
		if err := validateArgv(wagi.Argv); err != nil {
			return nil, err
		}
		return wagi, nil
	default:
		return nil, fmt.Errorf("%w: unknown executor type %q", manifest.ErrTriggerShapeMismatch, kind)
	}
}

// validateArgv rejects ${...} tokens the Wagi executor cannot substitute
func validateArgv(argv string) error {
	for _, m := range substitutionToken.FindAllStringSubmatch(argv, -1) {
		if !slices.Contains(manifest.WagiSubstitutions, m[1]) {
			return fmt.Errorf("%w: %s in argv %q (allowed: %v)", manifest.ErrUnknownSubstitution, m[0], argv, manifest.WagiSubstitutions)
		}
	}
	return nil
}

func describe(v any) string {
	if v == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T", v)
}
