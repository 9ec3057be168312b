// Package loader builds a validated manifest.Application from a Spin
// application manifest.
//
// Loading runs in four steps:
//
//   - the document is parsed and its spin_version checked (package config)
//   - every component's module source is made absolute
//   - every component's files declarations are expanded (package assets)
//   - every component's trigger block is normalized against the
//     application trigger, applying executor defaults
//
// Loading is all-or-nothing. The first error aborts the load and no
// partial Application is returned. Two conditions are deliberately not
// errors: a module file that does not exist yet and a file pattern that
// matches nothing. Both surface at execution time, if at all.
//
// Example:
//
//	app, err := loader.FromFile(ctx, "spin.toml", ".")
//	if err != nil {
//	    return err
//	}
//	for _, c := range app.Components {
//	    trigger, _ := app.TriggerFor(c.ID)
//	    ...
//	}
package loader
