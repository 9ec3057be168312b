// Package manifest defines the resolved, in-memory model of a Spin
// application: its metadata, components, file mounts and trigger
// configuration.
//
// Values in this package are produced by the loader package and are not
// mutated afterwards. A new load produces a new Application.
//
// Several fields are closed sum types modelled as sealed interfaces:
//
//	ApplicationOrigin  -> FileOrigin | RemoteOrigin
//	ApplicationTrigger -> HTTPTriggerConfig
//	ModuleSource       -> FileReference | RemoteReference
//	ComponentTrigger   -> HTTPConfig
//	HTTPExecutor       -> SpinExecutor | WagiExecutor
//
// Consumers are expected to switch over the concrete types.
package manifest
