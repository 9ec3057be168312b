package oci

// Media types and platform fields of a Wasm OCI artifact
// https://tag-runtime.cncf.io/wgs/wasm/deliverables/wasm-oci-artifact/
const (
	// WASMLayerMediaType is the media type of the module layer
	WASMLayerMediaType = "application/wasm"

	// WASMConfigMediaType is the media type of the config blob
	WASMConfigMediaType = "application/vnd.wasm.config.v0+json"

	// WASMArchitecture is the architecture field value for Wasm artifacts
	WASMArchitecture = "wasm"

	// WASMOS is the OS field value for Wasm modules
	WASMOS = "wasip1"

	// DefaultMemoSize bounds the number of resolved references kept in memory
	DefaultMemoSize = 256
)
