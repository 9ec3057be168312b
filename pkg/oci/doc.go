// Package oci resolves remote component sources.
//
// A manifest.RemoteReference names an artifact in an OCI registry
// (Reference) and the digest of the Wasm module layer inside it (Parcel).
// The Fetcher pulls that layer into a content-addressed cache on disk:
//
//	<cache>/<algorithm>/<encoded digest>.wasm
//
// Every file in the cache is verified against its digest before it is
// handed out, so a truncated or tampered file is fetched again.
//
// The Publisher does the reverse and is mainly useful for seeding a
// registry with a module built locally:
//
//	parcel, err := oci.NewPublisher().Publish(ctx, "ghcr.io/org/app:v1", "app.wasm")
//
//	fetcher, err := oci.NewFetcher(cacheDir)
//	path, err := fetcher.Fetch(ctx, manifest.RemoteReference{
//	    Reference: "ghcr.io/org/app:v1",
//	    Parcel:    parcel.String(),
//	})
//
// The loader never calls into this package. Fetching is an explicit step
// (spin pull) performed after an application has been loaded.
package oci
