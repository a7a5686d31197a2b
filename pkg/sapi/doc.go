// Package sapi provides the public API surface for the Sisense-style
// analytics backend client.
//
// The package defines the Client interface, configuration, typed errors,
// and the capability model used by the routing engine. Backends expose the
// same logical operations (list data models, run a query, fetch a widget)
// at different URL patterns depending on their version generation (legacy
// v0, v1, v2), and some deployments lack whole feature areas. The client
// probes candidate endpoint patterns per capability, caches which pattern
// actually works, and routes every call through the resolved pattern.
//
// Create clients with the sapiclient package:
//
//	client, err := sapiclient.NewWithToken(ctx, "https://bi.example.com", token)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	models, err := client.DataModels().List(ctx, nil)
//	if sapi.IsUnsupportedCapability(err) {
//	    // this deployment has no data model endpoint at all;
//	    // the error lists every candidate tried and its outcome
//	}
//
// Capability resolutions are cached with a TTL and are never persisted
// across process restarts, since a backend upgrade between sessions can
// change its endpoint surface. Use Client.Invalidate to force re-detection
// after a known upgrade, and Client.Capabilities for the diagnostics
// report.
package sapi
