// Package sapiclient provides the primary entry point for constructing a
// backend client that implements the sapi.Client interface.
//
// It layers configuration, HTTP transport, authentication, and the
// capability detection engine on top of the resource interfaces and types
// defined in the sapi package. Most applications should import sapiclient
// to build a client, then use the returned sapi.Client to access
// resource-specific clients, for example DataModels(), Dashboards(),
// Queries(), etc.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/senseware-io/sapi/pkg/sapi"
//	  "github.com/senseware-io/sapi/pkg/sapiclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With an API token:
//	  cli, err := sapiclient.New(ctx, &sapi.Config{
//	    Endpoint: "https://bi.example.com",
//	    APIToken: "eyJhbGciOi...", // bearer token
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with username/password. The client logs in at the backend's
//	  // authentication endpoint and refreshes the token as needed.
//	  cli, err = sapiclient.New(ctx, &sapi.Config{
//	    Endpoint: "https://bi.example.com",
//	    Username: "user",
//	    Password: "pass",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Endpoint shapes differ across backend generations; the client
//	  // detects what this deployment serves on first use.
//	  models, err := cli.DataModels().List(ctx, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = models
//	}
//
// # TLS and development mode
//
// For local development, you can set Config.SkipTLSVerify=true. This is
// gated by the environment variable SAPI_DEV_MODE to avoid accidental
// insecure usage in production environments.
//
// # Helpers
//
// The package also provides convenience constructors NewWithToken and
// NewWithPassword that wrap New with the appropriate configuration.
package sapiclient
