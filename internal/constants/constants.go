// Package constants defines shared constants used across the client.
package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultProbeTimeout bounds a single capability probe request.
	DefaultProbeTimeout = 5 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of transport retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between transport retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ProbeRetryMax is the number of extra attempts for an indeterminate
	// probe before detection gives up on the candidate for this pass.
	ProbeRetryMax = 2

	// ProbeRetryWaitMin is the initial backoff between probe retries.
	ProbeRetryWaitMin = 250 * time.Millisecond

	// ProbeRetryWaitMax caps the backoff between probe retries.
	ProbeRetryWaitMax = 2 * time.Second
)

// Capability cache lifetimes.
const (
	// DefaultResolutionTTL is the lifetime of cached capability resolutions.
	DefaultResolutionTTL = 1 * time.Hour

	// DefaultAuthBlockedTTL is the lifetime of auth-blocked resolutions.
	// Kept short so refreshed credentials take effect quickly.
	DefaultAuthBlockedTTL = 30 * time.Second
)

// Paging defaults.
const (
	// ProbePageSize keeps probe requests cheap on the backend.
	ProbePageSize = 1
)
