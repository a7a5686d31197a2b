package sapi

import (
	"context"
	"encoding/json"
	"time"
)

// DataModelsClient provides access to data models (v2) and their
// elasticube equivalents (v0/v1).
type DataModelsClient interface {
	List(ctx context.Context, opts *DataModelListOptions) ([]DataModel, error)
	Get(ctx context.Context, oid string) (*DataModel, error)
	ExportSchema(ctx context.Context, oid string) (*DataModelSchema, error)
}

// DashboardsClient provides access to dashboards.
type DashboardsClient interface {
	List(ctx context.Context) ([]Dashboard, error)
	Get(ctx context.Context, oid string) (*Dashboard, error)
	ListWidgets(ctx context.Context, dashboardOID string) ([]Widget, error)
}

// WidgetsClient provides access to widgets. Get uses the direct widget
// endpoint; Find searches the dashboard hierarchy, which also works on
// deployments that lack the direct endpoint.
type WidgetsClient interface {
	Get(ctx context.Context, dashboardOID, widgetOID string) (*Widget, error)
	Find(ctx context.Context, widgetOID string) (*Widget, error)
}

// ConnectionsClient provides access to v2 data connections. Schema
// returns the backend's schema listing verbatim; its shape is
// provider-specific.
type ConnectionsClient interface {
	List(ctx context.Context) ([]Connection, error)
	Get(ctx context.Context, oid string) (*Connection, error)
	Test(ctx context.Context, oid string) (*ConnectionTestResult, error)
	Schema(ctx context.Context, oid string) (json.RawMessage, error)
}

// QueriesClient executes JAQL and SQL queries.
type QueriesClient interface {
	ExecuteJAQL(ctx context.Context, query *JAQLQuery) (*QueryResult, error)
	ExecuteSQL(ctx context.Context, datasource, query string, opts *SQLOptions) (*QueryResult, error)
}

// CapabilityReporter exposes the routing engine's introspection surface.
type CapabilityReporter interface {
	// Capabilities returns the system capabilities report: per capability,
	// the resolved candidate's version tag or the unsupported/auth-blocked
	// status, plus the candidates that were tried. Capabilities never
	// probed report ResolutionUnprobed; no probes are issued.
	Capabilities() map[CapabilityID]ResolutionSummary

	// DetectAll runs detection for every registered capability that has no
	// live resolution and returns the resulting report. Capabilities whose
	// detection stays indeterminate are reported unprobed with their
	// attempt trail.
	DetectAll(ctx context.Context) (map[CapabilityID]ResolutionSummary, error)

	// Invalidate drops the cached resolution for one capability, forcing
	// re-detection on the next call (e.g. after an operator-triggered
	// backend upgrade).
	Invalidate(id CapabilityID)

	// InvalidateAll drops every cached resolution.
	InvalidateAll()
}

// Client is the top-level client interface exposed to applications.
type Client interface {
	DataModels() DataModelsClient
	Dashboards() DashboardsClient
	Widgets() WidgetsClient
	Connections() ConnectionsClient
	Queries() QueriesClient

	// ValidateAuth checks the configured credentials using the detected
	// auth endpoint pattern.
	ValidateAuth(ctx context.Context) error

	CapabilityReporter
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a sapi.Client.
//
// # Authentication precedence
//
//  1. APIToken: if set, used directly as a static Bearer token.
//  2. Username/Password: the client logs in at the backend's
//     authentication endpoint and uses the returned token.
//  3. No credentials: requests are sent without authentication (probes
//     will classify protected endpoints as auth failures).
//
// # Timeouts and retries
//
// Per-request timeouts should generally be controlled via context passed
// to client methods. ProbeTimeout bounds each candidate probe
// independently. RetryMax/RetryWaitMin/RetryWaitMax tune the transport's
// retry behavior for real calls; probes are never retried by the
// transport, the detector owns probe retry policy.
type Config struct {
	// Endpoint: base URL of the backend (e.g. "https://bi.example.com").
	// sapiclient.New normalizes this value by trimming a trailing slash and
	// adding "https://" if no scheme is present.
	Endpoint string

	// APIToken: static API token used as a Bearer token.
	APIToken string
	// Username: account username for the login flow.
	Username string
	// Password: account password for the login flow.
	Password string

	// HTTPTimeout: optional default HTTP timeout where supported.
	HTTPTimeout time.Duration
	// ProbeTimeout: bound for each candidate probe request. Defaults to
	// 5 seconds.
	ProbeTimeout time.Duration
	// RetryMax: maximum transport retries for transient real-call failures.
	// Zero or negative uses the default of 3.
	RetryMax int
	// RetryWaitMin: minimum backoff between transport retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between transport retries.
	RetryWaitMax time.Duration

	// ResolutionTTL: lifetime of cached resolutions (resolved and
	// unsupported alike). Defaults to one hour.
	ResolutionTTL time.Duration
	// AuthBlockedTTL: lifetime of auth-blocked resolutions. Kept short
	// (default 30s) since credentials may be refreshed at any time.
	AuthBlockedTTL time.Duration

	// Interceptors: optional request/response interceptor chain attached
	// to the transport (logging, custom headers, metrics). Probe traffic
	// passes through the chain as well.
	Interceptors *InterceptorChain

	// Debug: enables verbose HTTP request/response logging when a Logger
	// is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger
	// SkipTLSVerify: if true, TLS verification is skipped, and only when
	// SAPI_DEV_MODE is set. Intended for local development.
	SkipTLSVerify bool
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
}
