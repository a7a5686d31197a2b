// Package client implements the sapi.Client interface on top of the
// capability routing engine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/senseware-io/sapi/internal/auth"
	"github.com/senseware-io/sapi/internal/capability"
	"github.com/senseware-io/sapi/internal/constants"
	internalhttp "github.com/senseware-io/sapi/internal/http"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// Client implements the sapi.Client interface.
type Client struct {
	router       *capability.Router
	cache        *capability.Cache
	tokenManager internalhttp.TokenManager
	baseURL      string
	logger       sapi.Logger

	// Resource clients
	dataModels  *DataModelsClient
	dashboards  *DashboardsClient
	widgets     *WidgetsClient
	connections *ConnectionsClient
	queries     *QueriesClient
}

// New creates a new client for the given backend.
func New(ctx context.Context, config *sapi.Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, sapi.ErrEndpointRequired
	}

	applyDefaults(config)

	baseOpts := createTransportOptions(config)
	tokenManager := createTokenManager(config, baseOpts)

	realOpts := append([]internalhttp.Option{
		internalhttp.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax),
		internalhttp.WithTimeout(config.HTTPTimeout),
	}, baseOpts...)
	realTransport := internalhttp.NewClient(config.Endpoint, tokenManager, realOpts...)

	// Probes ride a transport with retries disabled; the detector owns
	// probe retry policy.
	probeTransport := internalhttp.NewClient(config.Endpoint, tokenManager, baseOpts...)

	registry := capability.DefaultRegistry()
	cache := capability.NewCache(config.ResolutionTTL, config.AuthBlockedTTL)
	prober := capability.NewHTTPProber(probeTransport, config.ProbeTimeout)
	detector := capability.NewDetector(registry, prober, cache)
	router := capability.NewRouter(registry, detector, cache, realTransport)

	client := &Client{
		router:       router,
		cache:        cache,
		tokenManager: tokenManager,
		baseURL:      config.Endpoint,
		logger:       config.Logger,
	}

	client.initializeResourceClients()

	return client, nil
}

func applyDefaults(config *sapi.Config) {
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = constants.DefaultProbeTimeout
	}

	if config.RetryMax <= 0 {
		config.RetryMax = constants.DefaultRetryMax
	}

	if config.RetryWaitMin <= 0 {
		config.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if config.RetryWaitMax <= 0 {
		config.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if config.ResolutionTTL <= 0 {
		config.ResolutionTTL = constants.DefaultResolutionTTL
	}

	if config.AuthBlockedTTL <= 0 {
		config.AuthBlockedTTL = constants.DefaultAuthBlockedTTL
	}
}

// createTransportOptions builds the options shared by both transports.
func createTransportOptions(config *sapi.Config) []internalhttp.Option {
	var opts []internalhttp.Option

	if config.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, internalhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.SkipTLSVerify {
		opts = append(opts, internalhttp.WithTLSSkipVerify())
	}

	if config.Interceptors != nil {
		opts = append(opts, internalhttp.WithInterceptors(config.Interceptors))
	}

	return opts
}

// createTokenManager creates the appropriate token manager based on the
// configured credentials.
func createTokenManager(config *sapi.Config, baseOpts []internalhttp.Option) internalhttp.TokenManager {
	if config.APIToken != "" {
		return auth.NewStaticTokenManager(config.APIToken)
	}

	if config.Username != "" && config.Password != "" {
		loginTransport := internalhttp.NewClient(config.Endpoint, nil, baseOpts...)

		return auth.NewLoginTokenManager(loginTransport, config.Username, config.Password)
	}

	return nil // No authentication
}

func (c *Client) initializeResourceClients() {
	c.dataModels = NewDataModelsClient(c.router)
	c.dashboards = NewDashboardsClient(c.router)
	c.widgets = NewWidgetsClient(c.router, c.dashboards)
	c.connections = NewConnectionsClient(c.router)
	c.queries = NewQueriesClient(c.router)
}

// DataModels implements sapi.Client.DataModels.
func (c *Client) DataModels() sapi.DataModelsClient {
	return c.dataModels
}

// Dashboards implements sapi.Client.Dashboards.
func (c *Client) Dashboards() sapi.DashboardsClient {
	return c.dashboards
}

// Widgets implements sapi.Client.Widgets.
func (c *Client) Widgets() sapi.WidgetsClient {
	return c.widgets
}

// Connections implements sapi.Client.Connections.
func (c *Client) Connections() sapi.ConnectionsClient {
	return c.connections
}

// Queries implements sapi.Client.Queries.
func (c *Client) Queries() sapi.QueriesClient {
	return c.queries
}

// ValidateAuth implements sapi.Client.ValidateAuth. Deployments without
// any auth endpoint are validated against the dashboards listing, which
// every known generation serves.
func (c *Client) ValidateAuth(ctx context.Context) error {
	_, err := c.router.Call(ctx, sapi.CapabilityAuthValidate, nil)
	if err == nil {
		return nil
	}

	if !sapi.IsUnsupportedCapability(err) {
		return err
	}

	_, err = c.router.Call(ctx, sapi.CapabilityDashboardsList, nil)
	if err != nil {
		return fmt.Errorf("validating auth via dashboards: %w", err)
	}

	return nil
}

// Capabilities implements sapi.CapabilityReporter.
func (c *Client) Capabilities() map[sapi.CapabilityID]sapi.ResolutionSummary {
	return c.router.Capabilities()
}

// DetectAll implements sapi.CapabilityReporter.
func (c *Client) DetectAll(ctx context.Context) (map[sapi.CapabilityID]sapi.ResolutionSummary, error) {
	return c.router.DetectAll(ctx)
}

// Invalidate implements sapi.CapabilityReporter.
func (c *Client) Invalidate(id sapi.CapabilityID) {
	c.router.Invalidate(id)
}

// InvalidateAll implements sapi.CapabilityReporter.
func (c *Client) InvalidateAll() {
	c.router.InvalidateAll()
}

// Router exposes the routing engine for diagnostics tooling.
func (c *Client) Router() *capability.Router {
	return c.router
}

// Close releases background resources held by the capability cache.
func (c *Client) Close() {
	c.cache.Stop()
}

// unmarshalList decodes a list response that is either a bare JSON array
// (v0/v1 generations) or a v2 {"data": [...]} envelope.
func unmarshalList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T

		err := json.Unmarshal(trimmed, &items)
		if err != nil {
			return nil, fmt.Errorf("parsing list response: %w", err)
		}

		return items, nil
	}

	var envelope struct {
		Data []T `json:"data"`
	}

	err := json.Unmarshal(trimmed, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing list envelope: %w", err)
	}

	return envelope.Data, nil
}
