// Package sapiclient provides the main entry point for creating backend API clients
package sapiclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/senseware-io/sapi/internal/client"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// New creates a new backend API client with capability detection.
func New(ctx context.Context, config *sapi.Config) (sapi.Client, error) {
	if config == nil {
		return nil, sapi.ErrConfigRequired
	}

	if config.Endpoint == "" {
		return nil, sapi.ErrEndpointRequired
	}

	// Normalize endpoint
	endpoint := strings.TrimSuffix(config.Endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	config.Endpoint = endpoint

	if config.SkipTLSVerify && !isDevelopmentEnvironment() {
		return nil, fmt.Errorf("%w (set SAPI_DEV_MODE=true)", sapi.ErrSkipTLSOnlyInDev)
	}

	apiClient, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return apiClient, nil
}

// NewWithToken creates a client using a static API token.
func NewWithToken(ctx context.Context, endpoint, token string) (sapi.Client, error) {
	return New(ctx, &sapi.Config{
		Endpoint: endpoint,
		APIToken: token,
	})
}

// NewWithPassword creates a client using username/password credentials.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (sapi.Client, error) {
	return New(ctx, &sapi.Config{
		Endpoint: endpoint,
		Username: username,
		Password: password,
	})
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv("SAPI_DEV_MODE")

	return devMode == "true" || devMode == "1"
}
