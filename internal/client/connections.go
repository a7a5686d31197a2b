package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/senseware-io/sapi/internal/capability"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// ConnectionsClient implements sapi.ConnectionsClient.
type ConnectionsClient struct {
	router *capability.Router
}

// NewConnectionsClient creates a new connections client.
func NewConnectionsClient(router *capability.Router) *ConnectionsClient {
	return &ConnectionsClient{router: router}
}

// List returns the configured data connections.
func (c *ConnectionsClient) List(ctx context.Context) ([]sapi.Connection, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityConnectionsList, nil)
	if err != nil {
		return nil, err
	}

	connections, err := unmarshalList[sapi.Connection](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}

	return connections, nil
}

// Get returns one connection by its identifier.
func (c *ConnectionsClient) Get(ctx context.Context, oid string) (*sapi.Connection, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityConnectionsGet, &sapi.CallParams{
		Path: map[string]string{"connection": oid},
	})
	if err != nil {
		return nil, err
	}

	var connection sapi.Connection

	err = json.Unmarshal(resp.Body, &connection)
	if err != nil {
		return nil, fmt.Errorf("parsing connection %s: %w", oid, err)
	}

	return &connection, nil
}

// Test asks the backend to verify that the connection's target is
// reachable with its stored credentials.
func (c *ConnectionsClient) Test(ctx context.Context, oid string) (*sapi.ConnectionTestResult, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityConnectionsTest, &sapi.CallParams{
		Path: map[string]string{"connection": oid},
	})
	if err != nil {
		return nil, err
	}

	result := &sapi.ConnectionTestResult{Success: true}

	if len(resp.Body) > 0 {
		err = json.Unmarshal(resp.Body, result)
		if err != nil {
			return nil, fmt.Errorf("parsing test result of connection %s: %w", oid, err)
		}
	}

	return result, nil
}

// Schema returns the connection's schema listing as the backend reports
// it; the shape is provider-specific and not interpreted here.
func (c *ConnectionsClient) Schema(ctx context.Context, oid string) (json.RawMessage, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityConnectionsSchema, &sapi.CallParams{
		Path: map[string]string{"connection": oid},
	})
	if err != nil {
		return nil, err
	}

	return json.RawMessage(resp.Body), nil
}
