package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/senseware-io/sapi/internal/capability"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// DashboardsClient implements sapi.DashboardsClient.
type DashboardsClient struct {
	router *capability.Router
}

// NewDashboardsClient creates a new dashboards client.
func NewDashboardsClient(router *capability.Router) *DashboardsClient {
	return &DashboardsClient{router: router}
}

// List returns the dashboards visible to the authenticated user.
func (c *DashboardsClient) List(ctx context.Context) ([]sapi.Dashboard, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityDashboardsList, nil)
	if err != nil {
		return nil, err
	}

	dashboards, err := unmarshalList[sapi.Dashboard](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listing dashboards: %w", err)
	}

	return dashboards, nil
}

// Get returns one dashboard by its identifier.
func (c *DashboardsClient) Get(ctx context.Context, oid string) (*sapi.Dashboard, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityDashboardsGet, &sapi.CallParams{
		Path: map[string]string{"dashboard": oid},
	})
	if err != nil {
		return nil, err
	}

	var dashboard sapi.Dashboard

	err = json.Unmarshal(resp.Body, &dashboard)
	if err != nil {
		return nil, fmt.Errorf("parsing dashboard %s: %w", oid, err)
	}

	return &dashboard, nil
}

// ListWidgets returns the widgets of one dashboard.
func (c *DashboardsClient) ListWidgets(ctx context.Context, dashboardOID string) ([]sapi.Widget, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityWidgetsList, &sapi.CallParams{
		Path: map[string]string{"dashboard": dashboardOID},
	})
	if err != nil {
		return nil, err
	}

	widgets, err := unmarshalList[sapi.Widget](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listing widgets of dashboard %s: %w", dashboardOID, err)
	}

	return widgets, nil
}
