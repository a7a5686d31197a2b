package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/senseware-io/sapi/internal/capability"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// WidgetsClient implements sapi.WidgetsClient.
type WidgetsClient struct {
	router     *capability.Router
	dashboards *DashboardsClient
}

// NewWidgetsClient creates a new widgets client. The dashboards client
// backs the hierarchy walk used by Find.
func NewWidgetsClient(router *capability.Router, dashboards *DashboardsClient) *WidgetsClient {
	return &WidgetsClient{
		router:     router,
		dashboards: dashboards,
	}
}

// Get returns one widget addressed by its dashboard and widget ids.
func (c *WidgetsClient) Get(ctx context.Context, dashboardOID, widgetOID string) (*sapi.Widget, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityWidgetsGet, &sapi.CallParams{
		Path: map[string]string{
			"dashboard": dashboardOID,
			"widget":    widgetOID,
		},
	})
	if err != nil {
		return nil, err
	}

	var widget sapi.Widget

	err = json.Unmarshal(resp.Body, &widget)
	if err != nil {
		return nil, fmt.Errorf("parsing widget %s: %w", widgetOID, err)
	}

	if widget.Dashboard == "" {
		widget.Dashboard = dashboardOID
	}

	return &widget, nil
}

// Find locates a widget by id alone, walking the dashboard hierarchy.
// Dashboards whose widget listing fails are skipped rather than aborting
// the search, since a single unreadable dashboard should not hide a widget
// living in another one.
func (c *WidgetsClient) Find(ctx context.Context, widgetOID string) (*sapi.Widget, error) {
	dashboards, err := c.dashboards.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding widget %s: %w", widgetOID, err)
	}

	for _, dashboard := range dashboards {
		widgets, err := c.dashboards.ListWidgets(ctx, dashboard.OID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			continue
		}

		for i := range widgets {
			if widgets[i].OID == widgetOID {
				if widgets[i].Dashboard == "" {
					widgets[i].Dashboard = dashboard.OID
				}

				return &widgets[i], nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", sapi.ErrWidgetNotFound, widgetOID)
}
