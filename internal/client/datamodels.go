package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/senseware-io/sapi/internal/capability"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// DataModelsClient implements sapi.DataModelsClient.
type DataModelsClient struct {
	router *capability.Router
}

// NewDataModelsClient creates a new data models client.
func NewDataModelsClient(router *capability.Router) *DataModelsClient {
	return &DataModelsClient{router: router}
}

// List returns the backend's data models. The v2 endpoint filters by type
// server-side; the elasticube generations return everything, so the type
// filter is applied client-side for them.
func (c *DataModelsClient) List(ctx context.Context, opts *sapi.DataModelListOptions) ([]sapi.DataModel, error) {
	params := &sapi.CallParams{}

	if opts != nil && opts.Type != "" {
		params.Query = url.Values{"type": []string{opts.Type}}
	}

	resp, err := c.router.Call(ctx, sapi.CapabilityDataModelsList, params)
	if err != nil {
		return nil, err
	}

	models, err := unmarshalList[sapi.DataModel](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listing data models: %w", err)
	}

	for i := range models {
		models[i].APIVersion = resp.APIVersion
	}

	if opts != nil && opts.Type != "" && resp.APIVersion != "v2" {
		models = filterModelsByType(models, opts.Type)
	}

	return models, nil
}

// Get returns one data model by its identifier.
func (c *DataModelsClient) Get(ctx context.Context, oid string) (*sapi.DataModel, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityDataModelsGet, &sapi.CallParams{
		Path: map[string]string{"model": oid},
	})
	if err != nil {
		return nil, err
	}

	var model sapi.DataModel

	err = json.Unmarshal(resp.Body, &model)
	if err != nil {
		return nil, fmt.Errorf("parsing data model %s: %w", oid, err)
	}

	model.APIVersion = resp.APIVersion

	return &model, nil
}

// ExportSchema returns the full schema of one data model.
func (c *DataModelsClient) ExportSchema(ctx context.Context, oid string) (*sapi.DataModelSchema, error) {
	resp, err := c.router.Call(ctx, sapi.CapabilityDataModelsSchema, &sapi.CallParams{
		Path: map[string]string{"model": oid},
	})
	if err != nil {
		return nil, err
	}

	var schema sapi.DataModelSchema

	err = json.Unmarshal(resp.Body, &schema)
	if err != nil {
		return nil, fmt.Errorf("parsing schema of data model %s: %w", oid, err)
	}

	return &schema, nil
}

func filterModelsByType(models []sapi.DataModel, modelType string) []sapi.DataModel {
	want := strings.ToLower(modelType)
	filtered := make([]sapi.DataModel, 0, len(models))

	for _, model := range models {
		if strings.ToLower(model.Type) == want {
			filtered = append(filtered, model)
		}
	}

	return filtered
}
