package sapi

import (
	"encoding/json"
	"time"
)

// DataModel represents one data model (v2) or elasticube (v0/v1). The
// elasticube generations report fewer fields; adapters normalize what they
// can and leave the rest zero.
type DataModel struct {
	OID        string     `json:"oid"                   yaml:"oid"`
	Title      string     `json:"title"                 yaml:"title"`
	Type       string     `json:"type,omitempty"        yaml:"type,omitempty"`
	Server     string     `json:"server,omitempty"      yaml:"server,omitempty"`
	CreatedAt  *time.Time `json:"created,omitempty"     yaml:"created,omitempty"`
	UpdatedAt  *time.Time `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	APIVersion string     `json:"-"                     yaml:"-"`
}

// DataModelSchema is the exported schema of one data model.
type DataModelSchema struct {
	OID       string          `json:"oid"                 yaml:"oid"`
	Title     string          `json:"title"               yaml:"title"`
	Datasets  json.RawMessage `json:"datasets,omitempty"  yaml:"-"`
	Relations json.RawMessage `json:"relations,omitempty" yaml:"-"`
}

// Dashboard represents a dashboard resource.
type Dashboard struct {
	OID        string     `json:"oid"                  yaml:"oid"`
	Title      string     `json:"title"                yaml:"title"`
	Desc       string     `json:"desc,omitempty"       yaml:"desc,omitempty"`
	Owner      string     `json:"owner,omitempty"      yaml:"owner,omitempty"`
	Datasource Datasource `json:"datasource,omitempty" yaml:"datasource,omitempty"`
	CreatedAt  *time.Time `json:"created,omitempty"    yaml:"created,omitempty"`
	UpdatedAt  *time.Time `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	Widgets    []Widget   `json:"widgets,omitempty"    yaml:"widgets,omitempty"`
}

// Datasource identifies the data source a dashboard or query runs against.
type Datasource struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	ID    string `json:"id,omitempty"    yaml:"id,omitempty"`
}

// Widget represents one widget inside a dashboard. Metadata carries the
// widget's JAQL panel definition verbatim; this client does not interpret
// it.
type Widget struct {
	OID       string          `json:"oid"                 yaml:"oid"`
	Dashboard string          `json:"dashboardid,omitempty" yaml:"dashboardid,omitempty"`
	Title     string          `json:"title"               yaml:"title"`
	Type      string          `json:"type,omitempty"      yaml:"type,omitempty"`
	Subtype   string          `json:"subtype,omitempty"   yaml:"subtype,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"  yaml:"-"`
}

// Connection represents a v2 data connection.
type Connection struct {
	OID      string          `json:"oid"                yaml:"oid"`
	Title    string          `json:"title,omitempty"    yaml:"title,omitempty"`
	Provider string          `json:"provider,omitempty" yaml:"provider,omitempty"`
	Schema   string          `json:"schema,omitempty"   yaml:"schema,omitempty"`
	Config   json.RawMessage `json:"parameters,omitempty" yaml:"-"`
}

// ConnectionTestResult reports the outcome of testing a connection.
type ConnectionTestResult struct {
	Success bool   `json:"success"           yaml:"success"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// JAQLQuery is the payload for the unified query endpoint. Metadata holds
// the dimension, measure, and filter panels in wire form.
type JAQLQuery struct {
	Datasource Datasource        `json:"datasource"         yaml:"datasource"`
	Metadata   []json.RawMessage `json:"metadata"           yaml:"-"`
	Count      int               `json:"count,omitempty"    yaml:"count,omitempty"`
	Offset     int               `json:"offset,omitempty"   yaml:"offset,omitempty"`
	Format     string            `json:"format,omitempty"   yaml:"format,omitempty"`
}

// QueryResult holds the rows and headers of a JAQL or SQL execution.
type QueryResult struct {
	Headers    []string          `json:"headers,omitempty" yaml:"headers,omitempty"`
	Values     []json.RawMessage `json:"values,omitempty"  yaml:"-"`
	APIVersion string            `json:"-"                 yaml:"-"`
}

// SQLOptions tunes SQL execution.
type SQLOptions struct {
	Limit  int
	Offset int
}

// DataModelListOptions filters data model listings.
type DataModelListOptions struct {
	// Type filters by model type (e.g. "live", "extract"). The v2 endpoint
	// filters server-side; elasticube generations are filtered client-side.
	Type string
}
