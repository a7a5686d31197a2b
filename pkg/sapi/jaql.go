package sapi

import (
	"encoding/json"
	"fmt"
)

// JAQL panel names. Each metadata entry belongs to exactly one panel.
const (
	panelColumns = "columns"
	panelValues  = "values"
	panelFilters = "filters"
)

// JAQLBuilder assembles a JAQLQuery from dimension, measure, and filter
// clauses. Clauses are marshaled into the wire-form metadata panels the
// query endpoint expects, so callers never hand-write panel envelopes.
//
// The zero value is not usable; start with NewJAQLBuilder.
type JAQLBuilder struct {
	query JAQLQuery
	err   error
}

// NewJAQLBuilder starts a query against the given datasource.
func NewJAQLBuilder(datasource Datasource) *JAQLBuilder {
	return &JAQLBuilder{
		query: JAQLQuery{Datasource: datasource},
	}
}

// Dimension adds a dimension clause to the columns panel. The clause is
// the raw JAQL object, e.g. {"dim": "[Sales].[Region]", "datatype": "text"}.
func (b *JAQLBuilder) Dimension(jaql map[string]interface{}) *JAQLBuilder {
	return b.appendPanel(panelColumns, jaql)
}

// Column is shorthand for a text dimension on [table].[column].
func (b *JAQLBuilder) Column(table, column string) *JAQLBuilder {
	return b.Dimension(map[string]interface{}{
		"dim":      fmt.Sprintf("[%s].[%s]", table, column),
		"datatype": "text",
	})
}

// Measure adds an aggregation clause to the values panel.
func (b *JAQLBuilder) Measure(jaql map[string]interface{}) *JAQLBuilder {
	return b.appendPanel(panelValues, jaql)
}

// Filter adds a filter clause to the filters panel.
func (b *JAQLBuilder) Filter(jaql map[string]interface{}) *JAQLBuilder {
	return b.appendPanel(panelFilters, jaql)
}

// Equals is shorthand for an equality filter on [table].[column].
func (b *JAQLBuilder) Equals(table, column string, value interface{}) *JAQLBuilder {
	return b.Filter(map[string]interface{}{
		"dim":    fmt.Sprintf("[%s].[%s]", table, column),
		"filter": map[string]interface{}{"equals": value},
	})
}

// Count caps the number of returned rows.
func (b *JAQLBuilder) Count(n int) *JAQLBuilder {
	b.query.Count = n

	return b
}

// Offset skips the first n rows.
func (b *JAQLBuilder) Offset(n int) *JAQLBuilder {
	b.query.Offset = n

	return b
}

// Build finalizes the query. A query with no clauses at all returns
// ErrJAQLMetadataRequired; the backend rejects empty metadata panels.
func (b *JAQLBuilder) Build() (*JAQLQuery, error) {
	if b.err != nil {
		return nil, b.err
	}

	if len(b.query.Metadata) == 0 {
		return nil, ErrJAQLMetadataRequired
	}

	query := b.query

	return &query, nil
}

func (b *JAQLBuilder) appendPanel(panel string, jaql map[string]interface{}) *JAQLBuilder {
	if b.err != nil {
		return b
	}

	entry, err := json.Marshal(map[string]interface{}{
		"jaql":  jaql,
		"panel": panel,
	})
	if err != nil {
		b.err = fmt.Errorf("encoding %s clause: %w", panel, err)

		return b
	}

	b.query.Metadata = append(b.query.Metadata, entry)

	return b
}
