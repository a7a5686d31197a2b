package sapi_test

import (
	"encoding/json"
	"testing"

	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePanels(t *testing.T, query *sapi.JAQLQuery) []map[string]interface{} {
	t.Helper()

	panels := make([]map[string]interface{}, 0, len(query.Metadata))

	for _, raw := range query.Metadata {
		var entry map[string]interface{}

		require.NoError(t, json.Unmarshal(raw, &entry))
		panels = append(panels, entry)
	}

	return panels
}

func TestJAQLBuilder(t *testing.T) {
	t.Parallel()
	t.Run("builds panels in declaration order", func(t *testing.T) {
		t.Parallel()

		query, err := sapi.NewJAQLBuilder(sapi.Datasource{Title: "Sales"}).
			Column("Sales", "Region").
			Measure(map[string]interface{}{
				"agg": "sum",
				"dim": "[Sales].[Revenue]",
			}).
			Equals("Sales", "Country", "DE").
			Count(100).
			Offset(10).
			Build()
		require.NoError(t, err)

		assert.Equal(t, "Sales", query.Datasource.Title)
		assert.Equal(t, 100, query.Count)
		assert.Equal(t, 10, query.Offset)

		panels := decodePanels(t, query)
		require.Len(t, panels, 3)
		assert.Equal(t, "columns", panels[0]["panel"])
		assert.Equal(t, "values", panels[1]["panel"])
		assert.Equal(t, "filters", panels[2]["panel"])

		dimension, ok := panels[0]["jaql"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "[Sales].[Region]", dimension["dim"])

		filter, ok := panels[2]["jaql"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, map[string]interface{}{"equals": "DE"}, filter["filter"])
	})

	t.Run("rejects a query without clauses", func(t *testing.T) {
		t.Parallel()

		_, err := sapi.NewJAQLBuilder(sapi.Datasource{Title: "Sales"}).
			Count(10).
			Build()
		require.ErrorIs(t, err, sapi.ErrJAQLMetadataRequired)
	})

	t.Run("built query round-trips through the wire encoding", func(t *testing.T) {
		t.Parallel()

		query, err := sapi.NewJAQLBuilder(sapi.Datasource{ID: "ds-1"}).
			Column("Ops", "Status").
			Build()
		require.NoError(t, err)

		encoded, err := json.Marshal(query)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"datasource": {"id": "ds-1"},
			"metadata": [
				{"jaql": {"dim": "[Ops].[Status]", "datatype": "text"}, "panel": "columns"}
			]
		}`, string(encoded))
	})
}
