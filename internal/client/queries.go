package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/senseware-io/sapi/internal/capability"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// QueriesClient implements sapi.QueriesClient.
type QueriesClient struct {
	router *capability.Router
}

// NewQueriesClient creates a new queries client.
func NewQueriesClient(router *capability.Router) *QueriesClient {
	return &QueriesClient{router: router}
}

// ExecuteJAQL runs a JAQL query through the detected query endpoint. The
// v1 unified endpoint takes the datasource in the body; the v0 endpoint
// takes it in the path, so the datasource name doubles as a path
// parameter.
func (c *QueriesClient) ExecuteJAQL(ctx context.Context, query *sapi.JAQLQuery) (*sapi.QueryResult, error) {
	datasource := query.Datasource.ID
	if datasource == "" {
		datasource = query.Datasource.Title
	}

	resp, err := c.router.Call(ctx, sapi.CapabilityQueryJAQL, &sapi.CallParams{
		Path: map[string]string{"datasource": datasource},
		Body: query,
	})
	if err != nil {
		return nil, err
	}

	result, err := parseQueryResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("executing JAQL query: %w", err)
	}

	result.APIVersion = resp.APIVersion

	return result, nil
}

// ExecuteSQL runs a read-only SQL statement against one datasource.
// Anything that is not a plain SELECT is rejected locally before any
// network traffic.
func (c *QueriesClient) ExecuteSQL(ctx context.Context, datasource, query string, opts *sapi.SQLOptions) (*sapi.QueryResult, error) {
	err := validateReadOnlySQL(query)
	if err != nil {
		return nil, err
	}

	values := url.Values{"query": []string{query}}

	if opts != nil {
		if opts.Limit > 0 {
			values.Set("count", strconv.Itoa(opts.Limit))
		}

		if opts.Offset > 0 {
			values.Set("offset", strconv.Itoa(opts.Offset))
		}
	}

	resp, err := c.router.Call(ctx, sapi.CapabilityQuerySQL, &sapi.CallParams{
		Path:  map[string]string{"datasource": datasource},
		Query: values,
	})
	if err != nil {
		return nil, err
	}

	result, err := parseQueryResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("executing SQL query: %w", err)
	}

	result.APIVersion = resp.APIVersion

	return result, nil
}

// sqlWriteKeywords are statement-leading or embedded keywords that mark a
// statement as mutating.
var sqlWriteKeywords = []string{
	"insert", "update", "delete", "drop", "create", "alter", "truncate",
	"grant", "revoke", "merge", "exec", "execute",
}

// validateReadOnlySQL rejects statements that could mutate backend state.
// The backend enforces its own permissions; this check exists so an
// accidental write fails fast and locally.
func validateReadOnlySQL(query string) error {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return fmt.Errorf("%w: empty statement", sapi.ErrReadOnlyQueryRequired)
	}

	if !strings.HasPrefix(normalized, "select") && !strings.HasPrefix(normalized, "with") {
		return fmt.Errorf("%w: statement must start with SELECT", sapi.ErrReadOnlyQueryRequired)
	}

	for _, keyword := range sqlWriteKeywords {
		if containsSQLKeyword(normalized, keyword) {
			return fmt.Errorf("%w: statement contains %s", sapi.ErrReadOnlyQueryRequired, strings.ToUpper(keyword))
		}
	}

	return nil
}

// containsSQLKeyword reports whether the keyword appears as a whole word.
// Substring matches inside identifiers (e.g. "created_at") do not count.
func containsSQLKeyword(query, keyword string) bool {
	offset := 0

	for {
		idx := strings.Index(query[offset:], keyword)
		if idx < 0 {
			return false
		}

		start := offset + idx
		end := start + len(keyword)

		beforeOK := start == 0 || !isSQLWordChar(query[start-1])
		afterOK := end == len(query) || !isSQLWordChar(query[end])

		if beforeOK && afterOK {
			return true
		}

		offset = start + 1
	}
}

func isSQLWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// parseQueryResult decodes the shared result shape of the JAQL and SQL
// endpoints: a headers array plus row arrays. Rows stay in wire form;
// cell typing is the caller's concern.
func parseQueryResult(body []byte) (*sapi.QueryResult, error) {
	var result sapi.QueryResult

	err := json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing query result: %w", err)
	}

	return &result, nil
}
