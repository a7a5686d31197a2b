// Package capability implements the capability detection and
// request-routing engine: a static candidate registry, a probe executor,
// a TTL resolution cache, the detector that orchestrates probes, and the
// router that dispatches real calls through resolved candidates.
package capability

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/senseware-io/sapi/internal/constants"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// Registry holds the ordered candidate list for each capability. It is
// populated at construction and never mutated afterwards, so concurrent
// reads need no locking.
type Registry struct {
	capabilities map[sapi.CapabilityID][]sapi.Candidate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		capabilities: make(map[sapi.CapabilityID][]sapi.Candidate),
	}
}

// Register adds a capability with its candidates, sorted by ascending
// priority. Malformed entries are programmer errors and rejected here so
// they can never surface as malformed URLs at request time.
func (r *Registry) Register(id sapi.CapabilityID, candidates ...sapi.Candidate) error {
	if _, exists := r.capabilities[id]; exists {
		return fmt.Errorf("%w: %s", sapi.ErrDuplicateCapability, id)
	}

	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s", sapi.ErrNoCandidates, id)
	}

	for _, candidate := range candidates {
		err := validateCandidate(id, candidate)
		if err != nil {
			return err
		}
	}

	ordered := make([]sapi.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	r.capabilities[id] = ordered

	return nil
}

// Candidates returns the capability's candidates in ascending priority
// order. The returned slice is shared and must not be modified.
func (r *Registry) Candidates(id sapi.CapabilityID) ([]sapi.Candidate, error) {
	candidates, ok := r.capabilities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sapi.ErrUnknownCapability, id)
	}

	return candidates, nil
}

// Has reports whether the capability is registered.
func (r *Registry) Has(id sapi.CapabilityID) bool {
	_, ok := r.capabilities[id]

	return ok
}

// IDs returns all registered capability ids in lexical order.
func (r *Registry) IDs() []sapi.CapabilityID {
	ids := make([]sapi.CapabilityID, 0, len(r.capabilities))
	for id := range r.capabilities {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

func validateCandidate(id sapi.CapabilityID, candidate sapi.Candidate) error {
	placeholders := sapi.TemplatePlaceholders(candidate.Template)

	declared := make(map[string]bool, len(candidate.Params))
	for _, name := range candidate.Params {
		declared[name] = true
	}

	// A template may repeat a placeholder; compare names, not occurrences.
	unique := make(map[string]bool, len(placeholders))

	for _, name := range placeholders {
		if !declared[name] {
			return fmt.Errorf("%w: %s not declared for %s candidate %s",
				sapi.ErrMissingPathParam, name, id, candidate.Version)
		}

		unique[name] = true
	}

	if len(unique) != len(declared) {
		return fmt.Errorf("%w: parameter list does not match template of %s candidate %s",
			sapi.ErrUnexpandedPlaceholder, id, candidate.Version)
	}

	// A template with placeholders has no representative values at probe
	// time, so such candidates must name an explicit probe path.
	if len(placeholders) > 0 && candidate.ProbePath == "" {
		return fmt.Errorf("%w: %s candidate %s", sapi.ErrCandidateNeedsProbePath, id, candidate.Version)
	}

	return nil
}

// probeLimitQuery keeps list-endpoint probes cheap on the backend.
func probeLimitQuery() url.Values {
	return url.Values{"limit": []string{strconv.Itoa(constants.ProbePageSize)}}
}

// DefaultRegistry builds the registry of known backend endpoint patterns
// across the v0/v1/v2 generations.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	emptyBody := map[string]interface{}{}

	mustRegister(registry, sapi.CapabilityAuthValidate,
		sapi.Candidate{Version: "v1", Method: "GET", Template: "/api/v1/auth/isauth", Priority: 1},
		sapi.Candidate{Version: "v0", Method: "GET", Template: "/auth/isauth", Priority: 2},
		sapi.Candidate{Version: "v2", Method: "GET", Template: "/api/v2/auth/isauth", Priority: 3},
	)

	mustRegister(registry, sapi.CapabilityDataModelsList,
		sapi.Candidate{Version: "v2", Method: "GET", Template: "/api/v2/datamodels", Priority: 1, ProbeQuery: probeLimitQuery()},
		sapi.Candidate{Version: "v1", Method: "GET", Template: "/api/v1/elasticubes/getElasticubes", Priority: 2},
		sapi.Candidate{Version: "v0", Method: "GET", Template: "/elasticubes/getElasticubes", Priority: 3},
	)

	mustRegister(registry, sapi.CapabilityDataModelsGet,
		sapi.Candidate{
			Version: "v2", Method: "GET", Template: "/api/v2/datamodels/{model}",
			Params: []string{"model"}, Priority: 1,
			ProbePath: "/api/v2/datamodels", ProbeQuery: probeLimitQuery(),
		},
	)

	mustRegister(registry, sapi.CapabilityDataModelsSchema,
		sapi.Candidate{
			Version: "v2", Method: "GET", Template: "/api/v2/datamodels/{model}/schema",
			Params: []string{"model"}, Priority: 1,
			ProbePath: "/api/v2/datamodels", ProbeQuery: probeLimitQuery(),
		},
	)

	mustRegister(registry, sapi.CapabilityDashboardsList,
		sapi.Candidate{Version: "v1", Method: "GET", Template: "/api/v1/dashboards", Priority: 1},
	)

	mustRegister(registry, sapi.CapabilityDashboardsGet,
		sapi.Candidate{
			Version: "v1", Method: "GET", Template: "/api/v1/dashboards/{dashboard}",
			Params: []string{"dashboard"}, Priority: 1,
			ProbePath: "/api/v1/dashboards",
		},
	)

	mustRegister(registry, sapi.CapabilityWidgetsList,
		sapi.Candidate{
			Version: "v1", Method: "GET", Template: "/api/v1/dashboards/{dashboard}/widgets",
			Params: []string{"dashboard"}, Priority: 1,
			ProbePath: "/api/v1/dashboards",
		},
	)

	mustRegister(registry, sapi.CapabilityWidgetsGet,
		sapi.Candidate{
			Version: "v1", Method: "GET", Template: "/api/v1/dashboards/{dashboard}/widgets/{widget}",
			Params: []string{"dashboard", "widget"}, Priority: 1,
			ProbePath: "/api/v1/dashboards",
		},
	)

	mustRegister(registry, sapi.CapabilityConnectionsList,
		sapi.Candidate{Version: "v2", Method: "GET", Template: "/api/v2/connections", Priority: 1, ProbeQuery: probeLimitQuery()},
	)

	mustRegister(registry, sapi.CapabilityConnectionsGet,
		sapi.Candidate{
			Version: "v2", Method: "GET", Template: "/api/v2/connections/{connection}",
			Params: []string{"connection"}, Priority: 1,
			ProbePath: "/api/v2/connections", ProbeQuery: probeLimitQuery(),
		},
	)

	mustRegister(registry, sapi.CapabilityConnectionsTest,
		sapi.Candidate{
			Version: "v2", Method: "POST", Template: "/api/v2/connections/{connection}/test",
			Params: []string{"connection"}, Priority: 1,
			ProbePath: "/api/v2/connections", ProbeQuery: probeLimitQuery(),
		},
	)

	mustRegister(registry, sapi.CapabilityConnectionsSchema,
		sapi.Candidate{
			Version: "v2", Method: "GET", Template: "/api/v2/connections/{connection}/schema",
			Params: []string{"connection"}, Priority: 1,
			ProbePath: "/api/v2/connections", ProbeQuery: probeLimitQuery(),
		},
	)

	mustRegister(registry, sapi.CapabilityQueryJAQL,
		sapi.Candidate{Version: "v1", Method: "POST", Template: "/api/v1/query", Priority: 1, ProbeBody: emptyBody},
		sapi.Candidate{
			Version: "v0", Method: "POST", Template: "/api/datasources/{datasource}/jaql",
			Params: []string{"datasource"}, Priority: 2,
			ProbePath: "/api/datasources", ProbeBody: emptyBody,
		},
	)

	mustRegister(registry, sapi.CapabilityQuerySQL,
		sapi.Candidate{
			Version: "v1", Method: "GET", Template: "/api/v1/datasources/{datasource}/sql",
			Params: []string{"datasource"}, Priority: 1,
			ProbePath: "/api/v1/datasources",
		},
		sapi.Candidate{
			Version: "v0", Method: "GET", Template: "/api/datasources/{datasource}/sql",
			Params: []string{"datasource"}, Priority: 2,
			ProbePath: "/api/datasources",
		},
	)

	return registry
}

// mustRegister panics on registration errors; DefaultRegistry entries are
// static and validated by tests.
func mustRegister(registry *Registry, id sapi.CapabilityID, candidates ...sapi.Candidate) {
	err := registry.Register(id, candidates...)
	if err != nil {
		panic(err)
	}
}
