package sapi

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// CapabilityID names a logical operation against the backend, independent
// of which concrete endpoint serves it. IDs are stable across deployments
// and never change at runtime.
type CapabilityID string

// Capability identifiers understood by the default registry.
const (
	CapabilityAuthValidate      CapabilityID = "auth.validate"
	CapabilityDataModelsList    CapabilityID = "datamodels.list"
	CapabilityDataModelsGet     CapabilityID = "datamodels.get"
	CapabilityDataModelsSchema  CapabilityID = "datamodels.schema"
	CapabilityDashboardsList    CapabilityID = "dashboards.list"
	CapabilityDashboardsGet     CapabilityID = "dashboards.get"
	CapabilityWidgetsList       CapabilityID = "widgets.list"
	CapabilityWidgetsGet        CapabilityID = "widgets.get"
	CapabilityConnectionsList   CapabilityID = "connections.list"
	CapabilityConnectionsGet    CapabilityID = "connections.get"
	CapabilityConnectionsTest   CapabilityID = "connections.test"
	CapabilityConnectionsSchema CapabilityID = "connections.schema"
	CapabilityQueryJAQL         CapabilityID = "query.jaql"
	CapabilityQuerySQL          CapabilityID = "query.sql"
)

// ProbeOutcome classifies the result of probing one candidate endpoint.
type ProbeOutcome string

const (
	// OutcomeAvailable means the endpoint exists and accepted (or at least
	// recognized) the probe request.
	OutcomeAvailable ProbeOutcome = "available"

	// OutcomeUnavailable means the endpoint does not exist in this
	// deployment (404/410/501).
	OutcomeUnavailable ProbeOutcome = "unavailable"

	// OutcomeAuthFailure means the endpoint may exist but the shared
	// credentials were rejected (401/403). Detection short-circuits on this
	// outcome since every candidate uses the same credentials.
	OutcomeAuthFailure ProbeOutcome = "auth-failure"

	// OutcomeIndeterminate covers transient conditions (timeout, connection
	// error, 429, 5xx). Never cached as a terminal verdict.
	OutcomeIndeterminate ProbeOutcome = "indeterminate"
)

// Candidate is one concrete endpoint pattern that might implement a
// capability in some backend generation. Candidates are immutable after
// registry construction.
type Candidate struct {
	// Version is the API generation tag ("v0", "v1", "v2").
	Version string `json:"version" yaml:"version"`

	// Method is the HTTP method for both probe and real calls.
	Method string `json:"method" yaml:"method"`

	// Template is the URL path template with named {placeholder} segments.
	Template string `json:"template" yaml:"template"`

	// Params lists the placeholder names the template requires.
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`

	// Priority orders candidates within a capability; lower is tried first.
	Priority int `json:"priority" yaml:"priority"`

	// ProbePath overrides the path used when probing. Templates with
	// placeholders must set it, since no representative parameter values
	// exist at probe time. Empty means probe the template itself.
	ProbePath string `json:"probe_path,omitempty" yaml:"probe_path,omitempty"`

	// ProbeQuery is appended to the probe request (e.g. limit=1) to keep
	// probes cheap on the backend.
	ProbeQuery url.Values `json:"-" yaml:"-"`

	// ProbeBody is the minimal payload sent with POST probes.
	ProbeBody interface{} `json:"-" yaml:"-"`
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Expand substitutes params into the candidate's URL template. Every
// required parameter must be present; leftover placeholders and unknown
// parameters are typed validation failures rather than malformed URLs at
// request time.
func (c Candidate) Expand(params map[string]string) (string, error) {
	path := c.Template

	for _, name := range c.Params {
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %s in %s", ErrMissingPathParam, name, c.Template)
		}

		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	// Callers pass one parameter set for the whole capability; candidates of
	// other generations may use a subset, so extra parameters are not an
	// error. A placeholder left in the path after substitution is.
	if match := placeholderPattern.FindString(path); match != "" {
		return "", fmt.Errorf("%w: %s in %s", ErrUnexpandedPlaceholder, match, c.Template)
	}

	return path, nil
}

// TemplatePlaceholders returns the placeholder names appearing in a URL
// template, in order of appearance.
func TemplatePlaceholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match[1])
	}

	return names
}

// ProbeTarget returns the path probed for this candidate.
func (c Candidate) ProbeTarget() string {
	if c.ProbePath != "" {
		return c.ProbePath
	}

	return c.Template
}

// ResolutionState describes what the detector concluded for a capability.
type ResolutionState string

const (
	// ResolutionUnprobed means no detection has run (or the previous
	// resolution expired).
	ResolutionUnprobed ResolutionState = "unprobed"

	// ResolutionResolved means a candidate answered the probe and serves
	// the capability.
	ResolutionResolved ResolutionState = "resolved"

	// ResolutionUnsupported means every candidate was genuinely absent.
	ResolutionUnsupported ResolutionState = "unsupported"

	// ResolutionAuthBlocked means a probe hit 401/403; the capability may
	// exist but credentials were rejected. Cached only briefly so refreshed
	// credentials take effect quickly.
	ResolutionAuthBlocked ResolutionState = "auth-blocked"
)

// Attempt records one candidate probe and its classification, kept so
// operators can distinguish "the backend lacks the feature" from "our
// candidate list is wrong" without re-running diagnostics.
type Attempt struct {
	Version    string       `json:"version"               yaml:"version"`
	Method     string       `json:"method"                yaml:"method"`
	Path       string       `json:"path"                  yaml:"path"`
	Outcome    ProbeOutcome `json:"outcome"               yaml:"outcome"`
	StatusCode int          `json:"status_code,omitempty" yaml:"status_code,omitempty"`
}

func (a Attempt) String() string {
	if a.StatusCode > 0 {
		return fmt.Sprintf("%s %s %s: %s (%d)", a.Version, a.Method, a.Path, a.Outcome, a.StatusCode)
	}

	return fmt.Sprintf("%s %s %s: %s", a.Version, a.Method, a.Path, a.Outcome)
}

// Resolution is the cached decision of which candidate (if any) currently
// serves a capability. Resolutions are written whole and never mutated in
// place; the router asks the cache to replace them.
type Resolution struct {
	Capability CapabilityID    `json:"capability"          yaml:"capability"`
	State      ResolutionState `json:"state"               yaml:"state"`
	Candidate  *Candidate      `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Attempts   []Attempt       `json:"attempts,omitempty"  yaml:"attempts,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at"         yaml:"resolved_at"`
}

// Summary converts a resolution into its diagnostics form.
func (r Resolution) Summary() ResolutionSummary {
	summary := ResolutionSummary{
		Capability: r.Capability,
		State:      r.State,
		Attempts:   r.Attempts,
		ResolvedAt: r.ResolvedAt,
	}

	if r.Candidate != nil {
		summary.Version = r.Candidate.Version
		summary.Endpoint = r.Candidate.Template
	}

	return summary
}

// ResolutionSummary is the per-capability entry of the system capabilities
// report returned by Client.Capabilities.
type ResolutionSummary struct {
	Capability CapabilityID    `json:"capability"            yaml:"capability"`
	State      ResolutionState `json:"state"                 yaml:"state"`
	Version    string          `json:"version,omitempty"     yaml:"version,omitempty"`
	Endpoint   string          `json:"endpoint,omitempty"    yaml:"endpoint,omitempty"`
	Attempts   []Attempt       `json:"attempts,omitempty"    yaml:"attempts,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
}

// CallParams carries the parameters of one routed call. Path entries fill
// the resolved candidate's template placeholders; Query and Body pass
// through to the real request.
type CallParams struct {
	Path  map[string]string
	Query url.Values
	Body  interface{}
}
