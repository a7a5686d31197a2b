package capability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	internalhttp "github.com/senseware-io/sapi/internal/http"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// Router is the engine's public entry point: it resolves a capability
// through the cache (detecting on miss or expiry), executes the real
// request through the resolved candidate, and recovers once from
// deployment drift.
type Router struct {
	registry  *Registry
	detector  *Detector
	cache     *Cache
	transport *internalhttp.Client
}

// NewRouter creates a router. The transport is the real-call transport
// and may carry its own retry configuration; probe traffic goes through
// the detector's prober instead.
func NewRouter(registry *Registry, detector *Detector, cache *Cache, transport *internalhttp.Client) *Router {
	return &Router{
		registry:  registry,
		detector:  detector,
		cache:     cache,
		transport: transport,
	}
}

// driftError marks a 404/410 from a candidate that previously resolved as
// available: the deployment changed underneath the client. Internal to the
// router; callers only ever see the wrapped TransportError.
type driftError struct {
	cause *sapi.TransportError
}

func (e *driftError) Error() string {
	return fmt.Sprintf("resolved candidate vanished: %v", e.cause)
}

func (e *driftError) Unwrap() error {
	return e.cause
}

// Call routes one capability invocation. On a runtime 404/410 from a
// previously resolved candidate it invalidates the resolution and re-runs
// detection exactly once before surfacing a final error; transient
// real-call failures propagate as TransportError without touching the
// cache, so they cannot poison a working resolution.
func (r *Router) Call(ctx context.Context, id sapi.CapabilityID, params *sapi.CallParams) (*sapi.Response, error) {
	if params == nil {
		params = &sapi.CallParams{}
	}

	resolution, err := r.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := r.execute(ctx, id, resolution, params)

	drift := &driftError{}
	if err == nil || !errors.As(err, &drift) {
		return resp, err
	}

	// The backend's endpoint surface changed underneath us (e.g. a hot
	// upgrade). Re-detect once; a second miss is surfaced as-is.
	r.cache.Invalidate(id)

	resolution, err = r.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err = r.execute(ctx, id, resolution, params)
	if err != nil && errors.As(err, &drift) {
		return nil, drift.cause
	}

	return resp, err
}

// Resolve returns the capability's current resolution, detecting if the
// cache has no live entry.
func (r *Router) Resolve(ctx context.Context, id sapi.CapabilityID) (sapi.Resolution, error) {
	return r.resolve(ctx, id)
}

// Capabilities returns the diagnostics report for every registered
// capability. Unprobed capabilities are reported as such; no probes are
// issued.
func (r *Router) Capabilities() map[sapi.CapabilityID]sapi.ResolutionSummary {
	report := make(map[sapi.CapabilityID]sapi.ResolutionSummary)

	for _, id := range r.registry.IDs() {
		if resolution, ok := r.cache.Get(id); ok {
			report[id] = resolution.Summary()

			continue
		}

		report[id] = sapi.ResolutionSummary{
			Capability: id,
			State:      sapi.ResolutionUnprobed,
		}
	}

	return report
}

// DetectAll resolves every registered capability, running detection where
// no live resolution exists. Ambiguous detections do not abort the sweep;
// the capability stays unprobed and its attempt trail is reported.
func (r *Router) DetectAll(ctx context.Context) (map[sapi.CapabilityID]sapi.ResolutionSummary, error) {
	report := make(map[sapi.CapabilityID]sapi.ResolutionSummary)

	for _, id := range r.registry.IDs() {
		resolution, err := r.resolve(ctx, id)
		if err != nil {
			exhausted := &sapi.DetectionExhaustedError{}
			if errors.As(err, &exhausted) {
				report[id] = sapi.ResolutionSummary{
					Capability: id,
					State:      sapi.ResolutionUnprobed,
					Attempts:   exhausted.Attempts,
				}

				continue
			}

			return nil, err
		}

		report[id] = resolution.Summary()
	}

	return report, nil
}

// Invalidate forces re-detection of one capability on its next call.
func (r *Router) Invalidate(id sapi.CapabilityID) {
	r.cache.Invalidate(id)
}

// InvalidateAll forces re-detection of every capability.
func (r *Router) InvalidateAll() {
	r.cache.InvalidateAll()
}

func (r *Router) resolve(ctx context.Context, id sapi.CapabilityID) (sapi.Resolution, error) {
	if resolution, ok := r.cache.Get(id); ok {
		return resolution, nil
	}

	return r.detector.Detect(ctx, id)
}

// execute performs the real request through a resolution. Terminal
// resolution states fail immediately without any network traffic.
func (r *Router) execute(ctx context.Context, id sapi.CapabilityID, resolution sapi.Resolution, params *sapi.CallParams) (*sapi.Response, error) {
	switch resolution.State {
	case sapi.ResolutionUnsupported:
		return nil, &sapi.UnsupportedCapabilityError{
			Capability: id,
			Attempts:   resolution.Attempts,
		}

	case sapi.ResolutionAuthBlocked:
		return nil, &sapi.AuthenticationRejectedError{
			Capability: id,
			Version:    lastAttemptVersion(resolution.Attempts),
			StatusCode: lastAttemptStatus(resolution.Attempts),
		}

	case sapi.ResolutionResolved, sapi.ResolutionUnprobed:
		// Resolved proceeds below; unprobed cannot come out of resolve.
	}

	candidate := resolution.Candidate

	path, err := candidate.Expand(params.Path)
	if err != nil {
		return nil, err
	}

	resp, err := r.transport.Do(ctx, &internalhttp.Request{
		Method: candidate.Method,
		Path:   path,
		Query:  params.Query,
		Body:   params.Body,
	})
	if err != nil {
		return nil, &sapi.TransportError{
			Capability: id,
			Version:    candidate.Version,
			Path:       path,
			Err:        err,
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &sapi.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
			APIVersion: candidate.Version,
		}, nil

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, &driftError{cause: &sapi.TransportError{
			Capability: id,
			Version:    candidate.Version,
			Path:       path,
			StatusCode: resp.StatusCode,
		}}

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &sapi.AuthenticationRejectedError{
			Capability: id,
			Version:    candidate.Version,
			StatusCode: resp.StatusCode,
		}

	default:
		return nil, &sapi.TransportError{
			Capability: id,
			Version:    candidate.Version,
			Path:       path,
			StatusCode: resp.StatusCode,
		}
	}
}

func lastAttemptVersion(attempts []sapi.Attempt) string {
	if len(attempts) == 0 {
		return ""
	}

	return attempts[len(attempts)-1].Version
}

func lastAttemptStatus(attempts []sapi.Attempt) int {
	if len(attempts) == 0 {
		return 0
	}

	return attempts[len(attempts)-1].StatusCode
}
