package capability

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/senseware-io/sapi/internal/constants"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// errProbeIndeterminate drives the backoff loop; it never escapes the
// detector.
var errProbeIndeterminate = errors.New("probe outcome indeterminate")

// Detector orchestrates the prober across a capability's candidate list.
// Candidates are tried strictly in ascending priority order, never in
// parallel: the auth short-circuit depends on sequential evaluation.
type Detector struct {
	registry *Registry
	prober   Prober
	cache    *Cache

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// NewDetector creates a detector over the given registry, prober, and
// cache.
func NewDetector(registry *Registry, prober Prober, cache *Cache) *Detector {
	return &Detector{
		registry:     registry,
		prober:       prober,
		cache:        cache,
		retryMax:     constants.ProbeRetryMax,
		retryWaitMin: constants.ProbeRetryWaitMin,
		retryWaitMax: constants.ProbeRetryWaitMax,
	}
}

// Detect probes the capability's candidates and produces a resolution.
//
// Verdicts and caching:
//   - first available candidate resolves the capability (cached, full TTL)
//   - an auth failure stops detection immediately and yields an
//     auth-blocked resolution (cached with the short TTL)
//   - all candidates genuinely unavailable yields unsupported (cached,
//     full TTL)
//   - any candidate still indeterminate after bounded retries, with no
//     available candidate, yields DetectionExhaustedError and caches
//     nothing: the condition may be infrastructure flakiness, not absence,
//     so the next call re-detects
//
// Given a fixed sequence of probe outcomes, Detect always produces the
// same resolution.
func (d *Detector) Detect(ctx context.Context, id sapi.CapabilityID) (sapi.Resolution, error) {
	candidates, err := d.registry.Candidates(id)
	if err != nil {
		return sapi.Resolution{}, err
	}

	attempts := make([]sapi.Attempt, 0, len(candidates))
	sawIndeterminate := false

	for i := range candidates {
		// A cancelled caller must not leave a partial verdict behind.
		if ctx.Err() != nil {
			return sapi.Resolution{}, ctx.Err()
		}

		candidate := candidates[i]
		attempt := d.probeWithRetry(ctx, candidate)
		attempts = append(attempts, attempt)

		switch attempt.Outcome {
		case sapi.OutcomeAvailable:
			resolution := sapi.Resolution{
				Capability: id,
				State:      sapi.ResolutionResolved,
				Candidate:  &candidate,
				Attempts:   attempts,
				ResolvedAt: time.Now(),
			}
			d.cache.Put(resolution)

			return resolution, nil

		case sapi.OutcomeAuthFailure:
			resolution := sapi.Resolution{
				Capability: id,
				State:      sapi.ResolutionAuthBlocked,
				Attempts:   attempts,
				ResolvedAt: time.Now(),
			}
			d.cache.Put(resolution)

			return resolution, nil

		case sapi.OutcomeIndeterminate:
			sawIndeterminate = true

		case sapi.OutcomeUnavailable:
			// Try the next candidate.
		}
	}

	if ctx.Err() != nil {
		return sapi.Resolution{}, ctx.Err()
	}

	if sawIndeterminate {
		return sapi.Resolution{}, &sapi.DetectionExhaustedError{
			Capability: id,
			Attempts:   attempts,
		}
	}

	resolution := sapi.Resolution{
		Capability: id,
		State:      sapi.ResolutionUnsupported,
		Attempts:   attempts,
		ResolvedAt: time.Now(),
	}
	d.cache.Put(resolution)

	return resolution, nil
}

// probeWithRetry probes one candidate, retrying indeterminate outcomes up
// to the configured bound with exponential backoff. Any other outcome
// returns immediately. If the bound is exhausted the last indeterminate
// attempt is returned; the caller decides what that means.
func (d *Detector) probeWithRetry(ctx context.Context, candidate sapi.Candidate) sapi.Attempt {
	var lastAttempt sapi.Attempt

	operation := func() (sapi.Attempt, error) {
		lastAttempt = d.prober.Probe(ctx, candidate)
		if lastAttempt.Outcome == sapi.OutcomeIndeterminate && ctx.Err() == nil {
			return lastAttempt, errProbeIndeterminate
		}

		return lastAttempt, nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = d.retryWaitMin
	expBackoff.MaxInterval = d.retryWaitMax

	attempt, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(d.retryMax)+1),
	)
	if err != nil {
		return lastAttempt
	}

	return attempt
}
