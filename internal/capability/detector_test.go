package capability_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/senseware-io/sapi/internal/capability"
	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProber replays a fixed outcome sequence per candidate version.
// The last outcome in a sequence repeats once exhausted.
type scriptedProber struct {
	outcomes map[string][]sapi.ProbeOutcome
	statuses map[string]int
	probed   []string
}

func (p *scriptedProber) Probe(_ context.Context, candidate sapi.Candidate) sapi.Attempt {
	p.probed = append(p.probed, candidate.Version)

	sequence := p.outcomes[candidate.Version]

	var outcome sapi.ProbeOutcome

	seen := 0
	for _, version := range p.probed {
		if version == candidate.Version {
			seen++
		}
	}

	if seen <= len(sequence) {
		outcome = sequence[seen-1]
	} else {
		outcome = sequence[len(sequence)-1]
	}

	return sapi.Attempt{
		Version:    candidate.Version,
		Method:     candidate.Method,
		Path:       candidate.ProbeTarget(),
		Outcome:    outcome,
		StatusCode: p.statuses[candidate.Version],
	}
}

func thingsRegistry(t *testing.T) *capability.Registry {
	t.Helper()

	registry := capability.NewRegistry()

	err := registry.Register("things.list",
		sapi.Candidate{Version: "v2", Method: "GET", Template: "/api/v2/things", Priority: 1},
		sapi.Candidate{Version: "v1", Method: "GET", Template: "/api/v1/things", Priority: 2},
		sapi.Candidate{Version: "v0", Method: "GET", Template: "/things", Priority: 3},
	)
	require.NoError(t, err)

	return registry
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestDetector_Detect(t *testing.T) {
	t.Parallel()
	t.Run("first available candidate wins and stops probing", func(t *testing.T) {
		t.Parallel()

		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)
		defer cache.Stop()

		prober := &scriptedProber{
			outcomes: map[string][]sapi.ProbeOutcome{
				"v2": {sapi.OutcomeUnavailable},
				"v1": {sapi.OutcomeAvailable},
				"v0": {sapi.OutcomeAvailable},
			},
			statuses: map[string]int{"v2": http.StatusNotFound, "v1": http.StatusOK, "v0": http.StatusOK},
		}
		detector := capability.NewDetector(registry, prober, cache)

		resolution, err := detector.Detect(context.Background(), "things.list")
		require.NoError(t, err)

		assert.Equal(t, sapi.ResolutionResolved, resolution.State)
		require.NotNil(t, resolution.Candidate)
		assert.Equal(t, "v1", resolution.Candidate.Version)

		// v0 ranks below the winner and must never be probed.
		assert.Equal(t, []string{"v2", "v1"}, prober.probed)
		require.Len(t, resolution.Attempts, 2)
		assert.Equal(t, sapi.OutcomeUnavailable, resolution.Attempts[0].Outcome)
		assert.Equal(t, sapi.OutcomeAvailable, resolution.Attempts[1].Outcome)

		cached, ok := cache.Get("things.list")
		require.True(t, ok)
		assert.Equal(t, sapi.ResolutionResolved, cached.State)
	})

	t.Run("auth failure short-circuits detection", func(t *testing.T) {
		t.Parallel()

		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)
		defer cache.Stop()

		prober := &scriptedProber{
			outcomes: map[string][]sapi.ProbeOutcome{
				"v2": {sapi.OutcomeAuthFailure},
			},
			statuses: map[string]int{"v2": http.StatusUnauthorized},
		}
		detector := capability.NewDetector(registry, prober, cache)

		resolution, err := detector.Detect(context.Background(), "things.list")
		require.NoError(t, err)

		assert.Equal(t, sapi.ResolutionAuthBlocked, resolution.State)
		assert.Nil(t, resolution.Candidate)
		assert.Equal(t, []string{"v2"}, prober.probed, "remaining candidates must not be probed")

		cached, ok := cache.Get("things.list")
		require.True(t, ok)
		assert.Equal(t, sapi.ResolutionAuthBlocked, cached.State)
	})

	t.Run("all unavailable yields unsupported with full attempt trail", func(t *testing.T) {
		t.Parallel()

		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)
		defer cache.Stop()

		prober := &scriptedProber{
			outcomes: map[string][]sapi.ProbeOutcome{
				"v2": {sapi.OutcomeUnavailable},
				"v1": {sapi.OutcomeUnavailable},
				"v0": {sapi.OutcomeUnavailable},
			},
			statuses: map[string]int{"v2": http.StatusNotFound, "v1": http.StatusGone, "v0": http.StatusNotFound},
		}
		detector := capability.NewDetector(registry, prober, cache)

		resolution, err := detector.Detect(context.Background(), "things.list")
		require.NoError(t, err)

		assert.Equal(t, sapi.ResolutionUnsupported, resolution.State)
		assert.Len(t, resolution.Attempts, 3)

		cached, ok := cache.Get("things.list")
		require.True(t, ok)
		assert.Equal(t, sapi.ResolutionUnsupported, cached.State)
	})

	t.Run("indeterminate resolves on a retry", func(t *testing.T) {
		t.Parallel()

		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)
		defer cache.Stop()

		prober := &scriptedProber{
			outcomes: map[string][]sapi.ProbeOutcome{
				"v2": {sapi.OutcomeIndeterminate, sapi.OutcomeAvailable},
			},
			statuses: map[string]int{"v2": http.StatusOK},
		}
		detector := capability.NewDetector(registry, prober, cache)

		resolution, err := detector.Detect(context.Background(), "things.list")
		require.NoError(t, err)

		assert.Equal(t, sapi.ResolutionResolved, resolution.State)
		assert.Equal(t, []string{"v2", "v2"}, prober.probed)
	})

	t.Run("persistent indeterminate exhausts detection and caches nothing", func(t *testing.T) {
		t.Parallel()

		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)
		defer cache.Stop()

		prober := &scriptedProber{
			outcomes: map[string][]sapi.ProbeOutcome{
				"v2": {sapi.OutcomeIndeterminate},
				"v1": {sapi.OutcomeUnavailable},
				"v0": {sapi.OutcomeUnavailable},
			},
		}
		detector := capability.NewDetector(registry, prober, cache)

		_, err := detector.Detect(context.Background(), "things.list")
		require.Error(t, err)
		assert.True(t, sapi.IsDetectionExhausted(err))

		exhausted := &sapi.DetectionExhaustedError{}
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, sapi.CapabilityID("things.list"), exhausted.Capability)

		// Flakiness is not absence. The verdict must not stick.
		_, ok := cache.Get("things.list")
		assert.False(t, ok)

		// Indeterminate probes retry up to the bound before moving on.
		retries := 0
		for _, version := range prober.probed {
			if version == "v2" {
				retries++
			}
		}
		assert.Equal(t, 3, retries)
	})

	t.Run("unknown capability fails without probing", func(t *testing.T) {
		t.Parallel()

		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)
		defer cache.Stop()

		prober := &scriptedProber{outcomes: map[string][]sapi.ProbeOutcome{}}
		detector := capability.NewDetector(registry, prober, cache)

		_, err := detector.Detect(context.Background(), "no.such.capability")
		require.ErrorIs(t, err, sapi.ErrUnknownCapability)
		assert.Empty(t, prober.probed)
	})

	t.Run("cancelled context aborts detection", func(t *testing.T) {
		t.Parallel()

		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)
		defer cache.Stop()

		prober := &scriptedProber{
			outcomes: map[string][]sapi.ProbeOutcome{
				"v2": {sapi.OutcomeUnavailable},
			},
		}
		detector := capability.NewDetector(registry, prober, cache)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := detector.Detect(ctx, "things.list")
		require.ErrorIs(t, err, context.Canceled)

		_, ok := cache.Get("things.list")
		assert.False(t, ok, "a cancelled detection must not leave a verdict behind")
	})
}

func TestDetector_Determinism(t *testing.T) {
	t.Parallel()

	// Identical probe outcomes must always produce identical resolutions.
	for range 5 {
		registry := thingsRegistry(t)
		cache := capability.NewCache(time.Hour, time.Minute)

		prober := &scriptedProber{
			outcomes: map[string][]sapi.ProbeOutcome{
				"v2": {sapi.OutcomeUnavailable},
				"v1": {sapi.OutcomeAvailable},
			},
		}
		detector := capability.NewDetector(registry, prober, cache)

		resolution, err := detector.Detect(context.Background(), "things.list")
		require.NoError(t, err)
		require.NotNil(t, resolution.Candidate)
		assert.Equal(t, "v1", resolution.Candidate.Version)
		assert.Equal(t, []string{"v2", "v1"}, prober.probed)

		cache.Stop()
	}
}
