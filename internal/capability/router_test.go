package capability_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/senseware-io/sapi/internal/capability"
	internalhttp "github.com/senseware-io/sapi/internal/http"
	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires a router, detector, and cache against one HTTP
// server, sharing a single transport for probes and real calls.
func newTestRouter(t *testing.T, registry *capability.Registry, serverURL string) (*capability.Router, *capability.Cache) {
	t.Helper()

	transport := internalhttp.NewClient(serverURL, nil)
	cache := capability.NewCache(time.Hour, time.Minute)
	t.Cleanup(cache.Stop)

	prober := capability.NewHTTPProber(transport, time.Second)
	detector := capability.NewDetector(registry, prober, cache)

	return capability.NewRouter(registry, detector, cache, transport), cache
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestRouter_Call(t *testing.T) {
	t.Parallel()
	t.Run("detects and routes through the first available candidate", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)

			switch request.URL.Path {
			case "/api/v1/things":
				_ = json.NewEncoder(writer).Encode([]map[string]string{{"oid": "t1"}})
			default:
				writer.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		router, _ := newTestRouter(t, thingsRegistry(t), server.URL)

		resp, err := router.Call(context.Background(), "things.list", nil)
		require.NoError(t, err)
		assert.Equal(t, "v1", resp.APIVersion)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(resp.Body), "t1")

		// Two probes (v2 missed, v1 hit) plus the real call.
		assert.Equal(t, int32(3), hits.Load())

		// A second call reuses the cached resolution: exactly one more hit.
		_, err = router.Call(context.Background(), "things.list", nil)
		require.NoError(t, err)
		assert.Equal(t, int32(4), hits.Load())
	})

	t.Run("unsupported capability fails fast once cached", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			writer.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		router, _ := newTestRouter(t, thingsRegistry(t), server.URL)

		_, err := router.Call(context.Background(), "things.list", nil)
		require.Error(t, err)
		require.True(t, sapi.IsUnsupportedCapability(err))

		unsupported := &sapi.UnsupportedCapabilityError{}
		require.ErrorAs(t, err, &unsupported)
		assert.Len(t, unsupported.Attempts, 3, "error must list every candidate tried")

		probesAfterDetection := hits.Load()

		// The verdict is cached: repeat calls issue no probes at all.
		_, err = router.Call(context.Background(), "things.list", nil)
		require.True(t, sapi.IsUnsupportedCapability(err))
		assert.Equal(t, probesAfterDetection, hits.Load())
	})

	t.Run("auth failure during detection blocks the capability", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		router, _ := newTestRouter(t, thingsRegistry(t), server.URL)

		_, err := router.Call(context.Background(), "things.list", nil)
		require.Error(t, err)
		require.True(t, sapi.IsAuthenticationRejected(err))

		rejected := &sapi.AuthenticationRejectedError{}
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	})

	t.Run("auth failure on a real call does not poison the resolution", func(t *testing.T) {
		t.Parallel()

		var token atomic.Bool

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/api/v2/things" {
				writer.WriteHeader(http.StatusNotFound)

				return
			}

			if request.URL.Query().Get("limit") == "1" || token.Load() {
				_ = json.NewEncoder(writer).Encode(map[string]interface{}{"data": []string{}})

				return
			}

			writer.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		registry := capability.NewRegistry()
		require.NoError(t, registry.Register("things.list",
			sapi.Candidate{
				Version: "v2", Method: "GET", Template: "/api/v2/things", Priority: 1,
				ProbeQuery: url.Values{"limit": []string{"1"}},
			},
		))

		router, cache := newTestRouter(t, registry, server.URL)

		_, err := router.Call(context.Background(), "things.list", nil)
		require.True(t, sapi.IsAuthenticationRejected(err))

		cached, ok := cache.Get("things.list")
		require.True(t, ok)
		assert.Equal(t, sapi.ResolutionResolved, cached.State)

		// With valid credentials the cached resolution works untouched.
		token.Store(true)

		resp, err := router.Call(context.Background(), "things.list", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("server error on a real call surfaces as transport error", func(t *testing.T) {
		t.Parallel()

		var failing atomic.Bool

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/api/v1/things" {
				writer.WriteHeader(http.StatusNotFound)

				return
			}

			if failing.Load() {
				writer.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		router, cache := newTestRouter(t, thingsRegistry(t), server.URL)

		_, err := router.Call(context.Background(), "things.list", nil)
		require.NoError(t, err)

		failing.Store(true)

		_, err = router.Call(context.Background(), "things.list", nil)
		require.True(t, sapi.IsTransportError(err))

		transportErr := &sapi.TransportError{}
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)

		// Transient failure must not evict the working resolution.
		cached, ok := cache.Get("things.list")
		require.True(t, ok)
		assert.Equal(t, sapi.ResolutionResolved, cached.State)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestRouter_DriftRecovery(t *testing.T) {
	t.Parallel()
	t.Run("re-detects once when the resolved endpoint vanishes", func(t *testing.T) {
		t.Parallel()

		// The backend starts on v2 and is hot-upgraded to serve only v1.
		var upgraded atomic.Bool

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			switch request.URL.Path {
			case "/api/v2/things":
				if upgraded.Load() {
					writer.WriteHeader(http.StatusNotFound)

					return
				}

				_ = json.NewEncoder(writer).Encode(map[string]interface{}{"data": []string{}})
			case "/api/v1/things":
				if !upgraded.Load() {
					writer.WriteHeader(http.StatusNotFound)

					return
				}

				_ = json.NewEncoder(writer).Encode([]string{})
			default:
				writer.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		router, _ := newTestRouter(t, thingsRegistry(t), server.URL)

		resp, err := router.Call(context.Background(), "things.list", nil)
		require.NoError(t, err)
		assert.Equal(t, "v2", resp.APIVersion)

		upgraded.Store(true)

		// The stale resolution 404s; the router re-detects within the same
		// call and lands on v1.
		resp, err = router.Call(context.Background(), "things.list", nil)
		require.NoError(t, err)
		assert.Equal(t, "v1", resp.APIVersion)
	})

	t.Run("second consecutive miss surfaces the transport error", func(t *testing.T) {
		t.Parallel()

		// Probing the collection succeeds but the item itself is gone, so
		// re-detection resolves the same candidate and the retry misses too.
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path == "/api/v1/things" {
				writer.WriteHeader(http.StatusOK)

				return
			}

			writer.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		registry := capability.NewRegistry()
		require.NoError(t, registry.Register("things.get",
			sapi.Candidate{
				Version: "v1", Method: "GET", Template: "/api/v1/things/{thing}",
				Params: []string{"thing"}, Priority: 1,
				ProbePath: "/api/v1/things",
			},
		))

		router, _ := newTestRouter(t, registry, server.URL)

		_, err := router.Call(context.Background(), "things.get", &sapi.CallParams{
			Path: map[string]string{"thing": "42"},
		})
		require.True(t, sapi.IsTransportError(err))

		transportErr := &sapi.TransportError{}
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
		assert.Equal(t, "/api/v1/things/42", transportErr.Path)
	})
}

func TestRouter_DetectAll(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/api/v1/things" {
			writer.WriteHeader(http.StatusOK)

			return
		}

		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	registry := capability.NewRegistry()
	require.NoError(t, registry.Register("things.list",
		sapi.Candidate{Version: "v1", Method: "GET", Template: "/api/v1/things", Priority: 1},
	))
	require.NoError(t, registry.Register("things.export",
		sapi.Candidate{Version: "v1", Method: "GET", Template: "/api/v1/things/export", Priority: 1},
	))

	router, _ := newTestRouter(t, registry, server.URL)

	report, err := router.DetectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, sapi.ResolutionResolved, report["things.list"].State)
	assert.Equal(t, "v1", report["things.list"].Version)
	assert.Equal(t, sapi.ResolutionUnsupported, report["things.export"].State)
}

func TestRouter_Capabilities(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/api/v2/things" {
			writer.WriteHeader(http.StatusOK)

			return
		}

		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	router, _ := newTestRouter(t, thingsRegistry(t), server.URL)

	// The report never triggers probes on its own.
	report := router.Capabilities()
	require.Contains(t, report, sapi.CapabilityID("things.list"))
	assert.Equal(t, sapi.ResolutionUnprobed, report["things.list"].State)

	_, err := router.Call(context.Background(), "things.list", nil)
	require.NoError(t, err)

	report = router.Capabilities()
	assert.Equal(t, sapi.ResolutionResolved, report["things.list"].State)
	assert.Equal(t, "v2", report["things.list"].Version)

	router.Invalidate("things.list")

	report = router.Capabilities()
	assert.Equal(t, sapi.ResolutionUnprobed, report["things.list"].State)
}
