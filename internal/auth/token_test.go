package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/senseware-io/sapi/internal/auth"
	internalhttp "github.com/senseware-io/sapi/internal/http"
	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTokenManager(t *testing.T) {
	t.Parallel()
	t.Run("returns configured token", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("my-token")

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "my-token", token)
	})

	t.Run("empty token is an error", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("")

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, sapi.ErrAPITokenRequired)
	})

	t.Run("cannot refresh", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("my-token")

		err := manager.RefreshToken(context.Background())
		require.ErrorIs(t, err, sapi.ErrStaticTokenCannotRefresh)
	})

	t.Run("set replaces token", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("old")
		manager.SetToken("new", time.Time{})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "new", token)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestLoginTokenManager(t *testing.T) {
	t.Parallel()
	t.Run("logs in and caches the token", func(t *testing.T) {
		t.Parallel()

		var logins int

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			logins++

			assert.Equal(t, "/api/v1/authentication/login", request.URL.Path)
			assert.Equal(t, http.MethodPost, request.Method)

			var creds map[string]string

			err := json.NewDecoder(request.Body).Decode(&creds)
			require.NoError(t, err)
			assert.Equal(t, "admin", creds["username"])
			assert.Equal(t, "secret", creds["password"])

			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"access_token": "login-token",
				"expires_in":   3600,
			})
		}))
		defer server.Close()

		transport := internalhttp.NewClient(server.URL, nil)
		manager := auth.NewLoginTokenManager(transport, "admin", "secret")

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "login-token", token)

		// Cached until expiry; no second login.
		token, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "login-token", token)
		assert.Equal(t, 1, logins)
	})

	t.Run("rejected credentials fail login", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		transport := internalhttp.NewClient(server.URL, nil)
		manager := auth.NewLoginTokenManager(transport, "admin", "wrong")

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, sapi.ErrLoginFailed)
	})

	t.Run("token-less response fails login", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{})
		}))
		defer server.Close()

		transport := internalhttp.NewClient(server.URL, nil)
		manager := auth.NewLoginTokenManager(transport, "admin", "secret")

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, sapi.ErrLoginFailed)
	})

	t.Run("refresh discards the held token", func(t *testing.T) {
		t.Parallel()

		var logins int

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			logins++
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"access_token": "fresh-token",
			})
		}))
		defer server.Close()

		transport := internalhttp.NewClient(server.URL, nil)
		manager := auth.NewLoginTokenManager(transport, "admin", "secret")

		_, err := manager.GetToken(context.Background())
		require.NoError(t, err)

		err = manager.RefreshToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, logins)
	})

	t.Run("expired token triggers re-login", func(t *testing.T) {
		t.Parallel()

		var logins int

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			logins++
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"access_token": "token",
			})
		}))
		defer server.Close()

		transport := internalhttp.NewClient(server.URL, nil)
		manager := auth.NewLoginTokenManager(transport, "admin", "secret")
		manager.SetToken("stale", time.Now().Add(-time.Minute))

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token", token)
		assert.Equal(t, 1, logins)
	})
}
