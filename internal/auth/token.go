// Package auth provides token managers for the client.
//
// Backends accept static API tokens as Bearer credentials; deployments
// without token provisioning use the login flow, which exchanges a
// username and password for a bearer token at the authentication endpoint.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	internalhttp "github.com/senseware-io/sapi/internal/http"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// loginPath is the authentication endpoint of the v1 API generation. The
// login flow is not capability-routed: without credentials no probe can
// distinguish auth failures from absence, so the endpoint is fixed.
const loginPath = "/api/v1/authentication/login"

// StaticTokenManager serves a fixed API token.
type StaticTokenManager struct {
	mu    sync.RWMutex
	token string
}

// NewStaticTokenManager creates a token manager for a static API token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

// GetToken returns the configured token.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == "" {
		return "", sapi.ErrAPITokenRequired
	}

	return m.token, nil
}

// RefreshToken is not possible for static tokens.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return sapi.ErrStaticTokenCannotRefresh
}

// SetToken replaces the stored token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
}

// LoginTokenManager obtains a bearer token via the password login flow and
// refreshes it on demand.
type LoginTokenManager struct {
	mu        sync.Mutex
	transport *internalhttp.Client
	username  string
	password  string
	token     string
	expiresAt time.Time
}

// NewLoginTokenManager creates a token manager that logs in with the given
// credentials. The transport must not itself require a token manager.
func NewLoginTokenManager(transport *internalhttp.Client, username, password string) *LoginTokenManager {
	return &LoginTokenManager{
		transport: transport,
		username:  username,
		password:  password,
	}
}

// GetToken returns a valid token, logging in if none is held or the held
// one expired.
func (m *LoginTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && (m.expiresAt.IsZero() || time.Now().Before(m.expiresAt)) {
		return m.token, nil
	}

	err := m.login(ctx)
	if err != nil {
		return "", err
	}

	return m.token, nil
}

// RefreshToken discards the held token and logs in again.
func (m *LoginTokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""

	return m.login(ctx)
}

// SetToken stores a token obtained elsewhere.
func (m *LoginTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.expiresAt = expiresAt
}

// login performs the password exchange. Callers hold m.mu.
func (m *LoginTokenManager) login(ctx context.Context) error {
	resp, err := m.transport.Post(ctx, loginPath, map[string]string{
		"username": m.username,
		"password": m.password,
	})
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", sapi.ErrLoginFailed, resp.StatusCode)
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	err = json.Unmarshal(resp.Body, &loginResp)
	if err != nil {
		return fmt.Errorf("parsing login response: %w", err)
	}

	if loginResp.AccessToken == "" {
		return fmt.Errorf("%w: response contained no token", sapi.ErrLoginFailed)
	}

	m.token = loginResp.AccessToken

	if loginResp.ExpiresIn > 0 {
		m.expiresAt = time.Now().Add(time.Duration(loginResp.ExpiresIn) * time.Second)
	} else {
		m.expiresAt = time.Time{}
	}

	return nil
}
