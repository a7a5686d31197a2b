package sapi

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors that can be wrapped with context.
var (
	ErrConfigRequired           = errors.New("config is required")
	ErrEndpointRequired         = errors.New("endpoint is required")
	ErrMissingPathParam         = errors.New("missing path parameter")
	ErrUnexpandedPlaceholder    = errors.New("unexpanded placeholder")
	ErrUnknownCapability        = errors.New("unknown capability")
	ErrDuplicateCapability      = errors.New("capability registered twice")
	ErrNoCandidates             = errors.New("capability has no candidates")
	ErrCandidateNeedsProbePath  = errors.New("parameterized candidate requires a probe path")
	ErrAPITokenRequired         = errors.New("API token is not configured")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
	ErrLoginFailed              = errors.New("login request rejected")
	ErrSkipTLSOnlyInDev         = errors.New("skipTLS is only allowed in development environments")
	ErrReadOnlyQueryRequired    = errors.New("only read-only SELECT queries are allowed")
	ErrWidgetNotFound           = errors.New("widget not found in any dashboard")
	ErrJAQLMetadataRequired     = errors.New("query needs at least one dimension, measure, or filter")
)

// UnsupportedCapabilityError reports that no candidate endpoint serves a
// capability in this deployment. The message enumerates every candidate
// tried with its observed outcome so operators can diagnose deployment
// gaps without re-running diagnostics.
type UnsupportedCapabilityError struct {
	Capability CapabilityID
	Attempts   []Attempt
}

func (e *UnsupportedCapabilityError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "capability %q is not supported by this deployment", e.Capability)

	if len(e.Attempts) > 0 {
		b.WriteString("; candidates tried: ")

		for i, attempt := range e.Attempts {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(attempt.String())
		}
	}

	return b.String()
}

// AuthenticationRejectedError reports that the backend rejected the shared
// credentials (401/403) while serving or probing a capability.
type AuthenticationRejectedError struct {
	Capability CapabilityID
	Version    string
	StatusCode int
}

func (e *AuthenticationRejectedError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("authentication rejected for capability %q (candidate %s, status %d)",
			e.Capability, e.Version, e.StatusCode)
	}

	return fmt.Sprintf("authentication rejected for capability %q (status %d)", e.Capability, e.StatusCode)
}

// TransportError wraps a network or backend failure of a real
// (non-probe) call against a resolved candidate.
type TransportError struct {
	Capability CapabilityID
	Version    string
	Path       string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capability %q call failed (%s %s): %v", e.Capability, e.Version, e.Path, e.Err)
	}

	return fmt.Sprintf("capability %q call failed (%s %s): status %d", e.Capability, e.Version, e.Path, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DetectionExhaustedError reports that detection could not reach a verdict
// because at least one candidate stayed indeterminate (timeouts, 5xx). The
// condition is ambiguous and nothing is cached; callers should retry the
// whole call later.
type DetectionExhaustedError struct {
	Capability CapabilityID
	Attempts   []Attempt
}

func (e *DetectionExhaustedError) Error() string {
	return fmt.Sprintf("capability %q detection exhausted after %d probes without a verdict",
		e.Capability, len(e.Attempts))
}

// IsUnsupportedCapability checks whether err reports an unsupported
// capability.
func IsUnsupportedCapability(err error) bool {
	target := &UnsupportedCapabilityError{}

	return errors.As(err, &target)
}

// IsAuthenticationRejected checks whether err reports rejected credentials.
func IsAuthenticationRejected(err error) bool {
	target := &AuthenticationRejectedError{}

	return errors.As(err, &target)
}

// IsTransportError checks whether err is a real-call transport failure,
// which is transient and safe to retry at the caller's discretion.
func IsTransportError(err error) bool {
	target := &TransportError{}

	return errors.As(err, &target)
}

// IsDetectionExhausted checks whether err reports an ambiguous detection.
func IsDetectionExhausted(err error) bool {
	target := &DetectionExhaustedError{}

	return errors.As(err, &target)
}
