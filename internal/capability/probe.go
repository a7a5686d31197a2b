package capability

import (
	"context"
	"errors"
	"net/http"
	"time"

	internalhttp "github.com/senseware-io/sapi/internal/http"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// Prober issues a single bounded probe request against one candidate and
// classifies the outcome. Probers are stateless; they never touch the
// cache or the registry.
type Prober interface {
	Probe(ctx context.Context, candidate sapi.Candidate) sapi.Attempt
}

// HTTPProber probes candidates over the shared transport. The transport
// must have retries disabled; probe retry policy belongs to the detector.
type HTTPProber struct {
	transport *internalhttp.Client
	timeout   time.Duration
}

// NewHTTPProber creates a prober with the given per-probe timeout.
func NewHTTPProber(transport *internalhttp.Client, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		transport: transport,
		timeout:   timeout,
	}
}

// Probe sends exactly one bounded request against the candidate's probe
// target and maps the result onto a ProbeOutcome. Classified HTTP results
// never surface as errors.
func (p *HTTPProber) Probe(ctx context.Context, candidate sapi.Candidate) sapi.Attempt {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	attempt := sapi.Attempt{
		Version: candidate.Version,
		Method:  candidate.Method,
		Path:    candidate.ProbeTarget(),
	}

	resp, err := p.transport.Do(ctx, &internalhttp.Request{
		Method: candidate.Method,
		Path:   candidate.ProbeTarget(),
		Query:  candidate.ProbeQuery,
		Body:   candidate.ProbeBody,
	})
	if err != nil {
		// Timeouts and connection errors are transient as far as probing
		// is concerned. A definitive login rejection is not: the shared
		// credentials are bad for every candidate.
		if errors.Is(err, sapi.ErrLoginFailed) {
			attempt.Outcome = sapi.OutcomeAuthFailure
		} else {
			attempt.Outcome = sapi.OutcomeIndeterminate
		}

		return attempt
	}

	attempt.StatusCode = resp.StatusCode
	attempt.Outcome = ClassifyStatus(resp.StatusCode)

	return attempt
}

// ClassifyStatus maps an HTTP status onto a probe outcome.
//
// Statuses like 400/405/422 mean the endpoint exists and merely rejected
// the no-op probe payload, so they count as available.
func ClassifyStatus(status int) sapi.ProbeOutcome {
	switch {
	case status >= 200 && status < 300:
		return sapi.OutcomeAvailable
	case status == http.StatusNotFound, status == http.StatusGone, status == http.StatusNotImplemented:
		return sapi.OutcomeUnavailable
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return sapi.OutcomeAuthFailure
	case status == http.StatusTooManyRequests, status >= 500:
		return sapi.OutcomeIndeterminate
	default:
		return sapi.OutcomeAvailable
	}
}
