// Package errors defines the error taxonomy for the gateway.
// Each class carries enough context for callers to decide whether to
// surface the failure to an end user or degrade a feature, and for the
// retry layer to decide whether another attempt is worthwhile.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType categorizes gateway failures for retry classification.
type ErrorType string

const (
	// ErrorTypeValidation indicates malformed caller input (fatal, no network call made).
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeRateLimit indicates HTTP 429 from upstream (retried per policy).
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeUpstream indicates a non-429 upstream failure (surfaced immediately).
	ErrorTypeUpstream ErrorType = "upstream"

	// ErrorTypeTimeout indicates the priority-class deadline expired (surfaced immediately).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeExhausted indicates the retry budget ran out under sustained rate limiting.
	ErrorTypeExhausted ErrorType = "rate_limit_exhausted"

	// ErrorTypeNoCredentials indicates zero credentials are configured (startup/config issue).
	ErrorTypeNoCredentials ErrorType = "no_credentials"
)

// Sentinel errors for pool-level failures.
var (
	// ErrNoCredentials is returned when the registry holds zero credentials.
	ErrNoCredentials = errors.New("no credentials available")

	// ErrAllCredentialsCooling is returned instead of a best-effort lease
	// when best-effort acquisition is disabled by policy.
	ErrAllCredentialsCooling = errors.New("all credentials in cooldown")
)

// ValidationError captures malformed caller input with field context.
// Validation failures are permanent and never reach the network.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// RateLimitError reports an HTTP 429 from the upstream API.
// RetryAfter carries the upstream hint when the header was present,
// zero otherwise.
type RateLimitError struct {
	Subsystem  string        `json:"subsystem"`
	Credential string        `json:"credential"` // label only, never the secret
	StatusCode int           `json:"status_code"`
	RetryAfter time.Duration `json:"retry_after"`
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited on %s (credential %s), retry after %s",
			e.Subsystem, e.Credential, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited on %s (credential %s)", e.Subsystem, e.Credential)
}

// GetRetryAfter returns the upstream-provided wait hint, zero if absent.
func (e *RateLimitError) GetRetryAfter() time.Duration { return e.RetryAfter }

// UpstreamError captures a non-2xx, non-429 upstream response.
// These surface immediately: the request reached the API and was
// rejected for a reason another attempt will not fix.
type UpstreamError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"` // provider error code when parseable
	Message    string `json:"message"`
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

// TimeoutError indicates the per-call deadline expired and the in-flight
// HTTP request was aborted. Not retried by this layer.
type TimeoutError struct {
	Subsystem string        `json:"subsystem"`
	Deadline  time.Duration `json:"deadline"`
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request for %s timed out after %s", e.Subsystem, e.Deadline)
}

// RateLimitExhaustedError is terminal: the retry budget ran out under
// sustained 429s. Attempts counts calls actually issued within the
// final budget window.
type RateLimitExhaustedError struct {
	Subsystem  string `json:"subsystem"`
	Attempts   int    `json:"attempts"`
	LastStatus int    `json:"last_status"`
	Downgraded bool   `json:"downgraded"` // whether the model tier was downgraded along the way
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("rate limit retries exhausted for %s after %d attempts (last status %d)",
		e.Subsystem, e.Attempts, e.LastStatus)
}
