// Package credentials owns the pool of dedicated API credentials: one
// mutable health record per configured key, the static subsystem route
// table, cooldown tracking, and cooldown-aware selection.
//
// Each Credential guards its own fields with a mutex so concurrent
// callers on unrelated credentials never contend. The check-then-acquire
// sequence is a single critical section per credential; the worst case
// at a cooldown boundary is one extra request hitting a freshly-cooling
// credential, never a corrupted counter.
package credentials

import (
	"sync"
	"time"
)

// Credential is one dedicated API key and its health state. Created
// once at discovery and never destroyed; all mutation goes through the
// report methods below.
type Credential struct {
	mu sync.Mutex

	secret   string // never logged
	label    string
	sourceID string

	activeCount       int
	lastRateLimitedAt time.Time // zero value means never limited
	cooldown          time.Duration
	consecutiveLimits int
	totalRequests     int64
	totalLimited      int64

	baseCooldown time.Duration
	maxCooldown  time.Duration

	now func() time.Time
}

func newCredential(secret, label, sourceID string, base, max time.Duration) *Credential {
	return &Credential{
		secret:       secret,
		label:        label,
		sourceID:     sourceID,
		cooldown:     base,
		baseCooldown: base,
		maxCooldown:  max,
		now:          time.Now,
	}
}

// Secret returns the bearer value for request authentication.
func (c *Credential) Secret() string { return c.secret }

// Label returns the human-readable identity, safe for logs.
func (c *Credential) Label() string { return c.label }

// SourceID returns the stable slot identity the credential came from.
func (c *Credential) SourceID() string { return c.sourceID }

// IsCooling reports whether the credential is inside its cooldown
// window. Cooling is computed on query, never stored: the
// Cooling->Available transition is purely time-based.
func (c *Credential) IsCooling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coolingLocked()
}

func (c *Credential) coolingLocked() bool {
	if c.lastRateLimitedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.lastRateLimitedAt) < c.cooldown
}

// tryAcquire acquires the credential only if it is currently available.
// Availability check and acquisition are one critical section.
func (c *Credential) tryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coolingLocked() {
		return false
	}
	c.activeCount++
	c.totalRequests++
	return true
}

// acquire takes the credential unconditionally (best-effort and
// last-resort paths).
func (c *Credential) acquire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeCount++
	c.totalRequests++
}

// release decrements the in-flight count. Guarded so a stray double
// release can never drive the count negative.
func (c *Credential) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeCount > 0 {
		c.activeCount--
	}
}

// ReportRateLimited records a 429 against the credential: Available ->
// Cooling with exponentially doubled cooldown, capped at the maximum.
func (c *Credential) ReportRateLimited() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveLimits++
	c.totalLimited++

	cooldown := c.baseCooldown << (c.consecutiveLimits - 1)
	if cooldown > c.maxCooldown || cooldown <= 0 {
		cooldown = c.maxCooldown
	}
	c.cooldown = cooldown
	c.lastRateLimitedAt = c.now()
}

// ReportSuccess forces an immediate Cooling -> Available transition.
// A credential that starts working again is not held down waiting for
// its timer to elapse.
func (c *Credential) ReportSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveLimits = 0
	c.cooldown = c.baseCooldown
	c.lastRateLimitedAt = time.Time{}
}

// Status returns a point-in-time copy of the credential's counters.
// CooldownRemaining is clamped at zero so an elapsed window never
// reports negative time or residual unavailability.
func (c *Credential) Status() CredentialStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	var remaining time.Duration
	cooling := c.coolingLocked()
	if cooling {
		remaining = c.cooldown - c.now().Sub(c.lastRateLimitedAt)
		if remaining < 0 {
			remaining = 0
		}
	}

	return CredentialStatus{
		Label:             c.label,
		SourceID:          c.sourceID,
		Active:            c.activeCount,
		ConsecutiveLimits: c.consecutiveLimits,
		TotalRequests:     c.totalRequests,
		TotalLimited:      c.totalLimited,
		Cooling:           cooling,
		CooldownRemaining: remaining,
		Cooldown:          c.cooldown,
	}
}
