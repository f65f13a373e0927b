package credentials

import (
	"log/slog"

	gaterrors "github.com/ahrav/go-llmgate/internal/gateway/errors"
)

// Selector index values recorded on a lease for downstream monitoring.
const (
	// IndexPrimary marks a lease on the subsystem's dedicated credential.
	IndexPrimary = 0
	// IndexFallback marks a lease on the route's fallback credential.
	IndexFallback = 1
	// IndexMismatch marks a last-resort lease on an unrelated credential,
	// visible to monitoring as a tag/credential mismatch.
	IndexMismatch = -1
)

// Lease is a held acquisition of one credential for one attempt.
// Exactly one Release per lease; the credential guard makes a double
// release harmless but the orchestrator never issues one.
type Lease struct {
	cred *Credential

	// Subsystem is the resolved tag the lease was acquired for.
	Subsystem Subsystem

	// SelectorIndex records which selection rule produced the lease.
	SelectorIndex int
}

// Secret returns the bearer value for the held credential.
func (l *Lease) Secret() string { return l.cred.Secret() }

// Label returns the held credential's log-safe identity.
func (l *Lease) Label() string { return l.cred.Label() }

// Release returns the in-flight slot to the credential.
func (l *Lease) Release() { l.cred.release() }

// ReportRateLimited feeds a 429 into the held credential's cooldown.
func (l *Lease) ReportRateLimited() { l.cred.ReportRateLimited() }

// ReportSuccess resets the held credential's cooldown state.
func (l *Lease) ReportSuccess() { l.cred.ReportSuccess() }

// Selector picks the best available credential for a subsystem tag,
// applying the deterministic fallback order: primary, then fallback,
// then best-effort primary, then any credential at all.
type Selector struct {
	registry   *Registry
	bestEffort bool
	logger     *slog.Logger
}

// NewSelector creates a selector over a discovered registry.
// bestEffort controls whether an all-cooling route still yields the
// primary credential rather than failing the call.
func NewSelector(registry *Registry, bestEffort bool) *Selector {
	return &Selector{
		registry:   registry,
		bestEffort: bestEffort,
		logger:     slog.Default().With("component", "selector"),
	}
}

// Acquire resolves the tag and returns a lease on the best usable
// credential. Every subsystem gets isolation under normal load (its own
// dedicated credential) and degrades gracefully rather than hard-failing
// under sustained rate limiting.
func (s *Selector) Acquire(tag string) (*Lease, error) {
	sub := Resolve(tag)
	rt := routeFor(sub)

	primary := s.registry.Get(rt.primary)
	var fallback *Credential
	if rt.fallback != "" && rt.fallback != rt.primary {
		fallback = s.registry.Get(rt.fallback)
	}

	if primary != nil {
		if primary.tryAcquire() {
			return &Lease{cred: primary, Subsystem: sub, SelectorIndex: IndexPrimary}, nil
		}

		// Primary is cooling: prefer an available fallback.
		if fallback != nil && fallback.tryAcquire() {
			s.logger.Debug("primary cooling, using fallback",
				"subsystem", sub,
				"fallback", fallback.Label())
			return &Lease{cred: fallback, Subsystem: sub, SelectorIndex: IndexFallback}, nil
		}

		// Everything on the route is cooling. Refusing to try at all
		// would starve the subsystem entirely, so send on the primary
		// anyway when policy allows it.
		if !s.bestEffort {
			return nil, gaterrors.ErrAllCredentialsCooling
		}
		primary.acquire()
		s.logger.Debug("all route credentials cooling, best-effort on primary",
			"subsystem", sub,
			"primary", primary.Label())
		return &Lease{cred: primary, Subsystem: sub, SelectorIndex: IndexPrimary}, nil
	}

	// Primary slot never resolved: try the fallback slot.
	if fallback != nil {
		fallback.acquire()
		return &Lease{cred: fallback, Subsystem: sub, SelectorIndex: IndexFallback}, nil
	}

	// Last resort: any configured credential, flagged as a mismatch.
	if cred := s.registry.any(); cred != nil {
		s.logger.Warn("no route credential configured, using unrelated credential",
			"subsystem", sub,
			"credential", cred.Label())
		cred.acquire()
		return &Lease{cred: cred, Subsystem: sub, SelectorIndex: IndexMismatch}, nil
	}

	return nil, gaterrors.ErrNoCredentials
}
