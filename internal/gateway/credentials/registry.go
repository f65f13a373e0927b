package credentials

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ahrav/go-llmgate/internal/gateway/configuration"
)

// Registry discovers credentials from the configured slots once at
// startup and holds them for the process lifetime. Zero discovered
// credentials is a valid state; callers fall back to the legacy
// credential or fail with ErrNoCredentials at selection time.
type Registry struct {
	mu         sync.Mutex
	discovered bool

	slots        []configuration.SlotConfig
	baseCooldown time.Duration
	maxCooldown  time.Duration

	creds map[Subsystem]*Credential
	order []Subsystem // discovery order, for deterministic last-resort pick

	logger *slog.Logger

	// lookupEnv is swapped in tests to avoid touching the real environment.
	lookupEnv func(string) (string, bool)
}

// NewRegistry creates an empty registry over the configured slot table.
// Call Discover before selection.
func NewRegistry(cfg *configuration.Config) *Registry {
	return &Registry{
		slots:        cfg.Slots,
		baseCooldown: cfg.Cooldown.Base,
		maxCooldown:  cfg.Cooldown.Max,
		creds:        make(map[Subsystem]*Credential),
		logger:       slog.Default().With("component", "credentials"),
		lookupEnv:    os.LookupEnv,
	}
}

// Discover scans the fixed slot table and populates one credential per
// resolved slot. Idempotent: subsequent calls are no-ops. Logs a
// subsystem -> label summary for operability; secrets are never logged.
func (r *Registry) Discover() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.discovered {
		return
	}
	r.discovered = true

	for _, slot := range r.slots {
		secret, ok := r.lookupEnv(slot.Env)
		if !ok || secret == "" {
			r.logger.Info("credential slot empty",
				"subsystem", slot.Subsystem,
				"env", slot.Env)
			continue
		}

		sub := Subsystem(slot.Subsystem)
		r.creds[sub] = newCredential(secret, slot.Label, slot.Subsystem, r.baseCooldown, r.maxCooldown)
		r.order = append(r.order, sub)

		r.logger.Info("credential discovered",
			"subsystem", slot.Subsystem,
			"label", slot.Label)
	}

	r.logger.Info("credential discovery complete", "count", len(r.creds))
}

// Get returns the credential dedicated to a subsystem slot, nil when
// the slot never resolved.
func (r *Registry) Get(s Subsystem) *Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creds[s]
}

// Len returns the number of discovered credentials.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.creds)
}

// any returns the first discovered credential in discovery order, used
// as the last resort when a subsystem has no configured slot at all.
func (r *Registry) any() *Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.order {
		if c := r.creds[s]; c != nil {
			return c
		}
	}
	return nil
}

// setClock pins every credential's clock, for tests.
func (r *Registry) setClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.creds {
		c.mu.Lock()
		c.now = now
		c.mu.Unlock()
	}
}
