// Package configuration holds the gateway's static configuration:
// upstream endpoint, model tiers, credential slots, cooldown bounds,
// per-priority deadlines and retry budgets.
package configuration

import (
	"net/http"
	"time"
)

// Config holds the full gateway configuration. Constructed once at
// startup; nothing here is reloaded at runtime.
type Config struct {
	// BaseURL is the chat-completion endpoint root, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url"`

	// AltBaseURL is used instead of BaseURL when zero credentials are
	// discovered (typically a local or proxy endpoint that needs no pool).
	AltBaseURL string `yaml:"alt_base_url"`

	// LegacySecretEnv names the environment variable holding the single
	// legacy credential used when no slot resolves.
	LegacySecretEnv string `yaml:"legacy_secret_env"`

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client `yaml:"-"`

	Models    ModelConfig     `yaml:"models"`
	Cooldown  CooldownConfig  `yaml:"cooldown"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Retry     RetryConfig     `yaml:"retry"`
	Selection SelectionConfig `yaml:"selection"`

	// Slots is the fixed set of credential slots scanned at discovery.
	Slots []SlotConfig `yaml:"slots"`
}

// ModelConfig maps the two model tiers to concrete upstream model names.
type ModelConfig struct {
	Fast   string `yaml:"fast"`
	Strong string `yaml:"strong"`
}

// CooldownConfig bounds the per-credential exponential cooldown.
type CooldownConfig struct {
	Base time.Duration `yaml:"base"`
	Max  time.Duration `yaml:"max"`
}

// TimeoutConfig sets the per-call deadline by priority class.
type TimeoutConfig struct {
	Interactive time.Duration `yaml:"interactive"`
	Background  time.Duration `yaml:"background"`
}

// RetryConfig controls the rate-limit retry policy per priority class.
type RetryConfig struct {
	InteractiveAttempts int           `yaml:"interactive_attempts"`
	BackgroundAttempts  int           `yaml:"background_attempts"`
	InteractiveBase     time.Duration `yaml:"interactive_base"`
	InteractiveCap      time.Duration `yaml:"interactive_cap"`
	BackgroundBase      time.Duration `yaml:"background_base"`
	BackgroundCap       time.Duration `yaml:"background_cap"`

	// RetryAfterCap bounds how long an upstream Retry-After hint is honored.
	RetryAfterCap time.Duration `yaml:"retry_after_cap"`
}

// SelectionConfig controls credential selection policy.
type SelectionConfig struct {
	// BestEffort acquires the primary credential even when every option
	// is cooling, instead of failing the call outright. Trades a likely
	// extra 429 for avoiding total subsystem starvation.
	BestEffort bool `yaml:"best_effort"`
}

// SlotConfig names one credential slot: the subsystem it serves, a
// human-readable label, and the environment variable holding the secret.
type SlotConfig struct {
	Subsystem string `yaml:"subsystem"`
	Label     string `yaml:"label"`
	Env       string `yaml:"env"`
}
