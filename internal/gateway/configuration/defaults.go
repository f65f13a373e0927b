package configuration

import "time"

// Cooldown bounds.
const (
	DefaultBaseCooldown = 5 * time.Second
	DefaultMaxCooldown  = 60 * time.Second
)

// Per-priority deadlines.
const (
	DefaultInteractiveTimeout = 300 * time.Second
	DefaultBackgroundTimeout  = 120 * time.Second
)

// Retry budgets and backoff schedule bounds.
const (
	DefaultInteractiveAttempts = 4
	DefaultBackgroundAttempts  = 2
	DefaultInteractiveBase     = 1 * time.Second
	DefaultInteractiveCap      = 15 * time.Second
	DefaultBackgroundBase      = 5 * time.Second
	DefaultBackgroundCap       = 30 * time.Second
	DefaultRetryAfterCap       = 30 * time.Second
)

// Upstream defaults.
const (
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultLegacySecretEnv = "LLMGATE_API_KEY"
	DefaultFastModel       = "gpt-4o-mini"
	DefaultStrongModel     = "gpt-4o"
)

// DefaultSlots is the fixed credential slot table. One slot per calling
// subsystem plus the shared "misc" slot that unknown tags fold into.
func DefaultSlots() []SlotConfig {
	return []SlotConfig{
		{Subsystem: "content", Label: "content-pool", Env: "LLMGATE_KEY_CONTENT"},
		{Subsystem: "seo", Label: "seo-pool", Env: "LLMGATE_KEY_SEO"},
		{Subsystem: "marketplace", Label: "marketplace-pool", Env: "LLMGATE_KEY_MARKETPLACE"},
		{Subsystem: "payments", Label: "payments-pool", Env: "LLMGATE_KEY_PAYMENTS"},
		{Subsystem: "analytics", Label: "analytics-pool", Env: "LLMGATE_KEY_ANALYTICS"},
		{Subsystem: "misc", Label: "misc-pool", Env: "LLMGATE_KEY_MISC"},
	}
}

// DefaultConfig returns the production defaults: cooldown bounds,
// priority deadlines, and the retry schedule.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		LegacySecretEnv: DefaultLegacySecretEnv,
		Models: ModelConfig{
			Fast:   DefaultFastModel,
			Strong: DefaultStrongModel,
		},
		Cooldown: CooldownConfig{
			Base: DefaultBaseCooldown,
			Max:  DefaultMaxCooldown,
		},
		Timeouts: TimeoutConfig{
			Interactive: DefaultInteractiveTimeout,
			Background:  DefaultBackgroundTimeout,
		},
		Retry: RetryConfig{
			InteractiveAttempts: DefaultInteractiveAttempts,
			BackgroundAttempts:  DefaultBackgroundAttempts,
			InteractiveBase:     DefaultInteractiveBase,
			InteractiveCap:      DefaultInteractiveCap,
			BackgroundBase:      DefaultBackgroundBase,
			BackgroundCap:       DefaultBackgroundCap,
			RetryAfterCap:       DefaultRetryAfterCap,
		},
		Selection: SelectionConfig{
			BestEffort: true,
		},
		Slots: DefaultSlots(),
	}
}
