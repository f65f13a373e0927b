package configuration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML decoding. Selection is a pointer
// so an absent block keeps the best-effort default rather than zeroing
// it to false.
type fileConfig struct {
	BaseURL         string           `yaml:"base_url"`
	AltBaseURL      string           `yaml:"alt_base_url"`
	LegacySecretEnv string           `yaml:"legacy_secret_env"`
	Models          ModelConfig      `yaml:"models"`
	Cooldown        CooldownConfig   `yaml:"cooldown"`
	Timeouts        TimeoutConfig    `yaml:"timeouts"`
	Retry           RetryConfig      `yaml:"retry"`
	Selection       *SelectionConfig `yaml:"selection"`
	Slots           []SlotConfig     `yaml:"slots"`
}

// Load reads a YAML config file and merges it over the defaults.
// Zero-valued fields keep their default; the slot table is replaced
// wholesale when the file provides one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := DefaultConfig()
	merge(cfg, &file)
	return cfg, nil
}

func merge(dst *Config, src *fileConfig) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.AltBaseURL != "" {
		dst.AltBaseURL = src.AltBaseURL
	}
	if src.LegacySecretEnv != "" {
		dst.LegacySecretEnv = src.LegacySecretEnv
	}
	if src.Models.Fast != "" {
		dst.Models.Fast = src.Models.Fast
	}
	if src.Models.Strong != "" {
		dst.Models.Strong = src.Models.Strong
	}
	if src.Cooldown.Base > 0 {
		dst.Cooldown.Base = src.Cooldown.Base
	}
	if src.Cooldown.Max > 0 {
		dst.Cooldown.Max = src.Cooldown.Max
	}
	if src.Timeouts.Interactive > 0 {
		dst.Timeouts.Interactive = src.Timeouts.Interactive
	}
	if src.Timeouts.Background > 0 {
		dst.Timeouts.Background = src.Timeouts.Background
	}
	if src.Retry.InteractiveAttempts > 0 {
		dst.Retry.InteractiveAttempts = src.Retry.InteractiveAttempts
	}
	if src.Retry.BackgroundAttempts > 0 {
		dst.Retry.BackgroundAttempts = src.Retry.BackgroundAttempts
	}
	if src.Retry.InteractiveBase > 0 {
		dst.Retry.InteractiveBase = src.Retry.InteractiveBase
	}
	if src.Retry.InteractiveCap > 0 {
		dst.Retry.InteractiveCap = src.Retry.InteractiveCap
	}
	if src.Retry.BackgroundBase > 0 {
		dst.Retry.BackgroundBase = src.Retry.BackgroundBase
	}
	if src.Retry.BackgroundCap > 0 {
		dst.Retry.BackgroundCap = src.Retry.BackgroundCap
	}
	if src.Retry.RetryAfterCap > 0 {
		dst.Retry.RetryAfterCap = src.Retry.RetryAfterCap
	}
	if src.Selection != nil {
		dst.Selection = *src.Selection
	}
	if len(src.Slots) > 0 {
		dst.Slots = src.Slots
	}
}
