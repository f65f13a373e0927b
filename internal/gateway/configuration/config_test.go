package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5*time.Second, cfg.Cooldown.Base)
	assert.Equal(t, 60*time.Second, cfg.Cooldown.Max)
	assert.Equal(t, 300*time.Second, cfg.Timeouts.Interactive)
	assert.Equal(t, 120*time.Second, cfg.Timeouts.Background)
	assert.Equal(t, 4, cfg.Retry.InteractiveAttempts)
	assert.Equal(t, 2, cfg.Retry.BackgroundAttempts)
	assert.Equal(t, 1*time.Second, cfg.Retry.InteractiveBase)
	assert.Equal(t, 15*time.Second, cfg.Retry.InteractiveCap)
	assert.Equal(t, 5*time.Second, cfg.Retry.BackgroundBase)
	assert.Equal(t, 30*time.Second, cfg.Retry.BackgroundCap)
	assert.Equal(t, 30*time.Second, cfg.Retry.RetryAfterCap)
	assert.True(t, cfg.Selection.BestEffort)
	assert.Equal(t, DefaultLegacySecretEnv, cfg.LegacySecretEnv)

	require.Len(t, cfg.Slots, 6)
	subsystems := make(map[string]string)
	for _, slot := range cfg.Slots {
		subsystems[slot.Subsystem] = slot.Env
	}
	assert.Equal(t, "LLMGATE_KEY_CONTENT", subsystems["content"])
	assert.Equal(t, "LLMGATE_KEY_MISC", subsystems["misc"])
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
base_url: "https://proxy.internal/v1"
models:
  strong: "gpt-4.1"
cooldown:
  base: 2s
retry:
  interactive_attempts: 6
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.internal/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4.1", cfg.Models.Strong)
	assert.Equal(t, 2*time.Second, cfg.Cooldown.Base)
	assert.Equal(t, 6, cfg.Retry.InteractiveAttempts)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultFastModel, cfg.Models.Fast)
	assert.Equal(t, DefaultMaxCooldown, cfg.Cooldown.Max)
	assert.Equal(t, DefaultBackgroundAttempts, cfg.Retry.BackgroundAttempts)
	assert.Len(t, cfg.Slots, 6)
}

func TestLoad_SelectionBlockSemantics(t *testing.T) {
	t.Run("absent block keeps best-effort default", func(t *testing.T) {
		cfg, err := Load(writeConfigFile(t, `base_url: "https://x.test/v1"`))
		require.NoError(t, err)
		assert.True(t, cfg.Selection.BestEffort)
	})

	t.Run("explicit false is honored", func(t *testing.T) {
		cfg, err := Load(writeConfigFile(t, "selection:\n  best_effort: false\n"))
		require.NoError(t, err)
		assert.False(t, cfg.Selection.BestEffort)
	})
}

func TestLoad_SlotTableReplacedWholesale(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
slots:
  - subsystem: content
    label: content-custom
    env: CUSTOM_CONTENT_KEY
`))
	require.NoError(t, err)

	require.Len(t, cfg.Slots, 1)
	assert.Equal(t, "content-custom", cfg.Slots[0].Label)
	assert.Equal(t, "CUSTOM_CONTENT_KEY", cfg.Slots[0].Env)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfigFile(t, "base_url: [not: valid"))
	require.Error(t, err)
}
