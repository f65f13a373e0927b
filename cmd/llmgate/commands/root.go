// Package commands implements the llmgate CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-llmgate/internal/gateway/configuration"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "llmgate",
	Short: "LLM gateway operator tooling",
	Long:  "Inspect the gateway's credential pool: slot discovery and health snapshots.",
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to YAML config (defaults apply when empty)")
}

// loadConfig is the shared config path for all subcommands.
func loadConfig() (*configuration.Config, error) {
	if flagConfig == "" {
		return configuration.DefaultConfig(), nil
	}
	return configuration.Load(flagConfig)
}
