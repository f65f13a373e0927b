// llmgate is the operator CLI for the gateway: one-shot credential
// discovery summaries and pool status snapshots.
package main

import (
	"os"

	"github.com/ahrav/go-llmgate/cmd/llmgate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
