package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-llmgate/internal/gateway"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a JSON snapshot of the credential pool",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := gateway.New(cfg)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(client.Status(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
