package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Resolve credential slots from the environment and print a summary",
	RunE:  runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBSYSTEM\tENV\tSTATUS\tLABEL")
	resolved := 0
	for _, slot := range cfg.Slots {
		status := "missing"
		label := "-"
		if v, ok := os.LookupEnv(slot.Env); ok && v != "" {
			status = "resolved"
			label = slot.Label
			resolved++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", slot.Subsystem, slot.Env, status, label)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d of %d slots resolved\n", resolved, len(cfg.Slots))
	if resolved == 0 {
		if _, ok := os.LookupEnv(cfg.LegacySecretEnv); ok {
			fmt.Printf("legacy credential present in %s\n", cfg.LegacySecretEnv)
		} else {
			fmt.Println("no credentials available; callers will fail fast")
		}
	}
	return nil
}
