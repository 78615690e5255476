package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "lostfound",
		Short:         "Lost-and-found mediation service",
		Long:          `lostfound registers items with an owner contact, serves scannable codes for them, and relays a finder's note to the owner over WhatsApp.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "optional YAML config file")

	root.AddCommand(newServeCmd(&cfgFile))
	root.AddCommand(newMigrateCmd(&cfgFile))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
