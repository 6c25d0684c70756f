// Command tagcache serves a tag cascade cache in front of an in-memory item
// store, with health probes and Prometheus metrics.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tagcache",
		Short:        "Tag cascade cache service",
		Long:         "tagcache caches store reads with TTL expiry and tag-based cascading invalidation.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("a subcommand is required")
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
