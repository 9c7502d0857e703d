// Package main provides the entry point for the platewatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platewatch",
		Short: "Discover newly issued vehicle registrations",
		Long: `Platewatch discovers newly issued vehicle registration plates,
resolves each to a VIN, looks up the insurer and policy-creation date,
and records confirmed new registrations grouped by insurer.

Two discovery strategies are available: a dense range enumeration over a
plate prefix, and a paginated search-API query filtered by first
registration date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())

	return cmd
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
