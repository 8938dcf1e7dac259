package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fintrackctl",
		Short:         "Operator tooling for the fintrack loan service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newQuoteCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newCertsCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
