package main

import (
	"fmt"

	"github.com/spf13/cobra"

	domainservices "github.com/jorge6242/graph-builder-api/domain/services"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered similarity strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range domainservices.NewDefaultStrategyRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
