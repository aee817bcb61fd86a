package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema or table of the configured store",
		Long: `Runs the store's migration: gorm AutoMigrate for postgres and sqlite,
table creation for dynamodb. The memory store needs none.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cleanup, err := root.container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := container.Backend.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate %s: %w", container.Backend.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", container.Backend.Name)
			return nil
		},
	}
}
