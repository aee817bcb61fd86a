package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jorge6242/graph-builder-api/infrastructure/config"
	"github.com/jorge6242/graph-builder-api/infrastructure/di"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "graphctl",
		Short:        "Build and query knowledge graphs of topic labels",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file (overrides CONFIG_FILE)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newGenerateCmd(),
		newStrategiesCmd(),
	)
	return cmd
}

// loadConfig reads configuration from --config when given, else from the environment
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configFile != "" {
		return config.LoadFile(o.configFile)
	}
	return config.LoadConfig()
}

// container builds the dependency graph for commands that need a store
func (o *rootOptions) container(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	return di.InitializeContainer(ctx, cfg)
}
