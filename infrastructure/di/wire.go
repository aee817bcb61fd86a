//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/jorge6242/graph-builder-api/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideBackend,
	ProvideUnitOfWorkFactory,
	ProvideCache,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideTracing,
	ProvideDefaultsWatcher,
	ProvideDomainConfig,
	ProvideRelationshipGenerator,
	ProvideGraphService,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
