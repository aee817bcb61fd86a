// Package di wires the graph builder's dependencies.
package di

import (
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/application/ports"
	"github.com/jorge6242/graph-builder-api/application/services"
	"github.com/jorge6242/graph-builder-api/infrastructure/config"
	"github.com/jorge6242/graph-builder-api/interfaces/http/rest"
	"github.com/jorge6242/graph-builder-api/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Backend  *Backend
	Cache    ports.Cache
	Metrics  *observability.Collector
	Tracing  *observability.TracerProvider
	Defaults *config.Watcher
	Service  *services.GraphService
	Router   *rest.Router
}
