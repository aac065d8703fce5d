package di

import (
	"mlmdview/application/ports"
	querybus "mlmdview/application/queries/bus"
	"mlmdview/application/services"
	"mlmdview/infrastructure/config"
	"mlmdview/interfaces/http/rest"
	"mlmdview/pkg/observability"
	"mlmdview/pkg/ratelimit"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     ports.MetadataStore
	Lineage   *services.LineageService
	Fetcher   *services.EntityFetcher
	QueryBus  *querybus.QueryBus
	Collector *observability.Collector
	Limiter   ratelimit.Limiter
	Router    *rest.Router
}
