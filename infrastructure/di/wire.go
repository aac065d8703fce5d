//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"mlmdview/application/services"
	"mlmdview/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideCloudWatchClient,
	ProvideMetadataStore,
	ProvideDomainConfig,
	ProvideCollector,
	ProvideRecorder,
	ProvideTracer,
	ProvideExporter,
	services.NewEntityFetcher,
	ProvideLineageBuilder,
	ProvideDotRenderer,
	services.NewLineageService,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideRateLimiter,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
