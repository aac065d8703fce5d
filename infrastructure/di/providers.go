package di

import (
	"context"
	"fmt"
	"time"

	"mlmdview/application/ports"
	"mlmdview/application/queries"
	querybus "mlmdview/application/queries/bus"
	queries_handlers "mlmdview/application/queries/handlers"
	"mlmdview/application/services"
	domainconfig "mlmdview/domain/config"
	"mlmdview/infrastructure/config"
	"mlmdview/infrastructure/graphviz"
	"mlmdview/infrastructure/persistence/dynamodb"
	"mlmdview/infrastructure/persistence/memory"
	"mlmdview/infrastructure/persistence/sqlite"
	"mlmdview/interfaces/http/rest"
	apperrors "mlmdview/pkg/errors"
	"mlmdview/pkg/observability"
	"mlmdview/pkg/ratelimit"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const metricsNamespace = "mlmdview"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetadataStore opens the configured metadata store. The cleanup closes it.
func ProvideMetadataStore(
	ctx context.Context,
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (ports.MetadataStore, func(), error) {
	var (
		store ports.MetadataStore
		err   error
	)

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err = sqlite.Open(ctx, cfg.MLMDDatabase, logger)
	case config.BackendDynamoDB:
		store = dynamodb.NewMetadataStore(client, cfg.DynamoDBTable, "", logger)
	case config.BackendMemory:
		store, err = provideMemoryStore(cfg.FixturePath)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Metadata store ready", zap.String("backend", cfg.StoreBackend))

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close metadata store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

func provideMemoryStore(fixturePath string) (ports.MetadataStore, error) {
	if fixturePath == "" {
		return memory.NewStore(), nil
	}
	return memory.LoadFixtureFile(fixturePath)
}

// ProvideDomainConfig returns the lineage and listing limits
func ProvideDomainConfig() (*domainconfig.DomainConfig, error) {
	cfg := domainconfig.DefaultDomainConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideCollector creates the Prometheus collector, or nil when metrics are disabled
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(metricsNamespace)
}

// ProvideRecorder fans build and export observations out to every enabled sink
func ProvideRecorder(
	cfg *config.Config,
	collector *observability.Collector,
	client *awscloudwatch.Client,
	logger *zap.Logger,
) observability.Recorder {
	recorders := observability.Recorders{}
	if collector != nil {
		recorders = append(recorders, collector)
	}
	if cfg.EnableCloudWatch {
		recorders = append(recorders, observability.NewCloudWatchMetrics(metricsNamespace, client, logger))
	}
	return recorders
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	name := cfg.LambdaFunctionName
	if name == "" {
		name = metricsNamespace
	}
	return observability.NewTracer(name, cfg.EnableTracing)
}

// ProvideExporter selects the Graphviz exporter, falling back to DOT text when dot is missing
func ProvideExporter(cfg *config.Config, logger *zap.Logger) ports.GraphExporter {
	return graphviz.NewExporter(graphviz.Options{
		DotPath: cfg.GraphvizDotPath,
		Format:  cfg.RenderFormat,
		Timeout: cfg.RenderTimeout,
		Breaker: graphviz.DefaultBreakerSettings(),
	}, logger)
}

// ProvideLineageBuilder creates the lineage builder with the configured node cap
func ProvideLineageBuilder(
	fetcher *services.EntityFetcher,
	store ports.MetadataStore,
	limits *domainconfig.DomainConfig,
	logger *zap.Logger,
	tracer *observability.Tracer,
) *services.LineageBuilder {
	return services.NewLineageBuilder(fetcher, store, limits.MaxLineageNodes, logger, tracer)
}

// ProvideDotRenderer creates the DOT renderer
func ProvideDotRenderer(cfg *config.Config) *services.DotRenderer {
	return services.NewDotRenderer(cfg.LinkBaseURL)
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	lineage *services.LineageService,
	fetcher *services.EntityFetcher,
	renderer *services.DotRenderer,
	store ports.MetadataStore,
	limits *domainconfig.DomainConfig,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	var middleware []querybus.Middleware
	if collector != nil {
		middleware = append(middleware, querybus.NewMetricsMiddleware(collector))
	}
	queryBus := querybus.NewQueryBus(middleware...)

	// Register GetLineageGraphQuery handler
	lineageHandler := queries_handlers.NewGetLineageGraphHandler(lineage, logger)
	if err := queryBus.Register(queries.GetLineageGraphQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetLineageGraphQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return lineageHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	// Register GetEntityQuery handler
	entityHandler := queries_handlers.NewGetEntityHandler(fetcher, renderer)
	if err := queryBus.Register(queries.GetEntityQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetEntityQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return entityHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	// Register GetContextQuery handler
	contextHandler := queries_handlers.NewGetContextHandler(fetcher, store, renderer)
	if err := queryBus.Register(queries.GetContextQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetContextQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return contextHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	// Register GetTypeQuery handler
	typeHandler := queries_handlers.NewGetTypeHandler(store, renderer)
	if err := queryBus.Register(queries.GetTypeQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetTypeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return typeHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	// Register ListEventsQuery handler
	eventsHandler := queries_handlers.NewListEventsHandler(store, limits, logger)
	if err := queryBus.Register(queries.ListEventsQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListEventsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return eventsHandler.Handle(ctx, q)
		},
	}); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideErrorHandler creates the HTTP error handler; stack traces are exposed in development only
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRateLimiter creates the graph endpoint limiter, or nil when rate limiting is off.
// Lambda deployments with a counter table share limits across instances through DynamoDB.
func ProvideRateLimiter(cfg *config.Config, client *awsdynamodb.Client) ratelimit.Limiter {
	if !cfg.RateLimitEnabled() {
		return nil
	}
	if cfg.IsLambda && cfg.RateLimitTable != "" {
		perSecond := int(cfg.RateLimitRPS)
		if perSecond < 1 {
			perSecond = 1
		}
		return ratelimit.NewWindowLimiter(client, cfg.RateLimitTable, perSecond+cfg.RateLimitBurst, time.Second)
	}
	return ratelimit.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	queryBus *querybus.QueryBus,
	store ports.MetadataStore,
	collector *observability.Collector,
	errors *apperrors.ErrorHandler,
	limiter ratelimit.Limiter,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *rest.Router {
	options := rest.Options{
		EnableCORS:     cfg.EnableCORS,
		Limiter:        limiter,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}
	// Lambda owns the invocation segment; subsegments attach to it directly
	if !cfg.IsLambda {
		options.Tracer = tracer
	}
	return rest.NewRouter(queryBus, store, collector, errors, options, logger)
}
