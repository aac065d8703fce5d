package rest

import (
	"context"
	"net/http"
	"time"

	"mlmdview/application/ports"
	querybus "mlmdview/application/queries/bus"
	"mlmdview/domain/core/valueobjects"
	"mlmdview/interfaces/http/rest/handlers"
	"mlmdview/interfaces/http/rest/middleware"
	apperrors "mlmdview/pkg/errors"
	"mlmdview/pkg/observability"
	"mlmdview/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options toggles the optional parts of the router
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string

	// Limiter is applied to graph endpoints when set
	Limiter        ratelimit.Limiter
	RateLimitRPS   float64
	RateLimitBurst int

	// Tracer opens an X-Ray segment per request when set and enabled
	Tracer *observability.Tracer
}

// Router creates and configures the HTTP router
type Router struct {
	queryBus  *querybus.QueryBus
	store     ports.MetadataStore
	collector *observability.Collector
	errors    *apperrors.ErrorHandler
	options   Options
	logger    *zap.Logger
}

// NewRouter creates a new router instance. collector may be nil to disable /metrics.
func NewRouter(
	queryBus *querybus.QueryBus,
	store ports.MetadataStore,
	collector *observability.Collector,
	errors *apperrors.ErrorHandler,
	options Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		queryBus:  queryBus,
		store:     store,
		collector: collector,
		errors:    errors,
		options:   options,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	if rt.options.Tracer != nil {
		router.Use(rt.options.Tracer.Middleware)
	}
	var httpMetrics middleware.HTTPMetrics
	if rt.collector != nil {
		httpMetrics = rt.collector
	}
	router.Use(middleware.Logger(rt.logger, httpMetrics))

	if rt.options.EnableCORS {
		origins := rt.options.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-Lineage-Nodes", "X-Lineage-Edges"},
			MaxAge:         300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	lineage := handlers.NewLineageHandler(rt.queryBus, rt.errors, rt.logger)

	for _, role := range []valueobjects.Role{valueobjects.RoleArtifact, valueobjects.RoleExecution} {
		router.Route("/"+role.Plural(), func(r chi.Router) {
			r.Get("/{id}", lineage.GetEntity(role))
			r.Group(func(r chi.Router) {
				if rt.options.Limiter != nil {
					r.Use(middleware.RateLimit(middleware.RateLimitOptions{
						Limiter: rt.options.Limiter,
						RPS:     rt.options.RateLimitRPS,
						Burst:   rt.options.RateLimitBurst,
						Errors:  rt.errors,
						Logger:  rt.logger,
					}))
				}
				r.Get("/{id}/graph", lineage.GetGraph(role))
			})
		})
	}

	router.Get("/contexts/{id}", lineage.GetContext)
	for _, role := range []valueobjects.Role{valueobjects.RoleArtifact, valueobjects.RoleExecution, valueobjects.RoleContext} {
		router.Get("/"+role.TypeCollection()+"/{id}", lineage.GetType(role))
	}

	router.Get("/events", lineage.ListEvents)

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once the metadata store answers
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	if err := rt.store.Ping(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		rt.errors.HandleStatus(w, req, http.StatusServiceUnavailable, "metadata store unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
