package services

import (
	"context"
	"errors"
	"time"

	"mlmdview/application/ports"
	"mlmdview/domain/core/aggregates"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
	apperrors "mlmdview/pkg/errors"
	"mlmdview/pkg/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LineageBuilder discovers the provenance graph around a seed artifact or execution
type LineageBuilder struct {
	fetcher  *EntityFetcher
	store    ports.MetadataStore
	maxNodes int
	logger   *zap.Logger
	tracer   *observability.Tracer
}

// NewLineageBuilder creates a new lineage builder.
// maxNodes <= 0 selects aggregates.MaxLineageNodes.
func NewLineageBuilder(
	fetcher *EntityFetcher,
	store ports.MetadataStore,
	maxNodes int,
	logger *zap.Logger,
	tracer *observability.Tracer,
) *LineageBuilder {
	if maxNodes <= 0 || maxNodes > aggregates.MaxLineageNodes {
		maxNodes = aggregates.MaxLineageNodes
	}
	return &LineageBuilder{
		fetcher:  fetcher,
		store:    store,
		maxNodes: maxNodes,
		logger:   logger,
		tracer:   tracer,
	}
}

// Build walks the events around seed and returns the lineage graph.
//
// Nodes with the seed's role only follow events that produced them (plus every
// event of the seed itself); nodes of the opposite role only follow events that
// consumed artifacts. Edges always point in data-flow direction.
func (b *LineageBuilder) Build(ctx context.Context, seed valueobjects.NodeID) (graph *aggregates.LineageGraph, err error) {
	ctx, seg := b.tracer.StartSubsegment(ctx, "lineage.build")
	defer func() { b.tracer.End(seg, err) }()
	b.tracer.AddAnnotation(ctx, "seed", seed.String())

	logger := b.logger.With(
		zap.String("buildID", uuid.New().String()),
		zap.Stringer("seed", seed),
	)
	start := time.Now()

	graph = aggregates.NewLineageGraphWithLimit(seed, b.maxNodes)
	stack := []valueobjects.NodeID{seed}

	for len(stack) > 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.NewTimeoutError("build lineage graph").WithCause(ctxErr)
		}

		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if graph.HasNode(curr) {
			continue
		}

		entity, err := b.fetcher.Fetch(ctx, curr)
		if err != nil {
			logger.Debug("Lineage build aborted", zap.Stringer("node", curr), zap.Error(err))
			return nil, err
		}

		events, err := b.store.GetEventsFor(ctx, curr.Role, curr.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("get events of "+curr.String(), err)
		}

		if err := graph.AddNode(aggregates.NewLineageNode(entity, events)); err != nil {
			if errors.Is(err, aggregates.ErrTooManyNodes) {
				logger.Warn("Lineage graph exceeds node cap",
					zap.Int("maxNodes", graph.MaxNodes()),
					zap.Stringer("node", curr),
				)
				return nil, apperrors.NewTooManyNodesError(seed.String(), graph.MaxNodes()).WithCause(err)
			}
			return nil, apperrors.NewInternalError("failed to add lineage node").WithCause(err)
		}

		stack = b.expand(graph, seed, curr, events, stack)
	}

	if err := graph.Validate(); err != nil {
		return nil, apperrors.NewInternalError("inconsistent lineage graph").WithCause(err)
	}

	logger.Info("Lineage graph built",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Duration("duration", time.Since(start)),
	)
	return graph, nil
}

// expand pushes the neighbors of curr and records its edges
func (b *LineageBuilder) expand(
	graph *aggregates.LineageGraph,
	seed, curr valueobjects.NodeID,
	events []entities.Event,
	stack []valueobjects.NodeID,
) []valueobjects.NodeID {
	other := curr.Role.Opposite()

	for _, e := range events {
		neighbor := e.Endpoint(other)

		if curr.Role == seed.Role {
			if curr == seed || e.Type.IsOutput() {
				stack = append(stack, neighbor)
			}
			if e.Type.IsOutput() {
				graph.AddEdge(e.Execution(), e.Artifact(), e)
			}
			continue
		}

		if e.Type.IsInput() {
			stack = append(stack, neighbor)
			graph.AddEdge(e.Artifact(), e.Execution(), e)
		}
	}
	return stack
}
