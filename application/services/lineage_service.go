package services

import (
	"context"
	"time"

	"mlmdview/application/ports"
	"mlmdview/domain/core/aggregates"
	"mlmdview/domain/core/valueobjects"
	apperrors "mlmdview/pkg/errors"
	"mlmdview/pkg/observability"

	"go.uber.org/zap"
)

// LineageView is a built graph together with its DOT text and exported output
type LineageView struct {
	Graph  *aggregates.LineageGraph
	DOT    string
	Output ports.RenderedOutput
}

// LineageService runs the build, render and export pipeline for one seed
type LineageService struct {
	builder  *LineageBuilder
	renderer *DotRenderer
	exporter ports.GraphExporter
	recorder observability.Recorder
	tracer   *observability.Tracer
	logger   *zap.Logger
}

// NewLineageService creates a new lineage service. recorder and tracer may be nil.
func NewLineageService(
	builder *LineageBuilder,
	renderer *DotRenderer,
	exporter ports.GraphExporter,
	recorder observability.Recorder,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *LineageService {
	if recorder == nil {
		recorder = observability.Recorders{}
	}
	return &LineageService{
		builder:  builder,
		renderer: renderer,
		exporter: exporter,
		recorder: recorder,
		tracer:   tracer,
		logger:   logger,
	}
}

// Render builds the graph of seed and returns its DOT description
func (s *LineageService) Render(ctx context.Context, seed valueobjects.NodeID) (*aggregates.LineageGraph, string, error) {
	start := time.Now()
	graph, err := s.builder.Build(ctx, seed)

	nodes := 0
	if graph != nil {
		nodes = graph.NodeCount()
	}
	s.recorder.RecordBuild(ctx, string(seed.Role), nodes, time.Since(start), outcomeOf(err))

	if err != nil {
		return nil, "", err
	}
	return graph, s.renderer.Render(graph), nil
}

// Lineage builds, renders and exports the graph of seed.
// Export problems never fail the call; the output falls back to the DOT text.
func (s *LineageService) Lineage(ctx context.Context, seed valueobjects.NodeID) (*LineageView, error) {
	graph, dot, err := s.Render(ctx, seed)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	exportCtx, seg := s.tracer.StartSubsegment(ctx, "lineage.export")
	output := s.exporter.Export(exportCtx, dot)
	kind := "text"
	if output.IsImage() {
		kind = "image"
	}
	s.tracer.AddAnnotation(exportCtx, "output", kind)
	s.tracer.End(seg, nil)
	s.recorder.RecordExport(ctx, kind, time.Since(start))

	s.logger.Debug("Lineage graph exported",
		zap.Stringer("seed", seed),
		zap.String("kind", kind),
		zap.Int("bytes", len(output.Data)),
	)

	return &LineageView{Graph: graph, DOT: dot, Output: output}, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case apperrors.IsNotFound(err):
		return observability.OutcomeNotFound
	case apperrors.IsTooManyNodes(err):
		return observability.OutcomeTooManyNodes
	default:
		return observability.OutcomeError
	}
}
