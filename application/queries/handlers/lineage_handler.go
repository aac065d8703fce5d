package handlers

import (
	"context"

	"mlmdview/application/queries"
	"mlmdview/application/services"

	"go.uber.org/zap"
)

// GetLineageGraphHandler handles lineage graph queries
type GetLineageGraphHandler struct {
	service *services.LineageService
	logger  *zap.Logger
}

// NewGetLineageGraphHandler creates a new lineage graph handler
func NewGetLineageGraphHandler(service *services.LineageService, logger *zap.Logger) *GetLineageGraphHandler {
	return &GetLineageGraphHandler{
		service: service,
		logger:  logger,
	}
}

// Handle executes the lineage graph query
func (h *GetLineageGraphHandler) Handle(ctx context.Context, query queries.GetLineageGraphQuery) (*queries.GetLineageGraphResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	seed := query.Seed()
	view, err := h.service.Lineage(ctx, seed)
	if err != nil {
		h.logger.Debug("Lineage query failed", zap.Stringer("seed", seed), zap.Error(err))
		return nil, err
	}

	return &queries.GetLineageGraphResult{
		Seed:   seed,
		Graph:  view.Graph,
		DOT:    view.DOT,
		Output: view.Output,
	}, nil
}
