package handlers

import (
	"context"

	"mlmdview/application/queries"
	"mlmdview/application/services"
)

// GetEntityHandler handles entity detail queries
type GetEntityHandler struct {
	fetcher  *services.EntityFetcher
	renderer *services.DotRenderer
}

// NewGetEntityHandler creates a new entity handler. The renderer supplies the
// links so they match the URLs embedded in rendered graphs.
func NewGetEntityHandler(fetcher *services.EntityFetcher, renderer *services.DotRenderer) *GetEntityHandler {
	return &GetEntityHandler{
		fetcher:  fetcher,
		renderer: renderer,
	}
}

// Handle executes the entity query
func (h *GetEntityHandler) Handle(ctx context.Context, query queries.GetEntityQuery) (*queries.GetEntityResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	id := query.NodeID()
	entity, err := h.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	url := h.renderer.Link(id)
	return &queries.GetEntityResult{
		Entity:   entity,
		Node:     id.String(),
		URL:      url,
		GraphURL: url + "/graph",
	}, nil
}
