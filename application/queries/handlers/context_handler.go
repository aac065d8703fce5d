package handlers

import (
	"context"

	"mlmdview/application/ports"
	"mlmdview/application/queries"
	"mlmdview/application/services"
	"mlmdview/domain/core/valueobjects"
	apperrors "mlmdview/pkg/errors"
)

// GetContextHandler handles context detail queries
type GetContextHandler struct {
	fetcher  *services.EntityFetcher
	store    ports.MetadataStore
	renderer *services.DotRenderer
}

// NewGetContextHandler creates a new context handler
func NewGetContextHandler(fetcher *services.EntityFetcher, store ports.MetadataStore, renderer *services.DotRenderer) *GetContextHandler {
	return &GetContextHandler{
		fetcher:  fetcher,
		store:    store,
		renderer: renderer,
	}
}

// Handle executes the context query
func (h *GetContextHandler) Handle(ctx context.Context, query queries.GetContextQuery) (*queries.GetContextResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	id := query.NodeID()
	entity, err := h.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	members, err := h.store.GetContextMembers(ctx, id.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get context members", err)
	}

	return &queries.GetContextResult{
		Entity:     entity,
		Node:       id.String(),
		URL:        h.renderer.Link(id),
		TypeURL:    h.renderer.TypeLink(id.Role, entity.TypeID),
		Artifacts:  h.links(valueobjects.RoleArtifact, members.Artifacts),
		Executions: h.links(valueobjects.RoleExecution, members.Executions),
	}, nil
}

func (h *GetContextHandler) links(role valueobjects.Role, ids []int64) []queries.NodeLink {
	links := make([]queries.NodeLink, 0, len(ids))
	for _, id := range ids {
		node := valueobjects.NodeID{Role: role, ID: id}
		url := h.renderer.Link(node)
		links = append(links, queries.NodeLink{Node: node.String(), URL: url, GraphURL: url + "/graph"})
	}
	return links
}
