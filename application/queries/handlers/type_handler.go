package handlers

import (
	"context"
	"fmt"

	"mlmdview/application/ports"
	"mlmdview/application/queries"
	"mlmdview/application/services"
	apperrors "mlmdview/pkg/errors"
)

// GetTypeHandler handles type detail queries
type GetTypeHandler struct {
	store    ports.MetadataStore
	renderer *services.DotRenderer
}

// NewGetTypeHandler creates a new type handler
func NewGetTypeHandler(store ports.MetadataStore, renderer *services.DotRenderer) *GetTypeHandler {
	return &GetTypeHandler{store: store, renderer: renderer}
}

// Handle executes the type query. A type id that exists for another kind is not found.
func (h *GetTypeHandler) Handle(ctx context.Context, query queries.GetTypeQuery) (*queries.GetTypeResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	role := query.Role()
	typ, err := h.store.GetTypeByID(ctx, role, query.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get "+string(role)+" type", err)
	}
	if typ == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s type %d", role, query.ID))
	}

	return &queries.GetTypeResult{
		EntityType: *typ,
		URL:        h.renderer.TypeLink(role, typ.ID),
	}, nil
}
