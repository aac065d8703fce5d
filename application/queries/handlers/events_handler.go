package handlers

import (
	"context"
	"fmt"

	"mlmdview/application/ports"
	"mlmdview/application/queries"
	"mlmdview/domain/config"
	"mlmdview/domain/core/entities"
	apperrors "mlmdview/pkg/errors"

	"go.uber.org/zap"
)

// ListEventsHandler handles event listing queries
type ListEventsHandler struct {
	store  ports.MetadataStore
	limits *config.DomainConfig
	logger *zap.Logger
}

// NewListEventsHandler creates a new event listing handler
func NewListEventsHandler(store ports.MetadataStore, limits *config.DomainConfig, logger *zap.Logger) *ListEventsHandler {
	if limits == nil {
		limits = config.DefaultDomainConfig()
	}
	return &ListEventsHandler{
		store:  store,
		limits: limits,
		logger: logger,
	}
}

// Handle executes the event listing query
func (h *ListEventsHandler) Handle(ctx context.Context, query queries.ListEventsQuery) (*queries.ListEventsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if query.Limit > h.limits.MaxEventLimit {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("limit must be at most %d", h.limits.MaxEventLimit),
		)
	}
	if query.Limit == 0 {
		query.Limit = h.limits.DefaultEventLimit
	}

	filter := query.Filter().Normalize()
	events, err := h.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list events", err)
	}
	if events == nil {
		events = []entities.Event{}
	}

	h.logger.Debug("Listed events",
		zap.Int("count", len(events)),
		zap.Int("limit", filter.Limit),
		zap.Int("offset", filter.Offset),
	)

	result := &queries.ListEventsResult{
		Events: events,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if len(events) == filter.Limit {
		next := filter.Offset + filter.Limit
		result.NextOffset = &next
	}
	return result, nil
}
