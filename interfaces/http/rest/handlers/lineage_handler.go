package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"mlmdview/application/ports"
	"mlmdview/application/queries"
	querybus "mlmdview/application/queries/bus"
	"mlmdview/domain/core/valueobjects"
	apperrors "mlmdview/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LineageHandler serves lineage graphs and the entity and event views they link to
type LineageHandler struct {
	queryBus *querybus.QueryBus
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewLineageHandler creates a new lineage handler
func NewLineageHandler(queryBus *querybus.QueryBus, errors *apperrors.ErrorHandler, logger *zap.Logger) *LineageHandler {
	return &LineageHandler{
		queryBus: queryBus,
		errors:   errors,
		logger:   logger,
	}
}

// GetGraph handles GET /{artifacts|executions}/{id}/graph.
// The body is the rendered image, or the DOT text when no image could be produced
// or ?format=dot is given.
func (h *LineageHandler) GetGraph(role valueobjects.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, role)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}

		result, err := h.queryBus.Ask(r.Context(), queries.GetLineageGraphQuery{Role: string(role), ID: id})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		graph, ok := result.(*queries.GetLineageGraphResult)
		if !ok {
			h.errors.Handle(w, r, apperrors.NewInternalError("unexpected lineage result"))
			return
		}

		output := graph.Output
		if r.URL.Query().Get("format") == "dot" {
			output = ports.TextOutput(graph.DOT)
		}

		w.Header().Set("Content-Type", output.ContentType)
		w.Header().Set("X-Lineage-Nodes", strconv.Itoa(graph.Graph.NodeCount()))
		w.Header().Set("X-Lineage-Edges", strconv.Itoa(graph.Graph.EdgeCount()))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(output.Data); err != nil {
			h.logger.Warn("Failed to write lineage graph", zap.Stringer("seed", graph.Seed), zap.Error(err))
		}
	}
}

// GetEntity handles GET /{artifacts|executions}/{id}
func (h *LineageHandler) GetEntity(role valueobjects.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, role)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}

		result, err := h.queryBus.Ask(r.Context(), queries.GetEntityQuery{Role: string(role), ID: id})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}

		h.respondJSON(w, http.StatusOK, result)
	}
}

// GetContext handles GET /contexts/{id}
func (h *LineageHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, valueobjects.RoleContext)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetContextQuery{ID: id})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetType handles GET /{artifact|execution|context}_types/{id}
func (h *LineageHandler) GetType(role valueobjects.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, role)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}

		result, err := h.queryBus.Ask(r.Context(), queries.GetTypeQuery{Kind: string(role), ID: id})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}

		h.respondJSON(w, http.StatusOK, result)
	}
}

// ListEvents handles GET /events?artifact=&execution=&limit=&offset=&asc=
func (h *LineageHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := queries.ListEventsQuery{}

	var err error
	if query.ArtifactID, err = optionalInt64(q.Get("artifact"), "artifact"); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.ExecutionID, err = optionalInt64(q.Get("execution"), "execution"); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.Limit, err = optionalInt(q.Get("limit"), "limit"); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.Offset, err = optionalInt(q.Get("offset"), "offset"); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if asc := q.Get("asc"); asc != "" {
		if query.Asc, err = strconv.ParseBool(asc); err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("asc must be a boolean"))
			return
		}
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func parseID(r *http.Request, role valueobjects.Role) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid %s id: %q", role, raw))
	}
	return id, nil
}

func optionalInt64(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return &v, nil
}

func optionalInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}
