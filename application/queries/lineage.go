package queries

import (
	"mlmdview/application/ports"
	"mlmdview/domain/core/aggregates"
	"mlmdview/domain/core/valueobjects"
	apperrors "mlmdview/pkg/errors"
	"mlmdview/pkg/utils"
)

// GetLineageGraphQuery asks for the rendered lineage graph around one artifact or execution
type GetLineageGraphQuery struct {
	Role string `validate:"required,oneof=artifact execution"`
	ID   int64  `validate:"gt=0"`
}

// Validate validates the GetLineageGraphQuery
func (q GetLineageGraphQuery) Validate() error {
	return validate(q)
}

// Seed returns the node the graph is built around
func (q GetLineageGraphQuery) Seed() valueobjects.NodeID {
	return valueobjects.NodeID{Role: valueobjects.Role(q.Role), ID: q.ID}
}

// GetLineageGraphResult is the built graph with its DOT text and the exported output
type GetLineageGraphResult struct {
	Seed   valueobjects.NodeID
	Graph  *aggregates.LineageGraph
	DOT    string
	Output ports.RenderedOutput
}

func validate(q interface{}) error {
	if err := utils.ValidateStruct(q); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}
