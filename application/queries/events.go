package queries

import (
	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
)

// ListEventsQuery asks for a page of events, optionally restricted to one artifact and/or execution
type ListEventsQuery struct {
	ArtifactID  *int64 `validate:"omitempty,gt=0"`
	ExecutionID *int64 `validate:"omitempty,gt=0"`
	Limit       int    `validate:"gte=0"`
	Offset      int    `validate:"gte=0"`
	Asc         bool
}

// Validate validates the ListEventsQuery
func (q ListEventsQuery) Validate() error {
	return validate(q)
}

// Filter converts the query into a store filter
func (q ListEventsQuery) Filter() ports.EventFilter {
	return ports.EventFilter{
		ArtifactID:  q.ArtifactID,
		ExecutionID: q.ExecutionID,
		Limit:       q.Limit,
		Offset:      q.Offset,
		Asc:         q.Asc,
	}
}

// ListEventsResult is one page of events
type ListEventsResult struct {
	Events []entities.Event `json:"events"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	// NextOffset is set when the page is full and more events may follow
	NextOffset *int `json:"next_offset,omitempty"`
}
