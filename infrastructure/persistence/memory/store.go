package memory

import (
	"context"
	"sort"
	"sync"

	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
)

// Store is an in-memory MetadataStore
type Store struct {
	mu      sync.RWMutex
	records map[valueobjects.Role]map[int64]entities.EntityRecord
	types   map[valueobjects.Role]map[int64]entities.EntityType
	members map[int64]*entities.ContextMembers
	events  []entities.Event
	nextID  int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		records: map[valueobjects.Role]map[int64]entities.EntityRecord{
			valueobjects.RoleArtifact:  {},
			valueobjects.RoleExecution: {},
			valueobjects.RoleContext:   {},
		},
		types: map[valueobjects.Role]map[int64]entities.EntityType{
			valueobjects.RoleArtifact:  {},
			valueobjects.RoleExecution: {},
			valueobjects.RoleContext:   {},
		},
		members: map[int64]*entities.ContextMembers{},
	}
}

var _ ports.MetadataStore = (*Store)(nil)

// AddType registers an artifact or execution type
func (s *Store) AddType(typ entities.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[typ.Role][typ.ID] = typ
}

// AddArtifact stores an artifact record
func (s *Store) AddArtifact(record entities.EntityRecord) {
	s.addRecord(valueobjects.RoleArtifact, record)
}

// AddExecution stores an execution record
func (s *Store) AddExecution(record entities.EntityRecord) {
	s.addRecord(valueobjects.RoleExecution, record)
}

// AddContext stores a context record
func (s *Store) AddContext(record entities.EntityRecord) {
	s.addRecord(valueobjects.RoleContext, record)
}

// AddAttribution attributes an artifact to a context
func (s *Store) AddAttribution(contextID, artifactID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.membersOf(contextID)
	m.Artifacts = insertSorted(m.Artifacts, artifactID)
}

// AddAssociation associates an execution with a context
func (s *Store) AddAssociation(contextID, executionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.membersOf(contextID)
	m.Executions = insertSorted(m.Executions, executionID)
}

func (s *Store) membersOf(contextID int64) *entities.ContextMembers {
	m, ok := s.members[contextID]
	if !ok {
		m = &entities.ContextMembers{}
		s.members[contextID] = m
	}
	return m
}

func insertSorted(ids []int64, id int64) []int64 {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func (s *Store) addRecord(role valueobjects.Role, record entities.EntityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[role][record.ID] = record
}

// AddEvent appends an event, numbering it when it has no id
func (s *Store) AddEvent(event entities.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == 0 {
		event.ID = s.nextID + 1
	}
	if event.ID > s.nextID {
		s.nextID = event.ID
	}
	s.events = append(s.events, event)
}

// GetEntityByID implements ports.MetadataStore
func (s *Store) GetEntityByID(ctx context.Context, role valueobjects.Role, id int64) (*entities.EntityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[role][id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// GetTypeByID implements ports.MetadataStore
func (s *Store) GetTypeByID(ctx context.Context, role valueobjects.Role, typeID int64) (*entities.EntityType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	typ, ok := s.types[role][typeID]
	if !ok {
		return nil, nil
	}
	return &typ, nil
}

// GetContextMembers implements ports.MetadataStore
func (s *Store) GetContextMembers(ctx context.Context, contextID int64) (*entities.ContextMembers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := &entities.ContextMembers{}
	if m, ok := s.members[contextID]; ok {
		members.Artifacts = append(members.Artifacts, m.Artifacts...)
		members.Executions = append(members.Executions, m.Executions...)
	}
	return members, nil
}

// GetEventsFor implements ports.MetadataStore. Events come back in insertion order.
func (s *Store) GetEventsFor(ctx context.Context, role valueobjects.Role, id int64) ([]entities.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []entities.Event
	for _, e := range s.events {
		if e.Endpoint(role).ID == id {
			result = append(result, e)
		}
	}
	return result, nil
}

// ListEvents implements ports.MetadataStore
func (s *Store) ListEvents(ctx context.Context, filter ports.EventFilter) ([]entities.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()

	s.mu.RLock()
	matched := make([]entities.Event, 0, len(s.events))
	for _, e := range s.events {
		if filter.ArtifactID != nil && e.ArtifactID != *filter.ArtifactID {
			continue
		}
		if filter.ExecutionID != nil && e.ExecutionID != *filter.ExecutionID {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	// time, then id, matching the sqlite and DynamoDB orderings
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !filter.Asc {
			a, b = b, a
		}
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		return a.ID < b.ID
	})

	if filter.Offset >= len(matched) {
		return []entities.Event{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

// Ping implements ports.MetadataStore
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close implements ports.MetadataStore
func (s *Store) Close() error {
	return nil
}

// Snapshot is a copy of everything held by a store
type Snapshot struct {
	Types      []entities.EntityType
	Artifacts  []entities.EntityRecord
	Executions []entities.EntityRecord
	Contexts   []entities.EntityRecord
	Members    map[int64]entities.ContextMembers
	Events     []entities.Event
}

// Snapshot returns the store contents ordered by id (events in insertion order)
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	for _, role := range []valueobjects.Role{valueobjects.RoleArtifact, valueobjects.RoleExecution, valueobjects.RoleContext} {
		for _, t := range s.types[role] {
			snap.Types = append(snap.Types, t)
		}
	}
	for _, r := range s.records[valueobjects.RoleArtifact] {
		snap.Artifacts = append(snap.Artifacts, r)
	}
	for _, r := range s.records[valueobjects.RoleExecution] {
		snap.Executions = append(snap.Executions, r)
	}
	for _, r := range s.records[valueobjects.RoleContext] {
		snap.Contexts = append(snap.Contexts, r)
	}
	snap.Members = make(map[int64]entities.ContextMembers, len(s.members))
	for id, m := range s.members {
		snap.Members[id] = entities.ContextMembers{
			Artifacts:  append([]int64(nil), m.Artifacts...),
			Executions: append([]int64(nil), m.Executions...),
		}
	}
	snap.Events = append(snap.Events, s.events...)

	sort.Slice(snap.Types, func(i, j int) bool {
		if snap.Types[i].Role != snap.Types[j].Role {
			return snap.Types[i].Role < snap.Types[j].Role
		}
		return snap.Types[i].ID < snap.Types[j].ID
	})
	sort.Slice(snap.Artifacts, func(i, j int) bool { return snap.Artifacts[i].ID < snap.Artifacts[j].ID })
	sort.Slice(snap.Executions, func(i, j int) bool { return snap.Executions[i].ID < snap.Executions[j].ID })
	sort.Slice(snap.Contexts, func(i, j int) bool { return snap.Contexts[i].ID < snap.Contexts[j].ID })
	return snap
}
