package services

import (
	"context"
	"sync"
	"time"

	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
	"mlmdview/infrastructure/persistence/memory"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const (
	modelTypeID   int64 = 1
	trainerTypeID int64 = 2
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestStore returns a store with one artifact type ("Model") and one execution type ("Trainer")
func newTestStore() *memory.Store {
	s := memory.NewStore()
	s.AddType(entities.EntityType{ID: modelTypeID, Role: valueobjects.RoleArtifact, Name: "Model"})
	s.AddType(entities.EntityType{ID: trainerTypeID, Role: valueobjects.RoleExecution, Name: "Trainer"})
	return s
}

func addArtifacts(s *memory.Store, ids ...int64) {
	for _, id := range ids {
		s.AddArtifact(entities.EntityRecord{ID: id, TypeID: modelTypeID, CreateTime: baseTime})
	}
}

func addExecutions(s *memory.Store, ids ...int64) {
	for _, id := range ids {
		s.AddExecution(entities.EntityRecord{ID: id, TypeID: trainerTypeID, CreateTime: baseTime})
	}
}

func addEvent(s *memory.Store, artifact, execution int64, typ valueobjects.EventType, path ...valueobjects.EventStep) {
	s.AddEvent(entities.Event{
		ArtifactID:  artifact,
		ExecutionID: execution,
		Type:        typ,
		Path:        path,
		Time:        baseTime,
	})
}

// scenarioStore holds A1 produced by E1, which consumed A0
func scenarioStore() *memory.Store {
	s := newTestStore()
	addArtifacts(s, 0, 1)
	addExecutions(s, 1)
	addEvent(s, 1, 1, valueobjects.EventTypeOutput, valueobjects.IndexStep(0), valueobjects.KeyStep("model"))
	addEvent(s, 0, 1, valueobjects.EventTypeInput)
	return s
}

func newTestBuilder(store ports.MetadataStore, maxNodes int) *LineageBuilder {
	return NewLineageBuilder(NewEntityFetcher(store), store, maxNodes, zap.NewNop(), nil)
}

// countingStore records how often each entity is fetched
type countingStore struct {
	ports.MetadataStore

	mu      sync.Mutex
	fetches map[valueobjects.NodeID]int
}

func newCountingStore(inner ports.MetadataStore) *countingStore {
	return &countingStore{MetadataStore: inner, fetches: map[valueobjects.NodeID]int{}}
}

func (c *countingStore) GetEntityByID(ctx context.Context, role valueobjects.Role, id int64) (*entities.EntityRecord, error) {
	c.mu.Lock()
	c.fetches[valueobjects.NodeID{Role: role, ID: id}]++
	c.mu.Unlock()
	return c.MetadataStore.GetEntityByID(ctx, role, id)
}

// MockMetadataStore is a testify mock of ports.MetadataStore
type MockMetadataStore struct {
	mock.Mock
}

func (m *MockMetadataStore) GetEntityByID(ctx context.Context, role valueobjects.Role, id int64) (*entities.EntityRecord, error) {
	args := m.Called(ctx, role, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EntityRecord), args.Error(1)
}

func (m *MockMetadataStore) GetTypeByID(ctx context.Context, role valueobjects.Role, typeID int64) (*entities.EntityType, error) {
	args := m.Called(ctx, role, typeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EntityType), args.Error(1)
}

func (m *MockMetadataStore) GetEventsFor(ctx context.Context, role valueobjects.Role, id int64) ([]entities.Event, error) {
	args := m.Called(ctx, role, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Event), args.Error(1)
}

func (m *MockMetadataStore) ListEvents(ctx context.Context, filter ports.EventFilter) ([]entities.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Event), args.Error(1)
}

func (m *MockMetadataStore) GetContextMembers(ctx context.Context, contextID int64) (*entities.ContextMembers, error) {
	args := m.Called(ctx, contextID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ContextMembers), args.Error(1)
}

func (m *MockMetadataStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMetadataStore) Close() error {
	return m.Called().Error(0)
}

// stubExporter returns a fixed output kind
type stubExporter struct {
	image []byte
	calls int
	ctx   context.Context
}

func (s *stubExporter) Export(ctx context.Context, dot string) ports.RenderedOutput {
	s.calls++
	s.ctx = ctx
	if s.image != nil {
		return ports.ImageOutput(s.image, "image/png")
	}
	return ports.TextOutput(dot)
}
