package services

import (
	"context"
	"errors"
	"testing"

	"mlmdview/domain/core/aggregates"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
	apperrors "mlmdview/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type edgeKey struct {
	source string
	target string
}

func edgeKeys(g *aggregates.LineageGraph) []edgeKey {
	keys := make([]edgeKey, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		keys = append(keys, edgeKey{e.Source.String(), e.Target.String()})
	}
	return keys
}

func nodeKeys(g *aggregates.LineageGraph) []string {
	keys := make([]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		keys = append(keys, n.ID().String())
	}
	return keys
}

func TestLineageBuilder_Build_SeedWithoutEvents(t *testing.T) {
	// Arrange
	store := newTestStore()
	addArtifacts(store, 5)
	builder := newTestBuilder(store, 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(5))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"A5"}, nodeKeys(graph))
	assert.Equal(t, 0, graph.EdgeCount())

	node, ok := graph.Node(valueobjects.ArtifactID(5))
	require.True(t, ok)
	assert.Equal(t, 0, node.Inputs)
	assert.Equal(t, 0, node.Outputs)
	assert.Equal(t, "Model", node.Entity.TypeName)
}

func TestLineageBuilder_Build_ArtifactSeedScenario(t *testing.T) {
	// Arrange
	builder := newTestBuilder(scenarioStore(), 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"A0", "A1", "E1"}, nodeKeys(graph))
	assert.Equal(t, []edgeKey{{"A0", "E1"}, {"E1", "A1"}}, edgeKeys(graph))

	counters := map[string][2]int{}
	for _, n := range graph.Nodes() {
		counters[n.ID().String()] = [2]int{n.Inputs, n.Outputs}
	}
	assert.Equal(t, [2]int{0, 1}, counters["A1"])
	assert.Equal(t, [2]int{1, 1}, counters["E1"])
	// counters count each node's own events: A0's only event is E1 consuming it
	assert.Equal(t, [2]int{1, 0}, counters["A0"])

	require.NoError(t, graph.Validate())
}

func TestLineageBuilder_Build_ExecutionSeed(t *testing.T) {
	// Arrange
	builder := newTestBuilder(scenarioStore(), 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ExecutionID(1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"A0", "A1", "E1"}, nodeKeys(graph))
	assert.Equal(t, []edgeKey{{"A0", "E1"}, {"E1", "A1"}}, edgeKeys(graph))
}

func TestLineageBuilder_Build_FollowsProducersUpstream(t *testing.T) {
	// Arrange: A1 -> E1 -> A2 -> E2 -> A3, plus E5 consuming A2 and E9 consuming A3
	store := newTestStore()
	addArtifacts(store, 1, 2, 3)
	addExecutions(store, 1, 2, 5, 9)
	addEvent(store, 1, 1, valueobjects.EventTypeInput)
	addEvent(store, 2, 1, valueobjects.EventTypeOutput)
	addEvent(store, 2, 2, valueobjects.EventTypeInput)
	addEvent(store, 3, 2, valueobjects.EventTypeOutput)
	addEvent(store, 2, 5, valueobjects.EventTypeInput)
	addEvent(store, 3, 9, valueobjects.EventTypeInput)
	builder := newTestBuilder(store, 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(3))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3", "E1", "E2", "E9"}, nodeKeys(graph))
	assert.Equal(t, []edgeKey{
		{"A1", "E1"},
		{"A2", "E2"},
		{"A3", "E9"},
		{"E1", "A2"},
		{"E2", "A3"},
	}, edgeKeys(graph))
	assert.False(t, graph.HasNode(valueobjects.ExecutionID(5)), "consumers of upstream artifacts are not lineage")
	require.NoError(t, graph.Validate())
}

func TestLineageBuilder_Build_ExecutionSeedFollowsConsumersDownstream(t *testing.T) {
	// Arrange: A1 -> E1 -> A2 -> E2 -> A3, plus E5 consuming A1 and E7 also producing A2
	store := newTestStore()
	addArtifacts(store, 1, 2, 3)
	addExecutions(store, 1, 2, 5, 7)
	addEvent(store, 1, 1, valueobjects.EventTypeInput)
	addEvent(store, 2, 1, valueobjects.EventTypeOutput)
	addEvent(store, 2, 2, valueobjects.EventTypeInput)
	addEvent(store, 3, 2, valueobjects.EventTypeOutput)
	addEvent(store, 1, 5, valueobjects.EventTypeInput)
	addEvent(store, 2, 7, valueobjects.EventTypeOutput)
	builder := newTestBuilder(store, 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ExecutionID(1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3", "E1", "E2", "E5"}, nodeKeys(graph))
	assert.Equal(t, []edgeKey{
		{"A1", "E1"},
		{"A1", "E5"},
		{"A2", "E2"},
		{"E1", "A2"},
		{"E2", "A3"},
	}, edgeKeys(graph))
	assert.False(t, graph.HasNode(valueobjects.ExecutionID(7)), "other producers of downstream artifacts are not lineage")
	require.NoError(t, graph.Validate())
}

func TestLineageBuilder_Build_EdgesCarryTheirEvent(t *testing.T) {
	// Arrange
	builder := newTestBuilder(scenarioStore(), 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(1))

	// Assert
	require.NoError(t, err)
	for _, e := range graph.Edges() {
		assert.Equal(t, e.Event.Artifact(), pickRole(e, valueobjects.RoleArtifact))
		assert.Equal(t, e.Event.Execution(), pickRole(e, valueobjects.RoleExecution))
		if e.Event.Type.IsOutput() {
			assert.True(t, e.Source.IsExecution())
		} else {
			assert.True(t, e.Source.IsArtifact())
		}
	}
}

func pickRole(e aggregates.LineageEdge, role valueobjects.Role) valueobjects.NodeID {
	if e.Source.Role == role {
		return e.Source
	}
	return e.Target
}

func TestLineageBuilder_Build_CycleTerminates(t *testing.T) {
	// Arrange: E1 both consumes and produces A1
	store := newTestStore()
	addArtifacts(store, 1)
	addExecutions(store, 1)
	addEvent(store, 1, 1, valueobjects.EventTypeInput)
	addEvent(store, 1, 1, valueobjects.EventTypeOutput)
	counting := newCountingStore(store)
	builder := newTestBuilder(counting, 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "E1"}, nodeKeys(graph))
	assert.Equal(t, []edgeKey{{"A1", "E1"}, {"E1", "A1"}}, edgeKeys(graph))
	assert.Equal(t, 1, counting.fetches[valueobjects.ArtifactID(1)])
	assert.Equal(t, 1, counting.fetches[valueobjects.ExecutionID(1)])
}

func TestLineageBuilder_Build_FetchesEachEntityOnce(t *testing.T) {
	// Arrange: diamond, E1 produces A1 and A2, E2 consumes both and produces A3
	store := newTestStore()
	addArtifacts(store, 1, 2, 3)
	addExecutions(store, 1, 2)
	addEvent(store, 1, 1, valueobjects.EventTypeOutput)
	addEvent(store, 2, 1, valueobjects.EventTypeOutput)
	addEvent(store, 1, 2, valueobjects.EventTypeInput)
	addEvent(store, 2, 2, valueobjects.EventTypeInput)
	addEvent(store, 3, 2, valueobjects.EventTypeOutput)
	counting := newCountingStore(store)
	builder := newTestBuilder(counting, 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(3))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5, graph.NodeCount())
	assert.Len(t, counting.fetches, 5)
	for id, n := range counting.fetches {
		assert.Equal(t, 1, n, "entity %s fetched more than once", id)
	}
}

// fanOutStore holds E1 producing artifacts 1..n
func fanOutStore(n int64) *countingStore {
	store := newTestStore()
	addExecutions(store, 1)
	for id := int64(1); id <= n; id++ {
		addArtifacts(store, id)
		addEvent(store, id, 1, valueobjects.EventTypeOutput)
	}
	return newCountingStore(store)
}

func TestLineageBuilder_Build_AtNodeCap(t *testing.T) {
	// Arrange: 99 artifacts + 1 execution
	builder := newTestBuilder(fanOutStore(99), 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ExecutionID(1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, aggregates.MaxLineageNodes, graph.NodeCount())
}

func TestLineageBuilder_Build_TooManyNodes(t *testing.T) {
	// Arrange: 100 artifacts + 1 execution
	store := fanOutStore(100)
	builder := newTestBuilder(store, 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ExecutionID(1))

	// Assert
	require.Error(t, err)
	assert.Nil(t, graph)
	assert.True(t, apperrors.IsTooManyNodes(err))
	assert.True(t, errors.Is(err, aggregates.ErrTooManyNodes))
	assert.Contains(t, err.Error(), "E1")
	// the 101st node is fetched before the build fails
	assert.Len(t, store.fetches, 101)
}

func TestLineageBuilder_Build_CustomNodeCap(t *testing.T) {
	// Arrange
	builder := newTestBuilder(scenarioStore(), 2)

	// Act
	_, err := builder.Build(context.Background(), valueobjects.ArtifactID(1))

	// Assert
	assert.True(t, apperrors.IsTooManyNodes(err))
}

func TestLineageBuilder_Build_SeedNotFound(t *testing.T) {
	// Arrange
	builder := newTestBuilder(newTestStore(), 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(42))

	// Assert
	assert.Nil(t, graph)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLineageBuilder_Build_NeighborNotFound(t *testing.T) {
	// Arrange: event references E7, which is not stored
	store := newTestStore()
	addArtifacts(store, 1)
	addEvent(store, 1, 7, valueobjects.EventTypeOutput)
	builder := newTestBuilder(store, 0)

	// Act
	_, err := builder.Build(context.Background(), valueobjects.ArtifactID(1))

	// Assert
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "E7")
}

func TestLineageBuilder_Build_MissingType(t *testing.T) {
	// Arrange
	store := newTestStore()
	store.AddArtifact(entities.EntityRecord{ID: 1, TypeID: 99})
	builder := newTestBuilder(store, 0)

	// Act
	_, err := builder.Build(context.Background(), valueobjects.ArtifactID(1))

	// Assert
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

func TestLineageBuilder_Build_StoreError(t *testing.T) {
	// Arrange
	store := new(MockMetadataStore)
	store.On("GetEntityByID", mock.Anything, valueobjects.RoleArtifact, int64(1)).
		Return(&entities.EntityRecord{ID: 1, TypeID: modelTypeID}, nil)
	store.On("GetTypeByID", mock.Anything, valueobjects.RoleArtifact, modelTypeID).
		Return(&entities.EntityType{ID: modelTypeID, Role: valueobjects.RoleArtifact, Name: "Model"}, nil)
	store.On("GetEventsFor", mock.Anything, valueobjects.RoleArtifact, int64(1)).
		Return(nil, errors.New("connection reset"))
	builder := newTestBuilder(store, 0)

	// Act
	graph, err := builder.Build(context.Background(), valueobjects.ArtifactID(1))

	// Assert
	assert.Nil(t, graph)
	assert.True(t, apperrors.IsDatabase(err))
	assert.Contains(t, err.Error(), "connection reset")
	store.AssertExpectations(t)
}

func TestLineageBuilder_Build_CanceledContext(t *testing.T) {
	// Arrange
	builder := newTestBuilder(scenarioStore(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	graph, err := builder.Build(ctx, valueobjects.ArtifactID(1))

	// Assert
	assert.Nil(t, graph)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
}
