package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pipelineFixture = `
artifact_types:
  - id: 1
    name: Model
    properties:
      version: INT
execution_types:
  - id: 1
    name: Trainer
artifacts:
  - id: 7
    type_id: 1
    uri: s3://m/7
    state: LIVE
    ctime: 2024-02-01T08:00:00Z
    properties:
      version: 2
    custom_properties:
      score: 0.5
      owner: ml
executions:
  - id: 3
    type_id: 1
    state: RUNNING
events:
  - artifact: 7
    execution: 3
    type: OUTPUT
    path: [0, model]
    time: 2024-02-01T08:00:00Z
  - artifact: 7
    execution: 4
    type: INPUT
    time: 2024-02-01T09:00:00Z
`

func loadPipeline(t *testing.T) *Store {
	t.Helper()
	s, err := LoadFixture(strings.NewReader(pipelineFixture))
	require.NoError(t, err)
	return s
}

func TestLoadFixture(t *testing.T) {
	s := loadPipeline(t)
	ctx := context.Background()

	record, err := s.GetEntityByID(ctx, valueobjects.RoleArtifact, 7)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "s3://m/7", record.URI)
	assert.Equal(t, "LIVE", record.State)
	assert.Equal(t, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC), record.CreateTime.UTC())
	assert.Equal(t, entities.IntValue(2), record.Properties["version"])
	assert.Equal(t, entities.DoubleValue(0.5), record.CustomProperties["score"])
	assert.Equal(t, entities.StringValue("ml"), record.CustomProperties["owner"])

	typ, err := s.GetTypeByID(ctx, valueobjects.RoleArtifact, 1)
	require.NoError(t, err)
	require.NotNil(t, typ)
	assert.Equal(t, "Model", typ.Name)
	assert.Equal(t, entities.PropertyKindInt, typ.Properties["version"])

	execType, err := s.GetTypeByID(ctx, valueobjects.RoleExecution, 1)
	require.NoError(t, err)
	assert.Equal(t, "Trainer", execType.Name)

	events, err := s.GetEventsFor(ctx, valueobjects.RoleArtifact, 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, valueobjects.EventTypeOutput, events[0].Type)
	assert.Equal(t, "0,model", events[0].Path.String())
}

func TestLoadFixture_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad event type":    "events:\n  - {artifact: 1, execution: 1, type: PRODUCED}\n",
		"bad path step":     "events:\n  - {artifact: 1, execution: 1, type: INPUT, path: [1.5]}\n",
		"bad property kind": "artifact_types:\n  - {id: 1, name: M, properties: {x: BOOL}}\n",
		"malformed yaml":    "artifacts: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFixture(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFixture_Empty(t *testing.T) {
	s, err := LoadFixture(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Events)
}

func TestStore_MissingLookupsReturnNil(t *testing.T) {
	s := loadPipeline(t)
	ctx := context.Background()

	record, err := s.GetEntityByID(ctx, valueobjects.RoleExecution, 7)
	require.NoError(t, err)
	assert.Nil(t, record)

	typ, err := s.GetTypeByID(ctx, valueobjects.RoleArtifact, 99)
	require.NoError(t, err)
	assert.Nil(t, typ)

	events, err := s.GetEventsFor(ctx, valueobjects.RoleExecution, 99)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_CanceledContext(t *testing.T) {
	s := loadPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetEntityByID(ctx, valueobjects.RoleArtifact, 7)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}

func TestStore_ListEvents(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 5; i++ {
		s.AddEvent(entities.Event{
			ArtifactID:  i,
			ExecutionID: i % 2,
			Type:        valueobjects.EventTypeInput,
			Time:        base.Add(time.Duration(i) * time.Minute),
		})
	}
	one := int64(1)

	tests := []struct {
		name   string
		filter ports.EventFilter
		want   []int64
	}{
		{"newest first by default", ports.EventFilter{}, []int64{5, 4, 3, 2, 1}},
		{"ascending", ports.EventFilter{Asc: true}, []int64{1, 2, 3, 4, 5}},
		{"page", ports.EventFilter{Asc: true, Limit: 2, Offset: 1}, []int64{2, 3}},
		{"offset past end", ports.EventFilter{Offset: 10}, []int64{}},
		{"by execution", ports.EventFilter{ExecutionID: &one, Asc: true}, []int64{1, 3, 5}},
		{"by artifact and execution", ports.EventFilter{ArtifactID: &one, ExecutionID: &one}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := s.ListEvents(context.Background(), tt.filter)
			require.NoError(t, err)
			got := make([]int64, 0, len(events))
			for _, e := range events {
				got = append(got, e.ArtifactID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Snapshot(t *testing.T) {
	s := loadPipeline(t)
	snap := s.Snapshot()

	require.Len(t, snap.Types, 2)
	assert.Equal(t, valueobjects.RoleArtifact, snap.Types[0].Role)
	assert.Equal(t, valueobjects.RoleExecution, snap.Types[1].Role)
	assert.Len(t, snap.Artifacts, 1)
	assert.Len(t, snap.Executions, 1)
	assert.Len(t, snap.Events, 2)
}

func TestStore_ListEvents_EqualTimesOrderByID(t *testing.T) {
	s := NewStore()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.AddEvent(entities.Event{ArtifactID: 1, ExecutionID: 1, Type: valueobjects.EventTypeInput, Time: at})
	s.AddEvent(entities.Event{ArtifactID: 2, ExecutionID: 1, Type: valueobjects.EventTypeOutput, Time: at})
	s.AddEvent(entities.Event{ArtifactID: 3, ExecutionID: 1, Type: valueobjects.EventTypeOutput, Time: at})

	ids := func(events []entities.Event) []int64 {
		out := make([]int64, 0, len(events))
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}

	desc, err := s.ListEvents(context.Background(), ports.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, ids(desc))

	asc, err := s.ListEvents(context.Background(), ports.EventFilter{Asc: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(asc))
}

func TestStore_AddEventKeepsExplicitIDs(t *testing.T) {
	s := NewStore()
	s.AddEvent(entities.Event{ID: 10, ArtifactID: 1, ExecutionID: 1})
	s.AddEvent(entities.Event{ArtifactID: 2, ExecutionID: 1})

	events := s.Snapshot().Events
	require.Len(t, events, 2)
	assert.Equal(t, int64(10), events[0].ID)
	assert.Equal(t, int64(11), events[1].ID)
}

const contextFixture = `
context_types:
  - id: 5
    name: PipelineRun
    properties:
      owner: STRING
contexts:
  - id: 1
    type_id: 5
    name: run-1
    ctime: 2024-02-01T08:00:00Z
    properties:
      owner: ml
    attributions: [9, 7, 7]
    associations: [3]
`

func TestLoadFixture_Contexts(t *testing.T) {
	s, err := LoadFixture(strings.NewReader(contextFixture))
	require.NoError(t, err)
	ctx := context.Background()

	record, err := s.GetEntityByID(ctx, valueobjects.RoleContext, 1)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "run-1", record.Name)
	assert.Equal(t, entities.StringValue("ml"), record.Properties["owner"])

	typ, err := s.GetTypeByID(ctx, valueobjects.RoleContext, 5)
	require.NoError(t, err)
	require.NotNil(t, typ)
	assert.Equal(t, "PipelineRun", typ.Name)

	members, err := s.GetContextMembers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, members.Artifacts)
	assert.Equal(t, []int64{3}, members.Executions)

	members, err = s.GetContextMembers(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, members.Artifacts)
	assert.Empty(t, members.Executions)

	snap := s.Snapshot()
	require.Len(t, snap.Contexts, 1)
	assert.Equal(t, []int64{7, 9}, snap.Members[1].Artifacts)
}
