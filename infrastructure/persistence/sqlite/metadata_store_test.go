package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mlmdSchema is the subset of the ML Metadata SQLite schema read by the store
const mlmdSchema = `
CREATE TABLE Type (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name VARCHAR(255) NOT NULL,
  version VARCHAR(255),
  type_kind TINYINT(1) NOT NULL,
  description TEXT,
  input_type TEXT,
  output_type TEXT
);
CREATE TABLE TypeProperty (
  type_id INT NOT NULL,
  name VARCHAR(255) NOT NULL,
  data_type INT NULL,
  PRIMARY KEY (type_id, name)
);
CREATE TABLE Artifact (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  type_id INT NOT NULL,
  uri TEXT,
  state INT,
  name VARCHAR(255),
  create_time_since_epoch INT NOT NULL DEFAULT 0,
  last_update_time_since_epoch INT NOT NULL DEFAULT 0
);
CREATE TABLE ArtifactProperty (
  artifact_id INT NOT NULL,
  name VARCHAR(255) NOT NULL,
  is_custom_property TINYINT(1) NOT NULL,
  int_value INT,
  double_value DOUBLE,
  string_value TEXT,
  PRIMARY KEY (artifact_id, name, is_custom_property)
);
CREATE TABLE Execution (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  type_id INT NOT NULL,
  last_known_state INT,
  name VARCHAR(255),
  create_time_since_epoch INT NOT NULL DEFAULT 0,
  last_update_time_since_epoch INT NOT NULL DEFAULT 0
);
CREATE TABLE ExecutionProperty (
  execution_id INT NOT NULL,
  name VARCHAR(255) NOT NULL,
  is_custom_property TINYINT(1) NOT NULL,
  int_value INT,
  double_value DOUBLE,
  string_value TEXT,
  PRIMARY KEY (execution_id, name, is_custom_property)
);
CREATE TABLE Event (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  artifact_id INT NOT NULL,
  execution_id INT NOT NULL,
  type INT NOT NULL,
  milliseconds_since_epoch INT
);
CREATE TABLE Context (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  type_id INT NOT NULL,
  name VARCHAR(255) NOT NULL,
  create_time_since_epoch INT NOT NULL DEFAULT 0,
  last_update_time_since_epoch INT NOT NULL DEFAULT 0
);
CREATE TABLE ContextProperty (
  context_id INT NOT NULL,
  name VARCHAR(255) NOT NULL,
  is_custom_property TINYINT(1) NOT NULL,
  int_value INT,
  double_value DOUBLE,
  string_value TEXT,
  PRIMARY KEY (context_id, name, is_custom_property)
);
CREATE TABLE Attribution (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  context_id INT NOT NULL,
  artifact_id INT NOT NULL
);
CREATE TABLE Association (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  context_id INT NOT NULL,
  execution_id INT NOT NULL
);
CREATE TABLE EventPath (
  event_id INT NOT NULL,
  is_index_step TINYINT(1) NOT NULL,
  step_index INT,
  step_key TEXT
);
`

const mlmdRows = `
INSERT INTO Type (id, name, type_kind) VALUES (1, 'Trainer', 0), (2, 'Model', 1), (3, 'Dataset', 1), (4, 'PipelineRun', 2);
INSERT INTO TypeProperty (type_id, name, data_type) VALUES (2, 'accuracy', 2), (2, 'framework', 3), (1, 'epochs', 1);
INSERT INTO Artifact (id, type_id, uri, state, name, create_time_since_epoch, last_update_time_since_epoch)
  VALUES (1, 3, 's3://data/train', 2, 'train', 1700000000000, 1700000000000),
         (2, 2, 's3://models/m1', 2, 'm1', 1700000100000, 1700000200000);
INSERT INTO ArtifactProperty (artifact_id, name, is_custom_property, int_value, double_value, string_value)
  VALUES (2, 'accuracy', 0, NULL, 0.91, NULL),
         (2, 'framework', 0, NULL, NULL, 'torch'),
         (2, 'seed', 1, 42, NULL, NULL);
INSERT INTO Execution (id, type_id, last_known_state, name, create_time_since_epoch)
  VALUES (1, 1, 3, 'train-run', 1700000050000);
INSERT INTO Event (id, artifact_id, execution_id, type, milliseconds_since_epoch)
  VALUES (1, 1, 1, 3, 1700000060000),
         (2, 2, 1, 4, 1700000100000);
INSERT INTO Context (id, type_id, name, create_time_since_epoch) VALUES (1, 4, 'run-1', 1700000000000);
INSERT INTO ContextProperty (context_id, name, is_custom_property, string_value) VALUES (1, 'owner', 1, 'ml');
INSERT INTO Attribution (context_id, artifact_id) VALUES (1, 2), (1, 1);
INSERT INTO Association (context_id, execution_id) VALUES (1, 1);
INSERT INTO EventPath (event_id, is_index_step, step_index, step_key)
  VALUES (2, 1, 0, NULL), (2, 0, NULL, 'model');
`

func openTestStore(t *testing.T) *MetadataStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mlmd.sqlite")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(mlmdSchema)
	require.NoError(t, err)
	_, err = db.Exec(mlmdRows)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := Open(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMetadataStore_GetEntityByID_Artifact(t *testing.T) {
	// Arrange
	store := openTestStore(t)

	// Act
	record, err := store.GetEntityByID(context.Background(), valueobjects.RoleArtifact, 2)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(2), record.TypeID)
	assert.Equal(t, "m1", record.Name)
	assert.Equal(t, "s3://models/m1", record.URI)
	assert.Equal(t, "LIVE", record.State)
	assert.Equal(t, time.UnixMilli(1700000100000).UTC(), record.CreateTime)
	assert.Equal(t, time.UnixMilli(1700000200000).UTC(), record.UpdateTime)
	assert.Equal(t, entities.Properties{
		"accuracy":  entities.DoubleValue(0.91),
		"framework": entities.StringValue("torch"),
	}, record.Properties)
	assert.Equal(t, entities.Properties{"seed": entities.IntValue(42)}, record.CustomProperties)
}

func TestMetadataStore_GetEntityByID_Execution(t *testing.T) {
	store := openTestStore(t)

	record, err := store.GetEntityByID(context.Background(), valueobjects.RoleExecution, 1)

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "COMPLETE", record.State)
	assert.Empty(t, record.URI)
	assert.Nil(t, record.Properties)
}

func TestMetadataStore_GetEntityByID_Missing(t *testing.T) {
	store := openTestStore(t)

	record, err := store.GetEntityByID(context.Background(), valueobjects.RoleArtifact, 99)

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMetadataStore_GetTypeByID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	typ, err := store.GetTypeByID(ctx, valueobjects.RoleArtifact, 2)
	require.NoError(t, err)
	require.NotNil(t, typ)
	assert.Equal(t, "Model", typ.Name)
	assert.Equal(t, map[string]entities.PropertyKind{
		"accuracy":  entities.PropertyKindDouble,
		"framework": entities.PropertyKindString,
	}, typ.Properties)

	// Type 2 is not an execution type
	typ, err = store.GetTypeByID(ctx, valueobjects.RoleExecution, 2)
	require.NoError(t, err)
	assert.Nil(t, typ)
}

func TestMetadataStore_GetEventsFor(t *testing.T) {
	// Arrange
	store := openTestStore(t)

	// Act
	events, err := store.GetEventsFor(context.Background(), valueobjects.RoleExecution, 1)

	// Assert
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, valueobjects.EventTypeInput, events[0].Type)
	assert.Empty(t, events[0].Path)
	assert.Equal(t, valueobjects.EventTypeOutput, events[1].Type)
	assert.Equal(t, "0,model", events[1].Path.String())
	assert.Equal(t, int64(2), events[1].ArtifactID)
}

func TestMetadataStore_ListEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	artifact := int64(2)

	events, err := store.ListEvents(ctx, ports.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ArtifactID, "newest first by default")
	assert.Len(t, events[0].Path, 2)

	events, err = store.ListEvents(ctx, ports.EventFilter{Asc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].ArtifactID)

	events, err = store.ListEvents(ctx, ports.EventFilter{ArtifactID: &artifact})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, valueobjects.EventTypeOutput, events[0].Type)

	events, err = store.ListEvents(ctx, ports.EventFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.sqlite"), zap.NewNop())
	assert.Error(t, err)
}

func TestMetadataStore_Context(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record, err := store.GetEntityByID(ctx, valueobjects.RoleContext, 1)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "run-1", record.Name)
	assert.Empty(t, record.State)
	assert.Equal(t, entities.Properties{"owner": entities.StringValue("ml")}, record.CustomProperties)

	typ, err := store.GetTypeByID(ctx, valueobjects.RoleContext, 4)
	require.NoError(t, err)
	require.NotNil(t, typ)
	assert.Equal(t, "PipelineRun", typ.Name)

	members, err := store.GetContextMembers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, members.Artifacts)
	assert.Equal(t, []int64{1}, members.Executions)

	members, err = store.GetContextMembers(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, members.Artifacts)
}

func TestMetadataStore_EventIDs(t *testing.T) {
	store := openTestStore(t)

	events, err := store.GetEventsFor(context.Background(), valueobjects.RoleExecution, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, int64(2), events[1].ID)
}

func TestReadOnlyDSN(t *testing.T) {
	assert.Equal(t, "file:mlmd.sqlite?mode=ro", readOnlyDSN("mlmd.sqlite"))
	assert.Equal(t, "file:/data/run%3F1%23a.sqlite?mode=ro", readOnlyDSN("/data/run?1#a.sqlite"))
}

func TestOpen_PathWithReservedCharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs?v=1#x")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "mlmd.sqlite")

	create := url.URL{Scheme: "file", Path: path, OmitHost: true, RawQuery: "mode=rwc"}
	db, err := sql.Open("sqlite", create.String())
	require.NoError(t, err)
	_, err = db.Exec(mlmdSchema)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := Open(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	record, err := store.GetEntityByID(context.Background(), valueobjects.RoleArtifact, 1)
	require.NoError(t, err)
	assert.Nil(t, record)
}
