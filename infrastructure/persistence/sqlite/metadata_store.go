package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
	"mlmdview/pkg/utils"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ML Metadata Type.type_kind values
const (
	typeKindExecution = 0
	typeKindArtifact  = 1
	typeKindContext   = 2
)

// ML Metadata PropertyType values
var propertyKinds = map[int64]entities.PropertyKind{
	1: entities.PropertyKindInt,
	2: entities.PropertyKindDouble,
	3: entities.PropertyKindString,
}

// MetadataStore reads an ML Metadata SQLite database
type MetadataStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.MetadataStore = (*MetadataStore)(nil)

// Open opens the database at path read-only and checks that it is reachable
func Open(ctx context.Context, path string, logger *zap.Logger) (*MetadataStore, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	logger.Info("Opened ML Metadata database", zap.String("path", path))
	return NewMetadataStore(db, logger), nil
}

// readOnlyDSN builds a SQLite URI for path with any reserved characters escaped
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path, OmitHost: true, RawQuery: "mode=ro"}
	return u.String()
}

// NewMetadataStore wraps an existing connection
func NewMetadataStore(db *sql.DB, logger *zap.Logger) *MetadataStore {
	return &MetadataStore{db: db, logger: logger}
}

type roleTables struct {
	entity   string
	property string
	fk       string
	state    string
	typeKind int
}

func tablesFor(role valueobjects.Role) roleTables {
	switch role {
	case valueobjects.RoleExecution:
		return roleTables{"Execution", "ExecutionProperty", "execution_id", "last_known_state", typeKindExecution}
	case valueobjects.RoleContext:
		return roleTables{"Context", "ContextProperty", "context_id", "NULL", typeKindContext}
	default:
		return roleTables{"Artifact", "ArtifactProperty", "artifact_id", "state", typeKindArtifact}
	}
}

// GetEntityByID implements ports.MetadataStore
func (s *MetadataStore) GetEntityByID(ctx context.Context, role valueobjects.Role, id int64) (*entities.EntityRecord, error) {
	t := tablesFor(role)

	uriColumn := "NULL"
	if role == valueobjects.RoleArtifact {
		uriColumn = "uri"
	}
	query := fmt.Sprintf(
		`SELECT id, type_id, name, %s, %s, create_time_since_epoch, last_update_time_since_epoch FROM %s WHERE id = ?`,
		uriColumn, t.state, t.entity,
	)

	var (
		record     entities.EntityRecord
		name, uri  sql.NullString
		state      sql.NullInt64
		ctime, utm sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&record.ID, &record.TypeID, &name, &uri, &state, &ctime, &utm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s %d: %w", t.entity, id, err)
	}

	record.Name = name.String
	record.URI = uri.String
	record.State = entities.StateName(role, state.Int64)
	record.CreateTime = utils.FromEpochMillis(ctime.Int64)
	record.UpdateTime = utils.FromEpochMillis(utm.Int64)

	if record.Properties, record.CustomProperties, err = s.properties(ctx, t, id); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *MetadataStore) properties(ctx context.Context, t roleTables, id int64) (entities.Properties, entities.Properties, error) {
	query := fmt.Sprintf(
		`SELECT name, is_custom_property, int_value, double_value, string_value FROM %s WHERE %s = ? ORDER BY name`,
		t.property, t.fk,
	)
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s of %d: %w", t.property, id, err)
	}
	defer rows.Close()

	var props, custom entities.Properties
	for rows.Next() {
		var (
			name      string
			isCustom  bool
			intValue  sql.NullInt64
			dblValue  sql.NullFloat64
			strValue  sql.NullString
			propValue entities.PropertyValue
		)
		if err := rows.Scan(&name, &isCustom, &intValue, &dblValue, &strValue); err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", t.property, err)
		}
		switch {
		case intValue.Valid:
			propValue = entities.IntValue(intValue.Int64)
		case dblValue.Valid:
			propValue = entities.DoubleValue(dblValue.Float64)
		default:
			propValue = entities.StringValue(strValue.String)
		}

		if isCustom {
			if custom == nil {
				custom = entities.Properties{}
			}
			custom[name] = propValue
		} else {
			if props == nil {
				props = entities.Properties{}
			}
			props[name] = propValue
		}
	}
	return props, custom, rows.Err()
}

// GetTypeByID implements ports.MetadataStore
func (s *MetadataStore) GetTypeByID(ctx context.Context, role valueobjects.Role, typeID int64) (*entities.EntityType, error) {
	t := tablesFor(role)

	typ := entities.EntityType{Role: role, Properties: map[string]entities.PropertyKind{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM Type WHERE id = ? AND type_kind = ?`, typeID, t.typeKind,
	).Scan(&typ.ID, &typ.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query type %d: %w", typeID, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, data_type FROM TypeProperty WHERE type_id = ?`, typeID)
	if err != nil {
		return nil, fmt.Errorf("query properties of type %d: %w", typeID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name     string
			dataType sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("scan type property: %w", err)
		}
		if kind, ok := propertyKinds[dataType.Int64]; ok {
			typ.Properties[name] = kind
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &typ, nil
}

// GetContextMembers implements ports.MetadataStore
func (s *MetadataStore) GetContextMembers(ctx context.Context, contextID int64) (*entities.ContextMembers, error) {
	artifacts, err := s.memberIDs(ctx, `SELECT DISTINCT artifact_id FROM Attribution WHERE context_id = ? ORDER BY artifact_id`, contextID)
	if err != nil {
		return nil, fmt.Errorf("query attributions of context %d: %w", contextID, err)
	}
	executions, err := s.memberIDs(ctx, `SELECT DISTINCT execution_id FROM Association WHERE context_id = ? ORDER BY execution_id`, contextID)
	if err != nil {
		return nil, fmt.Errorf("query associations of context %d: %w", contextID, err)
	}
	return &entities.ContextMembers{Artifacts: artifacts, Executions: executions}, nil
}

func (s *MetadataStore) memberIDs(ctx context.Context, query string, contextID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, contextID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetEventsFor implements ports.MetadataStore
func (s *MetadataStore) GetEventsFor(ctx context.Context, role valueobjects.Role, id int64) ([]entities.Event, error) {
	t := tablesFor(role)
	query := fmt.Sprintf(`SELECT e.id, e.artifact_id, e.execution_id, e.type, e.milliseconds_since_epoch,
		p.is_index_step, p.step_index, p.step_key
		FROM Event e LEFT JOIN EventPath p ON p.event_id = e.id
		WHERE e.%s = ?
		ORDER BY e.id, p.rowid`, t.fk)
	return s.queryEvents(ctx, query, id)
}

// ListEvents implements ports.MetadataStore
func (s *MetadataStore) ListEvents(ctx context.Context, filter ports.EventFilter) ([]entities.Event, error) {
	filter = filter.Normalize()

	var (
		where []string
		args  []interface{}
	)
	if filter.ArtifactID != nil {
		where = append(where, "artifact_id = ?")
		args = append(args, *filter.ArtifactID)
	}
	if filter.ExecutionID != nil {
		where = append(where, "execution_id = ?")
		args = append(args, *filter.ExecutionID)
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	direction := "DESC"
	if filter.Asc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT e.id, e.artifact_id, e.execution_id, e.type, e.milliseconds_since_epoch,
		p.is_index_step, p.step_index, p.step_key
		FROM (SELECT * FROM Event %[1]s ORDER BY milliseconds_since_epoch %[2]s, id %[2]s LIMIT ? OFFSET ?) e
		LEFT JOIN EventPath p ON p.event_id = e.id
		ORDER BY e.milliseconds_since_epoch %[2]s, e.id %[2]s, p.rowid`, whereClause, direction)
	args = append(args, filter.Limit, filter.Offset)

	return s.queryEvents(ctx, query, args...)
}

// queryEvents folds event rows joined with their path steps into events
func (s *MetadataStore) queryEvents(ctx context.Context, query string, args ...interface{}) ([]entities.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []entities.Event{}
	lastID := int64(-1)
	for rows.Next() {
		var (
			eventID, artifactID, executionID, typ int64
			millis                                sql.NullInt64
			isIndex                               sql.NullBool
			stepIndex                             sql.NullInt64
			stepKey                               sql.NullString
		)
		if err := rows.Scan(&eventID, &artifactID, &executionID, &typ, &millis, &isIndex, &stepIndex, &stepKey); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		if eventID != lastID {
			events = append(events, entities.Event{
				ID:          eventID,
				ArtifactID:  artifactID,
				ExecutionID: executionID,
				Type:        valueobjects.EventType(typ),
				Time:        utils.FromEpochMillis(millis.Int64),
			})
			lastID = eventID
		}

		if !isIndex.Valid {
			continue
		}
		current := &events[len(events)-1]
		if isIndex.Bool {
			current.Path = append(current.Path, valueobjects.IndexStep(stepIndex.Int64))
		} else {
			current.Path = append(current.Path, valueobjects.KeyStep(stepKey.String))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Ping implements ports.MetadataStore
func (s *MetadataStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements ports.MetadataStore
func (s *MetadataStore) Close() error {
	return s.db.Close()
}
