package dynamodb

import (
	"fmt"
	"strings"

	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
	"mlmdview/pkg/utils"
)

// Single-table layout:
//
//	PK=ARTIFACT#<id>  SK=METADATA                artifact
//	PK=EXECUTION#<id> SK=METADATA                execution
//	PK=CONTEXT#<id>   SK=METADATA                context
//	PK=TYPE#<id>      SK=METADATA                artifact, execution or context type
//	PK=CONTEXT#<id>   SK=MEMBER#<role>#<id>      attribution or association
//	PK=ARTIFACT#<id>  SK=EVENT#<event key>       event, artifact side (carries GSI1)
//	PK=EXECUTION#<id> SK=EVENT#<event key>       event, execution side
//	GSI1PK=EVENT      GSI1SK=<event key>         all events by time
//
// The event key is <time>#<event id>#A<id>#E<id>#T<type>#P<path>. Time and id
// are zero padded so keys sort by time, then id. Events at the same instant
// between the same pair stay distinct through their type and path.
const (
	metadataSK   = "METADATA"
	eventPrefix  = "EVENT#"
	memberPrefix = "MEMBER#"
	eventsGSI1PK = "EVENT"
)

func entityPK(role valueobjects.Role, id int64) string {
	return fmt.Sprintf("%s#%d", strings.ToUpper(string(role)), id)
}

func typePK(id int64) string {
	return fmt.Sprintf("TYPE#%d", id)
}

func eventSortKey(e entities.Event) string {
	return fmt.Sprintf("%020d#%020d#A%d#E%d#T%d#P%s",
		sortableMillis(utils.ToEpochMillis(e.Time)), e.ID, e.ArtifactID, e.ExecutionID, int(e.Type), e.Path)
}

// sortableMillis maps signed milliseconds onto unsigned values with the same
// order, so pre-epoch times sort before the epoch as zero padded text
func sortableMillis(ms int64) uint64 {
	return uint64(ms) ^ (1 << 63)
}

func memberSK(role valueobjects.Role, id int64) string {
	return fmt.Sprintf("%s%s#%020d", memberPrefix, strings.ToUpper(string(role)), id)
}

// entityItem represents the DynamoDB item structure for an artifact or execution
type entityItem struct {
	PK               string                  `dynamodbav:"PK"`
	SK               string                  `dynamodbav:"SK"`
	EntityType       string                  `dynamodbav:"EntityType"`
	ID               int64                   `dynamodbav:"ID"`
	TypeID           int64                   `dynamodbav:"TypeID"`
	Name             string                  `dynamodbav:"Name,omitempty"`
	URI              string                  `dynamodbav:"URI,omitempty"`
	State            string                  `dynamodbav:"State,omitempty"`
	CreateTime       int64                   `dynamodbav:"CreateTime"`
	UpdateTime       int64                   `dynamodbav:"UpdateTime"`
	Properties       map[string]propertyItem `dynamodbav:"Properties,omitempty"`
	CustomProperties map[string]propertyItem `dynamodbav:"CustomProperties,omitempty"`
}

type propertyItem struct {
	Kind   string  `dynamodbav:"Kind"`
	Int    int64   `dynamodbav:"Int,omitempty"`
	Double float64 `dynamodbav:"Double,omitempty"`
	String string  `dynamodbav:"String,omitempty"`
}

// typeItem represents the DynamoDB item structure for an entity type
type typeItem struct {
	PK         string            `dynamodbav:"PK"`
	SK         string            `dynamodbav:"SK"`
	EntityType string            `dynamodbav:"EntityType"`
	ID         int64             `dynamodbav:"ID"`
	Role       string            `dynamodbav:"Role"`
	Name       string            `dynamodbav:"Name"`
	Properties map[string]string `dynamodbav:"Properties,omitempty"`
}

// eventItem represents the DynamoDB item structure for one side of an event
type eventItem struct {
	PK          string         `dynamodbav:"PK"`
	SK          string         `dynamodbav:"SK"`
	GSI1PK      string         `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK      string         `dynamodbav:"GSI1SK,omitempty"`
	EntityType  string         `dynamodbav:"EntityType"`
	EventID     int64          `dynamodbav:"EventID,omitempty"`
	ArtifactID  int64          `dynamodbav:"ArtifactID"`
	ExecutionID int64          `dynamodbav:"ExecutionID"`
	Type        string         `dynamodbav:"Type"`
	Path        []pathStepItem `dynamodbav:"Path,omitempty"`
	Time        int64          `dynamodbav:"Time"`
}

// memberItem links a context to one attributed artifact or associated execution
type memberItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ContextID  int64  `dynamodbav:"ContextID"`
	Role       string `dynamodbav:"Role"`
	MemberID   int64  `dynamodbav:"MemberID"`
}

func newMemberItem(contextID int64, role valueobjects.Role, id int64) memberItem {
	return memberItem{
		PK:         entityPK(valueobjects.RoleContext, contextID),
		SK:         memberSK(role, id),
		EntityType: "MEMBER",
		ContextID:  contextID,
		Role:       string(role),
		MemberID:   id,
	}
}

type pathStepItem struct {
	Index *int64  `dynamodbav:"Index,omitempty"`
	Key   *string `dynamodbav:"Key,omitempty"`
}

func (i entityItem) toRecord() entities.EntityRecord {
	return entities.EntityRecord{
		ID:               i.ID,
		TypeID:           i.TypeID,
		Name:             i.Name,
		URI:              i.URI,
		State:            i.State,
		CreateTime:       utils.FromEpochMillis(i.CreateTime),
		UpdateTime:       utils.FromEpochMillis(i.UpdateTime),
		Properties:       toProperties(i.Properties),
		CustomProperties: toProperties(i.CustomProperties),
	}
}

func newEntityItem(role valueobjects.Role, r entities.EntityRecord) entityItem {
	return entityItem{
		PK:               entityPK(role, r.ID),
		SK:               metadataSK,
		EntityType:       strings.ToUpper(string(role)),
		ID:               r.ID,
		TypeID:           r.TypeID,
		Name:             r.Name,
		URI:              r.URI,
		State:            r.State,
		CreateTime:       utils.ToEpochMillis(r.CreateTime),
		UpdateTime:       utils.ToEpochMillis(r.UpdateTime),
		Properties:       fromProperties(r.Properties),
		CustomProperties: fromProperties(r.CustomProperties),
	}
}

func toProperties(items map[string]propertyItem) entities.Properties {
	if len(items) == 0 {
		return nil
	}
	props := make(entities.Properties, len(items))
	for name, p := range items {
		switch entities.PropertyKind(p.Kind) {
		case entities.PropertyKindInt:
			props[name] = entities.IntValue(p.Int)
		case entities.PropertyKindDouble:
			props[name] = entities.DoubleValue(p.Double)
		default:
			props[name] = entities.StringValue(p.String)
		}
	}
	return props
}

func fromProperties(props entities.Properties) map[string]propertyItem {
	if len(props) == 0 {
		return nil
	}
	items := make(map[string]propertyItem, len(props))
	for name, v := range props {
		items[name] = propertyItem{Kind: string(v.Kind), Int: v.Int, Double: v.Double, String: v.String}
	}
	return items
}

func (i typeItem) toEntityType() entities.EntityType {
	props := make(map[string]entities.PropertyKind, len(i.Properties))
	for name, kind := range i.Properties {
		props[name] = entities.PropertyKind(kind)
	}
	return entities.EntityType{
		ID:         i.ID,
		Role:       valueobjects.Role(i.Role),
		Name:       i.Name,
		Properties: props,
	}
}

func (i eventItem) toEvent() (entities.Event, error) {
	typ, err := valueobjects.ParseEventType(i.Type)
	if err != nil {
		return entities.Event{}, err
	}
	path := make(valueobjects.EventPath, 0, len(i.Path))
	for _, step := range i.Path {
		switch {
		case step.Index != nil:
			path = append(path, valueobjects.IndexStep(*step.Index))
		case step.Key != nil:
			path = append(path, valueobjects.KeyStep(*step.Key))
		}
	}
	return entities.Event{
		ID:          i.EventID,
		ArtifactID:  i.ArtifactID,
		ExecutionID: i.ExecutionID,
		Type:        typ,
		Path:        path,
		Time:        utils.FromEpochMillis(i.Time),
	}, nil
}

// newEventItems returns the artifact-side and execution-side items of an event
func newEventItems(e entities.Event) (eventItem, eventItem) {
	steps := make([]pathStepItem, 0, len(e.Path))
	for _, s := range e.Path {
		if idx, ok := s.Index(); ok {
			steps = append(steps, pathStepItem{Index: &idx})
		} else if key, ok := s.Key(); ok {
			steps = append(steps, pathStepItem{Key: &key})
		}
	}
	sortKey := eventSortKey(e)
	base := eventItem{
		SK:          eventPrefix + sortKey,
		EntityType:  eventsGSI1PK,
		EventID:     e.ID,
		ArtifactID:  e.ArtifactID,
		ExecutionID: e.ExecutionID,
		Type:        e.Type.String(),
		Path:        steps,
		Time:        utils.ToEpochMillis(e.Time),
	}

	artifactSide := base
	artifactSide.PK = entityPK(valueobjects.RoleArtifact, e.ArtifactID)
	artifactSide.GSI1PK = eventsGSI1PK
	artifactSide.GSI1SK = sortKey

	executionSide := base
	executionSide.PK = entityPK(valueobjects.RoleExecution, e.ExecutionID)

	return artifactSide, executionSide
}
