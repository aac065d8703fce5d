package memory

import (
	"fmt"
	"io"
	"os"
	"time"

	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML layout accepted by LoadFixture
type Fixture struct {
	ArtifactTypes  []fixtureType    `yaml:"artifact_types"`
	ExecutionTypes []fixtureType    `yaml:"execution_types"`
	ContextTypes   []fixtureType    `yaml:"context_types"`
	Artifacts      []fixtureEntity  `yaml:"artifacts"`
	Executions     []fixtureEntity  `yaml:"executions"`
	Contexts       []fixtureContext `yaml:"contexts"`
	Events         []fixtureEvent   `yaml:"events"`
}

type fixtureType struct {
	ID         int64             `yaml:"id"`
	Name       string            `yaml:"name"`
	Properties map[string]string `yaml:"properties"`
}

type fixtureEntity struct {
	ID               int64                  `yaml:"id"`
	TypeID           int64                  `yaml:"type_id"`
	Name             string                 `yaml:"name"`
	URI              string                 `yaml:"uri"`
	State            string                 `yaml:"state"`
	CreateTime       time.Time              `yaml:"ctime"`
	UpdateTime       time.Time              `yaml:"utime"`
	Properties       map[string]interface{} `yaml:"properties"`
	CustomProperties map[string]interface{} `yaml:"custom_properties"`
}

type fixtureContext struct {
	fixtureEntity `yaml:",inline"`
	Attributions  []int64 `yaml:"attributions"`
	Associations  []int64 `yaml:"associations"`
}

type fixtureEvent struct {
	ID        int64         `yaml:"id"`
	Artifact  int64         `yaml:"artifact"`
	Execution int64         `yaml:"execution"`
	Type      string        `yaml:"type"`
	Path      []interface{} `yaml:"path"`
	Time      time.Time     `yaml:"time"`
}

// LoadFixtureFile reads a YAML fixture from path into a new store
func LoadFixtureFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return LoadFixture(f)
}

// LoadFixture reads a YAML fixture into a new store
func LoadFixture(r io.Reader) (*Store, error) {
	var fx Fixture
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	s := NewStore()

	for _, t := range fx.ArtifactTypes {
		typ, err := t.toEntityType(valueobjects.RoleArtifact)
		if err != nil {
			return nil, err
		}
		s.AddType(typ)
	}
	for _, t := range fx.ExecutionTypes {
		typ, err := t.toEntityType(valueobjects.RoleExecution)
		if err != nil {
			return nil, err
		}
		s.AddType(typ)
	}
	for _, t := range fx.ContextTypes {
		typ, err := t.toEntityType(valueobjects.RoleContext)
		if err != nil {
			return nil, err
		}
		s.AddType(typ)
	}
	for _, a := range fx.Artifacts {
		record, err := a.toRecord()
		if err != nil {
			return nil, fmt.Errorf("artifact %d: %w", a.ID, err)
		}
		s.AddArtifact(record)
	}
	for _, e := range fx.Executions {
		record, err := e.toRecord()
		if err != nil {
			return nil, fmt.Errorf("execution %d: %w", e.ID, err)
		}
		s.AddExecution(record)
	}
	for _, c := range fx.Contexts {
		record, err := c.toRecord()
		if err != nil {
			return nil, fmt.Errorf("context %d: %w", c.ID, err)
		}
		s.AddContext(record)
		for _, id := range c.Attributions {
			s.AddAttribution(c.ID, id)
		}
		for _, id := range c.Associations {
			s.AddAssociation(c.ID, id)
		}
	}
	for i, e := range fx.Events {
		event, err := e.toEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		s.AddEvent(event)
	}

	return s, nil
}

func (t fixtureType) toEntityType(role valueobjects.Role) (entities.EntityType, error) {
	props := make(map[string]entities.PropertyKind, len(t.Properties))
	for name, kind := range t.Properties {
		switch k := entities.PropertyKind(kind); k {
		case entities.PropertyKindInt, entities.PropertyKindDouble, entities.PropertyKindString:
			props[name] = k
		default:
			return entities.EntityType{}, fmt.Errorf("type %q: property %q has unknown kind %q", t.Name, name, kind)
		}
	}
	return entities.EntityType{ID: t.ID, Role: role, Name: t.Name, Properties: props}, nil
}

func (e fixtureEntity) toRecord() (entities.EntityRecord, error) {
	props, err := toProperties(e.Properties)
	if err != nil {
		return entities.EntityRecord{}, err
	}
	custom, err := toProperties(e.CustomProperties)
	if err != nil {
		return entities.EntityRecord{}, err
	}
	return entities.EntityRecord{
		ID:               e.ID,
		TypeID:           e.TypeID,
		Name:             e.Name,
		URI:              e.URI,
		State:            e.State,
		CreateTime:       e.CreateTime,
		UpdateTime:       e.UpdateTime,
		Properties:       props,
		CustomProperties: custom,
	}, nil
}

func toProperties(raw map[string]interface{}) (entities.Properties, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	props := make(entities.Properties, len(raw))
	for name, v := range raw {
		pv, err := entities.PropertyValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		props[name] = pv
	}
	return props, nil
}

func (e fixtureEvent) toEvent() (entities.Event, error) {
	typ, err := valueobjects.ParseEventType(e.Type)
	if err != nil {
		return entities.Event{}, err
	}
	path := make(valueobjects.EventPath, 0, len(e.Path))
	for _, step := range e.Path {
		switch v := step.(type) {
		case int:
			path = append(path, valueobjects.IndexStep(int64(v)))
		case string:
			path = append(path, valueobjects.KeyStep(v))
		default:
			return entities.Event{}, fmt.Errorf("path step %v must be an integer or a string", step)
		}
	}
	return entities.Event{
		ID:          e.ID,
		ArtifactID:  e.Artifact,
		ExecutionID: e.Execution,
		Type:        typ,
		Path:        path,
		Time:        e.Time,
	}, nil
}
