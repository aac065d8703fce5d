package valueobjects

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventType is the kind of link an event records between an execution and an artifact
type EventType int

// Values follow the ML Metadata Event.Type enum numbering
const (
	EventTypeUnknown EventType = iota
	EventTypeDeclaredOutput
	EventTypeDeclaredInput
	EventTypeInput
	EventTypeOutput
	EventTypeInternalInput
	EventTypeInternalOutput
)

var eventTypeNames = map[EventType]string{
	EventTypeUnknown:        "UNKNOWN",
	EventTypeDeclaredOutput: "DECLARED_OUTPUT",
	EventTypeDeclaredInput:  "DECLARED_INPUT",
	EventTypeInput:          "INPUT",
	EventTypeOutput:         "OUTPUT",
	EventTypeInternalInput:  "INTERNAL_INPUT",
	EventTypeInternalOutput: "INTERNAL_OUTPUT",
}

// ParseEventType converts a SCREAMING_SNAKE_CASE name into an EventType
func ParseEventType(s string) (EventType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range eventTypeNames {
		if n == name {
			return t, nil
		}
	}
	return EventTypeUnknown, fmt.Errorf("unknown event type: %q", s)
}

// String returns the SCREAMING_SNAKE_CASE name
func (t EventType) String() string {
	if n, ok := eventTypeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// IsInput reports whether the event records an artifact being consumed
func (t EventType) IsInput() bool {
	return t == EventTypeInput || t == EventTypeDeclaredInput || t == EventTypeInternalInput
}

// IsOutput reports whether the event records an artifact being produced
func (t EventType) IsOutput() bool {
	return t == EventTypeOutput || t == EventTypeDeclaredOutput || t == EventTypeInternalOutput
}

// MarshalText implements encoding.TextMarshaler
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *EventType) UnmarshalText(data []byte) error {
	parsed, err := ParseEventType(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// EventStep addresses one position inside a composite artifact value:
// either a list index or a map key.
type EventStep struct {
	index *int64
	key   *string
}

// IndexStep creates an index step
func IndexStep(i int64) EventStep {
	return EventStep{index: &i}
}

// KeyStep creates a key step
func KeyStep(k string) EventStep {
	return EventStep{key: &k}
}

// Index returns the index and whether the step is an index step
func (s EventStep) Index() (int64, bool) {
	if s.index == nil {
		return 0, false
	}
	return *s.index, true
}

// Key returns the key and whether the step is a key step
func (s EventStep) Key() (string, bool) {
	if s.key == nil {
		return "", false
	}
	return *s.key, true
}

// String renders the step value
func (s EventStep) String() string {
	if s.index != nil {
		return strconv.FormatInt(*s.index, 10)
	}
	if s.key != nil {
		return *s.key
	}
	return ""
}

// MarshalJSON renders index steps as numbers and key steps as strings
func (s EventStep) MarshalJSON() ([]byte, error) {
	if s.index != nil {
		return json.Marshal(*s.index)
	}
	if s.key != nil {
		return json.Marshal(*s.key)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts either a number or a string
func (s *EventStep) UnmarshalJSON(data []byte) error {
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		*s = IndexStep(i)
		return nil
	}
	var k string
	if err := json.Unmarshal(data, &k); err != nil {
		return fmt.Errorf("event step must be a number or a string: %w", err)
	}
	*s = KeyStep(k)
	return nil
}

// EventPath is the ordered sequence of steps of an event
type EventPath []EventStep

// String joins the steps with commas
func (p EventPath) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
