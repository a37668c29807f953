// Package kafka carries pipeline events between the API server and the
// ingestion workers.  Every message is an EventEnvelope with a JSON payload.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ArchIntel/pkg/errors"
)

const (
	TopicNoteSubmitted       = "note.submitted"
	TopicNoteProcessed       = "note.processed"
	TopicEntityCreated       = "entity.created"
	TopicEntityMerged        = "entity.merged"
	TopicRelationshipCreated = "relationship.created"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NoteSubmittedPayload is published by the API server when a note is accepted
// for asynchronous processing.
type NoteSubmittedPayload struct {
	NoteID      string    `json:"note_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NoteProcessedPayload summarizes the outcome of one pipeline run.
type NoteProcessedPayload struct {
	NoteID        string    `json:"note_id"`
	Created       int       `json:"created"`
	Merged        int       `json:"merged"`
	Relationships int       `json:"relationships"`
	Failed        bool      `json:"failed"`
	Reason        string    `json:"reason,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// EntityEventPayload is shared by entity.created and entity.merged.
type EntityEventPayload struct {
	EntityID      string   `json:"entity_id"`
	EntityType    string   `json:"entity_type"`
	Name          string   `json:"name"`
	ChangedFields []string `json:"changed_fields,omitempty"`
	NoteID        string   `json:"note_id,omitempty"`
}

// RelationshipCreatedPayload announces a new inferred link.
type RelationshipCreatedPayload struct {
	RelationshipID   string `json:"relationship_id"`
	SourceType       string `json:"source_type"`
	SourceID         string `json:"source_id"`
	TargetType       string `json:"target_type"`
	TargetID         string `json:"target_id"`
	RelationshipType string `json:"relationship_type"`
}

// NewEventEnvelope wraps payload in a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event payload")
	}
	return nil
}

// ParseEnvelope decodes raw message bytes into an envelope.
func ParseEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event envelope")
	}
	return &env, nil
}
