package client

import (
	"context"
	"time"
)

// NotesClient submits notes and reads their audit records.
type NotesClient struct {
	client *Client
}

// GeoPoint is a city/country pair on a resolved entity.
type GeoPoint struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// ResolvedEntity is one entity a note created or merged into.
type ResolvedEntity struct {
	Kind          string   `json:"kind"`
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Location      GeoPoint `json:"location,omitempty"`
	Persistence   string   `json:"persistence"`
	Created       bool     `json:"created"`
	Similarity    float64  `json:"similarity,omitempty"`
	ChangedFields []string `json:"changedFields,omitempty"`
}

// WorkforceUpdate reports a roster change for one office.
type WorkforceUpdate struct {
	OfficeID    string `json:"officeId"`
	WorkforceID string `json:"workforceId"`
	Merged      int    `json:"merged"`
	Total       int    `json:"total"`
	Created     bool   `json:"created"`
}

// EntityRef points at one endpoint of a relationship.
type EntityRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship links two entities that share a location.
type Relationship struct {
	ID               string    `json:"id,omitempty"`
	SourceEntity     EntityRef `json:"sourceEntity"`
	TargetEntity     EntityRef `json:"targetEntity"`
	RelationshipType string    `json:"relationshipType"`
	CreatedAt        time.Time `json:"createdAt"`
}

// EntitiesCreated groups a note's output per kind.
type EntitiesCreated struct {
	Offices       []ResolvedEntity  `json:"offices"`
	Projects      []ResolvedEntity  `json:"projects"`
	Regulations   []ResolvedEntity  `json:"regulations"`
	Workforce     []WorkforceUpdate `json:"workforce"`
	MergedOffices []ResolvedEntity  `json:"mergedOffices"`
}

// NoteResult is the outcome of processing one note.
type NoteResult struct {
	Success          bool              `json:"success"`
	NoteID           string            `json:"noteId,omitempty"`
	EntitiesCreated  EntitiesCreated   `json:"entitiesCreated"`
	WorkforceUpdates []WorkforceUpdate `json:"workforceUpdates,omitempty"`
	Relationships    []Relationship    `json:"relationships,omitempty"`
	Skipped          []string          `json:"skipped,omitempty"`
	Summary          string            `json:"summary"`
	TotalCreated     int               `json:"totalCreated"`
}

// QueuedNote acknowledges an async submission.
type QueuedNote struct {
	NoteID string `json:"noteId"`
	Status string `json:"status"`
}

type submitNoteRequest struct {
	Text  string `json:"text"`
	Async bool   `json:"async,omitempty"`
}

// Submit processes a note synchronously and returns the full resolution
// result.
func (nc *NotesClient) Submit(ctx context.Context, text string) (*NoteResult, error) {
	var res NoteResult
	if err := nc.client.post(ctx, "/api/v1/notes", submitNoteRequest{Text: text}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitAsync queues a note for background processing and returns the
// assigned note id.
func (nc *NotesClient) SubmitAsync(ctx context.Context, text string) (*QueuedNote, error) {
	var queued QueuedNote
	if err := nc.client.post(ctx, "/api/v1/notes", submitNoteRequest{Text: text, Async: true}, &queued); err != nil {
		return nil, err
	}
	return &queued, nil
}

// Get returns the audit record of a previously submitted note.
func (nc *NotesClient) Get(ctx context.Context, noteID string) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := nc.client.get(ctx, "/api/v1/notes/"+noteID, &body); err != nil {
		return nil, err
	}
	return body, nil
}
