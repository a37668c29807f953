// Package entity defines the domain records of the ArchIntel platform:
// offices, projects, regulations, workforce rosters, relationships, and the
// audit note record.  Business rules that concern a single record live here;
// cross-record reconciliation is the pipeline's job.
package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/turtacn/ArchIntel/pkg/errors"
)

// Kind discriminates the three persisted entity kinds.  Identity resolution
// is strictly scoped by Kind: an office search never returns a project or a
// regulation, even under a name collision.
type Kind string

const (
	KindOffice     Kind = "office"
	KindProject    Kind = "project"
	KindRegulation Kind = "regulation"
	KindUnknown    Kind = "unknown"
)

// ParseKind maps an oracle category string to a Kind, defaulting to
// KindUnknown for anything unrecognized.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindOffice, KindProject, KindRegulation:
		return Kind(s)
	default:
		return KindUnknown
	}
}

// Persistence tags where a resolved entity actually lives.  A Local entity
// was constructed in memory after a store write failure; it keeps counts and
// summaries meaningful but must never be treated as durably persisted.
type Persistence string

const (
	Persisted Persistence = "persisted"
	Local     Persistence = "local"
)

// GeoPoint is a city/country pair.  Either field may be empty on partial
// records; a persisted office headquarters requires both.
type GeoPoint struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// SameCity reports whether two points share a city, case-insensitively.
func (g GeoPoint) SameCity(other GeoPoint) bool {
	return g.City != "" && strings.EqualFold(g.City, other.City)
}

// SameCountry reports whether two points share a country, case-insensitively.
func (g GeoPoint) SameCountry(other GeoPoint) bool {
	return g.Country != "" && strings.EqualFold(g.Country, other.Country)
}

// Body converts any entity value into its document-body map via a JSON
// round trip.  Only fields present in the value's JSON encoding appear in
// the map, which is what the merge engine relies on for its "incoming value
// is present" rule.
func Body(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode entity body")
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode entity body")
	}
	return body, nil
}

// Decode populates the typed value v from a document-body map.
func Decode(body map[string]interface{}, v interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document body")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode document body")
	}
	return nil
}

// Timestamps carries the audit pair shared by all entities.  UpdatedAt is
// never earlier than CreatedAt.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTimestamps returns both stamps set to now (UTC).
func NewTimestamps() Timestamps {
	now := time.Now().UTC()
	return Timestamps{CreatedAt: now, UpdatedAt: now}
}

// Touch advances UpdatedAt, clamping so it never precedes CreatedAt.
func (t *Timestamps) Touch() {
	now := time.Now().UTC()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = now
}
