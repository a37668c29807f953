package entity

import (
	"time"
)

// RelationshipType labels why two entities were linked.  City matches carry
// more precision than country matches, so the two are kept distinct and
// downstream consumers can filter on it.
type RelationshipType string

const (
	RelationshipSameCity    RelationshipType = "same_city"
	RelationshipSameCountry RelationshipType = "same_country"
)

// EntityRef points at one endpoint of a relationship.
type EntityRef struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
}

// Relationship links two entities that share a location.  Relationships are
// implicitly bidirectional; a single record covers both directions.
type Relationship struct {
	ID               string           `json:"id,omitempty"`
	SourceEntity     EntityRef        `json:"sourceEntity"`
	TargetEntity     EntityRef        `json:"targetEntity"`
	RelationshipType RelationshipType `json:"relationshipType"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Involves reports whether the relationship touches the given entity.
func (r *Relationship) Involves(kind Kind, id string) bool {
	return (r.SourceEntity.Type == kind && r.SourceEntity.ID == id) ||
		(r.TargetEntity.Type == kind && r.TargetEntity.ID == id)
}
