package entity

import (
	"strings"

	"github.com/turtacn/ArchIntel/pkg/errors"
)

// JurisdictionLevel scopes a building regulation.
type JurisdictionLevel string

const (
	JurisdictionCity    JurisdictionLevel = "city"
	JurisdictionState   JurisdictionLevel = "state"
	JurisdictionCountry JurisdictionLevel = "country"
)

// Jurisdiction identifies where a regulation applies.  CityName is set only
// for city-level regulations.
type Jurisdiction struct {
	Level       JurisdictionLevel `json:"level,omitempty"`
	CityName    string            `json:"cityName,omitempty"`
	CountryName string            `json:"countryName,omitempty"`
}

// GeoPoint projects the jurisdiction onto the shared city/country shape used
// by the relationship inferencer.
func (j Jurisdiction) GeoPoint() GeoPoint {
	return GeoPoint{City: j.CityName, Country: j.CountryName}
}

// Regulation is a building-regulation record.
type Regulation struct {
	ID             string       `json:"id,omitempty"`
	Name           string       `json:"name,omitempty"`
	Jurisdiction   Jurisdiction `json:"jurisdiction,omitempty"`
	RegulationType string       `json:"regulationType,omitempty"`
	EffectiveDate  string       `json:"effectiveDate,omitempty"`
	Description    string       `json:"description,omitempty"`
	Timestamps
	Version int `json:"version,omitempty"`
}

// CanonicalName returns the name identity resolution searches on.
func (r *Regulation) CanonicalName() string {
	return strings.TrimSpace(r.Name)
}

// ValidateForCreate enforces creation invariants.
func (r *Regulation) ValidateForCreate() error {
	if r.CanonicalName() == "" {
		return errors.New(errors.ErrCodeEntityNameMissing, "regulation name is required")
	}
	return nil
}
