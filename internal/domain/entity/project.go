package entity

import (
	"strings"

	"github.com/turtacn/ArchIntel/pkg/errors"
)

// ProjectStatus is the lifecycle state of a construction project.
type ProjectStatus string

const (
	ProjectConcept      ProjectStatus = "concept"
	ProjectPlanning     ProjectStatus = "planning"
	ProjectConstruction ProjectStatus = "construction"
	ProjectCompleted    ProjectStatus = "completed"
)

// ProjectFinancial holds budget information.
type ProjectFinancial struct {
	Budget   float64 `json:"budget,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

// ProjectDetails holds descriptive fields.
type ProjectDetails struct {
	ProjectType string `json:"projectType,omitempty"`
	Description string `json:"description,omitempty"`
}

// Project is a construction project record.  OfficeID is optional: a
// project extracted without an identifiable office is created unlinked.
type Project struct {
	ID          string           `json:"id,omitempty"`
	ProjectName string           `json:"projectName,omitempty"`
	OfficeID    string           `json:"officeId,omitempty"`
	Status      ProjectStatus    `json:"status,omitempty"`
	Location    GeoPoint         `json:"location,omitempty"`
	Financial   ProjectFinancial `json:"financial,omitempty"`
	Details     ProjectDetails   `json:"details,omitempty"`
	Timestamps
	Version int `json:"version,omitempty"`
}

// CanonicalName returns the name identity resolution searches on.
func (p *Project) CanonicalName() string {
	return strings.TrimSpace(p.ProjectName)
}

// ValidateForCreate enforces creation invariants.
func (p *Project) ValidateForCreate() error {
	if p.CanonicalName() == "" {
		return errors.New(errors.ErrCodeEntityNameMissing, "project name is required")
	}
	return nil
}
