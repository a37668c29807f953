package pipeline

import (
	"fmt"
	"strings"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
)

// Resolved is one entity a note resolved: created fresh or merged into an
// existing record.
type Resolved struct {
	Kind          entity.Kind            `json:"kind"`
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Location      entity.GeoPoint        `json:"location,omitempty"`
	Persistence   entity.Persistence     `json:"persistence"`
	Created       bool                   `json:"created"`
	Similarity    float64                `json:"similarity,omitempty"`
	ChangedFields []string               `json:"changedFields,omitempty"`
	Body          map[string]interface{} `json:"-"`
}

// EntitiesCreated groups the note's output per kind.
type EntitiesCreated struct {
	Offices       []Resolved        `json:"offices"`
	Projects      []Resolved        `json:"projects"`
	Regulations   []Resolved        `json:"regulations"`
	Workforce     []WorkforceUpdate `json:"workforce"`
	MergedOffices []Resolved        `json:"mergedOffices"`
}

// Result is the caller-facing outcome of processing one note.
type Result struct {
	Success          bool                  `json:"success"`
	NoteID           string                `json:"noteId,omitempty"`
	EntitiesCreated  EntitiesCreated       `json:"entitiesCreated"`
	WorkforceUpdates []WorkforceUpdate     `json:"workforceUpdates,omitempty"`
	Relationships    []entity.Relationship `json:"relationships,omitempty"`
	Skipped          []string              `json:"skipped,omitempty"`
	Summary          string                `json:"summary"`
	TotalCreated     int                   `json:"totalCreated"`
}

// addResolved files a resolved entity into the result.
func (r *Result) addResolved(res Resolved) {
	if res.Created {
		r.TotalCreated++
		switch res.Kind {
		case entity.KindOffice:
			r.EntitiesCreated.Offices = append(r.EntitiesCreated.Offices, res)
		case entity.KindProject:
			r.EntitiesCreated.Projects = append(r.EntitiesCreated.Projects, res)
		case entity.KindRegulation:
			r.EntitiesCreated.Regulations = append(r.EntitiesCreated.Regulations, res)
		}
		return
	}
	if res.Kind == entity.KindOffice {
		r.EntitiesCreated.MergedOffices = append(r.EntitiesCreated.MergedOffices, res)
	}
}

// buildSummary renders the human-readable recap: counts per kind, named
// offices with ids, workforce deltas.
func (r *Result) buildSummary() {
	var b strings.Builder

	fmt.Fprintf(&b, "Created %d office(s), %d project(s), %d regulation(s).",
		len(r.EntitiesCreated.Offices), len(r.EntitiesCreated.Projects), len(r.EntitiesCreated.Regulations))

	for _, o := range r.EntitiesCreated.Offices {
		fmt.Fprintf(&b, " Created office %q (%s)", o.Name, o.ID)
		if o.Persistence == entity.Local {
			b.WriteString(" [local only]")
		}
		b.WriteString(".")
	}
	for _, o := range r.EntitiesCreated.MergedOffices {
		fmt.Fprintf(&b, " Merged office %q (%s)", o.Name, o.ID)
		if len(o.ChangedFields) > 0 {
			fmt.Fprintf(&b, ", updated %s", strings.Join(o.ChangedFields, ", "))
		}
		b.WriteString(".")
	}

	updates := append([]WorkforceUpdate{}, r.EntitiesCreated.Workforce...)
	updates = append(updates, r.WorkforceUpdates...)
	for _, u := range updates {
		fmt.Fprintf(&b, " Workforce for %s: +%d employee(s), %d total.", u.OfficeID, u.Merged, u.Total)
	}

	if n := len(r.Relationships); n > 0 {
		fmt.Fprintf(&b, " Inferred %d relationship(s).", n)
	}
	if n := len(r.Skipped); n > 0 {
		fmt.Fprintf(&b, " Skipped %d candidate(s).", n)
	}

	r.Summary = b.String()
}
