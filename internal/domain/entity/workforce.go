package entity

import (
	"sort"
	"strings"
)

// Employee is a named member of an office roster.  Name is the dedup key,
// compared lowercase-trimmed.  Field order is fixed for storage stability:
// name, description, role, expertise, location.
type Employee struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Role        string    `json:"role,omitempty"`
	Expertise   []string  `json:"expertise,omitempty"`
	Location    *GeoPoint `json:"location,omitempty"`
}

// RosterKey returns the case-insensitive dedup key for an employee name.
func RosterKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EmployeeDistribution breaks headcount down by discipline.
type EmployeeDistribution struct {
	Architects     int `json:"architects,omitempty"`
	Engineers      int `json:"engineers,omitempty"`
	Designers      int `json:"designers,omitempty"`
	Administrative int `json:"administrative,omitempty"`
}

// WorkforceAggregate holds roster-level statistics.
type WorkforceAggregate struct {
	TotalEmployees int                  `json:"totalEmployees"`
	Distribution   EmployeeDistribution `json:"distribution,omitempty"`
	RetentionRate  float64              `json:"retentionRate,omitempty"`
	GrowthRate     float64              `json:"growthRate,omitempty"`
}

// Workforce is the one-to-one roster record of an Office, created lazily on
// the first employee mention.  Its id is derived from the office id.
type Workforce struct {
	ID        string             `json:"id,omitempty"`
	OfficeID  string             `json:"officeId,omitempty"`
	Employees []Employee         `json:"employees,omitempty"`
	Aggregate WorkforceAggregate `json:"aggregate"`
	Timestamps
	Version int `json:"version,omitempty"`
}

// WorkforceIDFor derives the synthetic workforce id for an office.
func WorkforceIDFor(officeID string) string {
	return "WF-" + officeID
}

// NewWorkforce constructs an empty roster for an office.
func NewWorkforce(officeID string) *Workforce {
	return &Workforce{
		ID:         WorkforceIDFor(officeID),
		OfficeID:   officeID,
		Timestamps: NewTimestamps(),
		Version:    1,
	}
}

// UpsertEmployee merges emp into the roster.  On a name collision (key =
// lowercase-trimmed name) expertise sets are unioned and the newer non-empty
// description, role, and location win; existing values are kept otherwise.
// It reports whether the roster changed.
func (w *Workforce) UpsertEmployee(emp Employee) bool {
	key := RosterKey(emp.Name)
	if key == "" {
		return false
	}
	for i := range w.Employees {
		if RosterKey(w.Employees[i].Name) != key {
			continue
		}
		return mergeEmployee(&w.Employees[i], emp)
	}
	emp.Expertise = dedupeStrings(emp.Expertise)
	w.Employees = append(w.Employees, emp)
	return true
}

func mergeEmployee(dst *Employee, src Employee) bool {
	changed := false
	for _, tag := range src.Expertise {
		if !containsString(dst.Expertise, tag) {
			dst.Expertise = append(dst.Expertise, tag)
			changed = true
		}
	}
	if src.Description != "" && src.Description != dst.Description {
		dst.Description = src.Description
		changed = true
	}
	if src.Role != "" && src.Role != dst.Role {
		dst.Role = src.Role
		changed = true
	}
	if src.Location != nil && (dst.Location == nil || *src.Location != *dst.Location) {
		loc := *src.Location
		dst.Location = &loc
		changed = true
	}
	return changed
}

// DistinctCount returns the number of distinct employees by roster key.
func (w *Workforce) DistinctCount() int {
	seen := make(map[string]struct{}, len(w.Employees))
	for _, e := range w.Employees {
		seen[RosterKey(e.Name)] = struct{}{}
	}
	return len(seen)
}

// Recompute refreshes the aggregate headcount from the roster.
func (w *Workforce) Recompute() {
	w.Aggregate.TotalEmployees = w.DistinctCount()
}

// SortEmployees orders the roster by key for stable storage output.
func (w *Workforce) SortEmployees() {
	sort.Slice(w.Employees, func(i, j int) bool {
		return RosterKey(w.Employees[i].Name) < RosterKey(w.Employees[j].Name)
	})
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupeStrings(list []string) []string {
	if len(list) < 2 {
		return list
	}
	out := list[:0]
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
