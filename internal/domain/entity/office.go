package entity

import (
	"strings"

	"github.com/turtacn/ArchIntel/pkg/errors"
)

// OfficeStatus is the lifecycle state of an architecture office.
type OfficeStatus string

const (
	OfficeActive    OfficeStatus = "active"
	OfficeAcquired  OfficeStatus = "acquired"
	OfficeDissolved OfficeStatus = "dissolved"
)

// SizeCategory buckets an office by headcount.
type SizeCategory string

const (
	SizeBoutique SizeCategory = "boutique"
	SizeMedium   SizeCategory = "medium"
	SizeLarge    SizeCategory = "large"
	SizeGlobal   SizeCategory = "global"
)

// SizeCategoryFor buckets a distinct-employee count.  Thresholds: <10
// boutique, <50 medium, <200 large, else global.
func SizeCategoryFor(count int) SizeCategory {
	switch {
	case count < 10:
		return SizeBoutique
	case count < 50:
		return SizeMedium
	case count < 200:
		return SizeLarge
	default:
		return SizeGlobal
	}
}

// OfficeLocation groups the headquarters and satellite office list.
type OfficeLocation struct {
	Headquarters GeoPoint `json:"headquarters,omitempty"`
	OtherOffices []string `json:"otherOffices,omitempty"`
}

// OfficeSize holds workforce-derived sizing.  EmployeeCount is never set
// directly from extraction; it is recomputed from the workforce roster.
type OfficeSize struct {
	EmployeeCount int          `json:"employeeCount,omitempty"`
	SizeCategory  SizeCategory `json:"sizeCategory,omitempty"`
	AnnualRevenue float64      `json:"annualRevenue,omitempty"`
}

// ConnectionCounts tallies relationships an office participates in.
// Increments are best-effort; the counts are advisory, not authoritative.
type ConnectionCounts struct {
	TotalProjects  int `json:"totalProjects,omitempty"`
	ActiveProjects int `json:"activeProjects,omitempty"`
	Clients        int `json:"clients,omitempty"`
	Competitors    int `json:"competitors,omitempty"`
	Suppliers      int `json:"suppliers,omitempty"`
}

// Office is an architecture firm record.
type Office struct {
	ID               string           `json:"id,omitempty"`
	Name             string           `json:"name,omitempty"`
	OfficialName     string           `json:"officialName,omitempty"`
	Founded          int              `json:"founded,omitempty"`
	Status           OfficeStatus     `json:"status,omitempty"`
	Location         OfficeLocation   `json:"location,omitempty"`
	Size             OfficeSize       `json:"size,omitempty"`
	Specializations  []string         `json:"specializations,omitempty"`
	NotableWorks     []string         `json:"notableWorks,omitempty"`
	ConnectionCounts ConnectionCounts `json:"connectionCounts,omitempty"`
	Timestamps
	Version int `json:"version,omitempty"`
}

// CanonicalName returns the name identity resolution searches on.
func (o *Office) CanonicalName() string {
	return strings.TrimSpace(o.Name)
}

// HasHeadquarters reports whether both headquarters fields are known.
func (o *Office) HasHeadquarters() bool {
	return o.Location.Headquarters.City != "" && o.Location.Headquarters.Country != ""
}

// ValidateForCreate enforces the invariants a brand-new office must satisfy:
// a non-empty name and a fully known headquarters.  Merging into an existing
// office has no headquarters requirement.
func (o *Office) ValidateForCreate() error {
	if o.CanonicalName() == "" {
		return errors.New(errors.ErrCodeEntityNameMissing, "office name is required")
	}
	if !o.HasHeadquarters() {
		return errors.New(errors.ErrCodeHeadquartersMissing, "office headquarters city and country are required").
			WithDetail("office=" + o.Name)
	}
	return nil
}
