// Package oracle defines the external AI and search contracts the pipeline
// consumes, plus their production adapters.  The pipeline only sees these
// interfaces; tests inject function-field fakes.
package oracle

import (
	"context"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
)

// Categorization is the oracle's primary classification of a note.
type Categorization struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Extraction carries the structured fields pulled out of a note.  Offices,
// Projects, and Regulations are raw field maps; key presence distinguishes
// "field extracted" from "field absent" during merging.  Satellites holds
// optional tier-3 payloads keyed by store collection name.
type Extraction struct {
	Offices     []map[string]interface{} `json:"offices"`
	Projects    []map[string]interface{} `json:"projects"`
	Regulations []map[string]interface{} `json:"regulations"`

	Employees            []entity.Employee            `json:"employees,omitempty"`
	EmployeeDistribution *entity.EmployeeDistribution `json:"employeeDistribution,omitempty"`

	Satellites map[string]interface{} `json:"satellites,omitempty"`

	Confidence    float64  `json:"confidence"`
	MissingFields []string `json:"missingFields,omitempty"`
	Reasoning     string   `json:"reasoning,omitempty"`
}

// Analysis is the full response of one extraction call.
type Analysis struct {
	Categorization Categorization
	Extraction     Extraction
}

// LocationResult is a best-effort web-search answer for an office name.
type LocationResult struct {
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// Empty reports whether the search produced no usable location.
func (r *LocationResult) Empty() bool {
	return r == nil || (r.City == "" && r.Country == "")
}

// ExtractionOracle categorizes a note and extracts structured fields.  It is
// the sole source of categorization; an unparseable answer is a hard error.
type ExtractionOracle interface {
	AnalyzeText(ctx context.Context, text string) (*Analysis, error)
}

// TranslationOracle detects and translates non-English notes.  Both calls
// are fail-open at the caller.
type TranslationOracle interface {
	DetectEnglish(ctx context.Context, text string) (bool, error)
	Translate(ctx context.Context, text string) (string, error)
}

// SearchOracle looks up an office's headquarters location on the web.
// Absence of a result is not an error.
type SearchOracle interface {
	SearchOfficeLocation(ctx context.Context, name string) (*LocationResult, error)
}
