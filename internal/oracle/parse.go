package oracle

import (
	"encoding/json"
	"strings"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// satelliteKeys maps extraction payload keys to store collections.
var satelliteKeys = map[string]string{
	"clients":             store.CollectionClients,
	"technology":          store.CollectionTechnology,
	"financials":          store.CollectionFinancials,
	"supplyChain":         store.CollectionSupplyChain,
	"landData":            store.CollectionLandData,
	"cityData":            store.CollectionCityData,
	"projectData":         store.CollectionProjectData,
	"companyStructure":    store.CollectionCompanyStructure,
	"divisionPercentages": store.CollectionDivisionPercent,
	"newsArticles":        store.CollectionNewsArticles,
	"politicalContext":    store.CollectionPoliticalContext,
}

type extractionWire struct {
	ExtractedData map[string]interface{}   `json:"extractedData"`
	Offices       []map[string]interface{} `json:"offices"`
	Projects      []map[string]interface{} `json:"projects"`
	Regulations   []map[string]interface{} `json:"regulations"`

	Employees            []entity.Employee            `json:"employees"`
	EmployeeDistribution *entity.EmployeeDistribution `json:"employeeDistribution"`

	Confidence    float64  `json:"confidence"`
	MissingFields []string `json:"missingFields"`
	Reasoning     string   `json:"reasoning"`
}

type analysisWire struct {
	Categorization Categorization `json:"categorization"`
	Extraction     extractionWire `json:"extraction"`
}

// extractJSON pulls the first JSON object out of a chat answer, tolerating
// markdown fences and surrounding prose.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", errors.New(errors.ErrCodeOracleUnparseable, "no JSON object in oracle answer")
	}
	return content[start : end+1], nil
}

// parseAnalysis decodes an extraction answer.  A missing or unknown category
// is a hard error; the oracle is the sole source of categorization.
func parseAnalysis(content string) (*Analysis, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOracleUnparseable, "malformed extraction JSON")
	}

	category := strings.ToLower(strings.TrimSpace(wire.Categorization.Category))
	switch category {
	case "office", "project", "regulation", "unknown":
	default:
		return nil, errors.Newf(errors.ErrCodeOracleUnparseable, "oracle returned no usable category: %q", wire.Categorization.Category)
	}
	wire.Categorization.Category = category

	analysis := &Analysis{
		Categorization: wire.Categorization,
		Extraction: Extraction{
			Offices:              wire.Extraction.Offices,
			Projects:             wire.Extraction.Projects,
			Regulations:          wire.Extraction.Regulations,
			Employees:            wire.Extraction.Employees,
			EmployeeDistribution: wire.Extraction.EmployeeDistribution,
			Confidence:           wire.Extraction.Confidence,
			MissingFields:        wire.Extraction.MissingFields,
			Reasoning:            wire.Extraction.Reasoning,
		},
	}

	// Older answer shapes carry a single extractedData record; fold it into
	// the array matching the category.
	if len(wire.Extraction.ExtractedData) > 0 {
		switch category {
		case "office":
			if len(analysis.Extraction.Offices) == 0 {
				analysis.Extraction.Offices = []map[string]interface{}{wire.Extraction.ExtractedData}
			}
		case "project":
			if len(analysis.Extraction.Projects) == 0 {
				analysis.Extraction.Projects = []map[string]interface{}{wire.Extraction.ExtractedData}
			}
		case "regulation":
			if len(analysis.Extraction.Regulations) == 0 {
				analysis.Extraction.Regulations = []map[string]interface{}{wire.Extraction.ExtractedData}
			}
		}
	}

	analysis.Extraction.Satellites = parseSatellites(raw)
	return analysis, nil
}

// parseSatellites picks the optional tier-3 payloads out of the extraction
// object, keyed by their target collection.
func parseSatellites(raw string) map[string]interface{} {
	var outer struct {
		Extraction map[string]json.RawMessage `json:"extraction"`
	}
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return nil
	}

	var satellites map[string]interface{}
	for key, collection := range satelliteKeys {
		data, ok := outer.Extraction[key]
		if !ok || string(data) == "null" {
			continue
		}
		var value interface{}
		if err := json.Unmarshal(data, &value); err != nil {
			continue
		}
		if satellites == nil {
			satellites = make(map[string]interface{})
		}
		satellites[collection] = value
	}
	return satellites
}

// parseYesNo reads a yes/no answer leniently.
func parseYesNo(content string) (bool, error) {
	answer := strings.ToLower(strings.TrimSpace(content))
	switch {
	case strings.HasPrefix(answer, "yes"):
		return true, nil
	case strings.HasPrefix(answer, "no"):
		return false, nil
	}
	return false, errors.Newf(errors.ErrCodeOracleUnparseable, "expected yes/no answer, got %q", firstLine(answer))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
