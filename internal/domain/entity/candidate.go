package entity

import (
	"strings"
)

// Candidate is a partial record produced by extraction, before identity
// resolution.  Fields is the raw extracted payload; key presence
// distinguishes "extracted" from "absent", which drives merge semantics.
type Candidate struct {
	Kind   Kind
	Fields map[string]interface{}
}

// Name returns the candidate's canonical name field, trimmed.
func (c *Candidate) Name() string {
	field := "name"
	if c.Kind == KindProject {
		field = "projectName"
	}
	if v, ok := c.Fields[field].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// NameField returns the canonical name key for the candidate's kind.
func (c *Candidate) NameField() string {
	if c.Kind == KindProject {
		return "projectName"
	}
	return "name"
}

// OfficialName returns the office's official name when extracted.
func (c *Candidate) OfficialName() string {
	if v, ok := c.Fields["officialName"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Headquarters reads the nested headquarters location, when present.
func (c *Candidate) Headquarters() GeoPoint {
	loc, ok := c.Fields["location"].(map[string]interface{})
	if !ok {
		return GeoPoint{}
	}
	hq, ok := loc["headquarters"].(map[string]interface{})
	if !ok {
		return GeoPoint{}
	}
	return geoPointFromMap(hq)
}

// SetHeadquarters back-fills the nested headquarters location, creating the
// intermediate objects as needed.
func (c *Candidate) SetHeadquarters(p GeoPoint) {
	loc, ok := c.Fields["location"].(map[string]interface{})
	if !ok {
		loc = make(map[string]interface{})
		c.Fields["location"] = loc
	}
	hq, ok := loc["headquarters"].(map[string]interface{})
	if !ok {
		hq = make(map[string]interface{})
		loc["headquarters"] = hq
	}
	if p.City != "" {
		hq["city"] = p.City
	}
	if p.Country != "" {
		hq["country"] = p.Country
	}
}

// Location reads the candidate's own geographic point: headquarters for
// offices, the flat location object for projects, the jurisdiction for
// regulations.
func (c *Candidate) Location() GeoPoint {
	switch c.Kind {
	case KindOffice:
		return c.Headquarters()
	case KindProject:
		if loc, ok := c.Fields["location"].(map[string]interface{}); ok {
			return geoPointFromMap(loc)
		}
	case KindRegulation:
		if j, ok := c.Fields["jurisdiction"].(map[string]interface{}); ok {
			p := GeoPoint{}
			if v, ok := j["cityName"].(string); ok {
				p.City = v
			}
			if v, ok := j["countryName"].(string); ok {
				p.Country = v
			}
			return p
		}
	}
	return GeoPoint{}
}

func geoPointFromMap(m map[string]interface{}) GeoPoint {
	p := GeoPoint{}
	if v, ok := m["city"].(string); ok {
		p.City = v
	}
	if v, ok := m["country"].(string); ok {
		p.Country = v
	}
	return p
}
