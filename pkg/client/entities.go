package client

import (
	"context"
	"net/url"
	"strconv"
)

// EntitiesClient reads resolved entities back out of the API.
type EntitiesClient struct {
	client *Client
}

// Entity is the raw stored document body of an office, project, or
// regulation.  Field layout varies per kind, so the SDK leaves it untyped.
type Entity map[string]interface{}

// ListOptions filters entity list calls.  All fields are optional; name,
// city, and country match case-insensitively and exactly.
type ListOptions struct {
	Name    string
	City    string
	Country string
	Limit   int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Name != "" {
		q.Set("name", o.Name)
	}
	if o.City != "" {
		q.Set("city", o.City)
	}
	if o.Country != "" {
		q.Set("country", o.Country)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (ec *EntitiesClient) list(ctx context.Context, path string, opts ListOptions) ([]Entity, error) {
	var out []Entity
	if err := ec.client.get(ctx, path+opts.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (ec *EntitiesClient) get(ctx context.Context, path string) (Entity, error) {
	var out Entity
	if err := ec.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOffices returns architecture offices matching opts.
func (ec *EntitiesClient) ListOffices(ctx context.Context, opts ListOptions) ([]Entity, error) {
	return ec.list(ctx, "/api/v1/offices", opts)
}

// GetOffice returns one office by id.
func (ec *EntitiesClient) GetOffice(ctx context.Context, id string) (Entity, error) {
	return ec.get(ctx, "/api/v1/offices/"+id)
}

// GetWorkforce returns the employee roster of one office.
func (ec *EntitiesClient) GetWorkforce(ctx context.Context, officeID string) (Entity, error) {
	return ec.get(ctx, "/api/v1/offices/"+officeID+"/workforce")
}

// ListProjects returns construction projects matching opts.
func (ec *EntitiesClient) ListProjects(ctx context.Context, opts ListOptions) ([]Entity, error) {
	return ec.list(ctx, "/api/v1/projects", opts)
}

// GetProject returns one project by id.
func (ec *EntitiesClient) GetProject(ctx context.Context, id string) (Entity, error) {
	return ec.get(ctx, "/api/v1/projects/"+id)
}

// ListRegulations returns regulations matching opts.
func (ec *EntitiesClient) ListRegulations(ctx context.Context, opts ListOptions) ([]Entity, error) {
	return ec.list(ctx, "/api/v1/regulations", opts)
}

// GetRegulation returns one regulation by id.
func (ec *EntitiesClient) GetRegulation(ctx context.Context, id string) (Entity, error) {
	return ec.get(ctx, "/api/v1/regulations/"+id)
}

// ListRelationships returns inferred relationships.  When entityID is
// non-empty only relationships originating from that entity are returned.
func (ec *EntitiesClient) ListRelationships(ctx context.Context, entityID string) ([]Relationship, error) {
	path := "/api/v1/relationships"
	if entityID != "" {
		path += "?entity=" + url.QueryEscape(entityID)
	}
	var out []Relationship
	if err := ec.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
