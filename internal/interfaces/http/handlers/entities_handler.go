package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
)

// EntitiesHandler serves read access to resolved offices, projects,
// regulations, and their relationships.
type EntitiesHandler struct {
	store  store.DocumentStore
	logger logging.Logger
}

// NewEntitiesHandler builds the entity read handler.
func NewEntitiesHandler(st store.DocumentStore, log logging.Logger) *EntitiesHandler {
	return &EntitiesHandler{store: st, logger: log.Named("http.entities")}
}

// list serves a collection with optional name/city/country filters.  The
// geo paths differ per kind: nested headquarters for offices, a flat
// location for projects, jurisdiction fields for regulations.
func (h *EntitiesHandler) list(w http.ResponseWriter, r *http.Request, collection, nameField, cityPath, countryPath string) {
	var filters []store.Filter
	q := r.URL.Query()
	if name := q.Get("name"); name != "" {
		filters = append(filters, store.EqFold(nameField, name))
	}
	if city := q.Get("city"); city != "" {
		filters = append(filters, store.EqFold(cityPath, city))
	}
	if country := q.Get("country"); country != "" {
		filters = append(filters, store.EqFold(countryPath, country))
	}

	docs, err := h.store.Query(r.Context(), collection, filters...)
	if err != nil {
		writeAppError(w, err)
		return
	}

	limit := parseLimit(r, 50, 500)
	if len(docs) > limit {
		docs = docs[:limit]
	}
	bodies := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		bodies = append(bodies, d.Body)
	}
	writeOK(w, http.StatusOK, bodies)
}

func (h *EntitiesHandler) get(w http.ResponseWriter, r *http.Request, collection, param string) {
	doc, err := h.store.Get(r.Context(), collection, chi.URLParam(r, param))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, http.StatusOK, doc.Body)
}

// ListOffices handles GET /api/v1/offices.
func (h *EntitiesHandler) ListOffices(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, store.CollectionOffices, "name", "location.headquarters.city", "location.headquarters.country")
}

// GetOffice handles GET /api/v1/offices/{officeID}.
func (h *EntitiesHandler) GetOffice(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, store.CollectionOffices, "officeID")
}

// GetWorkforce handles GET /api/v1/offices/{officeID}/workforce.
func (h *EntitiesHandler) GetWorkforce(w http.ResponseWriter, r *http.Request) {
	officeID := chi.URLParam(r, "officeID")
	doc, err := h.store.Get(r.Context(), store.CollectionWorkforce, entity.WorkforceIDFor(officeID))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, http.StatusOK, doc.Body)
}

// ListProjects handles GET /api/v1/projects.
func (h *EntitiesHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, store.CollectionProjects, "projectName", "location.city", "location.country")
}

// GetProject handles GET /api/v1/projects/{projectID}.
func (h *EntitiesHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, store.CollectionProjects, "projectID")
}

// ListRegulations handles GET /api/v1/regulations.
func (h *EntitiesHandler) ListRegulations(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, store.CollectionRegulations, "name", "jurisdiction.cityName", "jurisdiction.countryName")
}

// GetRegulation handles GET /api/v1/regulations/{regulationID}.
func (h *EntitiesHandler) GetRegulation(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, store.CollectionRegulations, "regulationID")
}

// ListRelationships handles GET /api/v1/relationships, optionally filtered
// by source or target entity id.
func (h *EntitiesHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	var filters []store.Filter
	if id := r.URL.Query().Get("entity"); id != "" {
		filters = append(filters, store.Eq("sourceEntity.id", id))
	}
	docs, err := h.store.Query(r.Context(), store.CollectionRelationships, filters...)
	if err != nil {
		writeAppError(w, err)
		return
	}
	bodies := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		bodies = append(bodies, d.Body)
	}
	writeOK(w, http.StatusOK, bodies)
}
