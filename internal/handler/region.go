package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/domain"
)

// Region is the API representation of a region.
type Region struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRegionRequest is the body of POST /regions. Slug defaults to the
// normalized name.
type CreateRegionRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// ListRegions handles GET /regions.
func (s *Server) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.regions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	data := make([]Region, len(regions))
	for i, reg := range regions {
		data[i] = regionToResponse(reg)
	}
	writeJSON(w, http.StatusOK, struct {
		Data []Region `json:"data"`
	}{data})
}

// CreateRegion handles POST /regions.
func (s *Server) CreateRegion(w http.ResponseWriter, r *http.Request) {
	var body CreateRegionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("request body must be a JSON object"))
		return
	}
	region, err := s.regions.Create(r.Context(), body.Name, body.Slug)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, regionToResponse(region))
}

func regionToResponse(r domain.Region) Region {
	return Region{ID: r.ID, Slug: r.Slug, Name: r.Name, CreatedAt: r.CreatedAt}
}
