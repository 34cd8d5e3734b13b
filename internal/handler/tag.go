package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/domain"
)

// Tag is the API representation of a tag.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// TagDetail is a tag together with the pages that carry it.
type TagDetail struct {
	Tag
	Pages []uuid.UUID `json:"pages"`
}

// ListTags handles GET /regions/{region}/tags.
// The optional ?q= query parameter filters tags by slug prefix.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	region, err := pathString(r, "region")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	var q *string
	if err := queryParam(r, "q", &q); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	params, err := pagination(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	tags, total, err := s.tags.List(r.Context(), region, derefString(q), params)
	if err != nil {
		s.writeError(w, r, err, "region not found")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data       []Tag      `json:"data"`
		Pagination Pagination `json:"pagination"`
	}{tagsToResponse(tags), paginationResponse(params, total)})
}

// GetTag handles GET /regions/{region}/tags/{slug}.
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	region, err := pathString(r, "region")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	slug, err := pathString(r, "slug")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	tag, pages, err := s.tags.Tagged(r.Context(), region, slug)
	if err != nil {
		s.writeError(w, r, err, "tag not found")
		return
	}
	if pages == nil {
		pages = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, TagDetail{Tag: tagToResponse(tag), Pages: pages})
}

// tagToResponse converts a domain.Tag to its API response type.
func tagToResponse(t domain.Tag) Tag {
	return Tag{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		CreatedAt: t.CreatedAt,
	}
}

func tagsToResponse(tags []domain.Tag) []Tag {
	out := make([]Tag, len(tags))
	for i, t := range tags {
		out[i] = tagToResponse(t)
	}
	return out
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
