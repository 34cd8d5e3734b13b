package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/service"
)

// TagSet is the API representation of a page's tags as shown in the editor.
// Version is sent back as SaveTagSetRequest.BaseVersion.
type TagSet struct {
	PageID     uuid.UUID `json:"page_id"`
	Tags       []Tag     `json:"tags"`
	EditString string    `json:"edit_string"`
	Version    int64     `json:"version"`
}

// SaveTagSetRequest is the body of PUT /regions/{region}/pages/{pageId}/tags.
type SaveTagSetRequest struct {
	// Tags is the comma-separated editor text.
	Tags string `json:"tags"`
	// BaseVersion is the version the editor was loaded from; omit it to
	// overwrite whatever is current.
	BaseVersion *int64 `json:"base_version,omitempty"`
}

// SaveTagSetResponse is the result of a save.
type SaveTagSetResponse struct {
	TagSet
	Comment string `json:"comment"`
	Merged  bool   `json:"merged"`
}

// TagSetVersion is one entry of a page's tag-set history.
type TagSetVersion struct {
	ID        int64     `json:"id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// GetPageTags handles GET /regions/{region}/pages/{pageId}/tags.
func (s *Server) GetPageTags(w http.ResponseWriter, r *http.Request) {
	region, pageID, ok := pageParams(w, r)
	if !ok {
		return
	}
	view, err := s.tagSets.Get(r.Context(), region, pageID)
	if err != nil {
		s.writeError(w, r, err, "page not found")
		return
	}
	writeJSON(w, http.StatusOK, tagSetToResponse(view))
}

// SavePageTags handles PUT /regions/{region}/pages/{pageId}/tags.
// The change comment is written in the language chosen by Accept-Language.
func (s *Server) SavePageTags(w http.ResponseWriter, r *http.Request) {
	region, pageID, ok := pageParams(w, r)
	if !ok {
		return
	}
	var body SaveTagSetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusBadRequest, requestBody("request body must be a JSON object"))
		return
	}

	res, err := s.tagSets.Save(r.Context(), service.SaveTagSet{
		Region:      region,
		PageID:      pageID,
		Text:        body.Tags,
		BaseVersion: body.BaseVersion,
		Locale:      r.Header.Get("Accept-Language"),
	})
	if err != nil {
		s.writeError(w, r, err, "page not found")
		return
	}
	writeJSON(w, http.StatusOK, SaveTagSetResponse{
		TagSet:  tagSetToResponse(res.View),
		Comment: res.Comment,
		Merged:  res.Merged,
	})
}

// ListPageTagHistory handles GET /regions/{region}/pages/{pageId}/tags/history.
// Versions are listed newest first.
func (s *Server) ListPageTagHistory(w http.ResponseWriter, r *http.Request) {
	region, pageID, ok := pageParams(w, r)
	if !ok {
		return
	}
	params, err := pagination(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	versions, total, err := s.tagSets.History(r.Context(), region, pageID, params)
	if err != nil {
		s.writeError(w, r, err, "region not found")
		return
	}
	data := make([]TagSetVersion, len(versions))
	for i, v := range versions {
		data[i] = TagSetVersion{ID: v.ID, Comment: v.Comment, CreatedAt: v.CreatedAt}
	}
	writeJSON(w, http.StatusOK, struct {
		Data       []TagSetVersion `json:"data"`
		Pagination Pagination      `json:"pagination"`
	}{data, paginationResponse(params, total)})
}

// pageParams binds {region} and {pageId}, writing a 400 on failure.
func pageParams(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	region, err := pathString(r, "region")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return "", uuid.Nil, false
	}
	pageID, err := pathUUID(r, "pageId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return "", uuid.Nil, false
	}
	return region, pageID, true
}

func tagSetToResponse(v service.TagSetView) TagSet {
	return TagSet{
		PageID:     v.PageID,
		Tags:       tagsToResponse(v.Tags),
		EditString: v.EditString,
		Version:    v.Version,
	}
}
