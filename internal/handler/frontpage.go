package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/domain"
)

// coverPhotoField is the multipart form field carrying the cover photo.
const coverPhotoField = "cover_photo"

// multipartMemory is how much of a multipart upload is kept in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

// FrontPage is the API representation of a region's front page.
type FrontPage struct {
	ID            uuid.UUID `json:"id"`
	CoverPhotoURL *string   `json:"cover_photo_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetFrontPage handles GET /regions/{region}/frontpage.
func (s *Server) GetFrontPage(w http.ResponseWriter, r *http.Request) {
	region, err := pathString(r, "region")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	fp, err := s.frontPages.Get(r.Context(), region)
	if err != nil {
		s.writeError(w, r, err, "front page not found")
		return
	}
	writeJSON(w, http.StatusOK, frontPageToResponse(region, fp))
}

// SetCoverPhoto handles PUT /regions/{region}/frontpage/cover.
// The photo is sent as multipart/form-data in the cover_photo field.
func (s *Server) SetCoverPhoto(w http.ResponseWriter, r *http.Request) {
	region, err := pathString(r, "region")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusBadRequest, requestBody("request body must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(coverPhotoField)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(domain.Invalid(coverPhotoField, "cover_photo is required", nil)))
		return
	}
	defer file.Close()

	fp, err := s.frontPages.SetCoverPhoto(r.Context(), region, header.Filename, file, header.Size)
	if err != nil {
		s.writeError(w, r, err, "region not found")
		return
	}
	writeJSON(w, http.StatusOK, frontPageToResponse(region, fp))
}

// GetCoverPhoto handles GET /regions/{region}/frontpage/cover and streams the
// stored image.
func (s *Server) GetCoverPhoto(w http.ResponseWriter, r *http.Request) {
	region, err := pathString(r, "region")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	obj, err := s.frontPages.OpenCoverPhoto(r.Context(), region)
	if err != nil {
		s.writeError(w, r, err, "cover photo not found")
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		s.log.WarnContext(r.Context(), "cover photo stream interrupted", "region", region, "error", err)
	}
}

// frontPageToResponse exposes the cover photo through its API route rather
// than the blob store key.
func frontPageToResponse(region string, fp domain.FrontPage) FrontPage {
	resp := FrontPage{ID: fp.ID, UpdatedAt: fp.UpdatedAt}
	if fp.CoverPhoto != "" {
		u := "/regions/" + url.PathEscape(region) + "/frontpage/cover"
		resp.CoverPhotoURL = &u
	}
	return resp
}
