package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/localwiki/wikitags/internal/domain"
)

// pathParam binds the named chi URL parameter into dest using the OpenAPI
// "simple" style.
func pathParam(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := pathParam(r, name, &id)
	return id, err
}

func pathString(r *http.Request, name string) (string, error) {
	var v string
	err := pathParam(r, name, &v)
	return v, err
}

// queryParam binds an optional form-style query parameter into dest.
func queryParam(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

// pagination reads ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func pagination(r *http.Request) (domain.PaginationParams, error) {
	var page, limit *int
	if err := queryParam(r, "page", &page); err != nil {
		return domain.PaginationParams{}, err
	}
	if err := queryParam(r, "limit", &limit); err != nil {
		return domain.PaginationParams{}, err
	}
	return domain.NewPaginationParams(page, limit), nil
}

// Pagination is the paging block of list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

func paginationResponse(p domain.PaginationParams, total int64) Pagination {
	return Pagination{Page: p.Page, Limit: p.Limit, Total: int(total)}
}
