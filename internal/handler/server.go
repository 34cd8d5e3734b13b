// Package handler implements the HTTP handlers for the wiki tags API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, tag.go, etc.) but all share the same Server struct so they
// can access its dependencies. Routes wires them into a chi router.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/blobstore"
	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/service"
)

// RegionServicer defines the region operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type RegionServicer interface {
	Create(ctx context.Context, name, slug string) (domain.Region, error)
	List(ctx context.Context) ([]domain.Region, error)
}

// TagServicer defines the tag lookup operations the handlers depend on.
type TagServicer interface {
	List(ctx context.Context, regionSlug, prefix string, p domain.PaginationParams) ([]domain.Tag, int64, error)
	Tagged(ctx context.Context, regionSlug, slug string) (domain.Tag, []uuid.UUID, error)
}

// TagSetServicer defines the page tag-set operations the handlers depend on.
type TagSetServicer interface {
	Get(ctx context.Context, regionSlug string, pageID uuid.UUID) (service.TagSetView, error)
	Save(ctx context.Context, in service.SaveTagSet) (service.SaveResult, error)
	History(ctx context.Context, regionSlug string, pageID uuid.UUID, p domain.PaginationParams) ([]domain.TagSetVersion, int64, error)
}

// FrontPageServicer defines the front-page operations the handlers depend on.
type FrontPageServicer interface {
	Get(ctx context.Context, regionSlug string) (domain.FrontPage, error)
	SetCoverPhoto(ctx context.Context, regionSlug, filename string, body io.Reader, size int64) (domain.FrontPage, error)
	OpenCoverPhoto(ctx context.Context, regionSlug string) (blobstore.Object, error)
}

// Server implements every API endpoint.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	regions    RegionServicer
	tags       TagServicer
	tagSets    TagSetServicer
	frontPages FrontPageServicer
	log        *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// Pass nil for services a test does not exercise.
func NewServer(regions RegionServicer, tags TagServicer, tagSets TagSetServicer, frontPages FrontPageServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{regions: regions, tags: tags, tagSets: tagSets, frontPages: frontPages, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil)
}

// Routes returns the API router. Cross-cutting middleware (request IDs,
// logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)

	r.Route("/regions", func(r chi.Router) {
		r.Get("/", s.ListRegions)
		r.Post("/", s.CreateRegion)

		r.Route("/{region}", func(r chi.Router) {
			r.Get("/tags", s.ListTags)
			r.Get("/tags/{slug}", s.GetTag)

			r.Get("/pages/{pageId}/tags", s.GetPageTags)
			r.Put("/pages/{pageId}/tags", s.SavePageTags)
			r.Get("/pages/{pageId}/tags/history", s.ListPageTagHistory)

			r.Get("/frontpage", s.GetFrontPage)
			r.Put("/frontpage/cover", s.SetCoverPhoto)
			r.Get("/frontpage/cover", s.GetCoverPhoto)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, notFoundBody("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: ErrorDetail{Code: "method_not_allowed", Message: "method not allowed"}})
	})
	return r
}
