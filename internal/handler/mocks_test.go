package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/localwiki/wikitags/internal/blobstore"
	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/handler"
	"github.com/localwiki/wikitags/internal/service"
)

// Hand-written test doubles: each method is a function field, set only the
// ones your test needs.

type mockRegionServicer struct {
	create func(ctx context.Context, name, slug string) (domain.Region, error)
	list   func(ctx context.Context) ([]domain.Region, error)
}

func (m *mockRegionServicer) Create(ctx context.Context, name, slug string) (domain.Region, error) {
	return m.create(ctx, name, slug)
}
func (m *mockRegionServicer) List(ctx context.Context) ([]domain.Region, error) {
	return m.list(ctx)
}

type mockTagServicer struct {
	list   func(ctx context.Context, regionSlug, prefix string, p domain.PaginationParams) ([]domain.Tag, int64, error)
	tagged func(ctx context.Context, regionSlug, slug string) (domain.Tag, []uuid.UUID, error)
}

func (m *mockTagServicer) List(ctx context.Context, regionSlug, prefix string, p domain.PaginationParams) ([]domain.Tag, int64, error) {
	return m.list(ctx, regionSlug, prefix, p)
}
func (m *mockTagServicer) Tagged(ctx context.Context, regionSlug, slug string) (domain.Tag, []uuid.UUID, error) {
	return m.tagged(ctx, regionSlug, slug)
}

type mockTagSetServicer struct {
	get     func(ctx context.Context, regionSlug string, pageID uuid.UUID) (service.TagSetView, error)
	save    func(ctx context.Context, in service.SaveTagSet) (service.SaveResult, error)
	history func(ctx context.Context, regionSlug string, pageID uuid.UUID, p domain.PaginationParams) ([]domain.TagSetVersion, int64, error)
}

func (m *mockTagSetServicer) Get(ctx context.Context, regionSlug string, pageID uuid.UUID) (service.TagSetView, error) {
	return m.get(ctx, regionSlug, pageID)
}
func (m *mockTagSetServicer) Save(ctx context.Context, in service.SaveTagSet) (service.SaveResult, error) {
	return m.save(ctx, in)
}
func (m *mockTagSetServicer) History(ctx context.Context, regionSlug string, pageID uuid.UUID, p domain.PaginationParams) ([]domain.TagSetVersion, int64, error) {
	return m.history(ctx, regionSlug, pageID, p)
}

type mockFrontPageServicer struct {
	get            func(ctx context.Context, regionSlug string) (domain.FrontPage, error)
	setCoverPhoto  func(ctx context.Context, regionSlug, filename string, body io.Reader, size int64) (domain.FrontPage, error)
	openCoverPhoto func(ctx context.Context, regionSlug string) (blobstore.Object, error)
}

func (m *mockFrontPageServicer) Get(ctx context.Context, regionSlug string) (domain.FrontPage, error) {
	return m.get(ctx, regionSlug)
}
func (m *mockFrontPageServicer) SetCoverPhoto(ctx context.Context, regionSlug, filename string, body io.Reader, size int64) (domain.FrontPage, error) {
	return m.setCoverPhoto(ctx, regionSlug, filename, body, size)
}
func (m *mockFrontPageServicer) OpenCoverPhoto(ctx context.Context, regionSlug string) (blobstore.Object, error) {
	return m.openCoverPhoto(ctx, regionSlug)
}

// compile-time checks
var (
	_ handler.RegionServicer    = (*mockRegionServicer)(nil)
	_ handler.TagServicer       = (*mockTagServicer)(nil)
	_ handler.TagSetServicer    = (*mockTagSetServicer)(nil)
	_ handler.FrontPageServicer = (*mockFrontPageServicer)(nil)
)

// serve runs req through a router built from srv and returns the recorder.
func serve(srv *handler.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}
