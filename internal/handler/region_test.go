package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/handler"
)

func TestCreateRegion_201(t *testing.T) {
	svc := &mockRegionServicer{
		create: func(_ context.Context, name, slug string) (domain.Region, error) {
			assert.Equal(t, "San Francisco", name)
			assert.Equal(t, "sf", slug)
			return domain.Region{ID: uuid.New(), Name: name, Slug: slug}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/regions", strings.NewReader(`{"name":"San Francisco","slug":"sf"}`))
	rec := serve(handler.NewServer(svc, nil, nil, nil, nil), req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body handler.Region
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "sf", body.Slug)
}

func TestCreateRegion_422_Duplicate(t *testing.T) {
	svc := &mockRegionServicer{
		create: func(context.Context, string, string) (domain.Region, error) {
			return domain.Region{}, fmt.Errorf("service.RegionService.Create: repo.RegionRepo.Create: %w: region %q already exists", domain.ErrValidation, "sf")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/regions", strings.NewReader(`{"name":"SF"}`))
	rec := serve(handler.NewServer(svc, nil, nil, nil, nil), req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, `region "sf" already exists`, decodeError(t, rec).Message)
}

func TestListRegions_200(t *testing.T) {
	svc := &mockRegionServicer{
		list: func(context.Context) ([]domain.Region, error) {
			return []domain.Region{{Slug: "oakland"}, {Slug: "sf"}}, nil
		},
	}

	rec := serve(handler.NewServer(svc, nil, nil, nil, nil), httptest.NewRequest(http.MethodGet, "/regions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []handler.Region `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 2)
}
