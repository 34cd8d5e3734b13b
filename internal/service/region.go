package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/repo"
	"github.com/localwiki/wikitags/internal/tagset"
)

// RegionService implements business logic for regions.
type RegionService struct {
	repo repo.RegionRepo
}

// NewRegionService constructs a RegionService.
func NewRegionService(r repo.RegionRepo) *RegionService {
	return &RegionService{repo: r}
}

// Create adds a region. slug defaults to the slugified name.
// Returns domain.ErrValidation if name is blank, the slug is empty after
// normalization, or the slug is taken.
func (s *RegionService) Create(ctx context.Context, name, slug string) (domain.Region, error) {
	name = strings.TrimSpace(name)
	if slug == "" {
		slug = name
	}
	slug = tagset.Slugify(slug)

	var fields domain.ValidationErrors
	if name == "" {
		fields.Add("name", "name is required")
	}
	if slug == "" {
		fields.Add("slug", "slug must contain at least one letter or digit")
	}
	if err := fields.Err(); err != nil {
		return domain.Region{}, fmt.Errorf("service.RegionService.Create: %w", err)
	}

	region, err := s.repo.Create(ctx, slug, name)
	if err != nil {
		return domain.Region{}, fmt.Errorf("service.RegionService.Create: %w", err)
	}
	return region, nil
}

// List returns every region ordered by slug.
func (s *RegionService) List(ctx context.Context) ([]domain.Region, error) {
	regions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RegionService.List: %w", err)
	}
	if regions == nil {
		regions = []domain.Region{}
	}
	return regions, nil
}
