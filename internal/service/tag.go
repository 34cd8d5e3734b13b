// Package service contains the business logic for the wiki tags service.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/repo"
	"github.com/localwiki/wikitags/internal/tagset"
)

// maxTagNameLength matches the tags.name and tags.slug column widths.
const maxTagNameLength = 100

// stripHTML removes any markup from user-supplied tag names.
var stripHTML = bluemonday.StrictPolicy()

// TagService implements business logic for Tag operations.
// Tag identity within a region is the slug; see tagset.Slugify.
type TagService struct {
	regions repo.RegionRepo
	tags    repo.TagRepo
	history repo.HistoryRepo
	tagsets repo.TagSetRepo
}

// NewTagService constructs a TagService backed by the provided repos.
func NewTagService(regions repo.RegionRepo, tags repo.TagRepo, history repo.HistoryRepo, tagsets repo.TagSetRepo) *TagService {
	return &TagService{regions: regions, tags: tags, history: history, tagsets: tagsets}
}

// GetOrCreate returns the region's tag for word, creating it on first use.
// Returns domain.ErrValidation when word is blank, too long, or normalizes
// to an empty slug (also domain.ErrInvalidTagName), or when a concurrent
// insert of the same slug wins the race (also domain.ErrDuplicateSlug).
func (s *TagService) GetOrCreate(ctx context.Context, regionID uuid.UUID, word string) (domain.Tag, error) {
	return getOrCreateTag(ctx, s.tags, s.history, regionID, word)
}

// Materialize parses comma-separated editor text and gets or creates a tag
// for every word. Problems with individual words are collected into one
// domain.ValidationErrors so the editor can show them all at once.
func (s *TagService) Materialize(ctx context.Context, regionID uuid.UUID, text string) ([]domain.Tag, error) {
	tags, err := materialize(ctx, repo.Repos{Tags: s.tags, History: s.history}, regionID, text)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.Materialize: %w", err)
	}
	return tags, nil
}

// List returns one page of the region's tags whose slug starts with the
// slugified prefix, and the total match count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TagService) List(ctx context.Context, regionSlug, prefix string, p domain.PaginationParams) ([]domain.Tag, int64, error) {
	region, err := s.regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagService.List: %w", err)
	}
	tags, total, err := s.tags.ListByRegion(ctx, region.ID, tagset.Slugify(prefix), p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagService.List: %w", err)
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, total, nil
}

// Tagged returns the tag with the given slug and the pages that carry it.
// The slug is normalized first, so a display name works too.
func (s *TagService) Tagged(ctx context.Context, regionSlug, slug string) (domain.Tag, []uuid.UUID, error) {
	region, err := s.regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return domain.Tag{}, nil, fmt.Errorf("service.TagService.Tagged: %w", err)
	}
	tag, err := s.tags.FindBySlugRegion(ctx, region.ID, tagset.Slugify(slug))
	if err != nil {
		return domain.Tag{}, nil, fmt.Errorf("service.TagService.Tagged: %w", err)
	}
	pages, err := s.tagsets.ListPagesByTag(ctx, tag.ID)
	if err != nil {
		return domain.Tag{}, nil, fmt.Errorf("service.TagService.Tagged: %w", err)
	}
	return tag, pages, nil
}

// getOrCreateTag is shared by TagService and the transactional tag-set save.
// A newly created tag also gets its first historic snapshot so later tag-set
// versions can reference it.
func getOrCreateTag(ctx context.Context, tags repo.TagRepo, history repo.HistoryRepo, regionID uuid.UUID, word string) (domain.Tag, error) {
	name, slug, err := normalizeTagName(word)
	if err != nil {
		return domain.Tag{}, err
	}

	tag, inserted, err := tags.InsertIfAbsent(ctx, regionID, name, slug)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSlug) {
			return domain.Tag{}, domain.Invalid("tags", fmt.Sprintf("tag %q was created concurrently, please resubmit", name), err)
		}
		return domain.Tag{}, fmt.Errorf("service.getOrCreateTag: %w", err)
	}
	if inserted {
		if _, err := history.RecordTag(ctx, tag); err != nil {
			return domain.Tag{}, fmt.Errorf("service.getOrCreateTag: %w", err)
		}
	}
	return tag, nil
}

// normalizeTagName strips markup and surrounding space from word and derives
// its slug.
func normalizeTagName(word string) (name, slug string, err error) {
	name = strings.TrimSpace(html.UnescapeString(stripHTML.Sanitize(word)))
	if name == "" {
		return "", "", domain.Invalid("tags", "tag name is required", nil)
	}
	if utf8.RuneCountInString(name) > maxTagNameLength {
		return "", "", domain.Invalid("tags", fmt.Sprintf("tag %q is longer than %d characters", name, maxTagNameLength), nil)
	}
	slug = tagset.Slugify(name)
	if slug == "" {
		return "", "", domain.Invalid("tags", fmt.Sprintf("%q is not a valid tag name", name), domain.ErrInvalidTagName)
	}
	if utf8.RuneCountInString(slug) > maxTagNameLength {
		return "", "", domain.Invalid("tags", fmt.Sprintf("tag %q is longer than %d characters", name, maxTagNameLength), nil)
	}
	return name, slug, nil
}
