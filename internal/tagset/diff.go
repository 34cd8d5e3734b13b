package tagset

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/domain"
)

// Change is the delta between two versions of a page's tags.
type Change struct {
	Equal   []domain.Tag
	Deleted []domain.Tag
	Added   []domain.Tag
}

// Empty reports whether nothing was added or removed.
func (c Change) Empty() bool {
	return len(c.Deleted) == 0 && len(c.Added) == 0
}

// Diff compares previous and current by tag ID. A nil previous means the
// page had no tag set yet. Each output slice is ordered by slug, then name.
func Diff(previous, current []domain.Tag) Change {
	prev := indexByID(previous)
	cur := indexByID(current)

	c := Change{Equal: []domain.Tag{}, Deleted: []domain.Tag{}, Added: []domain.Tag{}}
	for id, t := range prev {
		if _, ok := cur[id]; ok {
			c.Equal = append(c.Equal, t)
		} else {
			c.Deleted = append(c.Deleted, t)
		}
	}
	for id, t := range cur {
		if _, ok := prev[id]; !ok {
			c.Added = append(c.Added, t)
		}
	}
	sortTags(c.Equal)
	sortTags(c.Deleted)
	sortTags(c.Added)
	return c
}

func indexByID(tags []domain.Tag) map[uuid.UUID]domain.Tag {
	m := make(map[uuid.UUID]domain.Tag, len(tags))
	for _, t := range tags {
		m[t.ID] = t
	}
	return m
}

func sortTags(tags []domain.Tag) {
	slices.SortFunc(tags, func(a, b domain.Tag) int {
		if c := cmp.Compare(a.Slug, b.Slug); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
