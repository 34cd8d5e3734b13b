package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a free-text label that can be applied to wiki pages.
// Identity within a region is determined by Slug, a normalized projection of
// Name. Name keeps the spelling supplied by the first user to create the tag.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	RegionID  uuid.UUID `json:"region_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// TagNames returns the display names of tags in order.
func TagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

// TagIDs returns the IDs of tags in order.
func TagIDs(tags []Tag) []uuid.UUID {
	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
