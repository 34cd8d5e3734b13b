package domain

import (
	"time"

	"github.com/google/uuid"
)

// PageTagSet is the set of tags assigned to one wiki page.
// A page has at most one tag set. Pages themselves live in another service;
// only their IDs are stored here.
type PageTagSet struct {
	ID        uuid.UUID
	PageID    uuid.UUID
	RegionID  uuid.UUID
	Tags      []Tag
	UpdatedAt time.Time
}

// TagVersion is a historic snapshot of a tag. HistoryID is the key stored in
// tag-set versions; TagID points at the live tag and is nil once the tag has
// been deleted.
type TagVersion struct {
	HistoryID  int64
	TagID      *uuid.UUID
	RegionID   uuid.UUID
	Name       string
	Slug       string
	RecordedAt time.Time
}

// TagSetVersion records one save of a page's tag set: the historic keys of
// the tags it held and the generated change comment.
type TagSetVersion struct {
	ID            int64
	PageID        uuid.UUID
	RegionID      uuid.UUID
	TagHistoryIDs []int64
	Comment       string
	CreatedAt     time.Time
}
