package tagset

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// HistoricResolver maps a historic tag reference to the live tag it was
// recorded from. ok is false when the tag no longer exists.
type HistoricResolver interface {
	ResolveHistoric(ctx context.Context, historyID int64) (id uuid.UUID, ok bool, err error)
}

// ResolverFunc adapts a function to HistoricResolver.
type ResolverFunc func(ctx context.Context, historyID int64) (uuid.UUID, bool, error)

// ResolveHistoric calls f.
func (f ResolverFunc) ResolveHistoric(ctx context.Context, historyID int64) (uuid.UUID, bool, error) {
	return f(ctx, historyID)
}

// Merge reconciles two concurrent edits of one page's tags.
//
// yours is the set being saved, theirs the set saved by someone else since
// the editor was opened, and ancestor the historic keys of the version both
// edits started from (nil when there was none). The result is
//
//	(yours ∪ theirs) − ancestor ∪ (yours ∩ theirs)
//
// A tag kept by both sides always survives. A tag from the ancestor that
// either side dropped is removed. Merge never reports a conflict.
//
// NOTE: a tag one side deleted is kept when the other side still has it and
// it is also in yours ∩ theirs. Whether that resurrection is wanted is an
// open product question; do not change it without one.
func Merge(ctx context.Context, yours, theirs KeySet, ancestor []int64, r HistoricResolver) (KeySet, error) {
	base := make(KeySet, len(ancestor))
	for _, hid := range ancestor {
		id, ok, err := r.ResolveHistoric(ctx, hid)
		if err != nil {
			return nil, fmt.Errorf("tagset.Merge: resolve %d: %w", hid, err)
		}
		if ok {
			base[id] = struct{}{}
		}
	}

	common := yours.Intersect(theirs)
	return yours.Union(theirs).Minus(base).Union(common), nil
}
