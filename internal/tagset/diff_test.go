package tagset_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/tagset"
)

func newTag(name string) domain.Tag {
	return domain.Tag{ID: uuid.New(), Name: name, Slug: tagset.Slugify(name)}
}

func TestDiff(t *testing.T) {
	a, b, c := newTag("a"), newTag("b"), newTag("c")

	got := tagset.Diff([]domain.Tag{a, b}, []domain.Tag{b, c})

	assert.Equal(t, []domain.Tag{b}, got.Equal)
	assert.Equal(t, []domain.Tag{a}, got.Deleted)
	assert.Equal(t, []domain.Tag{c}, got.Added)
	assert.False(t, got.Empty())
}

func TestDiff_NilPreviousIsEmpty(t *testing.T) {
	a, b := newTag("a"), newTag("b")

	got := tagset.Diff(nil, []domain.Tag{b, a})

	assert.Empty(t, got.Equal)
	assert.Empty(t, got.Deleted)
	assert.Equal(t, []domain.Tag{a, b}, got.Added, "added is ordered by slug")
}

func TestDiff_Symmetric(t *testing.T) {
	a, b, c, d := newTag("a"), newTag("b"), newTag("c"), newTag("d")
	x := []domain.Tag{a, b, c}
	y := []domain.Tag{c, d}

	xy := tagset.Diff(x, y)
	yx := tagset.Diff(y, x)

	assert.Equal(t, xy.Added, yx.Deleted)
	assert.Equal(t, xy.Deleted, yx.Added)
	assert.Equal(t, xy.Equal, yx.Equal)
}

func TestDiff_SameSet(t *testing.T) {
	a, b := newTag("a"), newTag("b")

	got := tagset.Diff([]domain.Tag{a, b}, []domain.Tag{b, a})

	assert.Equal(t, []domain.Tag{a, b}, got.Equal)
	assert.Empty(t, got.Added)
	assert.Empty(t, got.Deleted)
	assert.True(t, got.Empty())
}

func TestDiff_ComparesByIDNotName(t *testing.T) {
	old := newTag("parks")
	renamed := domain.Tag{ID: old.ID, Name: "Parks", Slug: "parks"}
	other := domain.Tag{ID: uuid.New(), Name: "parks", Slug: "parks"}

	got := tagset.Diff([]domain.Tag{old}, []domain.Tag{renamed, other})

	assert.Len(t, got.Equal, 1)
	assert.Equal(t, []domain.Tag{other}, got.Added)
	assert.Empty(t, got.Deleted)
}
