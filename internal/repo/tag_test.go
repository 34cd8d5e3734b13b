package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/repo"
	"github.com/localwiki/wikitags/testutil"
)

// newTestStore opens a single transaction and returns a Store bound to it,
// so every repository in a test shares one rolled-back transaction.
func newTestStore(t *testing.T) *repo.Store {
	t.Helper()
	return repo.NewStore(testutil.NewTx(t))
}

// mustCreateRegion inserts a region with a random slug.
func mustCreateRegion(t *testing.T, s *repo.Store) domain.Region {
	t.Helper()
	slug := "r" + uuid.NewString()[:8]
	reg, err := s.Regions.Create(context.Background(), slug, "Region "+slug)
	require.NoError(t, err)
	return reg
}

// ---- InsertIfAbsent --------------------------------------------------------

func TestTagRepo_InsertIfAbsent_Create(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)

	got, inserted, err := s.Tags.InsertIfAbsent(context.Background(), reg.ID, "Golden Gate", "goldengate")

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, reg.ID, got.RegionID)
	assert.Equal(t, "Golden Gate", got.Name)
	assert.Equal(t, "goldengate", got.Slug)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestTagRepo_InsertIfAbsent_IdempotentBySlug(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)
	ctx := context.Background()

	first, _, err := s.Tags.InsertIfAbsent(ctx, reg.ID, "paris", "paris")
	require.NoError(t, err)

	// Different display name, same slug must return the original row.
	second, inserted, err := s.Tags.InsertIfAbsent(ctx, reg.ID, "Paris", "paris")
	require.NoError(t, err)

	assert.False(t, inserted)
	assert.Equal(t, first.ID, second.ID, "same slug must return same tag")
	assert.Equal(t, "paris", second.Name, "name should be the original, not the new casing")
}

func TestTagRepo_InsertIfAbsent_ScopedByRegion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := mustCreateRegion(t, s), mustCreateRegion(t, s)

	ta, _, err := s.Tags.InsertIfAbsent(ctx, a.ID, "Paris", "paris")
	require.NoError(t, err)
	tb, inserted, err := s.Tags.InsertIfAbsent(ctx, b.ID, "Paris", "paris")
	require.NoError(t, err)

	assert.True(t, inserted)
	assert.NotEqual(t, ta.ID, tb.ID)
}

func TestTagRepo_InsertIfAbsent_ExistingRowStaysUnlocked(t *testing.T) {
	pool := testutil.NewPool(t)
	s := repo.NewStore(pool)
	ctx := context.Background()
	reg := mustCreateRegion(t, s)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM regions WHERE id = $1`, reg.ID)
	})
	existing, _, err := s.Tags.InsertIfAbsent(ctx, reg.ID, "parks", "parks")
	require.NoError(t, err)

	err = s.InTx(ctx, func(r repo.Repos) error {
		got, inserted, err := r.Tags.InsertIfAbsent(ctx, reg.ID, "Parks", "parks")
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, existing.ID, got.ID)

		// Another save touching the same tag must not queue behind this one.
		_, err = pool.Exec(ctx, `SELECT id FROM tags WHERE id = $1 FOR UPDATE NOWAIT`, existing.ID)
		return err
	})

	require.NoError(t, err)
}

// ---- FindBySlugRegion / ListByIDs ------------------------------------------

func TestTagRepo_FindBySlugRegion(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)
	ctx := context.Background()

	want, _, err := s.Tags.InsertIfAbsent(ctx, reg.ID, "Parks", "parks")
	require.NoError(t, err)

	got, err := s.Tags.FindBySlugRegion(ctx, reg.ID, "parks")

	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestTagRepo_FindBySlugRegion_NotFound(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)

	_, err := s.Tags.FindBySlugRegion(context.Background(), reg.ID, "nothing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTagRepo_ListByIDs(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)
	ctx := context.Background()

	b, _, err := s.Tags.InsertIfAbsent(ctx, reg.ID, "b", "b")
	require.NoError(t, err)
	a, _, err := s.Tags.InsertIfAbsent(ctx, reg.ID, "a", "a")
	require.NoError(t, err)

	got, err := s.Tags.ListByIDs(ctx, []uuid.UUID{b.ID, a.ID, uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, domain.TagIDs(got), "ordered by slug, unknown IDs skipped")
}

func TestTagRepo_ListByIDs_Empty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Tags.ListByIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// ---- ListByRegion ----------------------------------------------------------

func TestTagRepo_ListByRegion_PrefixAndPaging(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)
	other := mustCreateRegion(t, s)
	ctx := context.Background()

	for _, slug := range []string{"mountains", "mountainlake", "mountpleasant", "desert"} {
		_, _, err := s.Tags.InsertIfAbsent(ctx, reg.ID, slug, slug)
		require.NoError(t, err)
	}
	_, _, err := s.Tags.InsertIfAbsent(ctx, other.ID, "mountaineer", "mountaineer")
	require.NoError(t, err)

	got, total, err := s.Tags.ListByRegion(ctx, reg.ID, "mount", domain.PaginationParams{Page: 1, Limit: 2})

	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "mountainlake", got[0].Slug)
	assert.Equal(t, "mountains", got[1].Slug)

	page2, _, err := s.Tags.ListByRegion(ctx, reg.ID, "mount", domain.PaginationParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "mountpleasant", page2[0].Slug)
}

func TestTagRepo_ListByRegion_UnderscoreIsLiteral(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)
	ctx := context.Background()

	for _, slug := range []string{"a_b", "abc", "a%c"} {
		_, _, err := s.Tags.InsertIfAbsent(ctx, reg.ID, slug, slug)
		require.NoError(t, err)
	}

	got, total, err := s.Tags.ListByRegion(ctx, reg.ID, "a_", domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"a_b"}, domain.TagNames(got))

	got, total, err = s.Tags.ListByRegion(ctx, reg.ID, "a%", domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"a%c"}, domain.TagNames(got))
}

func TestTagRepo_ListByRegion_Empty(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)

	got, total, err := s.Tags.ListByRegion(context.Background(), reg.ID, "zzz", domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
