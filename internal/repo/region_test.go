package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/repo"
)

func TestRegionRepo_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	reg := mustCreateRegion(t, s)

	got, err := s.Regions.GetBySlug(context.Background(), reg.Slug)

	require.NoError(t, err)
	assert.Equal(t, reg.ID, got.ID)
}

func TestRegionRepo_GetBySlug_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Regions.GetBySlug(context.Background(), "no-such-region")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_InTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(r repo.Repos) error {
		_, err := r.Regions.Create(ctx, "rolledback", "Rolled Back")
		require.NoError(t, err)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = s.Regions.GetBySlug(ctx, "rolledback")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
