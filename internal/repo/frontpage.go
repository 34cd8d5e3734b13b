package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/localwiki/wikitags/internal/domain"
)

// FrontPageRepo defines the persistence operations for region front pages.
type FrontPageRepo interface {
	// GetByRegion returns domain.ErrNotFound if the region has no front page yet.
	GetByRegion(ctx context.Context, regionID uuid.UUID) (domain.FrontPage, error)

	// SetCoverPhoto creates the region's front page if needed and stores key
	// as its cover photo. An empty key clears the photo.
	SetCoverPhoto(ctx context.Context, regionID uuid.UUID, key string) (domain.FrontPage, error)
}

type pgFrontPageRepo struct {
	db db
}

// NewFrontPageRepo constructs a FrontPageRepo backed by the provided db connection.
func NewFrontPageRepo(db db) FrontPageRepo {
	return &pgFrontPageRepo{db: db}
}

func (r *pgFrontPageRepo) GetByRegion(ctx context.Context, regionID uuid.UUID) (domain.FrontPage, error) {
	const q = `
		SELECT id, region_id, cover_photo, updated_at
		FROM front_pages
		WHERE region_id = @region_id`

	fp, err := scanFrontPage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"region_id": regionID}))
	if err != nil {
		return domain.FrontPage{}, fmt.Errorf("repo.FrontPageRepo.GetByRegion: %w", err)
	}
	return fp, nil
}

func (r *pgFrontPageRepo) SetCoverPhoto(ctx context.Context, regionID uuid.UUID, key string) (domain.FrontPage, error) {
	const q = `
		INSERT INTO front_pages (region_id, cover_photo)
		VALUES (@region_id, NULLIF(@cover_photo, ''))
		ON CONFLICT (region_id) DO UPDATE
		SET cover_photo = EXCLUDED.cover_photo, updated_at = now()
		RETURNING id, region_id, cover_photo, updated_at`

	fp, err := scanFrontPage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"region_id": regionID, "cover_photo": key}))
	if err != nil {
		return domain.FrontPage{}, fmt.Errorf("repo.FrontPageRepo.SetCoverPhoto: %w", err)
	}
	return fp, nil
}

func scanFrontPage(s scanner) (domain.FrontPage, error) {
	var (
		fp         domain.FrontPage
		id, region pgtype.UUID
		cover      pgtype.Text
	)
	if err := s.Scan(&id, &region, &cover, &fp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FrontPage{}, domain.ErrNotFound
		}
		return domain.FrontPage{}, err
	}
	fp.ID = uuid.UUID(id.Bytes)
	fp.RegionID = uuid.UUID(region.Bytes)
	fp.CoverPhoto = cover.String
	return fp, nil
}
