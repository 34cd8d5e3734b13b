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

// TagRepo defines the persistence operations for Tags.
// Every lookup is scoped by region: slugs are unique per (slug, region) only.
type TagRepo interface {
	// FindBySlugRegion returns domain.ErrNotFound if the region has no tag with that slug.
	FindBySlugRegion(ctx context.Context, regionID uuid.UUID, slug string) (domain.Tag, error)

	// InsertIfAbsent inserts a tag, or returns the existing tag when the
	// (slug, region) pair is taken. inserted reports which happened. The name
	// of the first creator is preserved on conflict. A unique violation that
	// escapes the conflict clause is returned as domain.ErrDuplicateSlug.
	InsertIfAbsent(ctx context.Context, regionID uuid.UUID, name, slug string) (tag domain.Tag, inserted bool, err error)

	// ListByIDs returns the tags with the given IDs ordered by slug.
	// Unknown IDs are skipped.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Tag, error)

	// ListByRegion returns one page of the region's tags whose slug starts
	// with prefix, ordered by slug, and the total number of matches.
	ListByRegion(ctx context.Context, regionID uuid.UUID, prefix string, p domain.PaginationParams) ([]domain.Tag, int64, error)
}

// pgTagRepo is the Postgres implementation of TagRepo.
type pgTagRepo struct {
	db db
}

// NewTagRepo constructs a TagRepo backed by the provided db connection.
func NewTagRepo(db db) TagRepo {
	return &pgTagRepo{db: db}
}

const tagColumns = `id, region_id, name, slug, created_at`

func (r *pgTagRepo) FindBySlugRegion(ctx context.Context, regionID uuid.UUID, slug string) (domain.Tag, error) {
	const q = `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE slug = @slug AND region_id = @region_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": slug, "region_id": regionID})
	result, err := scanTag(row)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.FindBySlugRegion: %w", err)
	}
	return result, nil
}

// InsertIfAbsent leaves an existing row untouched, so it takes no row lock on
// tags that are already there. When the insert is skipped the existing tag is
// read back in a second statement, which sees rows committed by concurrent
// creators.
func (r *pgTagRepo) InsertIfAbsent(ctx context.Context, regionID uuid.UUID, name, slug string) (domain.Tag, bool, error) {
	const q = `
		INSERT INTO tags (region_id, name, slug)
		VALUES (@region_id, @name, @slug)
		ON CONFLICT (slug, region_id) DO NOTHING
		RETURNING ` + tagColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"region_id": regionID, "name": name, "slug": slug})
	t, err := scanTag(row)
	switch {
	case err == nil:
		return t, true, nil
	case isUniqueViolation(err):
		return domain.Tag{}, false, fmt.Errorf("repo.TagRepo.InsertIfAbsent: %w", domain.ErrDuplicateSlug)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Tag{}, false, fmt.Errorf("repo.TagRepo.InsertIfAbsent: %w", err)
	}

	t, err = r.FindBySlugRegion(ctx, regionID, slug)
	if err != nil {
		return domain.Tag{}, false, fmt.Errorf("repo.TagRepo.InsertIfAbsent: existing: %w", err)
	}
	return t, false, nil
}

func (r *pgTagRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return []domain.Tag{}, nil
	}

	const q = `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE id = ANY(@ids)
		ORDER BY slug`

	tags, err := r.queryTags(ctx, q, pgx.NamedArgs{"ids": pgUUIDs(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.ListByIDs: %w", err)
	}
	return tags, nil
}

func (r *pgTagRepo) ListByRegion(ctx context.Context, regionID uuid.UUID, prefix string, p domain.PaginationParams) ([]domain.Tag, int64, error) {
	const countQ = `
		SELECT count(*)
		FROM tags
		WHERE region_id = @region_id AND starts_with(slug, @prefix)`
	const q = `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE region_id = @region_id AND starts_with(slug, @prefix)
		ORDER BY slug
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{
		"region_id": regionID,
		"prefix":    prefix,
		"limit":     p.Limit,
		"offset":    p.Offset(),
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TagRepo.ListByRegion: count: %w", err)
	}

	tags, err := r.queryTags(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TagRepo.ListByRegion: %w", err)
	}
	return tags, total, nil
}

func (r *pgTagRepo) queryTags(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Tag, error) {
	return queryTags(ctx, r.db, q, args)
}

// queryTags runs a query selecting tagColumns and scans every row.
func queryTags(ctx context.Context, db db, q string, args pgx.NamedArgs) ([]domain.Tag, error) {
	rows, err := db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return tags, nil
}

// scanTag maps a single database row into a domain.Tag.
func scanTag(s scanner) (domain.Tag, error) {
	var (
		t       domain.Tag
		id, rid pgtype.UUID
	)
	err := s.Scan(&id, &rid, &t.Name, &t.Slug, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}
	t.ID = uuid.UUID(id.Bytes)
	t.RegionID = uuid.UUID(rid.Bytes)
	return t, nil
}
