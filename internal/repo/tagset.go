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

// TagSetRepo defines the persistence operations for page tag sets and the
// page_tagset_tags membership table.
type TagSetRepo interface {
	// Lock takes a transaction-scoped advisory lock on the page. Saves of
	// one page serialize on it even before the page has a tag set row.
	// Outside a transaction the lock is released immediately.
	Lock(ctx context.Context, pageID uuid.UUID) error

	// GetByPage returns the page's tag set with its tags ordered by slug.
	// With forUpdate the set row stays locked until the transaction ends.
	// Returns domain.ErrNotFound if the page has never been tagged.
	GetByPage(ctx context.Context, pageID uuid.UUID, forUpdate bool) (domain.PageTagSet, error)

	// Save creates or updates the page's tag set and replaces its membership
	// with tagIDs. Returns the stored set with tags loaded.
	Save(ctx context.Context, pageID, regionID uuid.UUID, tagIDs []uuid.UUID) (domain.PageTagSet, error)

	// ListPagesByTag returns the IDs of pages carrying the tag, ordered by page ID.
	ListPagesByTag(ctx context.Context, tagID uuid.UUID) ([]uuid.UUID, error)
}

type pgTagSetRepo struct {
	db db
}

// NewTagSetRepo constructs a TagSetRepo backed by the provided db connection.
func NewTagSetRepo(db db) TagSetRepo {
	return &pgTagSetRepo{db: db}
}

func (r *pgTagSetRepo) Lock(ctx context.Context, pageID uuid.UUID) error {
	const q = `SELECT pg_advisory_xact_lock(hashtextextended(@page_id::text, 0))`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"page_id": pageID}); err != nil {
		return fmt.Errorf("repo.TagSetRepo.Lock: %w", err)
	}
	return nil
}

func (r *pgTagSetRepo) GetByPage(ctx context.Context, pageID uuid.UUID, forUpdate bool) (domain.PageTagSet, error) {
	q := `
		SELECT id, page_id, region_id, updated_at
		FROM page_tagsets
		WHERE page_id = @page_id`
	if forUpdate {
		q += ` FOR UPDATE`
	}

	set, err := scanTagSet(r.db.QueryRow(ctx, q, pgx.NamedArgs{"page_id": pageID}))
	if err != nil {
		return domain.PageTagSet{}, fmt.Errorf("repo.TagSetRepo.GetByPage: %w", err)
	}
	set.Tags, err = r.members(ctx, set.ID)
	if err != nil {
		return domain.PageTagSet{}, fmt.Errorf("repo.TagSetRepo.GetByPage: %w", err)
	}
	return set, nil
}

func (r *pgTagSetRepo) Save(ctx context.Context, pageID, regionID uuid.UUID, tagIDs []uuid.UUID) (domain.PageTagSet, error) {
	const upsert = `
		INSERT INTO page_tagsets (page_id, region_id)
		VALUES (@page_id, @region_id)
		ON CONFLICT (page_id) DO UPDATE
		SET region_id = EXCLUDED.region_id, updated_at = now()
		RETURNING id, page_id, region_id, updated_at`
	const clear = `DELETE FROM page_tagset_tags WHERE tagset_id = @tagset_id`
	const link = `
		INSERT INTO page_tagset_tags (tagset_id, tag_id)
		SELECT @tagset_id, unnest(@tag_ids::uuid[])
		ON CONFLICT DO NOTHING`

	set, err := scanTagSet(r.db.QueryRow(ctx, upsert, pgx.NamedArgs{"page_id": pageID, "region_id": regionID}))
	if err != nil {
		return domain.PageTagSet{}, fmt.Errorf("repo.TagSetRepo.Save: upsert: %w", err)
	}
	if _, err := r.db.Exec(ctx, clear, pgx.NamedArgs{"tagset_id": set.ID}); err != nil {
		return domain.PageTagSet{}, fmt.Errorf("repo.TagSetRepo.Save: clear: %w", err)
	}
	if len(tagIDs) > 0 {
		args := pgx.NamedArgs{"tagset_id": set.ID, "tag_ids": pgUUIDs(tagIDs)}
		if _, err := r.db.Exec(ctx, link, args); err != nil {
			return domain.PageTagSet{}, fmt.Errorf("repo.TagSetRepo.Save: link: %w", err)
		}
	}

	set.Tags, err = r.members(ctx, set.ID)
	if err != nil {
		return domain.PageTagSet{}, fmt.Errorf("repo.TagSetRepo.Save: %w", err)
	}
	return set, nil
}

func (r *pgTagSetRepo) ListPagesByTag(ctx context.Context, tagID uuid.UUID) ([]uuid.UUID, error) {
	const q = `
		SELECT s.page_id
		FROM page_tagsets s
		JOIN page_tagset_tags st ON st.tagset_id = s.id
		WHERE st.tag_id = @tag_id
		ORDER BY s.page_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"tag_id": tagID})
	if err != nil {
		return nil, fmt.Errorf("repo.TagSetRepo.ListPagesByTag: %w", err)
	}
	defer rows.Close()

	pages := []uuid.UUID{}
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.TagSetRepo.ListPagesByTag: scan: %w", err)
		}
		pages = append(pages, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TagSetRepo.ListPagesByTag: rows: %w", err)
	}
	return pages, nil
}

func (r *pgTagSetRepo) members(ctx context.Context, tagsetID uuid.UUID) ([]domain.Tag, error) {
	const q = `
		SELECT t.id, t.region_id, t.name, t.slug, t.created_at
		FROM tags t
		JOIN page_tagset_tags st ON st.tag_id = t.id
		WHERE st.tagset_id = @tagset_id
		ORDER BY t.slug`

	tags, err := queryTags(ctx, r.db, q, pgx.NamedArgs{"tagset_id": tagsetID})
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	return tags, nil
}

func scanTagSet(s scanner) (domain.PageTagSet, error) {
	var (
		set              domain.PageTagSet
		id, page, region pgtype.UUID
	)
	if err := s.Scan(&id, &page, &region, &set.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PageTagSet{}, domain.ErrNotFound
		}
		return domain.PageTagSet{}, err
	}
	set.ID = uuid.UUID(id.Bytes)
	set.PageID = uuid.UUID(page.Bytes)
	set.RegionID = uuid.UUID(region.Bytes)
	return set, nil
}
