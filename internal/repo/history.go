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

// HistoryRepo records historic tag references and tag-set versions. It is the
// versioning collaborator behind three-way merges: a tag-set version stores
// historic tag keys, and ResolveHistoric maps them back to live tags.
type HistoryRepo interface {
	// RecordTag snapshots tag and returns the new historic reference.
	RecordTag(ctx context.Context, tag domain.Tag) (domain.TagVersion, error)

	// ResolveHistoric returns the live tag ID a historic key was recorded for.
	// ok is false when the key is unknown or the tag has been deleted.
	ResolveHistoric(ctx context.Context, historyID int64) (id uuid.UUID, ok bool, err error)

	// LatestHistoryIDs returns the newest historic key of each tag.
	// Tags without any snapshot are absent from the map.
	LatestHistoryIDs(ctx context.Context, tagIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	// RecordTagSet appends a tag-set version and returns it with ID and
	// CreatedAt populated.
	RecordTagSet(ctx context.Context, v domain.TagSetVersion) (domain.TagSetVersion, error)

	// GetTagSetVersion returns domain.ErrNotFound if the page has no such version.
	GetTagSetVersion(ctx context.Context, pageID uuid.UUID, versionID int64) (domain.TagSetVersion, error)

	// LatestTagSetVersion returns domain.ErrNotFound if the page was never saved.
	LatestTagSetVersion(ctx context.Context, pageID uuid.UUID) (domain.TagSetVersion, error)

	// ListTagSetVersions returns one page of the versions recorded for the
	// page in the region, newest first, and their total.
	ListTagSetVersions(ctx context.Context, regionID, pageID uuid.UUID, p domain.PaginationParams) ([]domain.TagSetVersion, int64, error)
}

type pgHistoryRepo struct {
	db db
}

// NewHistoryRepo constructs a HistoryRepo backed by the provided db connection.
func NewHistoryRepo(db db) HistoryRepo {
	return &pgHistoryRepo{db: db}
}

func (r *pgHistoryRepo) RecordTag(ctx context.Context, tag domain.Tag) (domain.TagVersion, error) {
	const q = `
		INSERT INTO tag_versions (tag_id, region_id, name, slug)
		VALUES (@tag_id, @region_id, @name, @slug)
		RETURNING history_id, tag_id, region_id, name, slug, recorded_at`

	args := pgx.NamedArgs{
		"tag_id":    tag.ID,
		"region_id": tag.RegionID,
		"name":      tag.Name,
		"slug":      tag.Slug,
	}
	v, err := scanTagVersion(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TagVersion{}, fmt.Errorf("repo.HistoryRepo.RecordTag: %w", err)
	}
	return v, nil
}

func (r *pgHistoryRepo) ResolveHistoric(ctx context.Context, historyID int64) (uuid.UUID, bool, error) {
	const q = `SELECT tag_id FROM tag_versions WHERE history_id = @history_id`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"history_id": historyID}).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("repo.HistoryRepo.ResolveHistoric: %w", err)
	}
	if !id.Valid {
		return uuid.Nil, false, nil
	}
	return uuid.UUID(id.Bytes), true, nil
}

func (r *pgHistoryRepo) LatestHistoryIDs(ctx context.Context, tagIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(tagIDs))
	if len(tagIDs) == 0 {
		return out, nil
	}

	const q = `
		SELECT tag_id, max(history_id)
		FROM tag_versions
		WHERE tag_id = ANY(@ids)
		GROUP BY tag_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": pgUUIDs(tagIDs)})
	if err != nil {
		return nil, fmt.Errorf("repo.HistoryRepo.LatestHistoryIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  pgtype.UUID
			hid int64
		)
		if err := rows.Scan(&id, &hid); err != nil {
			return nil, fmt.Errorf("repo.HistoryRepo.LatestHistoryIDs: scan: %w", err)
		}
		out[uuid.UUID(id.Bytes)] = hid
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.HistoryRepo.LatestHistoryIDs: rows: %w", err)
	}
	return out, nil
}

const tagSetVersionColumns = `id, page_id, region_id, tag_history_ids, comment, created_at`

func (r *pgHistoryRepo) RecordTagSet(ctx context.Context, v domain.TagSetVersion) (domain.TagSetVersion, error) {
	const q = `
		INSERT INTO page_tagset_versions (page_id, region_id, tag_history_ids, comment)
		VALUES (@page_id, @region_id, @tag_history_ids, @comment)
		RETURNING ` + tagSetVersionColumns

	hids := v.TagHistoryIDs
	if hids == nil {
		hids = []int64{}
	}
	args := pgx.NamedArgs{
		"page_id":         v.PageID,
		"region_id":       v.RegionID,
		"tag_history_ids": hids,
		"comment":         v.Comment,
	}
	result, err := scanTagSetVersion(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TagSetVersion{}, fmt.Errorf("repo.HistoryRepo.RecordTagSet: %w", err)
	}
	return result, nil
}

func (r *pgHistoryRepo) GetTagSetVersion(ctx context.Context, pageID uuid.UUID, versionID int64) (domain.TagSetVersion, error) {
	const q = `
		SELECT ` + tagSetVersionColumns + `
		FROM page_tagset_versions
		WHERE page_id = @page_id AND id = @id`

	v, err := scanTagSetVersion(r.db.QueryRow(ctx, q, pgx.NamedArgs{"page_id": pageID, "id": versionID}))
	if err != nil {
		return domain.TagSetVersion{}, fmt.Errorf("repo.HistoryRepo.GetTagSetVersion: %w", err)
	}
	return v, nil
}

func (r *pgHistoryRepo) LatestTagSetVersion(ctx context.Context, pageID uuid.UUID) (domain.TagSetVersion, error) {
	const q = `
		SELECT ` + tagSetVersionColumns + `
		FROM page_tagset_versions
		WHERE page_id = @page_id
		ORDER BY id DESC
		LIMIT 1`

	v, err := scanTagSetVersion(r.db.QueryRow(ctx, q, pgx.NamedArgs{"page_id": pageID}))
	if err != nil {
		return domain.TagSetVersion{}, fmt.Errorf("repo.HistoryRepo.LatestTagSetVersion: %w", err)
	}
	return v, nil
}

func (r *pgHistoryRepo) ListTagSetVersions(ctx context.Context, regionID, pageID uuid.UUID, p domain.PaginationParams) ([]domain.TagSetVersion, int64, error) {
	const countQ = `
		SELECT count(*)
		FROM page_tagset_versions
		WHERE page_id = @page_id AND region_id = @region_id`
	const q = `
		SELECT ` + tagSetVersionColumns + `
		FROM page_tagset_versions
		WHERE page_id = @page_id AND region_id = @region_id
		ORDER BY id DESC
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{"page_id": pageID, "region_id": regionID, "limit": p.Limit, "offset": p.Offset()}

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.HistoryRepo.ListTagSetVersions: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.HistoryRepo.ListTagSetVersions: %w", err)
	}
	defer rows.Close()

	versions := []domain.TagSetVersion{}
	for rows.Next() {
		v, err := scanTagSetVersion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.HistoryRepo.ListTagSetVersions: scan: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.HistoryRepo.ListTagSetVersions: rows: %w", err)
	}
	return versions, total, nil
}

func scanTagVersion(s scanner) (domain.TagVersion, error) {
	var (
		v             domain.TagVersion
		tagID, region pgtype.UUID
	)
	if err := s.Scan(&v.HistoryID, &tagID, &region, &v.Name, &v.Slug, &v.RecordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TagVersion{}, domain.ErrNotFound
		}
		return domain.TagVersion{}, err
	}
	if tagID.Valid {
		id := uuid.UUID(tagID.Bytes)
		v.TagID = &id
	}
	v.RegionID = uuid.UUID(region.Bytes)
	return v, nil
}

func scanTagSetVersion(s scanner) (domain.TagSetVersion, error) {
	var (
		v            domain.TagSetVersion
		page, region pgtype.UUID
	)
	if err := s.Scan(&v.ID, &page, &region, &v.TagHistoryIDs, &v.Comment, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TagSetVersion{}, domain.ErrNotFound
		}
		return domain.TagSetVersion{}, err
	}
	v.PageID = uuid.UUID(page.Bytes)
	v.RegionID = uuid.UUID(region.Bytes)
	return v, nil
}
