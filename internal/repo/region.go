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

// RegionRepo defines the persistence operations for Regions.
type RegionRepo interface {
	// Create inserts a region. Returns domain.ErrValidation if the slug is taken.
	Create(ctx context.Context, slug, name string) (domain.Region, error)

	// GetBySlug returns domain.ErrNotFound if no region has that slug.
	GetBySlug(ctx context.Context, slug string) (domain.Region, error)

	// List returns all regions ordered by slug.
	List(ctx context.Context) ([]domain.Region, error)
}

type pgRegionRepo struct {
	db db
}

// NewRegionRepo constructs a RegionRepo backed by the provided db connection.
func NewRegionRepo(db db) RegionRepo {
	return &pgRegionRepo{db: db}
}

func (r *pgRegionRepo) Create(ctx context.Context, slug, name string) (domain.Region, error) {
	const q = `
		INSERT INTO regions (slug, name)
		VALUES (@slug, @name)
		RETURNING id, slug, name, created_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": slug, "name": name})
	result, err := scanRegion(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Region{}, fmt.Errorf("repo.RegionRepo.Create: %w: region %q already exists", domain.ErrValidation, slug)
		}
		return domain.Region{}, fmt.Errorf("repo.RegionRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgRegionRepo) GetBySlug(ctx context.Context, slug string) (domain.Region, error) {
	const q = `
		SELECT id, slug, name, created_at
		FROM regions
		WHERE slug = @slug`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": slug})
	result, err := scanRegion(row)
	if err != nil {
		return domain.Region{}, fmt.Errorf("repo.RegionRepo.GetBySlug: %w", err)
	}
	return result, nil
}

func (r *pgRegionRepo) List(ctx context.Context) ([]domain.Region, error) {
	const q = `
		SELECT id, slug, name, created_at
		FROM regions
		ORDER BY slug`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.RegionRepo.List: %w", err)
	}
	defer rows.Close()

	regions := []domain.Region{}
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RegionRepo.List: scan: %w", err)
		}
		regions = append(regions, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RegionRepo.List: rows: %w", err)
	}
	return regions, nil
}

func scanRegion(s scanner) (domain.Region, error) {
	var (
		reg domain.Region
		id  pgtype.UUID
	)
	if err := s.Scan(&id, &reg.Slug, &reg.Name, &reg.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Region{}, domain.ErrNotFound
		}
		return domain.Region{}, err
	}
	reg.ID = uuid.UUID(id.Bytes)
	return reg, nil
}
