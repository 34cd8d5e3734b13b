package service_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/repo"
	"github.com/localwiki/wikitags/internal/service"
	"github.com/localwiki/wikitags/internal/tagset"
)

// memStore is an in-memory stand-in for the Postgres repos, used where a test
// needs state that survives several calls (the tag-set save flow).
// InTx snapshots the state and restores it when fn fails, like a rollback.
type memStore struct {
	state memState

	// failSave, when set, makes TagSetRepo.Save fail.
	failSave error

	// locked records every page passed to TagSetRepo.Lock, in call order.
	locked []uuid.UUID
}

type memState struct {
	regions     map[string]domain.Region
	tags        map[uuid.UUID]domain.Tag
	tagVersions []domain.TagVersion
	sets        map[uuid.UUID]domain.PageTagSet
	setVersions []domain.TagSetVersion
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		regions: map[string]domain.Region{},
		tags:    map[uuid.UUID]domain.Tag{},
		sets:    map[uuid.UUID]domain.PageTagSet{},
	}}
}

func (s memState) clone() memState {
	return memState{
		regions:     maps.Clone(s.regions),
		tags:        maps.Clone(s.tags),
		tagVersions: slices.Clone(s.tagVersions),
		sets:        maps.Clone(s.sets),
		setVersions: slices.Clone(s.setVersions),
	}
}

func (m *memStore) repos() repo.Repos {
	return repo.Repos{
		Regions: memRegions{m},
		Tags:    memTags{m},
		TagSets: memTagSets{m},
		History: memHistory{m},
	}
}

func (m *memStore) InTx(_ context.Context, fn func(repo.Repos) error) error {
	saved := m.state.clone()
	if err := fn(m.repos()); err != nil {
		m.state = saved
		return err
	}
	return nil
}

var _ service.TxRunner = (*memStore)(nil)

func (m *memStore) addRegion(slug string) domain.Region {
	r := domain.Region{ID: uuid.New(), Slug: slug, Name: slug, CreatedAt: time.Now()}
	m.state.regions[slug] = r
	return r
}

func sortTags(tags []domain.Tag) []domain.Tag {
	slices.SortFunc(tags, func(a, b domain.Tag) int { return strings.Compare(a.Slug, b.Slug) })
	return tags
}

// ---- RegionRepo ------------------------------------------------------------

type memRegions struct{ m *memStore }

func (r memRegions) Create(_ context.Context, slug, name string) (domain.Region, error) {
	if _, ok := r.m.state.regions[slug]; ok {
		return domain.Region{}, fmt.Errorf("%w: region %q already exists", domain.ErrValidation, slug)
	}
	reg := domain.Region{ID: uuid.New(), Slug: slug, Name: name}
	r.m.state.regions[slug] = reg
	return reg, nil
}

func (r memRegions) GetBySlug(_ context.Context, slug string) (domain.Region, error) {
	reg, ok := r.m.state.regions[slug]
	if !ok {
		return domain.Region{}, domain.ErrNotFound
	}
	return reg, nil
}

func (r memRegions) List(context.Context) ([]domain.Region, error) {
	out := slices.Collect(maps.Values(r.m.state.regions))
	slices.SortFunc(out, func(a, b domain.Region) int { return strings.Compare(a.Slug, b.Slug) })
	return out, nil
}

// ---- TagRepo ---------------------------------------------------------------

type memTags struct{ m *memStore }

func (r memTags) FindBySlugRegion(_ context.Context, regionID uuid.UUID, slug string) (domain.Tag, error) {
	for _, t := range r.m.state.tags {
		if t.RegionID == regionID && t.Slug == slug {
			return t, nil
		}
	}
	return domain.Tag{}, domain.ErrNotFound
}

func (r memTags) InsertIfAbsent(ctx context.Context, regionID uuid.UUID, name, slug string) (domain.Tag, bool, error) {
	if t, err := r.FindBySlugRegion(ctx, regionID, slug); err == nil {
		return t, false, nil
	}
	t := domain.Tag{ID: uuid.New(), RegionID: regionID, Name: name, Slug: slug, CreatedAt: time.Now()}
	r.m.state.tags[t.ID] = t
	return t, true, nil
}

func (r memTags) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Tag, error) {
	out := []domain.Tag{}
	for _, id := range ids {
		if t, ok := r.m.state.tags[id]; ok {
			out = append(out, t)
		}
	}
	return sortTags(out), nil
}

func (r memTags) ListByRegion(_ context.Context, regionID uuid.UUID, prefix string, _ domain.PaginationParams) ([]domain.Tag, int64, error) {
	out := []domain.Tag{}
	for _, t := range r.m.state.tags {
		if t.RegionID == regionID && strings.HasPrefix(t.Slug, prefix) {
			out = append(out, t)
		}
	}
	return sortTags(out), int64(len(out)), nil
}

// ---- TagSetRepo ------------------------------------------------------------

type memTagSets struct{ m *memStore }

func (r memTagSets) Lock(_ context.Context, pageID uuid.UUID) error {
	r.m.locked = append(r.m.locked, pageID)
	return nil
}

func (r memTagSets) GetByPage(_ context.Context, pageID uuid.UUID, _ bool) (domain.PageTagSet, error) {
	set, ok := r.m.state.sets[pageID]
	if !ok {
		return domain.PageTagSet{}, domain.ErrNotFound
	}
	tags := make([]domain.Tag, 0, len(set.Tags))
	for _, t := range set.Tags {
		if live, ok := r.m.state.tags[t.ID]; ok {
			tags = append(tags, live)
		}
	}
	set.Tags = sortTags(tags)
	return set, nil
}

func (r memTagSets) Save(_ context.Context, pageID, regionID uuid.UUID, tagIDs []uuid.UUID) (domain.PageTagSet, error) {
	if r.m.failSave != nil {
		return domain.PageTagSet{}, r.m.failSave
	}
	set, ok := r.m.state.sets[pageID]
	if !ok {
		set = domain.PageTagSet{ID: uuid.New(), PageID: pageID, RegionID: regionID}
	}
	tags := make([]domain.Tag, 0, len(tagIDs))
	for _, id := range tagIDs {
		tags = append(tags, r.m.state.tags[id])
	}
	set.Tags = sortTags(tags)
	set.UpdatedAt = time.Now()
	r.m.state.sets[pageID] = set
	return set, nil
}

func (r memTagSets) ListPagesByTag(_ context.Context, tagID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for page, set := range r.m.state.sets {
		if slices.ContainsFunc(set.Tags, func(t domain.Tag) bool { return t.ID == tagID }) {
			out = append(out, page)
		}
	}
	return out, nil
}

// ---- HistoryRepo -----------------------------------------------------------

type memHistory struct{ m *memStore }

func (r memHistory) RecordTag(_ context.Context, tag domain.Tag) (domain.TagVersion, error) {
	id := tag.ID
	v := domain.TagVersion{
		HistoryID: int64(len(r.m.state.tagVersions) + 1),
		TagID:     &id,
		RegionID:  tag.RegionID,
		Name:      tag.Name,
		Slug:      tag.Slug,
	}
	r.m.state.tagVersions = append(r.m.state.tagVersions, v)
	return v, nil
}

func (r memHistory) ResolveHistoric(_ context.Context, historyID int64) (uuid.UUID, bool, error) {
	if historyID < 1 || historyID > int64(len(r.m.state.tagVersions)) {
		return uuid.Nil, false, nil
	}
	v := r.m.state.tagVersions[historyID-1]
	if v.TagID == nil {
		return uuid.Nil, false, nil
	}
	if _, live := r.m.state.tags[*v.TagID]; !live {
		return uuid.Nil, false, nil
	}
	return *v.TagID, true, nil
}

func (r memHistory) LatestHistoryIDs(_ context.Context, tagIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	for _, v := range r.m.state.tagVersions {
		if v.TagID != nil && slices.Contains(tagIDs, *v.TagID) {
			out[*v.TagID] = v.HistoryID
		}
	}
	return out, nil
}

func (r memHistory) RecordTagSet(_ context.Context, v domain.TagSetVersion) (domain.TagSetVersion, error) {
	v.ID = int64(len(r.m.state.setVersions) + 1)
	v.CreatedAt = time.Now()
	r.m.state.setVersions = append(r.m.state.setVersions, v)
	return v, nil
}

func (r memHistory) GetTagSetVersion(_ context.Context, pageID uuid.UUID, versionID int64) (domain.TagSetVersion, error) {
	for _, v := range r.m.state.setVersions {
		if v.ID == versionID && v.PageID == pageID {
			return v, nil
		}
	}
	return domain.TagSetVersion{}, domain.ErrNotFound
}

func (r memHistory) LatestTagSetVersion(_ context.Context, pageID uuid.UUID) (domain.TagSetVersion, error) {
	for _, v := range slices.Backward(r.m.state.setVersions) {
		if v.PageID == pageID {
			return v, nil
		}
	}
	return domain.TagSetVersion{}, domain.ErrNotFound
}

func (r memHistory) ListTagSetVersions(_ context.Context, regionID, pageID uuid.UUID, p domain.PaginationParams) ([]domain.TagSetVersion, int64, error) {
	all := []domain.TagSetVersion{}
	for _, v := range slices.Backward(r.m.state.setVersions) {
		if v.PageID == pageID && v.RegionID == regionID {
			all = append(all, v)
		}
	}
	lo := min(p.Offset(), len(all))
	hi := min(lo+p.Limit, len(all))
	return all[lo:hi], int64(len(all)), nil
}

var (
	_ repo.RegionRepo         = memRegions{}
	_ repo.TagRepo            = memTags{}
	_ repo.TagSetRepo         = memTagSets{}
	_ repo.HistoryRepo        = memHistory{}
	_ tagset.HistoricResolver = memHistory{}
)

// englishCatalog renders change comments with fixed English templates.
type englishCatalog struct{}

func (englishCatalog) Messages(string) tagset.Messages { return englishMessages{} }

type englishMessages struct{}

func (englishMessages) Localize(id string, count int, data map[string]any) string {
	noun := "tags"
	if count == 1 {
		noun = "tag"
	}
	switch id {
	case tagset.MsgRemovedNames:
		return fmt.Sprintf("removed %s %s.", noun, data["Names"])
	case tagset.MsgAddedNames:
		return fmt.Sprintf("added %s %s.", noun, data["Names"])
	case tagset.MsgRemovedCount:
		return fmt.Sprintf("removed %d %s.", count, noun)
	case tagset.MsgAddedCount:
		return fmt.Sprintf("added %d %s.", count, noun)
	case tagset.MsgConjunction:
		return " and "
	case tagset.MsgNoChanges:
		return "no changes made"
	}
	return id
}

var _ service.MessageCatalog = englishCatalog{}
