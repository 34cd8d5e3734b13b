package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/repo"
	"github.com/localwiki/wikitags/internal/tagset"
)

// TxRunner runs fn with repositories bound to one database transaction.
// *repo.Store implements it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(repo.Repos) error) error
}

// MessageCatalog resolves a locale preference (a tag or an Accept-Language
// value) to localized change-comment messages. *i18n.Catalog implements it.
type MessageCatalog interface {
	Messages(locale string) tagset.Messages
}

// TagSetView is a page's tag set as shown in the tag editor.
// Version is the latest tag-set version ID, 0 when the page was never tagged;
// clients send it back as SaveTagSet.BaseVersion.
type TagSetView struct {
	PageID     uuid.UUID
	Tags       []domain.Tag
	EditString string
	Version    int64
}

// SaveTagSet is the input of TagSetService.Save.
type SaveTagSet struct {
	Region string
	PageID uuid.UUID
	// Text is the comma-separated editor contents.
	Text string
	// BaseVersion is the version the editor was loaded from. When it is set
	// and no longer the latest, the edit is three-way merged with the latest.
	BaseVersion *int64
	// Locale selects the language of the change comment.
	Locale string
}

// SaveResult is the outcome of a tag-set save.
type SaveResult struct {
	View    TagSetView
	Comment string
	Merged  bool
}

// TagSetService implements editing of page tag sets.
type TagSetService struct {
	reads    repo.Repos
	tx       TxRunner
	messages MessageCatalog
	log      *slog.Logger
}

// NewTagSetService constructs a TagSetService. reads serves the read-only
// operations; every save runs inside tx.
func NewTagSetService(reads repo.Repos, tx TxRunner, messages MessageCatalog, log *slog.Logger) *TagSetService {
	return &TagSetService{reads: reads, tx: tx, messages: messages, log: log}
}

// Get returns the page's current tags. A page that was never tagged yields an
// empty view rather than domain.ErrNotFound; a page tagged in another region
// yields domain.ErrNotFound.
func (s *TagSetService) Get(ctx context.Context, regionSlug string, pageID uuid.UUID) (TagSetView, error) {
	region, err := s.reads.Regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return TagSetView{}, fmt.Errorf("service.TagSetService.Get: %w", err)
	}
	view, err := loadView(ctx, s.reads, region.ID, pageID, false)
	if err != nil {
		return TagSetView{}, fmt.Errorf("service.TagSetService.Get: %w", err)
	}
	return view, nil
}

// History returns one page of the page's tag-set versions, newest first.
func (s *TagSetService) History(ctx context.Context, regionSlug string, pageID uuid.UUID, p domain.PaginationParams) ([]domain.TagSetVersion, int64, error) {
	region, err := s.reads.Regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagSetService.History: %w", err)
	}
	versions, total, err := s.reads.History.ListTagSetVersions(ctx, region.ID, pageID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagSetService.History: %w", err)
	}
	return versions, total, nil
}

// Save replaces the page's tags with the parsed editor text.
//
// Words are materialized into tags (created on first use). When in.BaseVersion
// is stale the result is merged with the concurrently saved set, using the
// base version as the ancestor. The diff against the previous set becomes the
// version comment. Everything happens in one transaction; any validation
// failure leaves no trace, and nothing is retried.
func (s *TagSetService) Save(ctx context.Context, in SaveTagSet) (SaveResult, error) {
	var fields domain.ValidationErrors
	if in.PageID == uuid.Nil {
		fields.Add("page_id", "page_id is required")
	}
	if in.BaseVersion != nil && *in.BaseVersion < 0 {
		fields.Add("base_version", "base_version must not be negative")
	}
	if err := fields.Err(); err != nil {
		return SaveResult{}, fmt.Errorf("service.TagSetService.Save: %w", err)
	}

	var result SaveResult
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		result, err = s.save(ctx, r, in)
		return err
	})
	if err != nil {
		return SaveResult{}, fmt.Errorf("service.TagSetService.Save: %w", err)
	}

	s.log.InfoContext(ctx, "tag set saved",
		"region", in.Region,
		"page_id", in.PageID,
		"version", result.View.Version,
		"merged", result.Merged,
		"tags", len(result.View.Tags),
	)
	return result, nil
}

func (s *TagSetService) save(ctx context.Context, r repo.Repos, in SaveTagSet) (SaveResult, error) {
	region, err := r.Regions.GetBySlug(ctx, in.Region)
	if err != nil {
		return SaveResult{}, err
	}

	yours, err := materialize(ctx, r, region.ID, in.Text)
	if err != nil {
		return SaveResult{}, err
	}

	// Concurrent saves of one page serialize here, including the first.
	if err := r.TagSets.Lock(ctx, in.PageID); err != nil {
		return SaveResult{}, err
	}
	current, err := loadView(ctx, r, region.ID, in.PageID, true)
	if err != nil {
		return SaveResult{}, err
	}

	keys := tagset.NewKeySet(domain.TagIDs(yours)...)
	merged := false
	if in.BaseVersion != nil && *in.BaseVersion != current.Version {
		ancestor, err := ancestorKeys(ctx, r, in.PageID, *in.BaseVersion)
		if err != nil {
			return SaveResult{}, err
		}
		theirs := tagset.NewKeySet(domain.TagIDs(current.Tags)...)
		keys, err = tagset.Merge(ctx, keys, theirs, ancestor, r.History)
		if err != nil {
			return SaveResult{}, err
		}
		merged = true
	}

	tags, err := r.Tags.ListByIDs(ctx, keys.Sorted())
	if err != nil {
		return SaveResult{}, err
	}

	var previous []domain.Tag
	if current.Version != 0 {
		previous = current.Tags
	}
	comment := tagset.DescribeChange(tagset.Diff(previous, tags), s.messages.Messages(in.Locale))

	saved, err := r.TagSets.Save(ctx, in.PageID, region.ID, domain.TagIDs(tags))
	if err != nil {
		return SaveResult{}, err
	}

	hids, err := historyKeys(ctx, r.History, saved.Tags)
	if err != nil {
		return SaveResult{}, err
	}
	version, err := r.History.RecordTagSet(ctx, domain.TagSetVersion{
		PageID:        in.PageID,
		RegionID:      region.ID,
		TagHistoryIDs: hids,
		Comment:       comment,
	})
	if err != nil {
		return SaveResult{}, err
	}

	return SaveResult{
		View: TagSetView{
			PageID:     in.PageID,
			Tags:       saved.Tags,
			EditString: tagset.ToEditString(domain.TagNames(saved.Tags)),
			Version:    version.ID,
		},
		Comment: comment,
		Merged:  merged,
	}, nil
}

// materialize parses editor text and gets or creates a tag per word. Words
// that share a slug collapse into one tag. Field errors for every bad word
// are reported together.
func materialize(ctx context.Context, r repo.Repos, regionID uuid.UUID, text string) ([]domain.Tag, error) {
	var (
		fields domain.ValidationErrors
		tags   = []domain.Tag{}
		seen   = tagset.NewKeySet()
	)
	for _, word := range tagset.ParseTags(text) {
		tag, err := getOrCreateTag(ctx, r.Tags, r.History, regionID, word)
		if err != nil {
			if fields.Merge(err) {
				continue
			}
			return nil, err
		}
		if seen.Has(tag.ID) {
			continue
		}
		seen[tag.ID] = struct{}{}
		tags = append(tags, tag)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// loadView reads the page's tag set and latest version. A missing set is an
// empty view; a set stored under another region is domain.ErrNotFound.
func loadView(ctx context.Context, r repo.Repos, regionID, pageID uuid.UUID, forUpdate bool) (TagSetView, error) {
	view := TagSetView{PageID: pageID, Tags: []domain.Tag{}}

	set, err := r.TagSets.GetByPage(ctx, pageID, forUpdate)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return view, nil
	case err != nil:
		return TagSetView{}, err
	case set.RegionID != regionID:
		return TagSetView{}, fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
	}

	latest, err := r.History.LatestTagSetVersion(ctx, pageID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return TagSetView{}, err
	}

	view.Tags = set.Tags
	view.EditString = tagset.ToEditString(domain.TagNames(set.Tags))
	view.Version = latest.ID
	return view, nil
}

// ancestorKeys returns the historic tag keys of the base version. Version 0
// means the editor was opened on an untagged page: there is no ancestor.
func ancestorKeys(ctx context.Context, r repo.Repos, pageID uuid.UUID, base int64) ([]int64, error) {
	if base == 0 {
		return nil, nil
	}
	v, err := r.History.GetTagSetVersion(ctx, pageID, base)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("base_version", fmt.Sprintf("version %d does not exist for this page", base), err)
		}
		return nil, err
	}
	return v.TagHistoryIDs, nil
}

// historyKeys returns the newest historic key of each tag, snapshotting tags
// that have none yet.
func historyKeys(ctx context.Context, history repo.HistoryRepo, tags []domain.Tag) ([]int64, error) {
	latest, err := history.LatestHistoryIDs(ctx, domain.TagIDs(tags))
	if err != nil {
		return nil, err
	}
	hids := make([]int64, 0, len(tags))
	for _, t := range tags {
		hid, ok := latest[t.ID]
		if !ok {
			v, err := history.RecordTag(ctx, t)
			if err != nil {
				return nil, err
			}
			hid = v.HistoryID
		}
		hids = append(hids, hid)
	}
	return hids, nil
}
