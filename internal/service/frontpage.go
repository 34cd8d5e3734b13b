package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/localwiki/wikitags/internal/blobstore"
	"github.com/localwiki/wikitags/internal/domain"
	"github.com/localwiki/wikitags/internal/repo"
)

// coverPhotoPrefix is where cover photos live inside the blob store.
const coverPhotoPrefix = "frontpage/files/"

// sniffLen is how much of an upload http.DetectContentType looks at.
const sniffLen = 512

// FrontPageService implements business logic for region front pages.
type FrontPageService struct {
	regions    repo.RegionRepo
	frontPages repo.FrontPageRepo
	blobs      blobstore.Store
	log        *slog.Logger
}

// NewFrontPageService constructs a FrontPageService.
func NewFrontPageService(regions repo.RegionRepo, frontPages repo.FrontPageRepo, blobs blobstore.Store, log *slog.Logger) *FrontPageService {
	return &FrontPageService{regions: regions, frontPages: frontPages, blobs: blobs, log: log}
}

// Get returns the region's front page.
// Returns domain.ErrNotFound if the region or its front page does not exist.
func (s *FrontPageService) Get(ctx context.Context, regionSlug string) (domain.FrontPage, error) {
	region, err := s.regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.Get: %w", err)
	}
	fp, err := s.frontPages.GetByRegion(ctx, region.ID)
	if err != nil {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.Get: %w", err)
	}
	return fp, nil
}

// SetCoverPhoto stores body, size bytes long, as the region's new cover photo
// and removes the previous one. The upload must be an image; filename only
// contributes its extension.
func (s *FrontPageService) SetCoverPhoto(ctx context.Context, regionSlug, filename string, body io.Reader, size int64) (domain.FrontPage, error) {
	region, err := s.regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.SetCoverPhoto: %w", err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.SetCoverPhoto: read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.SetCoverPhoto: %w",
			domain.Invalid("cover_photo", "cover photo is empty", nil))
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.SetCoverPhoto: %w",
			domain.Invalid("cover_photo", fmt.Sprintf("cover photo must be an image, got %s", contentType), nil))
	}

	var old string
	if fp, err := s.frontPages.GetByRegion(ctx, region.ID); err == nil {
		old = fp.CoverPhoto
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.SetCoverPhoto: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	key, err := s.blobs.Put(ctx, coverPhotoPrefix, ext, io.MultiReader(bytes.NewReader(head), body), size, contentType)
	if err != nil {
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.SetCoverPhoto: %w", err)
	}

	fp, err := s.frontPages.SetCoverPhoto(ctx, region.ID, key)
	if err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.log.WarnContext(ctx, "orphaned cover photo", "key", key, "error", derr)
		}
		return domain.FrontPage{}, fmt.Errorf("service.FrontPageService.SetCoverPhoto: %w", err)
	}

	if old != "" && old != key {
		if err := s.blobs.Delete(ctx, old); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			s.log.WarnContext(ctx, "failed to remove previous cover photo", "key", old, "error", err)
		}
	}

	s.log.InfoContext(ctx, "cover photo updated", "region", region.Slug, "key", key)
	return fp, nil
}

// OpenCoverPhoto opens the region's current cover photo. The caller must close
// the returned body. Returns domain.ErrNotFound when no photo is set.
func (s *FrontPageService) OpenCoverPhoto(ctx context.Context, regionSlug string) (blobstore.Object, error) {
	fp, err := s.Get(ctx, regionSlug)
	if err != nil {
		return blobstore.Object{}, fmt.Errorf("service.FrontPageService.OpenCoverPhoto: %w", err)
	}
	if fp.CoverPhoto == "" {
		return blobstore.Object{}, fmt.Errorf("service.FrontPageService.OpenCoverPhoto: cover photo: %w", domain.ErrNotFound)
	}
	obj, err := s.blobs.Open(ctx, fp.CoverPhoto)
	if errors.Is(err, blobstore.ErrNotFound) {
		return blobstore.Object{}, fmt.Errorf("service.FrontPageService.OpenCoverPhoto: %w: %w", domain.ErrNotFound, err)
	}
	if err != nil {
		return blobstore.Object{}, fmt.Errorf("service.FrontPageService.OpenCoverPhoto: %w", err)
	}
	return obj, nil
}
