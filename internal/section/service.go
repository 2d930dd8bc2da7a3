package section

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/citybites/site/internal/media"
)

// Store is the persistence the section Service depends on.
type Store interface {
	Load(ctx context.Context, key string) (*Section, error)
	Save(ctx context.Context, key string, s Settings) (*Section, error)
}

// BlobReconciler deletes the blobs dropped between two path sets.
type BlobReconciler interface {
	DeleteByDiff(ctx context.Context, oldPaths, newPaths []string) ([]string, error)
}

// Service contains business logic for page sections.
type Service struct {
	repo   Store
	blobs  BlobReconciler
	logger *zap.Logger
}

// NewService creates a new section Service.
func NewService(repo Store, blobs BlobReconciler, logger *zap.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// Get returns the current settings for key.
func (s *Service) Get(ctx context.Context, key string) (*Section, error) {
	return s.repo.Load(ctx, key)
}

// All returns every section in display order.
func (s *Service) All(ctx context.Context) ([]Section, error) {
	out := make([]Section, 0, len(Keys))
	for _, key := range Keys {
		sec, err := s.repo.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, *sec)
	}
	return out, nil
}

// Update commits an edited draft of the section. The draft may drop paths
// but never add ones the stored settings do not already reference; new
// files arrive through the media upload operations. Dropped paths are
// deleted from the blob store once the new settings are saved.
func (s *Service) Update(ctx context.Context, key string, raw []byte) (*Section, error) {
	next, err := Parse(key, raw)
	if err != nil {
		return nil, err
	}
	if hero, ok := next.(*Hero); ok && len(hero.Images) > media.HeroImagesMax {
		return nil, fmt.Errorf("%w: hero holds at most %d images, got %d", media.ErrCapacity, media.HeroImagesMax, len(hero.Images))
	}

	current, err := s.repo.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	oldPaths := current.Settings.Paths()
	known := make(map[string]struct{}, len(oldPaths))
	for _, p := range oldPaths {
		known[p] = struct{}{}
	}
	for _, p := range next.Paths() {
		if _, ok := known[p]; !ok {
			return nil, fmt.Errorf("%w: %q", media.ErrNotOwned, p)
		}
	}

	saved, err := s.repo.Save(ctx, key, next)
	if err != nil {
		return nil, err
	}

	deleted, err := s.blobs.DeleteByDiff(ctx, oldPaths, next.Paths())
	if err != nil {
		s.logger.Error("section saved but dropped files were not deleted",
			zap.String("section", key),
			zap.Strings("orphans", media.Reconcile(oldPaths, next.Paths())),
			zap.Error(err),
		)
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("section files removed", zap.String("section", key), zap.Strings("paths", deleted))
	}
	return saved, nil
}
