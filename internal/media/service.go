// Package media keeps path references stored on content rows consistent
// with the objects stored in the blob store.
package media

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/citybites/site/internal/observability"
	"github.com/citybites/site/internal/storage"
)

// File is one upload handed to the service.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Cascade lists everything a cascading delete removes.
type Cascade struct {
	Paths    []string
	ChildIDs []string
}

// CascadeResult reports the outcome of DeleteWithAssets.
type CascadeResult struct {
	DeletedPaths []string `json:"deletedPaths"`
	RelatedCount int      `json:"relatedCount"`
}

// Owner is the reference-store view of one kind of content row.
type Owner interface {
	Single(ctx context.Context, ownerID, slot string) (string, error)
	SetSingle(ctx context.Context, ownerID, slot, path string) error
	ListPaths(ctx context.Context, ownerID, slot string) ([]string, error)
	SetList(ctx context.Context, ownerID, slot string, paths []string) error
	// Cascade collects the paths of the row and of its dependent rows.
	Cascade(ctx context.Context, ownerID string) (*Cascade, error)
	// DeleteCascade removes the dependent rows, then the row itself.
	DeleteCascade(ctx context.Context, ownerID string, c *Cascade) error
}

// Service runs the media lifecycle operations.
type Service struct {
	blobs   storage.Storage
	owners  map[Kind]Owner
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates a new media Service.
func NewService(blobs storage.Storage, owners map[Kind]Owner, logger *zap.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		blobs:   blobs,
		owners:  owners,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *Service) owner(kind Kind) (Owner, error) {
	o, ok := s.owners[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no owner store for %s", ErrUnknownSlot, kind)
	}
	return o, nil
}

// ReplaceSingle uploads f into a single-file slot and retires the previous file.
// Order: upload new, delete old, then write the reference.
func (s *Service) ReplaceSingle(ctx context.Context, slot Slot, ownerID string, f File) (path string, err error) {
	defer func() { s.metrics.ObserveMediaOp("replace", err) }()

	if slot.Multi() {
		return "", fmt.Errorf("%w: %s is a list slot", ErrSlotType, slot)
	}
	owner, err := s.owner(slot.Kind)
	if err != nil {
		return "", err
	}
	oldPath, err := owner.Single(ctx, ownerID, slot.Name)
	if err != nil {
		return "", err
	}

	path, err = BuildPath(slot, ownerID, f.ContentType, s.now())
	if err != nil {
		return "", err
	}
	if path == oldPath {
		return "", fmt.Errorf("%w: generated path collides with current value", ErrInvalidPath)
	}

	if err := s.blobs.Upload(ctx, path, f.Body, f.Size, f.ContentType, true); err != nil {
		return "", &OpError{Stage: StageUpload, Err: err}
	}

	if oldPath != "" {
		if err := s.blobs.Delete(ctx, []string{oldPath}); err != nil {
			s.compensate(ctx, path)
			return "", &OpError{Stage: StageDelete, Err: err}
		}
		s.metrics.AddBlobsDeleted(1)
	}

	if err := owner.SetSingle(ctx, ownerID, slot.Name, path); err != nil {
		s.logger.Error("reference update failed after upload, blob is orphaned",
			zap.Stringer("slot", slot),
			zap.String("owner", ownerID),
			zap.String("orphan", path),
			zap.String("retired", oldPath),
			zap.Error(err),
		)
		return "", &OpError{Stage: StageUpdate, Err: err}
	}

	s.logger.Info("replaced file",
		zap.Stringer("slot", slot),
		zap.String("owner", ownerID),
		zap.String("path", path),
		zap.String("previous", oldPath),
	)
	return path, nil
}

// Append uploads files sequentially into a list slot and appends their
// paths in upload order with a single reference write.
func (s *Service) Append(ctx context.Context, slot Slot, ownerID string, files []File) (paths []string, err error) {
	defer func() { s.metrics.ObserveMediaOp("append", err) }()

	if !slot.Multi() {
		return nil, fmt.Errorf("%w: %s is a single-file slot", ErrSlotType, slot)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	owner, err := s.owner(slot.Kind)
	if err != nil {
		return nil, err
	}
	current, err := owner.ListPaths(ctx, ownerID, slot.Name)
	if err != nil {
		return nil, err
	}
	if len(current)+len(files) > slot.Max {
		return nil, &CapacityError{Slot: slot, Current: len(current), Adding: len(files)}
	}

	// Validate every file before the first upload so a bad type never
	// leaves earlier uploads behind.
	for _, f := range files {
		if _, ok := extensions[f.ContentType]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, f.ContentType)
		}
	}

	paths = make([]string, 0, len(files))
	for _, f := range files {
		p, err := BuildPath(slot, ownerID, f.ContentType, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.blobs.Upload(ctx, p, f.Body, f.Size, f.ContentType, true); err != nil {
			if len(paths) > 0 {
				s.logger.Warn("append aborted, earlier uploads left in storage",
					zap.Stringer("slot", slot),
					zap.String("owner", ownerID),
					zap.Strings("orphans", paths),
				)
			}
			return nil, &OpError{Stage: StageUpload, Err: err}
		}
		paths = append(paths, p)
	}

	updated := make([]string, 0, len(current)+len(paths))
	updated = append(updated, current...)
	updated = append(updated, paths...)
	if err := owner.SetList(ctx, ownerID, slot.Name, updated); err != nil {
		s.logger.Error("reference update failed after upload, blobs are orphaned",
			zap.Stringer("slot", slot),
			zap.String("owner", ownerID),
			zap.Strings("orphans", paths),
			zap.Error(err),
		)
		return nil, &OpError{Stage: StageUpdate, Err: err}
	}

	s.logger.Info("appended files",
		zap.Stringer("slot", slot),
		zap.String("owner", ownerID),
		zap.Int("count", len(paths)),
	)
	return paths, nil
}

// Remove deletes one referenced file: the blob goes first, the reference
// is dropped only once the blob is gone.
func (s *Service) Remove(ctx context.Context, slot Slot, ownerID, path string) (err error) {
	defer func() { s.metrics.ObserveMediaOp("remove", err) }()

	owner, err := s.owner(slot.Kind)
	if err != nil {
		return err
	}

	var current []string
	if slot.Multi() {
		current, err = owner.ListPaths(ctx, ownerID, slot.Name)
	} else {
		var single string
		single, err = owner.Single(ctx, ownerID, slot.Name)
		if single != "" {
			current = []string{single}
		}
	}
	if err != nil {
		return err
	}
	if path == "" || !contains(current, path) {
		return fmt.Errorf("%w: %q", ErrNotOwned, path)
	}

	if err := s.blobs.Delete(ctx, []string{path}); err != nil {
		return &OpError{Stage: StageDelete, Err: err}
	}
	s.metrics.AddBlobsDeleted(1)

	if slot.Multi() {
		err = owner.SetList(ctx, ownerID, slot.Name, without(current, path))
	} else {
		err = owner.SetSingle(ctx, ownerID, slot.Name, "")
	}
	if err != nil {
		s.logger.Error("reference update failed after delete, row points at a missing blob",
			zap.Stringer("slot", slot),
			zap.String("owner", ownerID),
			zap.String("path", path),
			zap.Error(err),
		)
		return &OpError{Stage: StageUpdate, Err: err}
	}
	return nil
}

// DeletePaths removes paths from the blob store in one bulk call and
// returns the keys that were requested for deletion.
func (s *Service) DeletePaths(ctx context.Context, paths []string) (deleted []string, err error) {
	defer func() { s.metrics.ObserveMediaOp("delete_paths", err) }()

	paths = normalize(paths)
	for _, p := range paths {
		if err := ValidatePath(p); err != nil {
			return nil, err
		}
	}
	if len(paths) == 0 {
		return []string{}, nil
	}
	if err := s.blobs.Delete(ctx, paths); err != nil {
		return nil, &OpError{Stage: StageDelete, Err: err}
	}
	s.metrics.AddBlobsDeleted(len(paths))
	return paths, nil
}

// DeleteByDiff deletes every path dropped between oldPaths and newPaths.
func (s *Service) DeleteByDiff(ctx context.Context, oldPaths, newPaths []string) ([]string, error) {
	return s.DeletePaths(ctx, Reconcile(oldPaths, newPaths))
}

// DeleteWithAssets deletes a row, its dependent rows and every blob they
// reference. Blobs go first; if that fails no row is touched.
func (s *Service) DeleteWithAssets(ctx context.Context, kind Kind, ownerID string) (res *CascadeResult, err error) {
	defer func() { s.metrics.ObserveMediaOp("cascade_delete", err) }()

	owner, err := s.owner(kind)
	if err != nil {
		return nil, err
	}
	c, err := owner.Cascade(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.Paths = normalize(c.Paths)

	if len(c.Paths) > 0 {
		if err := s.blobs.Delete(ctx, c.Paths); err != nil {
			return nil, &OpError{Stage: StageDelete, Err: err}
		}
		s.metrics.AddBlobsDeleted(len(c.Paths))
	}

	if err := owner.DeleteCascade(ctx, ownerID, c); err != nil {
		s.logger.Error("row delete failed after blob delete, rows point at missing blobs",
			zap.String("kind", string(kind)),
			zap.String("owner", ownerID),
			zap.Strings("paths", c.Paths),
			zap.Error(err),
		)
		return nil, &OpError{Stage: StageUpdate, Err: err}
	}

	s.logger.Info("deleted item with assets",
		zap.String("kind", string(kind)),
		zap.String("owner", ownerID),
		zap.Int("paths", len(c.Paths)),
		zap.Int("related", len(c.ChildIDs)),
	)

	deleted := c.Paths
	if deleted == nil {
		deleted = []string{}
	}
	return &CascadeResult{DeletedPaths: deleted, RelatedCount: len(c.ChildIDs)}, nil
}

// compensate removes a just-uploaded blob. Failures are logged only.
func (s *Service) compensate(ctx context.Context, path string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), []string{path}); err != nil {
		s.logger.Warn("compensating delete failed", zap.String("path", path), zap.Error(err))
		return
	}
	s.metrics.AddBlobsDeleted(1)
}
