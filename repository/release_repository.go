package repository

import (
	"context"
	"time"

	"digitalsight/cache"
	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/store"
)

// ReleaseRepository defines persistence operations for releases.
type ReleaseRepository interface {
	// CreateRelease stores a new release document.
	CreateRelease(ctx context.Context, release *model.Release) error

	// GetReleaseByID loads one release, or a NotFoundError.
	GetReleaseByID(ctx context.Context, id string) (*model.Release, error)

	// SaveRelease replaces the whole release document. Status changes and
	// audit-note appends go through here so they land in one write.
	SaveRelease(ctx context.Context, release *model.Release) error

	// DeleteRelease removes the release document entirely.
	DeleteRelease(ctx context.Context, id string) error

	// GetReleasesByLabel returns every release owned by a label.
	GetReleasesByLabel(ctx context.Context, labelID string) ([]*model.Release, error)

	// GetReleasesByStatus returns every release currently in a status.
	GetReleasesByStatus(ctx context.Context, status model.ReleaseStatus) ([]*model.Release, error)
}

// DocReleaseRepository implements ReleaseRepository over the document store
// with a Redis read-through cache for single-release loads.
type DocReleaseRepository struct {
	docs store.DocumentStore
}

// NewDocReleaseRepository creates a release repository over a document store.
func NewDocReleaseRepository(docs store.DocumentStore) *DocReleaseRepository {
	return &DocReleaseRepository{docs: docs}
}

func (r *DocReleaseRepository) CreateRelease(ctx context.Context, release *model.Release) error {
	now := time.Now()
	release.CreatedAt = now
	release.UpdatedAt = now
	return r.docs.Set(ctx, store.Path(store.CollectionReleases, release.ID), release)
}

func (r *DocReleaseRepository) GetReleaseByID(ctx context.Context, id string) (*model.Release, error) {
	if cached, err := cache.GetCachedRelease(ctx, id); err != nil {
		logger.Warn("release cache read failed", logger.ErrorField(err))
	} else if cached != nil {
		return cached, nil
	}

	release := &model.Release{}
	if err := r.docs.Get(ctx, store.Path(store.CollectionReleases, id), release); err != nil {
		return nil, err
	}

	if err := cache.CacheRelease(ctx, release); err != nil {
		logger.Warn("release cache write failed", logger.ErrorField(err))
	}
	return release, nil
}

func (r *DocReleaseRepository) SaveRelease(ctx context.Context, release *model.Release) error {
	release.UpdatedAt = time.Now()
	if err := r.docs.Set(ctx, store.Path(store.CollectionReleases, release.ID), release); err != nil {
		return err
	}
	if err := cache.InvalidateRelease(ctx, release.ID); err != nil {
		logger.Warn("release cache invalidation failed", logger.ErrorField(err))
	}
	return nil
}

func (r *DocReleaseRepository) DeleteRelease(ctx context.Context, id string) error {
	if err := r.docs.Remove(ctx, store.Path(store.CollectionReleases, id)); err != nil {
		return err
	}
	if err := cache.InvalidateRelease(ctx, id); err != nil {
		logger.Warn("release cache invalidation failed", logger.ErrorField(err))
	}
	return nil
}

func (r *DocReleaseRepository) GetReleasesByLabel(ctx context.Context, labelID string) ([]*model.Release, error) {
	return r.filterReleases(ctx, func(rel *model.Release) bool {
		return rel.LabelID == labelID
	})
}

func (r *DocReleaseRepository) GetReleasesByStatus(ctx context.Context, status model.ReleaseStatus) ([]*model.Release, error) {
	return r.filterReleases(ctx, func(rel *model.Release) bool {
		return rel.Status == status
	})
}

// filterReleases fetches the whole collection and filters in memory. A backend
// with server-side queries can replace this without changing call sites.
func (r *DocReleaseRepository) filterReleases(ctx context.Context, keep func(*model.Release) bool) ([]*model.Release, error) {
	docs, err := r.docs.List(ctx, store.CollectionReleases)
	if err != nil {
		return nil, err
	}

	var releases []*model.Release
	for _, doc := range docs {
		release := &model.Release{}
		if err := doc.Decode(release); err != nil {
			logger.Warn("skipping undecodable release document",
				logger.String("path", doc.Path),
				logger.ErrorField(err))
			continue
		}
		if keep(release) {
			releases = append(releases, release)
		}
	}
	return releases, nil
}
