package repository

import (
	"context"
	"time"

	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/store"
)

// LabelRepository defines persistence operations for labels.
type LabelRepository interface {
	CreateLabel(ctx context.Context, label *model.Label) error
	GetLabelByID(ctx context.Context, id string) (*model.Label, error)
	GetAllLabels(ctx context.Context) ([]*model.Label, error)
	GetSubLabels(ctx context.Context, parentID string) ([]*model.Label, error)
	UpdateLabel(ctx context.Context, label *model.Label) error
}

// DocLabelRepository implements LabelRepository over the document store.
type DocLabelRepository struct {
	docs store.DocumentStore
}

// NewDocLabelRepository creates a label repository over a document store.
func NewDocLabelRepository(docs store.DocumentStore) *DocLabelRepository {
	return &DocLabelRepository{docs: docs}
}

func (r *DocLabelRepository) CreateLabel(ctx context.Context, label *model.Label) error {
	now := time.Now()
	label.CreatedAt = now
	label.UpdatedAt = now
	return r.docs.Set(ctx, store.Path(store.CollectionLabels, label.ID), label)
}

func (r *DocLabelRepository) GetLabelByID(ctx context.Context, id string) (*model.Label, error) {
	label := &model.Label{}
	if err := r.docs.Get(ctx, store.Path(store.CollectionLabels, id), label); err != nil {
		return nil, err
	}
	return label, nil
}

func (r *DocLabelRepository) GetAllLabels(ctx context.Context) ([]*model.Label, error) {
	docs, err := r.docs.List(ctx, store.CollectionLabels)
	if err != nil {
		return nil, err
	}

	var labels []*model.Label
	for _, doc := range docs {
		label := &model.Label{}
		if err := doc.Decode(label); err != nil {
			logger.Warn("skipping undecodable label document",
				logger.String("path", doc.Path),
				logger.ErrorField(err))
			continue
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func (r *DocLabelRepository) GetSubLabels(ctx context.Context, parentID string) ([]*model.Label, error) {
	labels, err := r.GetAllLabels(ctx)
	if err != nil {
		return nil, err
	}

	var subs []*model.Label
	for _, label := range labels {
		if label.ParentLabelID == parentID {
			subs = append(subs, label)
		}
	}
	return subs, nil
}

func (r *DocLabelRepository) UpdateLabel(ctx context.Context, label *model.Label) error {
	label.UpdatedAt = time.Now()
	return r.docs.Set(ctx, store.Path(store.CollectionLabels, label.ID), label)
}
