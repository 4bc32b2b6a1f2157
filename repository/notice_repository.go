package repository

import (
	"context"
	"sort"
	"time"

	"digitalsight/logger"
	"digitalsight/store"
)

// Notice is the record kept for every notification the system sends.
type Notice struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Kind      string    `json:"kind"`
	ReleaseID string    `json:"releaseId,omitempty"`
	LabelID   string    `json:"labelId,omitempty"`
	SentAt    time.Time `json:"sentAt"`
}

// NoticeRepository persists the back-office notice log.
type NoticeRepository interface {
	RecordNotice(ctx context.Context, notice *Notice) error
	GetNoticesByLabel(ctx context.Context, labelID string) ([]*Notice, error)
}

// DocNoticeRepository implements NoticeRepository over the document store.
type DocNoticeRepository struct {
	docs store.DocumentStore
}

// NewDocNoticeRepository creates a notice repository over a document store.
func NewDocNoticeRepository(docs store.DocumentStore) *DocNoticeRepository {
	return &DocNoticeRepository{docs: docs}
}

func (r *DocNoticeRepository) RecordNotice(ctx context.Context, notice *Notice) error {
	if notice.SentAt.IsZero() {
		notice.SentAt = time.Now()
	}
	return r.docs.Set(ctx, store.Path(store.CollectionNotices, notice.ID), notice)
}

func (r *DocNoticeRepository) GetNoticesByLabel(ctx context.Context, labelID string) ([]*Notice, error) {
	docs, err := r.docs.List(ctx, store.CollectionNotices)
	if err != nil {
		return nil, err
	}

	var notices []*Notice
	for _, doc := range docs {
		notice := &Notice{}
		if err := doc.Decode(notice); err != nil {
			logger.Warn("skipping undecodable notice document",
				logger.String("path", doc.Path),
				logger.ErrorField(err))
			continue
		}
		if notice.LabelID == labelID {
			notices = append(notices, notice)
		}
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].SentAt.After(notices[j].SentAt) })
	return notices, nil
}
