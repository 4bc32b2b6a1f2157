package repository

import (
	"context"
	"time"

	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/store"
)

// ArtistRepository defines persistence operations for artists.
type ArtistRepository interface {
	CreateArtist(ctx context.Context, artist *model.Artist) error
	GetArtistByID(ctx context.Context, id string) (*model.Artist, error)
	GetArtistsByLabel(ctx context.Context, labelID string) ([]*model.Artist, error)
	CountArtistsByLabel(ctx context.Context, labelID string) (int, error)
	UpdateArtist(ctx context.Context, artist *model.Artist) error
	DeleteArtist(ctx context.Context, id string) error
}

// DocArtistRepository implements ArtistRepository over the document store.
type DocArtistRepository struct {
	docs store.DocumentStore
}

// NewDocArtistRepository creates an artist repository over a document store.
func NewDocArtistRepository(docs store.DocumentStore) *DocArtistRepository {
	return &DocArtistRepository{docs: docs}
}

func (r *DocArtistRepository) CreateArtist(ctx context.Context, artist *model.Artist) error {
	now := time.Now()
	artist.CreatedAt = now
	artist.UpdatedAt = now
	return r.docs.Set(ctx, store.Path(store.CollectionArtists, artist.ID), artist)
}

func (r *DocArtistRepository) GetArtistByID(ctx context.Context, id string) (*model.Artist, error) {
	artist := &model.Artist{}
	if err := r.docs.Get(ctx, store.Path(store.CollectionArtists, id), artist); err != nil {
		return nil, err
	}
	return artist, nil
}

func (r *DocArtistRepository) GetArtistsByLabel(ctx context.Context, labelID string) ([]*model.Artist, error) {
	docs, err := r.docs.List(ctx, store.CollectionArtists)
	if err != nil {
		return nil, err
	}

	var artists []*model.Artist
	for _, doc := range docs {
		artist := &model.Artist{}
		if err := doc.Decode(artist); err != nil {
			logger.Warn("skipping undecodable artist document",
				logger.String("path", doc.Path),
				logger.ErrorField(err))
			continue
		}
		if artist.LabelID == labelID {
			artists = append(artists, artist)
		}
	}
	return artists, nil
}

func (r *DocArtistRepository) CountArtistsByLabel(ctx context.Context, labelID string) (int, error) {
	artists, err := r.GetArtistsByLabel(ctx, labelID)
	if err != nil {
		return 0, err
	}
	return len(artists), nil
}

func (r *DocArtistRepository) UpdateArtist(ctx context.Context, artist *model.Artist) error {
	artist.UpdatedAt = time.Now()
	return r.docs.Set(ctx, store.Path(store.CollectionArtists, artist.ID), artist)
}

func (r *DocArtistRepository) DeleteArtist(ctx context.Context, id string) error {
	return r.docs.Remove(ctx, store.Path(store.CollectionArtists, id))
}
