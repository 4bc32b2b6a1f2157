// Package catalog covers label and artist administration: onboarding,
// sub-label creation and the artist admission guard.
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/repository"
)

// Service runs catalog operations over the label and artist repositories.
type Service struct {
	labels  repository.LabelRepository
	artists repository.ArtistRepository
}

// NewService wires a catalog service.
func NewService(labels repository.LabelRepository, artists repository.ArtistRepository) *Service {
	return &Service{labels: labels, artists: artists}
}

// AddArtist creates an artist under a label, enforcing the label's artist
// cap. The check is an optimistic count-then-insert: two concurrent
// creations can overrun the cap by a small margin, which matches the
// best-effort semantics of the admission knob.
func (s *Service) AddArtist(ctx context.Context, actor model.Actor, artist *model.Artist) (*model.Artist, error) {
	if !actor.Permissions.CanManageArtists {
		return nil, model.NewAuthorizationError("manage artists")
	}
	if !actor.IsStaff() && actor.LabelID != artist.LabelID {
		return nil, model.NewAuthorizationError("add artists to another label")
	}
	if artist.Name == "" {
		return nil, model.NewValidationError("name", "artist name is required")
	}

	label, err := s.labels.GetLabelByID(ctx, artist.LabelID)
	if err != nil {
		return nil, err
	}

	if label.MaxArtists > 0 {
		count, err := s.artists.CountArtistsByLabel(ctx, label.ID)
		if err != nil {
			return nil, err
		}
		if count >= label.MaxArtists {
			return nil, &model.LimitExceededError{
				Limit:   label.MaxArtists,
				Message: fmt.Sprintf("label %s has reached its artist cap", label.Name),
			}
		}
	}

	if artist.ID == "" {
		artist.ID = uuid.NewString()
	}
	if err := s.artists.CreateArtist(ctx, artist); err != nil {
		return nil, err
	}

	logger.Info("artist created",
		logger.String("artistId", artist.ID),
		logger.String("labelId", label.ID))
	return artist, nil
}

// CreateSubLabel creates a child label under an existing parent. Labels form
// a tree: a label has at most one parent.
func (s *Service) CreateSubLabel(ctx context.Context, actor model.Actor, label *model.Label) (*model.Label, error) {
	if !actor.Permissions.CanCreateSubLabels {
		return nil, model.NewAuthorizationError("create sub-labels")
	}
	if label.Name == "" {
		return nil, model.NewValidationError("name", "label name is required")
	}
	if label.ParentLabelID == "" {
		return nil, model.NewValidationError("parentLabelId", "a sub-label needs a parent")
	}
	if !actor.IsStaff() && actor.LabelID != label.ParentLabelID {
		return nil, model.NewAuthorizationError("create sub-labels under another label")
	}

	if _, err := s.labels.GetLabelByID(ctx, label.ParentLabelID); err != nil {
		return nil, err
	}

	if label.ID == "" {
		label.ID = uuid.NewString()
	}
	if err := s.labels.CreateLabel(ctx, label); err != nil {
		return nil, err
	}

	logger.Info("sub-label created",
		logger.String("labelId", label.ID),
		logger.String("parentLabelId", label.ParentLabelID))
	return label, nil
}
