package repository

import (
	"context"
	"strings"
	"time"

	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/store"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail returns nil, nil when no account matches.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// DocUserRepository implements UserRepository over the document store.
type DocUserRepository struct {
	docs store.DocumentStore
}

// NewDocUserRepository creates a user repository over a document store.
func NewDocUserRepository(docs store.DocumentStore) *DocUserRepository {
	return &DocUserRepository{docs: docs}
}

func (r *DocUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	return r.docs.Set(ctx, store.Path(store.CollectionUsers, user.ID), user)
}

func (r *DocUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	if err := r.docs.Get(ctx, store.Path(store.CollectionUsers, id), user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *DocUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	docs, err := r.docs.List(ctx, store.CollectionUsers)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(email))
	for _, doc := range docs {
		user := &model.User{}
		if err := doc.Decode(user); err != nil {
			logger.Warn("skipping undecodable user document",
				logger.String("path", doc.Path),
				logger.ErrorField(err))
			continue
		}
		if strings.ToLower(user.Email) == needle {
			return user, nil
		}
	}
	return nil, nil
}

func (r *DocUserRepository) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	return r.docs.Set(ctx, store.Path(store.CollectionUsers, user.ID), user)
}
