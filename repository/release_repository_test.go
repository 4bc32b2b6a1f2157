package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalsight/model"
	"digitalsight/store"
)

func seedRelease(t *testing.T, repo ReleaseRepository, id, labelID string, status model.ReleaseStatus) {
	t.Helper()
	require.NoError(t, repo.CreateRelease(context.Background(), &model.Release{
		ID:      id,
		LabelID: labelID,
		Title:   "Release " + id,
		Status:  status,
	}))
}

func TestReleaseRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewDocReleaseRepository(store.NewMemoryStore())

	seedRelease(t, repo, "rel-1", "label-1", model.StatusDraft)

	release, err := repo.GetReleaseByID(ctx, "rel-1")
	require.NoError(t, err)
	assert.Equal(t, "Release rel-1", release.Title)
	assert.False(t, release.CreatedAt.IsZero())

	release.Status = model.StatusPending
	release.Notes = []model.InteractionNote{{ID: "n1", Message: "submitted"}}
	require.NoError(t, repo.SaveRelease(ctx, release))

	// Status and note land in one write.
	reloaded, err := repo.GetReleaseByID(ctx, "rel-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, reloaded.Status)
	require.Len(t, reloaded.Notes, 1)
	assert.True(t, reloaded.UpdatedAt.After(reloaded.CreatedAt) || reloaded.UpdatedAt.Equal(reloaded.CreatedAt))
}

func TestReleaseRepositoryNotFound(t *testing.T) {
	repo := NewDocReleaseRepository(store.NewMemoryStore())

	_, err := repo.GetReleaseByID(context.Background(), "missing")
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestReleaseRepositoryFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewDocReleaseRepository(store.NewMemoryStore())

	seedRelease(t, repo, "rel-1", "label-1", model.StatusDraft)
	seedRelease(t, repo, "rel-2", "label-1", model.StatusPending)
	seedRelease(t, repo, "rel-3", "label-2", model.StatusPending)

	byLabel, err := repo.GetReleasesByLabel(ctx, "label-1")
	require.NoError(t, err)
	assert.Len(t, byLabel, 2)

	pending, err := repo.GetReleasesByStatus(ctx, model.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	drafts, err := repo.GetReleasesByStatus(ctx, model.StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "rel-1", drafts[0].ID)
}

func TestReleaseRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewDocReleaseRepository(store.NewMemoryStore())

	seedRelease(t, repo, "rel-1", "label-1", model.StatusDraft)
	require.NoError(t, repo.DeleteRelease(ctx, "rel-1"))

	_, err := repo.GetReleaseByID(ctx, "rel-1")
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUserRepositoryEmailLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewDocUserRepository(store.NewMemoryStore())

	require.NoError(t, repo.CreateUser(ctx, &model.User{
		ID:    "user-1",
		Name:  "Pat",
		Email: "pat@example.com",
	}))

	user, err := repo.GetUserByEmail(ctx, "  PAT@example.com ")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.ID)

	missing, err := repo.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNoticeRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewDocNoticeRepository(store.NewMemoryStore())

	require.NoError(t, repo.RecordNotice(ctx, &Notice{ID: "n1", LabelID: "label-1", Subject: "first"}))
	require.NoError(t, repo.RecordNotice(ctx, &Notice{ID: "n2", LabelID: "label-1", Subject: "second"}))
	require.NoError(t, repo.RecordNotice(ctx, &Notice{ID: "n3", LabelID: "label-2", Subject: "other"}))

	notices, err := repo.GetNoticesByLabel(ctx, "label-1")
	require.NoError(t, err)
	require.Len(t, notices, 2)
	// Newest first.
	assert.False(t, notices[0].SentAt.Before(notices[1].SentAt))
}
