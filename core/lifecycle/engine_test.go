package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalsight/model"
	"digitalsight/repository"
	"digitalsight/storage"
	"digitalsight/store"
)

type fakeObjectStore struct {
	mu       sync.Mutex
	objects  map[string]bool
	deleted  []string
	failKeys map[string]bool
}

func newFakeObjectStore(keys ...string) *fakeObjectStore {
	f := &fakeObjectStore{objects: map[string]bool{}, failKeys: map[string]bool{}}
	for _, k := range keys {
		f.objects[k] = true
	}
	return f
}

func (f *fakeObjectStore) ListAll(ctx context.Context, prefix string) ([]storage.ObjectInfo, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []storage.ObjectInfo
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			items = append(items, storage.ObjectInfo{Key: key})
		}
	}
	return items, nil, nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return errors.New("backend unavailable")
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) remaining() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

type fakeNotifier struct {
	published []string
	returned  []string
	rejected  []string
}

func (f *fakeNotifier) ReleasePublished(ctx context.Context, r *model.Release) {
	f.published = append(f.published, r.ID)
}

func (f *fakeNotifier) ReleaseReturned(ctx context.Context, r *model.Release, note model.InteractionNote) {
	f.returned = append(f.returned, r.ID)
}

func (f *fakeNotifier) ReleaseRejected(ctx context.Context, r *model.Release, note model.InteractionNote) {
	f.rejected = append(f.rejected, r.ID)
}

type fakeFeed struct {
	statuses []model.ReleaseStatus
}

func (f *fakeFeed) PublishStatus(releaseID string, status model.ReleaseStatus, updatedAt time.Time) {
	f.statuses = append(f.statuses, status)
}

func staffActor() model.Actor {
	return model.Actor{
		UserID:      "staff-1",
		Name:        "Reviewer",
		Role:        model.RoleStaff,
		Permissions: model.StaffPermissions(),
	}
}

func partnerActor(labelID string) model.Actor {
	return model.Actor{
		UserID:  "partner-1",
		Name:    "Partner",
		Role:    model.RolePartner,
		LabelID: labelID,
		Permissions: model.Permissions{
			CanManageArtists:  true,
			CanManageReleases: true,
			CanSubmitAlbums:   true,
			CanDeleteReleases: true,
		},
	}
}

type engineFixture struct {
	engine   *Engine
	releases repository.ReleaseRepository
	objects  *fakeObjectStore
	notifier *fakeNotifier
	feed     *fakeFeed
}

func newEngineFixture(t *testing.T, objectKeys ...string) *engineFixture {
	t.Helper()
	releases := repository.NewDocReleaseRepository(store.NewMemoryStore())
	objects := newFakeObjectStore(objectKeys...)
	notifier := &fakeNotifier{}
	feed := &fakeFeed{}
	return &engineFixture{
		engine:   NewEngine(releases, objects, notifier, feed),
		releases: releases,
		objects:  objects,
		notifier: notifier,
		feed:     feed,
	}
}

func (f *engineFixture) seedRelease(t *testing.T, status model.ReleaseStatus, trackCount int) *model.Release {
	t.Helper()
	release := &model.Release{
		ID:      "rel-1",
		LabelID: "label-1",
		Title:   "Midnight Sessions",
		Status:  status,
	}
	for i := 1; i <= trackCount; i++ {
		release.Tracks = append(release.Tracks, model.Track{
			TrackNumber: i,
			Title:       fmt.Sprintf("Track %d", i),
			Duration:    180 + i,
		})
	}
	require.NoError(t, f.releases.CreateRelease(context.Background(), release))
	return release
}

func (f *engineFixture) currentRelease(t *testing.T, id string) *model.Release {
	t.Helper()
	release, err := f.releases.GetReleaseByID(context.Background(), id)
	require.NoError(t, err)
	return release
}

func TestFinalizeAndPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns UPC and publishes", func(t *testing.T) {
		f := newEngineFixture(t, "releases/rel-1/audio/01.wav")
		f.seedRelease(t, model.StatusPending, 2)

		tracks := []model.Track{
			{TrackNumber: 1, Title: "Track 1", ISRC: "INH102500001"},
			{TrackNumber: 2, Title: "Track 2", ISRC: "INH102500002"},
		}
		note := model.InteractionNote{AuthorName: "Reviewer", AuthorRole: "staff", Message: "Approved"}

		release, err := f.engine.FinalizeAndPublish(ctx, staffActor(), "rel-1", " 190295001234 ", tracks, note)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPublished, release.Status)
		assert.Equal(t, "190295001234", release.UPC)
		assert.Equal(t, "INH102500002", release.Tracks[1].ISRC)
		require.Len(t, release.Notes, 1)
		assert.Equal(t, "Approved", release.Notes[0].Message)
		assert.NotEmpty(t, release.Notes[0].ID)
		assert.False(t, release.Notes[0].Timestamp.IsZero())

		// Publishing keeps the assets.
		assert.Len(t, f.objects.remaining(), 1)
		assert.Equal(t, []string{"rel-1"}, f.notifier.published)
		assert.Equal(t, []model.ReleaseStatus{model.StatusPublished}, f.feed.statuses)

		stored := f.currentRelease(t, "rel-1")
		assert.Equal(t, model.StatusPublished, stored.Status)
		assert.Equal(t, "190295001234", stored.UPC)
	})

	t.Run("blocks on empty UPC without touching the release", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPending, 1)

		_, err := f.engine.FinalizeAndPublish(ctx, staffActor(), "rel-1", "   ", nil, model.InteractionNote{})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "upc", validationErr.Field)

		stored := f.currentRelease(t, "rel-1")
		assert.Equal(t, model.StatusPending, stored.Status)
		assert.Empty(t, stored.UPC)
		assert.Empty(t, stored.Notes)
		assert.Empty(t, f.notifier.published)
	})

	t.Run("rejects duplicate track numbers", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPending, 1)

		tracks := []model.Track{
			{TrackNumber: 1, Title: "A"},
			{TrackNumber: 1, Title: "B"},
		}
		_, err := f.engine.FinalizeAndPublish(ctx, staffActor(), "rel-1", "190295001234", tracks, model.InteractionNote{})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)

		stored := f.currentRelease(t, "rel-1")
		assert.Equal(t, model.StatusPending, stored.Status)
	})

	t.Run("refuses partners", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPending, 1)

		_, err := f.engine.FinalizeAndPublish(ctx, partnerActor("label-1"), "rel-1", "190295001234", nil, model.InteractionNote{})
		var authErr *model.AuthorizationError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("refuses drafts", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusDraft, 1)

		_, err := f.engine.FinalizeAndPublish(ctx, staffActor(), "rel-1", "190295001234", nil, model.InteractionNote{})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestReturnForCorrection(t *testing.T) {
	ctx := context.Background()

	t.Run("moves pending to needs info and notifies", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPending, 1)

		note := model.InteractionNote{AuthorName: "Reviewer", Message: "Artwork resolution too low"}
		release, err := f.engine.ReturnForCorrection(ctx, staffActor(), "rel-1", note)
		require.NoError(t, err)
		assert.Equal(t, model.StatusNeedsInfo, release.Status)
		require.Len(t, release.Notes, 1)
		assert.Equal(t, []string{"rel-1"}, f.notifier.returned)
	})

	t.Run("requires a note", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPending, 1)

		_, err := f.engine.ReturnForCorrection(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "   "})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)

		stored := f.currentRelease(t, "rel-1")
		assert.Equal(t, model.StatusPending, stored.Status)
	})

	t.Run("only pending releases can be returned", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPublished, 1)

		_, err := f.engine.ReturnForCorrection(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "too late"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("audit trail is append-only", func(t *testing.T) {
		f := newEngineFixture(t)
		release := f.seedRelease(t, model.StatusPending, 1)
		release.Notes = []model.InteractionNote{{
			ID:        "note-0",
			Message:   "First submission",
			Timestamp: time.Now().Add(-time.Hour),
		}}
		require.NoError(t, f.releases.SaveRelease(ctx, release))

		updated, err := f.engine.ReturnForCorrection(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "Fix genre"})
		require.NoError(t, err)
		require.Len(t, updated.Notes, 2)
		assert.Equal(t, "Fix genre", updated.Notes[0].Message)
		assert.Equal(t, "note-0", updated.Notes[1].ID)
		assert.Equal(t, "First submission", updated.Notes[1].Message)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("purges assets after committing the status", func(t *testing.T) {
		f := newEngineFixture(t,
			"releases/rel-1/audio/01.wav",
			"releases/rel-1/audio/02.wav",
			"releases/rel-1/artwork/cover.jpg",
			"releases/other/audio/01.wav",
		)
		f.seedRelease(t, model.StatusPending, 1)

		release, err := f.engine.Reject(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "Rights not cleared"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, release.Status)

		// Only this release's binaries go; the metadata record survives.
		assert.Equal(t, []string{"releases/other/audio/01.wav"}, f.objects.remaining())
		stored := f.currentRelease(t, "rel-1")
		assert.Equal(t, model.StatusRejected, stored.Status)
		assert.Equal(t, []string{"rel-1"}, f.notifier.rejected)
	})

	t.Run("a failed delete does not unwind the rejection", func(t *testing.T) {
		f := newEngineFixture(t, "releases/rel-1/audio/01.wav", "releases/rel-1/audio/02.wav")
		f.objects.failKeys["releases/rel-1/audio/01.wav"] = true
		f.seedRelease(t, model.StatusPending, 1)

		release, err := f.engine.Reject(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "Rights not cleared"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, release.Status)
		assert.Contains(t, f.objects.remaining(), "releases/rel-1/audio/01.wav")
		assert.NotContains(t, f.objects.remaining(), "releases/rel-1/audio/02.wav")
	})

	t.Run("purge is idempotent", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPending, 1)

		_, err := f.engine.Reject(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "Nothing stored"})
		require.NoError(t, err)
		assert.Empty(t, f.objects.deleted)
	})

	t.Run("illegal from draft and published", func(t *testing.T) {
		for _, status := range []model.ReleaseStatus{model.StatusDraft, model.StatusPublished, model.StatusRejected} {
			f := newEngineFixture(t, "releases/rel-1/audio/01.wav")
			f.seedRelease(t, status, 1)

			_, err := f.engine.Reject(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "nope"})
			var validationErr *model.ValidationError
			require.ErrorAs(t, err, &validationErr, "status %s", status)

			stored := f.currentRelease(t, "rel-1")
			assert.Equal(t, status, stored.Status)
			assert.Len(t, f.objects.remaining(), 1)
		}
	})
}

func TestTakedown(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes a published release and purges assets", func(t *testing.T) {
		f := newEngineFixture(t, "releases/rel-1/audio/01.wav")
		f.seedRelease(t, model.StatusPublished, 1)

		release, err := f.engine.Takedown(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "Rights dispute"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusTakedown, release.Status)
		assert.Empty(t, f.objects.remaining())
		// No mail for takedowns.
		assert.Empty(t, f.notifier.rejected)
		assert.Empty(t, f.notifier.returned)
	})

	t.Run("only published releases can be taken down", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPending, 1)

		_, err := f.engine.Takedown(ctx, staffActor(), "rel-1", model.InteractionNote{Message: "early"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("moves a draft into the review queue", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusDraft, 2)

		release, err := f.engine.Submit(ctx, partnerActor("label-1"), "rel-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, release.Status)
	})

	t.Run("needs at least one track", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusDraft, 0)

		_, err := f.engine.Submit(ctx, partnerActor("label-1"), "rel-1")
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "tracks", validationErr.Field)
	})

	t.Run("partners cannot submit for another label", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusDraft, 1)

		_, err := f.engine.Submit(ctx, partnerActor("label-2"), "rel-1")
		var authErr *model.AuthorizationError
		require.ErrorAs(t, err, &authErr)
	})
}

func TestResubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("moves needs info back to pending with an optional note", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusNeedsInfo, 1)

		release, err := f.engine.Resubmit(ctx, partnerActor("label-1"), "rel-1",
			model.InteractionNote{AuthorName: "Partner", Message: "Fixed the artwork"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, release.Status)
		require.Len(t, release.Notes, 1)
		assert.Equal(t, "Fixed the artwork", release.Notes[0].Message)
	})

	t.Run("a blank note is simply skipped", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusNeedsInfo, 1)

		release, err := f.engine.Resubmit(ctx, partnerActor("label-1"), "rel-1", model.InteractionNote{})
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, release.Status)
		assert.Empty(t, release.Notes)
	})

	t.Run("only the correction queue can resubmit", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusDraft, 1)

		_, err := f.engine.Resubmit(ctx, partnerActor("label-1"), "rel-1", model.InteractionNote{})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestHardDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("purges assets and removes the document", func(t *testing.T) {
		f := newEngineFixture(t, "releases/rel-1/audio/01.wav")
		f.seedRelease(t, model.StatusDraft, 1)

		require.NoError(t, f.engine.HardDelete(ctx, partnerActor("label-1"), "rel-1"))
		assert.Empty(t, f.objects.remaining())

		_, err := f.releases.GetReleaseByID(ctx, "rel-1")
		var notFound *model.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("partners cannot delete a release already in review", func(t *testing.T) {
		for _, status := range []model.ReleaseStatus{model.StatusPending, model.StatusPublished, model.StatusRejected} {
			f := newEngineFixture(t)
			f.seedRelease(t, status, 1)

			err := f.engine.HardDelete(ctx, partnerActor("label-1"), "rel-1")
			var authErr *model.AuthorizationError
			require.ErrorAs(t, err, &authErr, "status %s", status)
		}
	})

	t.Run("staff may delete any status", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusPublished, 1)

		require.NoError(t, f.engine.HardDelete(ctx, staffActor(), "rel-1"))
	})

	t.Run("partners cannot delete another label's release", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seedRelease(t, model.StatusDraft, 1)

		err := f.engine.HardDelete(ctx, partnerActor("label-2"), "rel-1")
		var authErr *model.AuthorizationError
		require.ErrorAs(t, err, &authErr)
	})
}
