package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/repository"
	"digitalsight/storage"
)

// Notifier receives transition outcomes after they are committed. Failures
// are the notifier's problem; the engine never rolls back for them.
type Notifier interface {
	ReleasePublished(ctx context.Context, release *model.Release)
	ReleaseReturned(ctx context.Context, release *model.Release, note model.InteractionNote)
	ReleaseRejected(ctx context.Context, release *model.Release, note model.InteractionNote)
}

// StatusPublisher pushes status changes to connected dashboards.
type StatusPublisher interface {
	PublishStatus(releaseID string, status model.ReleaseStatus, updatedAt time.Time)
}

// Engine validates and applies release workflow transitions.
type Engine struct {
	releases repository.ReleaseRepository
	objects  storage.ObjectStore
	notifier Notifier
	feed     StatusPublisher
}

// NewEngine wires the lifecycle engine. notifier and feed may be nil.
func NewEngine(releases repository.ReleaseRepository, objects storage.ObjectStore, notifier Notifier, feed StatusPublisher) *Engine {
	return &Engine{
		releases: releases,
		objects:  objects,
		notifier: notifier,
		feed:     feed,
	}
}

// stampNote fills in the synthetic fields of a new audit note.
func stampNote(note model.InteractionNote) model.InteractionNote {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.Timestamp.IsZero() {
		note.Timestamp = time.Now()
	}
	return note
}

// prependNote puts the new note at the head of the audit trail. Existing
// notes are never touched.
func prependNote(release *model.Release, note model.InteractionNote) {
	release.Notes = append([]model.InteractionNote{stampNote(note)}, release.Notes...)
}

// requireNoteMessage enforces the non-empty note precondition on the
// destructive and corrective transitions.
func requireNoteMessage(note model.InteractionNote) error {
	if strings.TrimSpace(note.Message) == "" {
		return model.NewValidationError("note", "a note explaining the action is required")
	}
	return nil
}

// FinalizeAndPublish assigns the UPC, swaps in the reviewed track list and
// moves the release to Published. No assets are touched.
func (e *Engine) FinalizeAndPublish(ctx context.Context, actor model.Actor, releaseID, upc string, tracks []model.Track, note model.InteractionNote) (*model.Release, error) {
	if !actor.IsStaff() || !actor.Permissions.CanManageReleases {
		return nil, model.NewAuthorizationError("publish releases")
	}

	upc = strings.TrimSpace(upc)
	if upc == "" {
		return nil, model.NewValidationError("upc", "a UPC is required to publish")
	}

	release, err := e.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(release, EventPublish); err != nil {
		return nil, err
	}

	// Last-mile corrections (ISRC fixes) come in with the publish action.
	release.Tracks = tracks
	if err := release.ValidateTracks(); err != nil {
		return nil, err
	}

	release.Status = model.StatusPublished
	release.UPC = upc
	prependNote(release, note)

	if err := e.releases.SaveRelease(ctx, release); err != nil {
		return nil, err
	}

	logger.Info("release published",
		logger.String("releaseId", release.ID),
		logger.String("upc", upc),
		logger.String("actor", actor.Name))

	e.afterTransition(release)
	if e.notifier != nil {
		e.notifier.ReleasePublished(ctx, release)
	}
	return release, nil
}

// ReturnForCorrection moves a pending release to the correction queue.
// Non-destructive: the partner fixes and resubmits without re-uploading.
func (e *Engine) ReturnForCorrection(ctx context.Context, actor model.Actor, releaseID string, note model.InteractionNote) (*model.Release, error) {
	if !actor.IsStaff() || !actor.Permissions.CanManageReleases {
		return nil, model.NewAuthorizationError("return releases for correction")
	}
	if err := requireNoteMessage(note); err != nil {
		return nil, err
	}

	release, err := e.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(release, EventReturn); err != nil {
		return nil, err
	}

	release.Status = model.StatusNeedsInfo
	prependNote(release, note)

	if err := e.releases.SaveRelease(ctx, release); err != nil {
		return nil, err
	}

	logger.Info("release returned for correction",
		logger.String("releaseId", release.ID),
		logger.String("actor", actor.Name))

	e.afterTransition(release)
	if e.notifier != nil {
		e.notifier.ReleaseReturned(ctx, release, release.Notes[0])
	}
	return release, nil
}

// Reject moves a release to Rejected and purges its binary assets. The
// metadata record survives for the audit trail.
func (e *Engine) Reject(ctx context.Context, actor model.Actor, releaseID string, note model.InteractionNote) (*model.Release, error) {
	if !actor.IsStaff() || !actor.Permissions.CanManageReleases {
		return nil, model.NewAuthorizationError("reject releases")
	}
	if err := requireNoteMessage(note); err != nil {
		return nil, err
	}

	release, err := e.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(release, EventReject); err != nil {
		return nil, err
	}

	release.Status = model.StatusRejected
	prependNote(release, note)

	if err := e.releases.SaveRelease(ctx, release); err != nil {
		return nil, err
	}

	logger.Info("release rejected",
		logger.String("releaseId", release.ID),
		logger.String("actor", actor.Name))

	// The status change is committed; the purge is best-effort cleanup and
	// never unwinds it.
	e.purgeAssets(ctx, release.ID)

	e.afterTransition(release)
	if e.notifier != nil {
		e.notifier.ReleaseRejected(ctx, release, release.Notes[0])
	}
	return release, nil
}

// Takedown revokes a published release. One-way: there is no republish.
func (e *Engine) Takedown(ctx context.Context, actor model.Actor, releaseID string, note model.InteractionNote) (*model.Release, error) {
	if !actor.IsStaff() || !actor.Permissions.CanManageReleases {
		return nil, model.NewAuthorizationError("take down releases")
	}
	if err := requireNoteMessage(note); err != nil {
		return nil, err
	}

	release, err := e.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(release, EventTakedown); err != nil {
		return nil, err
	}

	release.Status = model.StatusTakedown
	prependNote(release, note)

	if err := e.releases.SaveRelease(ctx, release); err != nil {
		return nil, err
	}

	logger.Info("release taken down",
		logger.String("releaseId", release.ID),
		logger.String("actor", actor.Name))

	e.purgeAssets(ctx, release.ID)
	e.afterTransition(release)
	return release, nil
}

// Submit moves a draft into the review queue. Partner side.
func (e *Engine) Submit(ctx context.Context, actor model.Actor, releaseID string) (*model.Release, error) {
	if !actor.Permissions.CanSubmitAlbums {
		return nil, model.NewAuthorizationError("submit releases")
	}

	release, err := e.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && actor.LabelID != release.LabelID {
		return nil, model.NewAuthorizationError("submit releases for another label")
	}
	if err := ValidateTransition(release, EventSubmit); err != nil {
		return nil, err
	}
	if len(release.Tracks) == 0 {
		return nil, model.NewValidationError("tracks", "a release needs at least one track before submission")
	}
	if err := release.ValidateTracks(); err != nil {
		return nil, err
	}

	release.Status = model.StatusPending
	if err := e.releases.SaveRelease(ctx, release); err != nil {
		return nil, err
	}

	logger.Info("release submitted",
		logger.String("releaseId", release.ID),
		logger.String("actor", actor.Name))

	e.afterTransition(release)
	return release, nil
}

// Resubmit moves a release from the correction queue back to Pending.
// An accompanying note is optional; when present it joins the audit trail.
func (e *Engine) Resubmit(ctx context.Context, actor model.Actor, releaseID string, note model.InteractionNote) (*model.Release, error) {
	if !actor.Permissions.CanSubmitAlbums {
		return nil, model.NewAuthorizationError("resubmit releases")
	}

	release, err := e.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && actor.LabelID != release.LabelID {
		return nil, model.NewAuthorizationError("resubmit releases for another label")
	}
	if err := ValidateTransition(release, EventResubmit); err != nil {
		return nil, err
	}

	release.Status = model.StatusPending
	if strings.TrimSpace(note.Message) != "" {
		prependNote(release, note)
	}

	if err := e.releases.SaveRelease(ctx, release); err != nil {
		return nil, err
	}

	logger.Info("release resubmitted",
		logger.String("releaseId", release.ID),
		logger.String("actor", actor.Name))

	e.afterTransition(release)
	return release, nil
}

// HardDelete purges the release's assets and removes its document. Staff may
// delete any release; partners only their own drafts and correction-queue
// entries.
func (e *Engine) HardDelete(ctx context.Context, actor model.Actor, releaseID string) error {
	if !actor.Permissions.CanDeleteReleases {
		return model.NewAuthorizationError("delete releases")
	}

	release, err := e.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return err
	}
	if !actor.IsStaff() {
		if actor.LabelID != release.LabelID {
			return model.NewAuthorizationError("delete releases for another label")
		}
		if release.Status != model.StatusDraft && release.Status != model.StatusNeedsInfo {
			return model.NewAuthorizationError("delete a release already in review")
		}
	}

	// Purge is idempotent; deleting a release with no stored assets is fine.
	e.purgeAssets(ctx, releaseID)

	if err := e.releases.DeleteRelease(ctx, releaseID); err != nil {
		return err
	}

	logger.Info("release deleted",
		logger.String("releaseId", releaseID),
		logger.String("actor", actor.Name))
	return nil
}

// purgeAssets removes release binaries, logging failures instead of
// propagating them.
func (e *Engine) purgeAssets(ctx context.Context, releaseID string) {
	if e.objects == nil {
		return
	}
	if err := storage.PurgeReleaseAssets(ctx, e.objects, releaseID); err != nil {
		logger.Warn("asset purge failed, stale assets may linger",
			logger.String("releaseId", releaseID),
			logger.ErrorField(err))
	}
}

func (e *Engine) afterTransition(release *model.Release) {
	if e.feed != nil {
		e.feed.PublishStatus(release.ID, release.Status, release.UpdatedAt)
	}
}
