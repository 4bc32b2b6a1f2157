package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"digitalsight/model"
)

// noteRequest is the audit note attached to a review action.
type noteRequest struct {
	Message string `json:"message"`
}

func (h *APIHandler) noteFromRequest(r *http.Request, actor model.Actor) (model.InteractionNote, error) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return model.InteractionNote{}, model.NewValidationError("body", "invalid request body")
	}
	return model.InteractionNote{
		AuthorName: actor.Name,
		AuthorRole: string(actor.Role),
		Message:    req.Message,
	}, nil
}

// CreateReleaseHandler creates a new draft release for the actor's label.
func (h *APIHandler) CreateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var release model.Release
	if err := json.NewDecoder(r.Body).Decode(&release); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}

	if !actor.IsStaff() {
		release.LabelID = actor.LabelID
	}
	if release.LabelID == "" {
		writeError(w, model.NewValidationError("labelId", "a release needs an owning label"))
		return
	}
	if release.Title == "" {
		writeError(w, model.NewValidationError("title", "a release needs a title"))
		return
	}
	if err := release.ValidateTracks(); err != nil {
		writeError(w, err)
		return
	}

	release.ID = uuid.NewString()
	release.Status = model.StatusDraft
	release.UPC = "" // assigned at publish time
	release.Notes = nil

	if err := h.releases.CreateRelease(r.Context(), &release); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, release)
}

// UpdateReleaseHandler edits a draft or correction-queue release.
func (h *APIHandler) UpdateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	releaseID := mux.Vars(r)["id"]

	var incoming model.Release
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}

	release, err := h.releases.GetReleaseByID(r.Context(), releaseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !actor.IsStaff() && actor.LabelID != release.LabelID {
		writeError(w, model.NewAuthorizationError("edit releases for another label"))
		return
	}
	if release.Status != model.StatusDraft && release.Status != model.StatusNeedsInfo {
		writeError(w, model.NewValidationError("status", "only drafts and correction-queue releases can be edited"))
		return
	}

	// Identity, status, audit trail and UPC are not editable here.
	incoming.ID = release.ID
	incoming.LabelID = release.LabelID
	incoming.Status = release.Status
	incoming.UPC = release.UPC
	incoming.Notes = release.Notes
	incoming.CreatedAt = release.CreatedAt

	if err := incoming.ValidateTracks(); err != nil {
		writeError(w, err)
		return
	}
	if err := h.releases.SaveRelease(r.Context(), &incoming); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incoming)
}

// GetReleaseHandler returns one release with its notes sorted newest first.
func (h *APIHandler) GetReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	releaseID := mux.Vars(r)["id"]

	release, err := h.releases.GetReleaseByID(r.Context(), releaseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !actor.IsStaff() && actor.LabelID != release.LabelID {
		writeError(w, model.NewAuthorizationError("view releases for another label"))
		return
	}

	release.Notes = release.SortedNotes()
	writeJSON(w, http.StatusOK, release)
}

// ListReleasesHandler lists releases, filtered by label or status.
func (h *APIHandler) ListReleasesHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var (
		releases []*model.Release
		err      error
	)
	switch {
	case !actor.IsStaff():
		releases, err = h.releases.GetReleasesByLabel(r.Context(), actor.LabelID)
	case r.URL.Query().Get("labelId") != "":
		releases, err = h.releases.GetReleasesByLabel(r.Context(), r.URL.Query().Get("labelId"))
	case r.URL.Query().Get("status") != "":
		releases, err = h.releases.GetReleasesByStatus(r.Context(), model.ReleaseStatus(r.URL.Query().Get("status")))
	default:
		if !actor.Permissions.CanManageReleases {
			writeError(w, model.NewAuthorizationError("list all releases"))
			return
		}
		releases, err = h.releases.GetReleasesByStatus(r.Context(), model.StatusPending)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, releases)
}

// PendingQueueHandler lists the staff review queue.
func (h *APIHandler) PendingQueueHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if !actor.IsStaff() {
		writeError(w, model.NewAuthorizationError("view the review queue"))
		return
	}

	releases, err := h.releases.GetReleasesByStatus(r.Context(), model.StatusPending)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, releases)
}

// SubmitReleaseHandler moves a draft into the review queue.
func (h *APIHandler) SubmitReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	release, err := h.engine.Submit(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// ResubmitReleaseHandler moves a corrected release back into the queue.
func (h *APIHandler) ResubmitReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	note, err := h.noteFromRequest(r, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	release, err := h.engine.Resubmit(r.Context(), actor, mux.Vars(r)["id"], note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// publishRequest carries the publish action payload.
type publishRequest struct {
	UPC    string        `json:"upc"`
	Tracks []model.Track `json:"tracks"`
	Note   noteRequest   `json:"note"`
}

// PublishReleaseHandler finalizes and publishes a reviewed release.
func (h *APIHandler) PublishReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}

	note := model.InteractionNote{
		AuthorName: actor.Name,
		AuthorRole: string(actor.Role),
		Message:    req.Note.Message,
	}
	release, err := h.engine.FinalizeAndPublish(r.Context(), actor, mux.Vars(r)["id"], req.UPC, req.Tracks, note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// ReturnReleaseHandler sends a pending release to the correction queue.
func (h *APIHandler) ReturnReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	note, err := h.noteFromRequest(r, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	release, err := h.engine.ReturnForCorrection(r.Context(), actor, mux.Vars(r)["id"], note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// RejectReleaseHandler rejects a release and purges its assets.
func (h *APIHandler) RejectReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	note, err := h.noteFromRequest(r, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	release, err := h.engine.Reject(r.Context(), actor, mux.Vars(r)["id"], note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// TakedownReleaseHandler revokes a published release.
func (h *APIHandler) TakedownReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	note, err := h.noteFromRequest(r, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	release, err := h.engine.Takedown(r.Context(), actor, mux.Vars(r)["id"], note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// DeleteReleaseHandler purges assets and removes the release record.
func (h *APIHandler) DeleteReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if err := h.engine.HardDelete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "release deleted"})
}
