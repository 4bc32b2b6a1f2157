package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"digitalsight/model"
)

// CreateArtistHandler adds an artist under a label, subject to the label's
// artist cap.
func (h *APIHandler) CreateArtistHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var artist model.Artist
	if err := json.NewDecoder(r.Body).Decode(&artist); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}
	if !actor.IsStaff() {
		artist.LabelID = actor.LabelID
	}

	created, err := h.catalog.AddArtist(r.Context(), actor, &artist)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListArtistsHandler lists a label's artists.
func (h *APIHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	labelID := r.URL.Query().Get("labelId")
	if !actor.IsStaff() {
		labelID = actor.LabelID
	}
	if labelID == "" {
		writeError(w, model.NewValidationError("labelId", "labelId is required"))
		return
	}

	artists, err := h.artists.GetArtistsByLabel(r.Context(), labelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

// ListLabelsHandler lists all labels (staff only).
func (h *APIHandler) ListLabelsHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if !actor.IsStaff() {
		writeError(w, model.NewAuthorizationError("list labels"))
		return
	}

	labels, err := h.labels.GetAllLabels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

// CreateSubLabelHandler creates a child label under the path's parent.
func (h *APIHandler) CreateSubLabelHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var label model.Label
	if err := json.NewDecoder(r.Body).Decode(&label); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}
	label.ParentLabelID = mux.Vars(r)["id"]

	created, err := h.catalog.CreateSubLabel(r.Context(), actor, &label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListSubLabelsHandler lists the children of one label.
func (h *APIHandler) ListSubLabelsHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	parentID := mux.Vars(r)["id"]
	if !actor.IsStaff() && actor.LabelID != parentID {
		writeError(w, model.NewAuthorizationError("list sub-labels of another label"))
		return
	}

	labels, err := h.labels.GetSubLabels(r.Context(), parentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

// ListNoticesHandler returns the notice log for a label.
func (h *APIHandler) ListNoticesHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	labelID := r.URL.Query().Get("labelId")
	if !actor.IsStaff() {
		labelID = actor.LabelID
	}
	if labelID == "" {
		writeError(w, model.NewValidationError("labelId", "labelId is required"))
		return
	}

	notices, err := h.notices.GetNoticesByLabel(r.Context(), labelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notices)
}
