package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"digitalsight/core/export"
	"digitalsight/model"
)

// ExportReleaseHandler streams the distribution metadata package for one
// release. Works in every status: the export reads only the document, so it
// survives asset purges.
func (h *APIHandler) ExportReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	releaseID := mux.Vars(r)["id"]

	release, err := h.releases.GetReleaseByID(r.Context(), releaseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !actor.IsStaff() && actor.LabelID != release.LabelID {
		writeError(w, model.NewAuthorizationError("export releases for another label"))
		return
	}

	artistsByID, labelsByID, err := h.exportIndexes(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows := export.MapReleaseToRows(release, artistsByID, labelsByID)
	data, err := h.encoder.Encode(export.ExportHeaders, rows)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("release-%s%s", release.ID, h.encoder.FileExtension())
	w.Header().Set("Content-Type", h.encoder.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// exportIndexes loads the artist and label lookups the mapper resolves
// references against.
func (h *APIHandler) exportIndexes(r *http.Request) (map[string]*model.Artist, map[string]*model.Label, error) {
	labels, err := h.labels.GetAllLabels(r.Context())
	if err != nil {
		return nil, nil, err
	}
	labelsByID := make(map[string]*model.Label, len(labels))
	artistsByID := make(map[string]*model.Artist)
	for _, label := range labels {
		labelsByID[label.ID] = label
		artists, err := h.artists.GetArtistsByLabel(r.Context(), label.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, artist := range artists {
			artistsByID[artist.ID] = artist
		}
	}
	return artistsByID, labelsByID, nil
}
