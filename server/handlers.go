package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"digitalsight/core/auth"
	"digitalsight/core/catalog"
	"digitalsight/core/export"
	"digitalsight/core/feed"
	"digitalsight/core/lifecycle"
	"digitalsight/core/notify"
	"digitalsight/logger"
	"digitalsight/model"
	"digitalsight/repository"
)

type contextKey string

const actorContextKey contextKey = "actor"

// APIHandler bundles the services and repositories the HTTP layer needs.
type APIHandler struct {
	engine   *lifecycle.Engine
	catalog  *catalog.Service
	notify   *notify.Service
	encoder  export.Encoder
	hub      *feed.Hub
	releases repository.ReleaseRepository
	artists  repository.ArtistRepository
	labels   repository.LabelRepository
	users    repository.UserRepository
	notices  repository.NoticeRepository
}

// NewAPIHandler wires the handler set.
func NewAPIHandler(
	engine *lifecycle.Engine,
	catalogSvc *catalog.Service,
	notifySvc *notify.Service,
	encoder export.Encoder,
	hub *feed.Hub,
	releases repository.ReleaseRepository,
	artists repository.ArtistRepository,
	labels repository.LabelRepository,
	users repository.UserRepository,
	notices repository.NoticeRepository,
) *APIHandler {
	return &APIHandler{
		engine:   engine,
		catalog:  catalogSvc,
		notify:   notifySvc,
		encoder:  encoder,
		hub:      hub,
		releases: releases,
		artists:  artists,
		labels:   labels,
		users:    users,
		notices:  notices,
	}
}

// AuthMiddleware checks for a valid JWT and puts the actor in the context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, auth.ActorFromClaims(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ActorFromContext extracts the authenticated actor from the request context.
func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(model.Actor)
	return actor, ok
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeError maps domain errors to HTTP status codes. Every error carries a
// human-readable message; there is no silent failure path.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		limitErr      *model.LimitExceededError
		authErr       *model.AuthorizationError
		notFoundErr   *model.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &limitErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		logger.Error("internal error", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// FeedHandler upgrades a dashboard connection onto the status feed.
func (h *APIHandler) FeedHandler(w http.ResponseWriter, r *http.Request) {
	feed.ServeWS(h.hub, w, r)
}
