package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"digitalsight/core/auth"
	"digitalsight/logger"
	"digitalsight/model"
)

// userResponse is the API shape of a user account, without credentials.
type userResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        model.Role        `json:"role"`
	LabelID     string            `json:"labelId,omitempty"`
	Permissions model.Permissions `json:"permissions"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		LabelID:     user.LabelID,
		Permissions: user.Permissions,
		CreatedAt:   user.CreatedAt,
	}
}

// LoginHandler authenticates by email and password and issues a JWT.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, model.NewValidationError("credentials", "email and password are required"))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("login failed", logger.String("email", req.Email))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info("login succeeded", logger.String("userId", user.ID))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// onboardRequest creates a label together with its admin account.
type onboardRequest struct {
	Label model.Label `json:"label"`
	Admin struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"admin"`
}

// OnboardLabelHandler registers a partner label and its admin user, then
// sends the registration and welcome mails.
func (h *APIHandler) OnboardLabelHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if !actor.IsStaff() || !actor.Permissions.CanOnboardLabels {
		writeError(w, model.NewAuthorizationError("onboard labels"))
		return
	}

	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}
	if req.Label.Name == "" {
		writeError(w, model.NewValidationError("label.name", "label name is required"))
		return
	}
	if req.Admin.Email == "" || req.Admin.Password == "" {
		writeError(w, model.NewValidationError("admin", "admin email and password are required"))
		return
	}

	existing, err := h.users.GetUserByEmail(r.Context(), req.Admin.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		writeError(w, model.NewValidationError("admin.email", "an account with this email already exists"))
		return
	}

	label := req.Label
	label.ID = uuid.NewString()
	if label.Email == "" {
		label.Email = req.Admin.Email
	}
	if err := h.labels.CreateLabel(r.Context(), &label); err != nil {
		writeError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Admin.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	admin := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Admin.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Admin.Email)),
		PasswordHash: hash,
		Role:         model.RolePartner,
		LabelID:      label.ID,
		Permissions: model.Permissions{
			CanManageArtists:  true,
			CanManageReleases: true,
			CanSubmitAlbums:   true,
			CanDeleteReleases: true,
		},
	}
	if err := h.users.CreateUser(r.Context(), admin); err != nil {
		writeError(w, err)
		return
	}

	h.notify.LabelRegistered(r.Context(), &label)
	h.notify.UserWelcomed(r.Context(), admin)

	logger.Info("label onboarded",
		logger.String("labelId", label.ID),
		logger.String("adminId", admin.ID))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"label": label,
		"admin": toUserResponse(admin),
	})
}

// RequestPasswordResetHandler issues a reset token and mails it. Responds
// identically whether or not the account exists.
func (h *APIHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if user != nil {
		user.ResetToken = uuid.NewString()
		if err := h.users.UpdateUser(r.Context(), user); err != nil {
			writeError(w, err)
			return
		}
		h.notify.PasswordReset(r.Context(), user, user.ResetToken)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a reset mail has been sent"})
}

// ConfirmPasswordResetHandler consumes a reset token and sets the new
// password.
func (h *APIHandler) ConfirmPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("body", "invalid request body"))
		return
	}
	if req.Token == "" || req.Password == "" {
		writeError(w, model.NewValidationError("reset", "token and new password are required"))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || user.ResetToken == "" || user.ResetToken != req.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid reset token"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	logger.Info("password reset", logger.String("userId", user.ID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
