package handlers

import (
	"encoding/json"
	"net/http"

	"hackreg/apperror"
	"hackreg/middleware"
	"hackreg/services"

	"go.uber.org/zap"
)

type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Login reports whether the verified identity already has a profile. A
// missing profile is not an error; the client is told to complete it.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	user, err := h.users.Lookup(r.Context(), identity.UID)
	if err != nil {
		h.logger.Error("profile lookup failed", zap.String("uid", identity.UID), zap.Error(err))
		writeError(w, err)
		return
	}

	if user == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"exists":  false,
			"message": "user does not exist, please complete profile",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exists": true,
		"user":   user,
	})
}

func (h *UserHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	var input services.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}

	user, err := h.users.CreateProfile(r.Context(), identity.UID, identity.Email, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "profile created successfully",
		"user":    user,
	})
}
