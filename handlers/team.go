package handlers

import (
	"encoding/json"
	"net/http"

	"hackreg/apperror"
	"hackreg/middleware"
	"hackreg/services"

	"go.uber.org/zap"
)

type TeamHandler struct {
	teams  *services.TeamService
	logger *zap.Logger
}

func NewTeamHandler(teams *services.TeamService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, logger: logger}
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	var req struct {
		TeamName string `json:"teamName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}

	created, err := h.teams.CreateTeam(r.Context(), identity.UID, req.TeamName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TeamHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	var req struct {
		TeamCode string `json:"teamCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}

	joined, err := h.teams.JoinTeam(r.Context(), identity.UID, req.TeamCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, joined)
}

func (h *TeamHandler) TeamDetails(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	details, err := h.teams.Details(r.Context(), identity.UID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	result, err := h.teams.LeaveTeam(r.Context(), identity.UID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{"message": "left team successfully"}
	if result.Disbanded {
		resp["message"] = "team disbanded as you were the last member"
	}
	if result.NewLeader != nil {
		resp["newLeader"] = result.NewLeader
	}
	writeJSON(w, http.StatusOK, resp)
}
