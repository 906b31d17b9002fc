package handler

import (
	"encoding/json"
	"net/http"

	"quizleague/internal/api/middleware"
	"quizleague/internal/app/service"
	"quizleague/internal/common"
	"quizleague/internal/platform/config"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/me", h.getMyProfile)
	r.Put("/me", h.updateMyProfile)
	r.Get("/search", h.searchUsers)
	r.Get("/leaderboard", h.getGlobalLeaderboard)
	r.Get("/{userID}", h.getProfile)
}

func (h *ProfileHandler) getMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) updateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

// searchUsers always answers 200; store failures surface as an empty list.
func (h *ProfileHandler) searchUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	profiles := h.profileService.SearchUsers(r.Context(), term, config.AppConfig.UserSearchLimit)
	common.RespondWithJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) getGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.profileService.GetGlobalLeaderboard(r.Context(), config.AppConfig.LeaderboardLimit)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}
