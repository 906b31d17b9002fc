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

type LeagueHandler struct {
	leagueService *service.LeagueService
}

func NewLeagueHandler(leagueService *service.LeagueService) *LeagueHandler {
	return &LeagueHandler{leagueService: leagueService}
}

func (h *LeagueHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/", h.createLeague)
	r.Get("/mine", h.listMyLeagues)
	r.Get("/search", h.searchLeagues)
	r.Post("/join-by-code", h.joinByCode)
	r.Post("/{leagueID}/join", h.joinLeague)
	r.Post("/{leagueID}/leave", h.leaveLeague)
	r.Get("/{leagueID}/members", h.listMembers)
	r.Get("/{leagueID}/leaderboard", h.getLeaderboard)
}

func (h *LeagueHandler) createLeague(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CreateLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	league, err := h.leagueService.CreateLeague(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, league)
}

func (h *LeagueHandler) joinLeague(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	membership, err := h.leagueService.JoinLeague(r.Context(), userID, chi.URLParam(r, "leagueID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, membership)
}

type joinByCodePayload struct {
	InviteCode string `json:"invite_code"`
}

func (h *LeagueHandler) joinByCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload joinByCodePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if payload.InviteCode == "" {
		common.RespondWithError(w, http.StatusBadRequest, "invite_code is required")
		return
	}

	membership, err := h.leagueService.JoinLeagueByCode(r.Context(), userID, payload.InviteCode)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, membership)
}

func (h *LeagueHandler) leaveLeague(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := h.leagueService.LeaveLeague(r.Context(), userID, chi.URLParam(r, "leagueID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (h *LeagueHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.leagueService.ListMembers(r.Context(), chi.URLParam(r, "leagueID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, members)
}

func (h *LeagueHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leagueService.GetLeagueLeaderboard(r.Context(), chi.URLParam(r, "leagueID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *LeagueHandler) listMyLeagues(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	leagues, err := h.leagueService.ListMyLeagues(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, leagues)
}

// searchLeagues always answers 200; store failures surface as an empty list.
func (h *LeagueHandler) searchLeagues(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	leagues := h.leagueService.SearchPublicLeagues(r.Context(), term, config.AppConfig.UserSearchLimit)
	common.RespondWithJSON(w, http.StatusOK, leagues)
}
