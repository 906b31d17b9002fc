package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"quizleague/internal/api/middleware"
	"quizleague/internal/app/service"
	"quizleague/internal/common"
	"quizleague/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type FriendHandler struct {
	friendService *service.FriendService
}

func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

func (h *FriendHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.listFriends)
	r.Post("/requests", h.sendRequest)
	r.Get("/requests/incoming", h.listIncoming)
	r.Get("/requests/sent", h.listSent)
	r.Post("/{friendshipID}/accept", h.acceptRequest)
	r.Post("/{friendshipID}/decline", h.declineRequest)
	r.Post("/{friendshipID}/block", h.blockUser)
	r.Delete("/{friendshipID}", h.removeFriend)
	r.Get("/status/{userID}", h.getStatus)
}

type sendFriendRequestPayload struct {
	AddresseeID string `json:"addressee_id"`
}

func (h *FriendHandler) sendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload sendFriendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if payload.AddresseeID == "" {
		common.RespondWithError(w, http.StatusBadRequest, "addressee_id is required")
		return
	}

	friendship, err := h.friendService.SendRequest(r.Context(), userID, payload.AddresseeID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, friendship)
}

func (h *FriendHandler) acceptRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.friendService.AcceptRequest)
}

func (h *FriendHandler) declineRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.friendService.DeclineRequest)
}

func (h *FriendHandler) blockUser(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.friendService.BlockUser)
}

// transition is the shared shape of accept/decline/block: the caller acts on
// a friendship row identified by path param.
func (h *FriendHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, friendshipID, callerID string) (*model.Friendship, error),
) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	friendship, err := fn(r.Context(), chi.URLParam(r, "friendshipID"), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, friendship)
}

func (h *FriendHandler) removeFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := h.friendService.RemoveFriend(r.Context(), chi.URLParam(r, "friendshipID"), userID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// getStatus reports the relationship between the caller and another user.
// "none" means no row exists in either direction.
func (h *FriendHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	friendship, err := h.friendService.GetFriendshipStatus(r.Context(), userID, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if friendship == nil {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "none"})
		return
	}
	common.RespondWithJSON(w, http.StatusOK, friendship)
}

func (h *FriendHandler) listFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) listIncoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	requests, err := h.friendService.ListIncomingRequests(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, requests)
}

func (h *FriendHandler) listSent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	requests, err := h.friendService.ListSentRequests(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, requests)
}
