package api

import (
	"net/http"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/service"
	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Bio      string `json:"bio" validate:"max=500"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), &domain.User{Username: req.Username, Email: req.Email, Bio: req.Bio})
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.iss.Issue(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (h *handler) toggleFollow(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	res, err := h.svc.ToggleFollow(r.Context(), actor, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "Successfully followed the user."
	if res == service.Unfollowed {
		msg = "Successfully unfollowed the user."
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "result": res})
}

func (h *handler) removeFollower(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	if err := h.svc.RemoveFollower(r.Context(), actor, chi.URLParam(r, "followerId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Follower removed successfully.")
}

func (h *handler) removeFollowing(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	if err := h.svc.RemoveFollowing(r.Context(), actor, chi.URLParam(r, "followingId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Unfollowed the user successfully.")
}

func (h *handler) listFollowers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListFollowers(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Followers fetched successfully", "followers": list})
}

func (h *handler) listFollowing(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListFollowing(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Following fetched successfully", "following": list})
}

func (h *handler) listUserVideos(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	videos, err := h.svc.ListUserVideos(r.Context(), actor, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Videos fetched successfully", "videos": videos})
}

func (h *handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	if err := h.svc.DeleteAccount(r.Context(), actor); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User profile deleted successfully", "userId": actor})
}

func (h *handler) watchVideo(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	counted, video, err := h.svc.WatchVideo(r.Context(), actor, chi.URLParam(r, "videoId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "Video already watched recently"
	if counted {
		msg = "Video view recorded"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "counted": counted, "views": video.Views})
}

func (h *handler) followedFeed(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	feed, err := h.svc.FollowedUsersFeed(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := "Videos from followed users fetched successfully."
	if len(feed) == 0 {
		msg = "No followed users"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "videos": feed})
}
