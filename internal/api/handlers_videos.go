package api

import (
	"net/http"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/service"
	"github.com/go-chi/chi/v5"
)

type createVideoRequest struct {
	Title         string   `json:"title" validate:"required,max=255"`
	Description   string   `json:"description" validate:"max=5000"`
	Tags          []string `json:"tags" validate:"max=20,dive,max=50"`
	VideoURL      string   `json:"videoUrl" validate:"required,url"`
	ThumbnailURL  string   `json:"thumbnailUrl" validate:"omitempty,url"`
	Duration      float64  `json:"duration" validate:"gte=0"`
	PrivacyStatus string   `json:"privacyStatus" validate:"omitempty,oneof=public private follower"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type reactionRequest struct {
	Type string `json:"type" validate:"required,oneof=like love haha angry sad"`
}

type privacyRequest struct {
	PrivacyStatus string `json:"privacyStatus" validate:"required,oneof=public private follower"`
}

func (h *handler) createVideo(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req createVideoRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	video, err := h.svc.CreateVideo(r.Context(), &domain.Video{
		OwnerID:       actor,
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
		VideoURL:      req.VideoURL,
		ThumbnailURL:  req.ThumbnailURL,
		Duration:      req.Duration,
		PrivacyStatus: domain.PrivacyStatus(req.PrivacyStatus),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Video uploaded successfully", "video": video})
}

func (h *handler) postComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.svc.PostComment(r.Context(), actor, chi.URLParam(r, "videoId"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Comment created successfully", "comment": comment})
}

func (h *handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListVideoComments(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Comments fetched successfully", "comments": comments})
}

func (h *handler) editComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.svc.EditComment(r.Context(), actor, chi.URLParam(r, "commentId"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Comment/reply updated successfully", "comment": comment})
}

func (h *handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	if err := h.svc.DeleteComment(r.Context(), actor, chi.URLParam(r, "commentId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Comment/reply deleted successfully")
}

func (h *handler) postReply(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.svc.PostReply(r.Context(), actor, chi.URLParam(r, "commentId"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Reply added successfully", "reply": reply})
}

func (h *handler) toggleCommentLike(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	res, comment, err := h.svc.ToggleCommentLike(r.Context(), actor, chi.URLParam(r, "commentId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "Liked comment"
	if res == service.Unliked {
		msg = "Unliked comment"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "result": res, "likes": len(comment.Likes)})
}

func (h *handler) toggleReaction(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req reactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, video, err := h.svc.ToggleVideoReaction(r.Context(), actor, chi.URLParam(r, "videoId"), domain.ReactionType(req.Type))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Reaction " + string(res),
		"result":        res,
		"reactionCount": video.ReactionCount,
		"reactions":     video.Reactions,
	})
}

func (h *handler) toggleSave(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	res, err := h.svc.ToggleSave(r.Context(), actor, chi.URLParam(r, "videoId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Video " + string(res), "result": res})
}

func (h *handler) updatePrivacy(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req privacyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	video, err := h.svc.UpdatePrivacy(r.Context(), actor, chi.URLParam(r, "videoId"), domain.PrivacyStatus(req.PrivacyStatus))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Privacy status updated successfully", "video": video})
}

func (h *handler) deleteVideo(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	if err := h.svc.DeleteVideo(r.Context(), actor, chi.URLParam(r, "videoId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Video deleted successfully")
}
