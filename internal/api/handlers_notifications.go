package api

import (
	"net/http"
	"strconv"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/service"
	"github.com/UkralStul/video-social-service/internal/storage"
	"github.com/go-chi/chi/v5"
)

// maxPageSize ограничивает limit в списке уведомлений.
const maxPageSize = 100

type notificationRequest struct {
	Recipient string  `json:"recipient" validate:"required,uuid"`
	Type      string  `json:"type" validate:"required,oneof=like comment reply follow"`
	Video     *string `json:"video" validate:"omitempty,uuid"`
	Comment   *string `json:"comment" validate:"omitempty,uuid"`
	Message   string  `json:"message" validate:"max=500"`
}

func (h *handler) createNotification(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req notificationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.svc.Notify(r.Context(), req.Recipient, actor, domain.NotificationType(req.Type),
		service.Refs{VideoID: req.Video, CommentID: req.Comment}, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if n == nil {
		writeMessage(w, http.StatusOK, "Notification to self suppressed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Notification created successfully", "notification": n})
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	args, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.svc.ListForUser(r.Context(), actor, args)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body := map[string]any{"message": "Notifications fetched successfully", "notifications": list}
	if args.Limit > 0 && len(list) == args.Limit {
		body["nextCursor"] = list[len(list)-1].ID
	}
	writeJSON(w, http.StatusOK, body)
}

func pagination(r *http.Request) (storage.PaginationArgs, error) {
	var args storage.PaginationArgs
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageSize {
			return args, domain.Validation("limit must be between 1 and 100")
		}
		args.Limit = limit
	}
	if cursor := q.Get("cursor"); cursor != "" {
		args.Cursor = &cursor
	}
	return args, nil
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	n, err := h.svc.MarkRead(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Notification marked as read", "notification": n})
}

func (h *handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	if err := h.svc.DeleteNotification(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification deleted successfully")
}
