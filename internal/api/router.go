// Package api - HTTP-интерфейс сервиса поверх chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/video-social-service/internal/dataloader"
	"github.com/UkralStul/video-social-service/internal/realtime"
	"github.com/UkralStul/video-social-service/internal/service"
	"github.com/UkralStul/video-social-service/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger - зависимость, доступность которой показывает /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Issuer выпускает токен для только что зарегистрированного пользователя.
type Issuer interface {
	Issue(userID string) (string, error)
}

type Deps struct {
	Service  *service.Service
	Store    storage.Storage
	Hub      *realtime.Hub
	Verifier Verifier
	Issuer   Issuer
	// Relay необязателен, его состояние попадает в /healthz
	Relay       *realtime.Relay
	CORSOrigins []string
}

type handler struct {
	svc   *service.Service
	store storage.Storage
	hub   *realtime.Hub
	relay *realtime.Relay
	iss   Issuer
}

func NewRouter(d Deps) http.Handler {
	h := &handler{svc: d.Service, store: d.Store, hub: d.Hub, relay: d.Relay, iss: d.Issuer}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", realtime.ServeWS(d.Hub, d.Verifier, d.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.register)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(d.Verifier))
			r.Use(func(next http.Handler) http.Handler {
				return dataloader.Middleware(d.Store, next)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Delete("/", h.deleteAccount)
				r.Post("/follow/{userId}", h.toggleFollow)
				r.Delete("/remove-follower/{followerId}", h.removeFollower)
				r.Delete("/remove-following/{followingId}", h.removeFollowing)
				r.Get("/{userId}/followers", h.listFollowers)
				r.Get("/{userId}/following", h.listFollowing)
				r.Get("/{userId}/videos", h.listUserVideos)
				r.Post("/watch/{videoId}", h.watchVideo)
			})
			r.Get("/followed", h.followedFeed)

			r.Route("/videos", func(r chi.Router) {
				r.Post("/", h.createVideo)
				r.Route("/comments", func(r chi.Router) {
					r.Post("/{videoId}", h.postComment)
					r.Get("/{videoId}", h.listComments)
					r.Put("/{commentId}", h.editComment)
					r.Delete("/{commentId}", h.deleteComment)
					r.Post("/{commentId}/reply", h.postReply)
					r.Put("/{commentId}/like", h.toggleCommentLike)
				})
				r.Post("/{videoId}/reactions", h.toggleReaction)
				r.Post("/{videoId}/save", h.toggleSave)
				r.Put("/{videoId}/privacy", h.updatePrivacy)
				r.Delete("/{videoId}", h.deleteVideo)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Post("/", h.createNotification)
				r.Get("/", h.listNotifications)
				r.Patch("/{id}/read", h.markRead)
				r.Delete("/{id}", h.deleteNotification)
			})
		})
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{"status": "ok", "connections": h.hub.ClientCount()}
	status := http.StatusOK

	if p, ok := h.store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["storage"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if h.relay != nil {
		body["relay"] = h.relay.State()
	}
	writeJSON(w, status, body)
}
