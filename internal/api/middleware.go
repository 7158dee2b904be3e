package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/UkralStul/video-social-service/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const actorKey contextKey = "actor"

// Verifier извлекает ID пользователя из токена.
type Verifier interface {
	Verify(token string) (string, error)
}

// ActorFrom возвращает ID аутентифицированного пользователя.
func ActorFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey).(string)
	return id, ok && id != ""
}

func withActor(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, actorKey, id)
	return logging.ContextWithUserID(ctx, id)
}

// Authenticate пропускает только запросы с действительным Bearer-токеном.
func Authenticate(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			userID, err := v.Verify(token)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
				writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), userID)))
		})
	}
}

// requestLogger пишет одну запись на запрос и обновляет HTTP-метрики.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, status, elapsed)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Msg("http request")
	})
}

// routePattern берёт шаблон маршрута chi, чтобы метки метрик не зависели от ID.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
