package realtime

import (
	"net/http"

	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/gorilla/websocket"
)

// TokenVerifier извлекает ID пользователя из токена доступа.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ServeWS поднимает websocket-соединение. Токен передаётся в query-параметре token,
// так как браузерный WebSocket не умеет задавать заголовки.
func ServeWS(hub *Hub, verifier TokenVerifier, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := verifier.Verify(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, `{"message":"Not authorized, token failed"}`, http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := NewClient(hub, conn, userID)
		if !hub.Register(client) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			_ = conn.Close()
			return
		}
		client.Start()
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
