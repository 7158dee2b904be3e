package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticVerifier принимает токены вида "valid:<userID>".
type staticVerifier struct{}

func (staticVerifier) Verify(token string) (string, error) {
	if id, ok := strings.CutPrefix(token, "valid:"); ok && id != "" {
		return id, nil
	}
	return "", errors.New("bad token")
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestServeWS_DeliversPushedEvent(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(ServeWS(hub, staticVerifier{}, []string{"*"}))
	defer srv.Close()

	conn, _, err := dial(t, srv, "valid:u1")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Route("u1") }, time.Second, 5*time.Millisecond)
	require.True(t, hub.Push(context.Background(), "u1", "receiveNotification", map[string]string{"id": "n1"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)

	var frame struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "receiveNotification", frame.Type)
	assert.Equal(t, "n1", frame.Data["id"])
}

func TestServeWS_DisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(ServeWS(hub, staticVerifier{}, []string{"*"}))
	defer srv.Close()

	conn, _, err := dial(t, srv, "valid:u1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Route("u1") }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !hub.Route("u1") }, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_RejectsBadToken(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(ServeWS(hub, staticVerifier{}, []string{"*"}))
	defer srv.Close()

	_, resp, err := dial(t, srv, "nope")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))
}
