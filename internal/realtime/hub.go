// Package realtime доставляет события подключённым по websocket пользователям.
package realtime

import (
	"context"
	"sync"

	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/UkralStul/video-social-service/internal/metrics"
)

// Message - кадр, отправляемый клиенту.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher передаёт событие другим экземплярам сервиса.
type Publisher interface {
	Publish(ctx context.Context, userID, event string, payload any) error
}

// Hub хранит соединения, сгруппированные по ID пользователя.
// Один пользователь может держать несколько соединений (вкладки, устройства).
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	closed bool

	relay Publisher
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// SetRelay подключает межэкземплярную доставку. Вызывается до старта сервера.
func (h *Hub) SetRelay(p Publisher) {
	h.relay = p
}

func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	metrics.WSConnectionsActive.Inc()

	logging.Debug().Str("user_id", c.userID).Int("connections", len(room)).Msg("websocket client connected")
	return true
}

// Unregister удаляет клиента и закрывает его очередь. Повторный вызов ничего не делает.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room, ok := h.rooms[c.userID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.userID)
	}
	close(c.send)
	metrics.WSConnectionsActive.Dec()

	logging.Debug().Str("user_id", c.userID).Msg("websocket client disconnected")
}

// Route сообщает, есть ли у пользователя соединение с этим экземпляром.
func (h *Hub) Route(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID]) > 0
}

// Push доставляет событие всем соединениям пользователя и, если подключён relay,
// остальным экземплярам. Никогда не блокируется на медленном клиенте.
func (h *Hub) Push(ctx context.Context, userID, event string, payload any) bool {
	delivered := h.deliverLocal(userID, Message{Type: event, Data: payload})
	if h.relay == nil {
		if !delivered {
			metrics.RecordPush(metrics.PushOffline)
		}
		return delivered
	}

	if err := h.relay.Publish(ctx, userID, event, payload); err != nil {
		metrics.RecordPush(metrics.PushFailed)
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("relay publish failed")
		return delivered
	}
	metrics.RecordPush(metrics.PushRelayed)
	return true
}

// deliverLocal кладёт сообщение в очереди клиентов. Переполненная очередь - событие теряется.
func (h *Hub) deliverLocal(userID string, msg Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for c := range h.rooms[userID] {
		select {
		case c.send <- msg:
			delivered = true
			metrics.RecordPush(metrics.PushDelivered)
		default:
			metrics.RecordPush(metrics.PushDropped)
			logging.Warn().Str("user_id", userID).Str("event", msg.Type).Msg("client send queue full, dropping event")
		}
	}
	return delivered
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Serve ждёт отмены контекста и закрывает все соединения. Подходит для suture.
func (h *Hub) Serve(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	count := 0
	for _, room := range h.rooms {
		for c := range room {
			h.removeLocked(c)
			count++
		}
	}
	h.mu.Unlock()

	logging.Info().Str("component", "websocket-hub").Int("clients_closed", count).Msg("websocket hub stopped")
	return ctx.Err()
}

func (h *Hub) String() string { return "websocket-hub" }
