package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"
)

// envelope - событие в пути между экземплярами.
type envelope struct {
	Origin  string          `json:"origin"`
	UserID  string          `json:"userId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// RelayConfig - параметры межэкземплярной доставки.
type RelayConfig struct {
	// Prefix - префикс темы NATS, полная тема: <Prefix>.<userID>
	Prefix string
	// MaxFailures подряд открывают breaker.
	MaxFailures uint32
	// OpenTimeout - сколько breaker остаётся открытым.
	OpenTimeout time.Duration
}

// Relay пересылает push-события через NATS, чтобы их получили соединения на других экземплярах.
type Relay struct {
	nc      *nats.Conn
	hub     *Hub
	origin  string
	prefix  string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewRelay(nc *nats.Conn, hub *Hub, cfg RelayConfig) *Relay {
	if cfg.Prefix == "" {
		cfg.Prefix = "notifications"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "nats-relay",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Relay{
		nc:      nc,
		hub:     hub,
		origin:  uuid.NewString(),
		prefix:  strings.TrimSuffix(cfg.Prefix, "."),
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Publish отправляет событие остальным экземплярам. При открытом breaker сразу возвращает ошибку.
func (r *Relay) Publish(ctx context.Context, userID, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	data, err := json.Marshal(envelope{Origin: r.origin, UserID: userID, Event: event, Payload: raw})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	_, err = r.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, r.nc.Publish(r.subject(userID), data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("relay unavailable: %w", err)
	}
	return err
}

func (r *Relay) subject(userID string) string {
	return r.prefix + "." + userID
}

// handle доставляет чужое событие локальным соединениям.
func (r *Relay) handle(msg *nats.Msg) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		logging.Warn().Err(err).Str("subject", msg.Subject).Msg("invalid relay message")
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.hub.deliverLocal(env.UserID, Message{Type: env.Event, Data: env.Payload})
}

// Serve подписывается на события и работает до отмены контекста.
func (r *Relay) Serve(ctx context.Context) error {
	sub, err := r.nc.Subscribe(r.prefix+".*", r.handle)
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	logging.Info().Str("subject", sub.Subject).Msg("notification relay started")

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		logging.Warn().Err(err).Msg("relay unsubscribe failed")
	}
	return ctx.Err()
}

// State возвращает состояние breaker для /healthz.
func (r *Relay) State() string {
	return r.breaker.State().String()
}

func (r *Relay) String() string { return "nats-relay" }
