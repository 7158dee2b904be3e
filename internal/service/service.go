// Package service содержит бизнес-логику: граф подписок, вовлечённость и уведомления.
//
// Каждая составная мутация выполняется так: захват блокировок по ключам сущностей,
// чтение, изменение копий, атомарный Apply с проверкой версий, повтор при конфликте.
// Уведомления сохраняются в том же наборе изменений, что и породившее их действие,
// а push в реальном времени отправляется уже после фиксации.
package service

import (
	"context"
	"time"

	"github.com/UkralStul/video-social-service/internal/dataloader"
	"github.com/UkralStul/video-social-service/internal/lock"
	"github.com/UkralStul/video-social-service/internal/storage"
)

// EventReceiveNotification - имя события, которое получает клиент.
const EventReceiveNotification = "receiveNotification"

// Channel доставляет события подключённым пользователям. Возвращает false,
// если событие не доставлено ни одному соединению.
type Channel interface {
	Push(ctx context.Context, userID, event string, payload any) bool
}

// Options - настраиваемые параметры сервиса.
type Options struct {
	// MaxAttempts - число попыток при конфликте версий.
	MaxAttempts int
	// RetryInterval - начальная пауза между попытками.
	RetryInterval time.Duration
	// WatchCooldown - окно, в течение которого повторный просмотр не засчитывается.
	WatchCooldown time.Duration
	// Clock подменяется в тестах.
	Clock func() time.Time
}

func (o *Options) setDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 10 * time.Millisecond
	}
	if o.WatchCooldown <= 0 {
		o.WatchCooldown = 5 * time.Minute
	}
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
}

type Service struct {
	store   storage.Storage
	locks   lock.Locker
	channel Channel
	opts    Options
}

func New(store storage.Storage, locks lock.Locker, channel Channel, opts Options) *Service {
	opts.setDefaults()
	return &Service{store: store, locks: locks, channel: channel, opts: opts}
}

func (s *Service) now() time.Time { return s.opts.Clock() }

// loaders возвращает лоадеры запроса либо свежие, если вызов пришёл не из HTTP.
func (s *Service) loaders(ctx context.Context) *dataloader.Loaders {
	if l := dataloader.For(ctx); l != nil {
		return l
	}
	return dataloader.NewLoaders(s.store)
}

func userKey(id string) string    { return "user:" + id }
func videoKey(id string) string   { return "video:" + id }
func commentKey(id string) string { return "comment:" + id }
