package service

import (
	"context"
	"errors"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/UkralStul/video-social-service/internal/metrics"
	"github.com/cenkalti/backoff/v4"
)

// mutate захватывает ключи и выполняет attempt с повтором при конфликте версий.
// attempt должен каждый раз заново читать сущности.
func (s *Service) mutate(ctx context.Context, op string, keys []string, attempt func() error) error {
	unlock, err := s.locks.Lock(ctx, keys...)
	if err != nil {
		return domain.Unavailable("acquire lock", err)
	}
	defer unlock()

	return s.retryOnConflict(ctx, op, attempt)
}

func (s *Service) retryOnConflict(ctx context.Context, op string, attempt func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.opts.RetryInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.opts.MaxAttempts-1)), ctx)

	tries := 0
	err := backoff.Retry(func() error {
		tries++
		err := attempt()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrConflict) {
			metrics.RecordConflict(op)
			return err
		}
		return backoff.Permanent(err)
	}, b)

	if err != nil && errors.Is(err, domain.ErrConflict) {
		logging.Ctx(ctx).Warn().Str("operation", op).Int("attempts", tries).Err(err).Msg("giving up after conflicts")
	}
	return err
}
