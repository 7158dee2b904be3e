package service

import (
	"context"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/UkralStul/video-social-service/internal/metrics"
	"github.com/UkralStul/video-social-service/internal/storage"
	"github.com/google/uuid"
)

// Refs - необязательные ссылки уведомления.
type Refs struct {
	VideoID   *string
	CommentID *string
}

// prepare строит уведомление или возвращает nil, если получатель - сам отправитель.
func (s *Service) prepare(recipientID, senderID string, t domain.NotificationType, refs Refs, message string) *domain.Notification {
	if recipientID == senderID {
		return nil
	}
	return &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        t,
		VideoID:     refs.VideoID,
		CommentID:   refs.CommentID,
		Message:     message,
		CreatedAt:   s.now(),
	}
}

// Notify сохраняет уведомление и отправляет его получателю.
// Уведомление самому себе молча подавляется: (nil, nil).
func (s *Service) Notify(ctx context.Context, recipientID, senderID string, t domain.NotificationType, refs Refs, message string) (*domain.Notification, error) {
	if !t.Valid() {
		return nil, domain.Validation("invalid notification type")
	}
	n := s.prepare(recipientID, senderID, t, refs, message)
	if n == nil {
		return nil, nil
	}
	if _, err := s.store.GetUserByID(ctx, recipientID); err != nil {
		return nil, err
	}

	cs := (&storage.Changeset{}).Notify(n)
	if err := s.store.Apply(ctx, cs); err != nil {
		return nil, err
	}
	s.Dispatch(ctx, cs)
	return n, nil
}

// Dispatch отправляет уведомления уже применённого набора. Ошибки доставки только логируются.
func (s *Service) Dispatch(ctx context.Context, cs *storage.Changeset) {
	for _, n := range cs.NewNotifications {
		metrics.RecordNotification(string(n.Type))
		if s.channel == nil {
			continue
		}
		if !s.channel.Push(ctx, n.RecipientID, EventReceiveNotification, n) {
			logging.Ctx(ctx).Debug().
				Str("recipient", n.RecipientID).
				Str("notification_id", n.ID).
				Msg("notification not delivered in real time")
		}
	}
}

// ListForUser возвращает уведомления пользователя новыми первыми, со сводками ссылок.
func (s *Service) ListForUser(ctx context.Context, userID string, args storage.PaginationArgs) ([]*domain.NotificationView, error) {
	list, err := s.store.GetNotificationsByRecipient(ctx, userID, args)
	if err != nil {
		return nil, err
	}

	var senders, videos, comments []string
	for _, n := range list {
		senders = append(senders, n.SenderID)
		if n.VideoID != nil {
			videos = append(videos, *n.VideoID)
		}
		if n.CommentID != nil {
			comments = append(comments, *n.CommentID)
		}
	}

	l := s.loaders(ctx)
	senderInfo, err := l.UserSummaries(ctx, senders)
	if err != nil {
		return nil, err
	}
	videoInfo, err := l.VideoSummaries(ctx, videos)
	if err != nil {
		return nil, err
	}
	commentInfo, err := l.CommentSummaries(ctx, comments)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.NotificationView, 0, len(list))
	for _, n := range list {
		v := &domain.NotificationView{Notification: n, Sender: senderInfo[n.SenderID]}
		if n.VideoID != nil {
			v.Video = videoInfo[*n.VideoID]
		}
		if n.CommentID != nil {
			v.Comment = commentInfo[*n.CommentID]
		}
		views = append(views, v)
	}
	return views, nil
}

// MarkRead помечает уведомление прочитанным; повторный вызов ничего не меняет.
func (s *Service) MarkRead(ctx context.Context, actorID, notificationID string) (*domain.Notification, error) {
	if err := s.checkRecipient(ctx, actorID, notificationID); err != nil {
		return nil, err
	}
	return s.store.MarkNotificationRead(ctx, notificationID)
}

func (s *Service) DeleteNotification(ctx context.Context, actorID, notificationID string) error {
	if err := s.checkRecipient(ctx, actorID, notificationID); err != nil {
		return err
	}
	return s.store.DeleteNotification(ctx, notificationID)
}

// checkRecipient разрешает действие только получателю. Пустой actorID - внутренний вызов.
func (s *Service) checkRecipient(ctx context.Context, actorID, notificationID string) error {
	n, err := s.store.GetNotificationByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if actorID != "" && n.RecipientID != actorID {
		return domain.Forbidden("not authorized to modify this notification")
	}
	return nil
}
