package storage

import (
	"context"
	"strings"

	"github.com/UkralStul/video-social-service/internal/domain"
)

// PaginationArgs - аргументы для пагинации. Limit <= 0 означает "без ограничения".
type PaginationArgs struct {
	Limit  int
	Cursor *string
}

// FeedQuery описывает выборку ленты подписок.
type FeedQuery struct {
	ViewerID string
	OwnerIDs []string
	Visible  []domain.PrivacyStatus
}

// Storage определяет контракт для хранилищ.
//
// Все Get-методы возвращают копии: изменения применяются только через Apply.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	CreateVideo(ctx context.Context, video *domain.Video) (*domain.Video, error)
	GetVideoByID(ctx context.Context, id string) (*domain.Video, error)
	// FindFeedVideos - ролики OwnerIDs с видимостью из Visible плюс все ролики ViewerID, новые первыми.
	FindFeedVideos(ctx context.Context, q FeedQuery) ([]*domain.Video, error)

	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	GetCommentsByVideoID(ctx context.Context, videoID string) ([]*domain.Comment, error)

	GetNotificationByID(ctx context.Context, id string) (*domain.Notification, error)
	GetNotificationsByRecipient(ctx context.Context, recipientID string, args PaginationArgs) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error)
	DeleteNotification(ctx context.Context, id string) error

	// Методы для Dataloader'ов
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	GetVideosByIDs(ctx context.Context, ids []string) (map[string]*domain.Video, error)
	GetCommentsByIDs(ctx context.Context, ids []string) (map[string]*domain.Comment, error)

	// Apply применяет набор изменений атомарно. Обновления условны по Version:
	// если хоть одна сущность изменилась с момента чтения, ничего не применяется
	// и возвращается ошибка вида domain.KindConflict.
	Apply(ctx context.Context, cs *Changeset) error
}

// NewestFirst задаёт порядок ленты уведомлений: по created_at по убыванию,
// при равном времени - по ID по убыванию. Курсор пагинации опирается на этот порядок.
func NewestFirst(a, b *domain.Notification) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(b.ID, a.ID)
}
