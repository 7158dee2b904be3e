package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/storage"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string, debug bool) (*Store, error) {
	level := logger.Warn
	if debug {
		level = logger.Info // Включаем логирование SQL для отладки
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// Нарушение уникальности приходит как gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.User{}, &domain.Video{}, &domain.Comment{}, &domain.Notification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping проверяет доступность базы.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// wrap переводит ошибки GORM в ошибки домена.
func wrap(op, entity, id string, err error) error {
	var derr *domain.Error
	switch {
	case errors.As(err, &derr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(entity, id)
	default:
		return domain.Unavailable(op, err)
	}
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ensureID(&user.ID)
	normalizeUser(user)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.Duplicate("User")
		}
		return nil, domain.Unavailable("create user", err)
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.NotFound("user", id)
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrap("get user", "user", id, err)
	}
	return &user, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", validIDs(ids)).Find(&users).Error; err != nil {
		return nil, domain.Unavailable("get users", err)
	}
	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// === Video Methods ===

func (s *Store) CreateVideo(ctx context.Context, video *domain.Video) (*domain.Video, error) {
	if video.PrivacyStatus == "" {
		video.PrivacyStatus = domain.PrivacyPublic
	}
	ensureID(&video.ID)
	normalizeVideo(video)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&domain.User{}).Where("id = ?", video.OwnerID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return domain.NotFound("user", video.OwnerID)
		}
		return tx.Create(video).Error
	})
	if err != nil {
		return nil, wrap("create video", "video", video.ID, err)
	}
	return video, nil
}

func (s *Store) GetVideoByID(ctx context.Context, id string) (*domain.Video, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.NotFound("video", id)
	}
	var video domain.Video
	if err := s.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, wrap("get video", "video", id, err)
	}
	return &video, nil
}

func (s *Store) GetVideosByIDs(ctx context.Context, ids []string) (map[string]*domain.Video, error) {
	var videos []*domain.Video
	if err := s.db.WithContext(ctx).Where("id IN ?", validIDs(ids)).Find(&videos).Error; err != nil {
		return nil, domain.Unavailable("get videos", err)
	}
	result := make(map[string]*domain.Video, len(videos))
	for _, v := range videos {
		result[v.ID] = v
	}
	return result, nil
}

func (s *Store) FindFeedVideos(ctx context.Context, q storage.FeedQuery) ([]*domain.Video, error) {
	own := uuid.Validate(q.ViewerID) == nil
	owners := validIDs(q.OwnerIDs)
	followed := len(owners) > 0 && len(q.Visible) > 0

	query := s.db.WithContext(ctx)
	switch {
	case own && followed:
		query = query.Where("owner_id = ?", q.ViewerID).Or("owner_id IN ? AND privacy_status IN ?", owners, q.Visible)
	case own:
		query = query.Where("owner_id = ?", q.ViewerID)
	case followed:
		query = query.Where("owner_id IN ? AND privacy_status IN ?", owners, q.Visible)
	default:
		return []*domain.Video{}, nil
	}

	var videos []*domain.Video
	if err := query.Order("created_at DESC").Find(&videos).Error; err != nil {
		return nil, domain.Unavailable("find feed videos", err)
	}
	return videos, nil
}

// === Comment Methods ===

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.NotFound("comment", id)
	}
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, wrap("get comment", "comment", id, err)
	}
	return &comment, nil
}

func (s *Store) GetCommentsByIDs(ctx context.Context, ids []string) (map[string]*domain.Comment, error) {
	var comments []*domain.Comment
	if err := s.db.WithContext(ctx).Where("id IN ?", validIDs(ids)).Find(&comments).Error; err != nil {
		return nil, domain.Unavailable("get comments", err)
	}
	result := make(map[string]*domain.Comment, len(comments))
	for _, c := range comments {
		result[c.ID] = c
	}
	return result, nil
}

func (s *Store) GetCommentsByVideoID(ctx context.Context, videoID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, domain.Unavailable("get video comments", err)
	}
	return comments, nil
}

// === Notification Methods ===

func (s *Store) GetNotificationByID(ctx context.Context, id string) (*domain.Notification, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.NotFound("notification", id)
	}
	var n domain.Notification
	if err := s.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, wrap("get notification", "notification", id, err)
	}
	return &n, nil
}

// GetNotificationsByRecipient возвращает уведомления новыми первыми, порядок - storage.NewestFirst.
// Неизвестный или чужой курсор даёт пустую страницу.
func (s *Store) GetNotificationsByRecipient(ctx context.Context, recipientID string, args storage.PaginationArgs) ([]*domain.Notification, error) {
	notifications := make([]*domain.Notification, 0)
	if uuid.Validate(recipientID) != nil {
		return notifications, nil
	}

	query := s.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC")
	if args.Limit > 0 {
		query = query.Limit(args.Limit)
	}

	if args.Cursor != nil {
		if uuid.Validate(*args.Cursor) != nil {
			return notifications, nil
		}
		var cursor domain.Notification
		err := s.db.WithContext(ctx).First(&cursor, "id = ? AND recipient_id = ?", *args.Cursor, recipientID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notifications, nil
		}
		if err != nil {
			return nil, domain.Unavailable("list notifications", err)
		}
		// Строго после курсора в порядке (created_at, id); записи с тем же временем не теряются
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, domain.Unavailable("list notifications", err)
	}
	return notifications, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.NotFound("notification", id)
	}
	var n domain.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&n, "id = ?", id).Error; err != nil {
			return err
		}
		n.IsRead = true
		return tx.Model(&n).Update("is_read", true).Error
	})
	if err != nil {
		return nil, wrap("mark notification read", "notification", id, err)
	}
	return &n, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return domain.NotFound("notification", id)
	}
	res := s.db.WithContext(ctx).Delete(&domain.Notification{}, "id = ?", id)
	if res.Error != nil {
		return domain.Unavailable("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("notification", id)
	}
	return nil
}

// === Changeset ===

// Apply выполняет все изменения в одной транзакции. Обновление с устаревшей
// версией не затрагивает ни одной строки, и транзакция откатывается.
func (s *Store) Apply(ctx context.Context, cs *storage.Changeset) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range cs.Users {
			next := u.Clone()
			next.Version++
			normalizeUser(next)
			if err := casUpdate(tx, &domain.User{}, u.ID, u.Version, next, "user"); err != nil {
				return err
			}
		}
		for _, v := range cs.Videos {
			next := v.Clone()
			next.Version++
			normalizeVideo(next)
			if err := casUpdate(tx, &domain.Video{}, v.ID, v.Version, next, "video"); err != nil {
				return err
			}
		}
		for _, c := range cs.Comments {
			next := c.Clone()
			next.Version++
			normalizeComment(next)
			if err := casUpdate(tx, &domain.Comment{}, c.ID, c.Version, next, "comment"); err != nil {
				return err
			}
		}

		for _, c := range cs.NewComments {
			ensureID(&c.ID)
			normalizeComment(c)
			if err := tx.Create(c).Error; err != nil {
				return err
			}
		}
		for _, n := range cs.NewNotifications {
			ensureID(&n.ID)
		}
		if len(cs.NewNotifications) > 0 {
			if err := tx.Create(cs.NewNotifications).Error; err != nil {
				return err
			}
		}

		if len(cs.DeletedComments) > 0 {
			if err := tx.Delete(&domain.Comment{}, "id IN ?", cs.DeletedComments).Error; err != nil {
				return err
			}
		}
		if len(cs.DeletedVideos) > 0 {
			if err := tx.Delete(&domain.Video{}, "id IN ?", cs.DeletedVideos).Error; err != nil {
				return err
			}
		}
		if len(cs.DeletedUsers) > 0 {
			if err := tx.Delete(&domain.User{}, "id IN ?", cs.DeletedUsers).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrap("apply changeset", "", "", err)
	}
	cs.BumpVersions()
	return nil
}

func casUpdate(tx *gorm.DB, model any, id string, version int64, next any, entity string) error {
	res := tx.Model(model).
		Where("id = ? AND version = ?", id, version).
		Select("*").Omit("id", "created_at").
		Updates(next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Conflict(entity, id)
	}
	return nil
}

// validIDs отбрасывает строки, которые Postgres не примет как uuid.
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if uuid.Validate(id) == nil {
			out = append(out, id)
		}
	}
	return out
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Колонки jsonb объявлены NOT NULL, поэтому nil-срезы заменяются пустыми.

func normalizeUser(u *domain.User) {
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.SavedVideos == nil {
		u.SavedVideos = []string{}
	}
	if u.WatchedVideos == nil {
		u.WatchedVideos = []domain.WatchEntry{}
	}
}

func normalizeVideo(v *domain.Video) {
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if v.Comments == nil {
		v.Comments = []string{}
	}
	if v.Reactions == nil {
		v.Reactions = []domain.Reaction{}
	}
}

func normalizeComment(c *domain.Comment) {
	if c.Likes == nil {
		c.Likes = []string{}
	}
	if c.Replies == nil {
		c.Replies = []string{}
	}
}
