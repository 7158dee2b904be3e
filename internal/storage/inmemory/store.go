package inmemory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu              sync.RWMutex
	users           map[string]*domain.User
	videos          map[string]*domain.Video
	comments        map[string]*domain.Comment
	notifications   map[string]*domain.Notification
	commentsByVideo map[string][]string // map[videoID][]commentID, включая ответы
	notifsByUser    map[string][]string // map[recipientID][]notificationID в порядке создания
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:           make(map[string]*domain.User),
		videos:          make(map[string]*domain.Video),
		comments:        make(map[string]*domain.Comment),
		notifications:   make(map[string]*domain.Notification),
		commentsByVideo: make(map[string][]string),
		notifsByUser:    make(map[string][]string),
	}
}

var _ storage.Storage = (*Store)(nil)

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Те же уникальные ключи, что и uniqueIndex в схеме postgres
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.Duplicate("User")
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user.Clone()
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.NotFound("user", id)
	}
	return user.Clone(), nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = u.Clone()
		}
	}
	return result, nil
}

// === Video Methods ===

func (s *Store) CreateVideo(ctx context.Context, video *domain.Video) (*domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[video.OwnerID]; !ok {
		return nil, domain.NotFound("user", video.OwnerID)
	}
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	if video.PrivacyStatus == "" {
		video.PrivacyStatus = domain.PrivacyPublic
	}
	video.CreatedAt = time.Now().UTC()
	s.videos[video.ID] = video.Clone()
	return video, nil
}

func (s *Store) GetVideoByID(ctx context.Context, id string) (*domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return nil, domain.NotFound("video", id)
	}
	return video.Clone(), nil
}

func (s *Store) GetVideosByIDs(ctx context.Context, ids []string) (map[string]*domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Video, len(ids))
	for _, id := range ids {
		if v, ok := s.videos[id]; ok {
			result[id] = v.Clone()
		}
	}
	return result, nil
}

func (s *Store) FindFeedVideos(ctx context.Context, q storage.FeedQuery) ([]*domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Video, 0)
	for _, v := range s.videos {
		own := q.ViewerID != "" && v.OwnerID == q.ViewerID
		followed := slices.Contains(q.OwnerIDs, v.OwnerID) && slices.Contains(q.Visible, v.PrivacyStatus)
		if own || followed {
			result = append(result, v.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// === Comment Methods ===

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, domain.NotFound("comment", id)
	}
	return comment.Clone(), nil
}

func (s *Store) GetCommentsByIDs(ctx context.Context, ids []string) (map[string]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Comment, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			result[id] = c.Clone()
		}
	}
	return result, nil
}

// GetCommentsByVideoID возвращает все комментарии ролика (вместе с ответами) в порядке создания.
func (s *Store) GetCommentsByVideoID(ctx context.Context, videoID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.commentsByVideo[videoID]
	result := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			result = append(result, c.Clone())
		}
	}
	return result, nil
}

// === Notification Methods ===

func (s *Store) GetNotificationByID(ctx context.Context, id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, domain.NotFound("notification", id)
	}
	return n.Clone(), nil
}

// GetNotificationsByRecipient возвращает уведомления новыми первыми.
// Cursor - ID последнего уведомления предыдущей страницы; неизвестный курсор даёт пустую страницу.
func (s *Store) GetNotificationsByRecipient(ctx context.Context, recipientID string, args storage.PaginationArgs) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.Notification, 0, len(s.notifsByUser[recipientID]))
	for _, id := range s.notifsByUser[recipientID] {
		list = append(list, s.notifications[id])
	}
	slices.SortFunc(list, storage.NewestFirst)

	start := 0
	if args.Cursor != nil {
		idx := slices.IndexFunc(list, func(n *domain.Notification) bool { return n.ID == *args.Cursor })
		if idx == -1 {
			return []*domain.Notification{}, nil
		}
		start = idx + 1
	}

	result := make([]*domain.Notification, 0)
	for _, n := range list[start:] {
		if args.Limit > 0 && len(result) >= args.Limit {
			break
		}
		result = append(result, n.Clone())
	}
	return result, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, domain.NotFound("notification", id)
	}
	n.IsRead = true
	return n.Clone(), nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return domain.NotFound("notification", id)
	}
	delete(s.notifications, id)
	s.notifsByUser[n.RecipientID] = removeID(s.notifsByUser[n.RecipientID], id)
	return nil
}

// === Changeset ===

// Apply сначала проверяет версии всех обновляемых сущностей и только потом пишет.
func (s *Store) Apply(ctx context.Context, cs *storage.Changeset) error {
	if err := ctx.Err(); err != nil {
		return domain.Unavailable("apply changeset", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range cs.Users {
		cur, ok := s.users[u.ID]
		if !ok || cur.Version != u.Version {
			return domain.Conflict("user", u.ID)
		}
	}
	for _, v := range cs.Videos {
		cur, ok := s.videos[v.ID]
		if !ok || cur.Version != v.Version {
			return domain.Conflict("video", v.ID)
		}
	}
	for _, c := range cs.Comments {
		cur, ok := s.comments[c.ID]
		if !ok || cur.Version != c.Version {
			return domain.Conflict("comment", c.ID)
		}
	}

	now := time.Now().UTC()
	cs.BumpVersions()

	for _, u := range cs.Users {
		u.UpdatedAt = now
		s.users[u.ID] = u.Clone()
	}
	for _, v := range cs.Videos {
		s.videos[v.ID] = v.Clone()
	}
	for _, c := range cs.Comments {
		s.comments[c.ID] = c.Clone()
	}

	for _, c := range cs.NewComments {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = c.CreatedAt
		s.comments[c.ID] = c.Clone()
		s.commentsByVideo[c.VideoID] = append(s.commentsByVideo[c.VideoID], c.ID)
	}
	for _, n := range cs.NewNotifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		s.notifications[n.ID] = n.Clone()
		s.notifsByUser[n.RecipientID] = append(s.notifsByUser[n.RecipientID], n.ID)
	}

	for _, id := range cs.DeletedComments {
		c, ok := s.comments[id]
		if !ok {
			continue
		}
		delete(s.comments, id)
		s.commentsByVideo[c.VideoID] = removeID(s.commentsByVideo[c.VideoID], id)
	}
	for _, id := range cs.DeletedVideos {
		delete(s.videos, id)
		delete(s.commentsByVideo, id)
	}
	for _, id := range cs.DeletedUsers {
		delete(s.users, id)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}
