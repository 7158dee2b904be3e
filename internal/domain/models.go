package domain

import (
	"slices"
	"time"
)

// PrivacyStatus определяет, кому виден ролик.
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyPrivate  PrivacyStatus = "private"
	PrivacyFollower PrivacyStatus = "follower"
)

// Valid сообщает, является ли статус допустимым.
func (p PrivacyStatus) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyFollower:
		return true
	}
	return false
}

// ReactionType - тип реакции на видео.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionAngry ReactionType = "angry"
	ReactionSad   ReactionType = "sad"
)

func (r ReactionType) Valid() bool {
	switch r {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionAngry, ReactionSad:
		return true
	}
	return false
}

// NotificationType - тип уведомления.
type NotificationType string

const (
	NotificationComment NotificationType = "comment"
	NotificationReply   NotificationType = "reply"
	NotificationLike    NotificationType = "like"
	NotificationFollow  NotificationType = "follow"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationComment, NotificationReply, NotificationLike, NotificationFollow:
		return true
	}
	return false
}

// WatchEntry - запись истории просмотров пользователя.
type WatchEntry struct {
	VideoID       string    `json:"videoId"`
	LastWatchedAt time.Time `json:"lastWatchedAt"`
}

// User представляет пользователя. Связи хранятся только как ID.
type User struct {
	ID            string       `json:"id" gorm:"type:uuid;primary_key"`
	Username      string       `json:"username" gorm:"type:varchar(255);not null;uniqueIndex"`
	Email         string       `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Bio           string       `json:"bio" gorm:"type:text"`
	ProfilePhoto  string       `json:"profilePhoto" gorm:"type:varchar(1024)"`
	Followers     []string     `json:"followers" gorm:"type:jsonb;serializer:json;not null"`
	Following     []string     `json:"following" gorm:"type:jsonb;serializer:json;not null"`
	SavedVideos   []string     `json:"savedVideos" gorm:"type:jsonb;serializer:json;not null"`
	WatchedVideos []WatchEntry `json:"watchedVideos" gorm:"type:jsonb;serializer:json;not null"`
	Version       int64        `json:"-" gorm:"not null;default:0"`
	CreatedAt     time.Time    `json:"createdAt" gorm:"not null"`
	UpdatedAt     time.Time    `json:"updatedAt" gorm:"not null"`
}

// Clone возвращает копию без общих срезов.
func (u *User) Clone() *User {
	c := *u
	c.Followers = slices.Clone(u.Followers)
	c.Following = slices.Clone(u.Following)
	c.SavedVideos = slices.Clone(u.SavedVideos)
	c.WatchedVideos = slices.Clone(u.WatchedVideos)
	return &c
}

// Summary - облегчённое представление для списков.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Username: u.Username, ProfilePhoto: u.ProfilePhoto}
}

// Reaction - реакция одного пользователя на видео.
type Reaction struct {
	UserID    string       `json:"userId"`
	Type      ReactionType `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Video представляет загруженный ролик.
type Video struct {
	ID            string        `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID       string        `json:"ownerId" gorm:"type:uuid;not null;index"`
	Title         string        `json:"title" gorm:"type:varchar(255)"`
	Description   string        `json:"description" gorm:"type:text;not null"`
	Tags          []string      `json:"tags" gorm:"type:jsonb;serializer:json;not null"`
	CategoryID    *string       `json:"categoryId,omitempty" gorm:"type:uuid"`
	VideoURL      string        `json:"videoUrl" gorm:"type:varchar(1024)"`
	ThumbnailURL  string        `json:"thumbnailUrl" gorm:"type:varchar(1024)"`
	Duration      float64       `json:"duration" gorm:"not null;default:0"`
	Comments      []string      `json:"comments" gorm:"type:jsonb;serializer:json;not null"`
	Reactions     []Reaction    `json:"reactions" gorm:"type:jsonb;serializer:json;not null"`
	ReactionCount int           `json:"reactionCount" gorm:"not null;default:0"`
	PrivacyStatus PrivacyStatus `json:"privacyStatus" gorm:"type:varchar(16);not null;default:'public';index"`
	Views         int64         `json:"views" gorm:"not null;default:0"`
	Version       int64         `json:"-" gorm:"not null;default:0"`
	CreatedAt     time.Time     `json:"createdAt" gorm:"not null;index"`
}

func (v *Video) Clone() *Video {
	c := *v
	c.Tags = slices.Clone(v.Tags)
	c.Comments = slices.Clone(v.Comments)
	c.Reactions = slices.Clone(v.Reactions)
	if v.CategoryID != nil {
		id := *v.CategoryID
		c.CategoryID = &id
	}
	return &c
}

func (v *Video) Summary() *VideoSummary {
	return &VideoSummary{ID: v.ID, Title: v.Title, ThumbnailURL: v.ThumbnailURL}
}

// Comment - комментарий к видео. Ответы - тоже комментарии с ParentID.
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;index"`
	VideoID   string    `json:"videoId" gorm:"type:uuid;not null;index"`
	ParentID  *string   `json:"parentId,omitempty" gorm:"type:uuid;index"`
	Text      string    `json:"text" gorm:"type:varchar(2000);not null"`
	Likes     []string  `json:"likes" gorm:"type:jsonb;serializer:json;not null"`
	Replies   []string  `json:"replies" gorm:"type:jsonb;serializer:json;not null"`
	Version   int64     `json:"-" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

func (c *Comment) Clone() *Comment {
	cp := *c
	cp.Likes = slices.Clone(c.Likes)
	cp.Replies = slices.Clone(c.Replies)
	if c.ParentID != nil {
		id := *c.ParentID
		cp.ParentID = &id
	}
	return &cp
}

// IsReply сообщает, является ли комментарий ответом.
func (c *Comment) IsReply() bool { return c.ParentID != nil }

func (c *Comment) Summary() *CommentSummary {
	return &CommentSummary{ID: c.ID, Text: c.Text}
}

// Notification - уведомление. После создания меняется только IsRead.
type Notification struct {
	ID          string           `json:"id" gorm:"type:uuid;primary_key"`
	RecipientID string           `json:"recipient" gorm:"type:uuid;not null;index"`
	SenderID    string           `json:"sender" gorm:"type:uuid;not null"`
	Type        NotificationType `json:"type" gorm:"type:varchar(16);not null"`
	VideoID     *string          `json:"video,omitempty" gorm:"type:uuid"`
	CommentID   *string          `json:"comment,omitempty" gorm:"type:uuid"`
	Message     string           `json:"message,omitempty" gorm:"type:text"`
	IsRead      bool             `json:"isRead" gorm:"not null;default:false"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"not null;index"`
}

func (n *Notification) Clone() *Notification {
	c := *n
	if n.VideoID != nil {
		id := *n.VideoID
		c.VideoID = &id
	}
	if n.CommentID != nil {
		id := *n.CommentID
		c.CommentID = &id
	}
	return &c
}

// === Проекции для ответов API ===

type UserSummary struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

type VideoSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type CommentSummary struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// NotificationView - уведомление с разрешёнными ссылками.
type NotificationView struct {
	*Notification
	Sender  *UserSummary    `json:"senderInfo,omitempty"`
	Video   *VideoSummary   `json:"videoInfo,omitempty"`
	Comment *CommentSummary `json:"commentInfo,omitempty"`
}

// CommentView - комментарий с автором и ответами.
type CommentView struct {
	*Comment
	Author *UserSummary   `json:"author,omitempty"`
	Thread []*CommentView `json:"thread,omitempty"`
}

// FeedItem - видео ленты вместе с автором.
type FeedItem struct {
	*Video
	Owner *UserSummary `json:"owner,omitempty"`
}
