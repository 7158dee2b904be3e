package storage

import "github.com/UkralStul/video-social-service/internal/domain"

// Changeset - единица работы для Apply.
//
// Обновляемые сущности несут Version, прочитанную вызывающим; после успешного
// Apply хранилище увеличивает Version в переданных объектах.
type Changeset struct {
	Users    []*domain.User
	Videos   []*domain.Video
	Comments []*domain.Comment

	NewComments      []*domain.Comment
	NewNotifications []*domain.Notification

	DeletedUsers    []string
	DeletedVideos   []string
	DeletedComments []string
}

func (cs *Changeset) UpdateUser(u ...*domain.User) *Changeset {
	cs.Users = append(cs.Users, u...)
	return cs
}

func (cs *Changeset) UpdateVideo(v ...*domain.Video) *Changeset {
	cs.Videos = append(cs.Videos, v...)
	return cs
}

func (cs *Changeset) UpdateComment(c ...*domain.Comment) *Changeset {
	cs.Comments = append(cs.Comments, c...)
	return cs
}

func (cs *Changeset) CreateComment(c *domain.Comment) *Changeset {
	cs.NewComments = append(cs.NewComments, c)
	return cs
}

// Notify добавляет уведомление; nil (подавленное уведомление) игнорируется.
func (cs *Changeset) Notify(n *domain.Notification) *Changeset {
	if n != nil {
		cs.NewNotifications = append(cs.NewNotifications, n)
	}
	return cs
}

func (cs *Changeset) DeleteUser(id string) *Changeset {
	cs.DeletedUsers = append(cs.DeletedUsers, id)
	return cs
}

func (cs *Changeset) DeleteVideo(id string) *Changeset {
	cs.DeletedVideos = append(cs.DeletedVideos, id)
	return cs
}

func (cs *Changeset) DeleteComment(ids ...string) *Changeset {
	cs.DeletedComments = append(cs.DeletedComments, ids...)
	return cs
}

// Empty сообщает, нечего ли применять.
func (cs *Changeset) Empty() bool {
	return len(cs.Users) == 0 && len(cs.Videos) == 0 && len(cs.Comments) == 0 &&
		len(cs.NewComments) == 0 && len(cs.NewNotifications) == 0 &&
		len(cs.DeletedUsers) == 0 && len(cs.DeletedVideos) == 0 && len(cs.DeletedComments) == 0
}

// BumpVersions вызывается хранилищами после успешной фиксации.
func (cs *Changeset) BumpVersions() {
	for _, u := range cs.Users {
		u.Version++
	}
	for _, v := range cs.Videos {
		v.Version++
	}
	for _, c := range cs.Comments {
		c.Version++
	}
}
