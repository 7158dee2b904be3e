package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/storage"
)

// ToggleFollow подписывает actor на target или отписывает, если подписка уже есть.
// Оба ребра и уведомление о подписке фиксируются одним набором изменений.
func (s *Service) ToggleFollow(ctx context.Context, actorID, targetID string) (FollowResult, error) {
	if actorID == targetID {
		return "", domain.ErrSelfFollow
	}

	var (
		result FollowResult
		cs     *storage.Changeset
	)
	err := s.mutate(ctx, "toggle_follow", []string{userKey(actorID), userKey(targetID)}, func() error {
		actor, err := s.store.GetUserByID(ctx, actorID)
		if err != nil {
			return err
		}
		target, err := s.store.GetUserByID(ctx, targetID)
		if err != nil {
			return err
		}

		cs = &storage.Changeset{}
		// Половинчатое состояние тоже считается подпиской и снимается целиком.
		if slices.Contains(actor.Following, targetID) || slices.Contains(target.Followers, actorID) {
			actor.Following = without(actor.Following, targetID)
			target.Followers = without(target.Followers, actorID)
			result = Unfollowed
		} else {
			actor.Following = append(actor.Following, targetID)
			target.Followers = append(target.Followers, actorID)
			result = Followed
			cs.Notify(s.prepare(targetID, actorID, domain.NotificationFollow, Refs{},
				fmt.Sprintf("%s has followed you.", actor.Username)))
		}
		cs.UpdateUser(actor, target)
		return s.store.Apply(ctx, cs)
	})
	if err != nil {
		return "", err
	}

	s.Dispatch(ctx, cs)
	return result, nil
}

// RemoveFollower удаляет followerID из подписчиков owner. Ребро снимается с обеих сторон.
func (s *Service) RemoveFollower(ctx context.Context, ownerID, followerID string) error {
	return s.mutate(ctx, "remove_follower", []string{userKey(ownerID), userKey(followerID)}, func() error {
		owner, err := s.store.GetUserByID(ctx, ownerID)
		if err != nil {
			return err
		}
		if !slices.Contains(owner.Followers, followerID) {
			return domain.ErrNotFollower
		}
		owner.Followers = without(owner.Followers, followerID)

		cs := (&storage.Changeset{}).UpdateUser(owner)
		if follower, err := s.store.GetUserByID(ctx, followerID); err == nil {
			follower.Following = without(follower.Following, ownerID)
			cs.UpdateUser(follower)
		} else if !isNotFound(err) {
			return err
		}
		return s.store.Apply(ctx, cs)
	})
}

// RemoveFollowing отписывает owner от followingID. Ребро снимается с обеих сторон.
func (s *Service) RemoveFollowing(ctx context.Context, ownerID, followingID string) error {
	return s.mutate(ctx, "remove_following", []string{userKey(ownerID), userKey(followingID)}, func() error {
		owner, err := s.store.GetUserByID(ctx, ownerID)
		if err != nil {
			return err
		}
		if !slices.Contains(owner.Following, followingID) {
			return domain.ErrNotFollowing
		}
		owner.Following = without(owner.Following, followingID)

		cs := (&storage.Changeset{}).UpdateUser(owner)
		if followed, err := s.store.GetUserByID(ctx, followingID); err == nil {
			followed.Followers = without(followed.Followers, ownerID)
			cs.UpdateUser(followed)
		} else if !isNotFound(err) {
			return err
		}
		return s.store.Apply(ctx, cs)
	})
}

func (s *Service) ListFollowers(ctx context.Context, userID string) ([]*domain.UserSummary, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, user.Followers)
}

func (s *Service) ListFollowing(ctx context.Context, userID string) ([]*domain.UserSummary, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, user.Following)
}

// summaries сохраняет порядок ids и пропускает удалённых пользователей.
func (s *Service) summaries(ctx context.Context, ids []string) ([]*domain.UserSummary, error) {
	found, err := s.loaders(ctx).UserSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := found[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// FollowedUsersFeed - ролики подписок (public и follower) и все собственные ролики, новые первыми.
func (s *Service) FollowedUsersFeed(ctx context.Context, userID string) ([]*domain.FeedItem, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	videos, err := s.store.FindFeedVideos(ctx, storage.FeedQuery{
		ViewerID: userID,
		OwnerIDs: user.Following,
		Visible:  []domain.PrivacyStatus{domain.PrivacyPublic, domain.PrivacyFollower},
	})
	if err != nil {
		return nil, err
	}

	owners := make([]string, 0, len(videos))
	for _, v := range videos {
		owners = append(owners, v.OwnerID)
	}
	ownerInfo, err := s.loaders(ctx).UserSummaries(ctx, owners)
	if err != nil {
		return nil, err
	}

	feed := make([]*domain.FeedItem, 0, len(videos))
	for _, v := range videos {
		feed = append(feed, &domain.FeedItem{Video: v, Owner: ownerInfo[v.OwnerID]})
	}
	return feed, nil
}

// ListUserVideos - ролики ownerID, которые видит viewerID: владелец видит все,
// подписчик - public и follower, остальные - только public.
func (s *Service) ListUserVideos(ctx context.Context, viewerID, ownerID string) ([]*domain.Video, error) {
	owner, err := s.store.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	q := storage.FeedQuery{
		OwnerIDs: []string{owner.ID},
		Visible:  []domain.PrivacyStatus{domain.PrivacyPublic},
	}
	switch {
	case viewerID == owner.ID:
		q.ViewerID = viewerID
	case slices.Contains(owner.Followers, viewerID):
		q.Visible = append(q.Visible, domain.PrivacyFollower)
	}
	return s.store.FindFeedVideos(ctx, q)
}

// DeleteAccount удаляет пользователя и снимает все рёбра, указывающие на него.
func (s *Service) DeleteAccount(ctx context.Context, actorID string) error {
	user, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}

	keys := []string{userKey(actorID)}
	for _, id := range user.Followers {
		keys = append(keys, userKey(id))
	}
	for _, id := range user.Following {
		keys = append(keys, userKey(id))
	}

	return s.mutate(ctx, "delete_account", keys, func() error {
		user, err := s.store.GetUserByID(ctx, actorID)
		if err != nil {
			return err
		}

		related := make(map[string]*domain.User)
		load := func(id string) (*domain.User, error) {
			if u, ok := related[id]; ok {
				return u, nil
			}
			u, err := s.store.GetUserByID(ctx, id)
			if err != nil {
				return nil, err
			}
			related[id] = u
			return u, nil
		}

		cs := &storage.Changeset{}
		for _, id := range append(slices.Clone(user.Followers), user.Following...) {
			if id == actorID {
				continue
			}
			u, err := load(id)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			u.Following = without(u.Following, actorID)
			u.Followers = without(u.Followers, actorID)
		}
		for _, u := range related {
			cs.UpdateUser(u)
		}
		// Версия удаляемого пользователя тоже проверяется: новая подписка на него
		// в процессе удаления приведёт к повтору, а не к висячему ребру.
		cs.UpdateUser(user).DeleteUser(actorID)
		return s.store.Apply(ctx, cs)
	})
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}

func isNotFound(err error) bool {
	return err != nil && domain.KindOf(err) == domain.KindNotFound
}
