package service

import (
	"context"
	"slices"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/storage"
)

func (s *Service) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.Username == "" || user.Email == "" {
		return nil, domain.Validation("username and email are required")
	}
	return s.store.CreateUser(ctx, user)
}

func (s *Service) CreateVideo(ctx context.Context, video *domain.Video) (*domain.Video, error) {
	if video.PrivacyStatus != "" && !video.PrivacyStatus.Valid() {
		return nil, domain.Validation("invalid privacy status")
	}
	video.ReactionCount = len(video.Reactions)
	return s.store.CreateVideo(ctx, video)
}

// ToggleSave добавляет ролик в сохранённые или убирает его оттуда.
func (s *Service) ToggleSave(ctx context.Context, actorID, videoID string) (SaveResult, error) {
	var result SaveResult
	err := s.mutate(ctx, "toggle_save", []string{userKey(actorID)}, func() error {
		user, err := s.store.GetUserByID(ctx, actorID)
		if err != nil {
			return err
		}
		if _, err := s.store.GetVideoByID(ctx, videoID); err != nil {
			return err
		}

		if slices.Contains(user.SavedVideos, videoID) {
			user.SavedVideos = without(user.SavedVideos, videoID)
			result = Unsaved
		} else {
			user.SavedVideos = append(user.SavedVideos, videoID)
			result = Saved
		}
		return s.store.Apply(ctx, (&storage.Changeset{}).UpdateUser(user))
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// WatchVideo засчитывает просмотр, если пользователь не смотрел ролик в течение WatchCooldown.
// Возвращает true, если просмотр засчитан.
func (s *Service) WatchVideo(ctx context.Context, actorID, videoID string) (bool, *domain.Video, error) {
	var (
		counted bool
		video   *domain.Video
	)
	err := s.mutate(ctx, "watch_video", []string{userKey(actorID), videoKey(videoID)}, func() error {
		user, err := s.store.GetUserByID(ctx, actorID)
		if err != nil {
			return err
		}
		video, err = s.store.GetVideoByID(ctx, videoID)
		if err != nil {
			return err
		}

		now := s.now()
		idx := slices.IndexFunc(user.WatchedVideos, func(w domain.WatchEntry) bool { return w.VideoID == videoID })
		if idx != -1 && user.WatchedVideos[idx].LastWatchedAt.After(now.Add(-s.opts.WatchCooldown)) {
			counted = false
			return nil
		}

		if idx == -1 {
			user.WatchedVideos = append(user.WatchedVideos, domain.WatchEntry{VideoID: videoID, LastWatchedAt: now})
		} else {
			user.WatchedVideos[idx].LastWatchedAt = now
		}
		video.Views++
		counted = true
		return s.store.Apply(ctx, (&storage.Changeset{}).UpdateUser(user).UpdateVideo(video))
	})
	if err != nil {
		return false, nil, err
	}
	return counted, video, nil
}

func (s *Service) UpdatePrivacy(ctx context.Context, actorID, videoID string, status domain.PrivacyStatus) (*domain.Video, error) {
	if !status.Valid() {
		return nil, domain.Validation("invalid privacy status")
	}

	var video *domain.Video
	err := s.mutate(ctx, "update_privacy", []string{videoKey(videoID)}, func() error {
		var err error
		video, err = s.store.GetVideoByID(ctx, videoID)
		if err != nil {
			return err
		}
		if video.OwnerID != actorID {
			return domain.Forbidden("unauthorized to update this video")
		}
		video.PrivacyStatus = status
		return s.store.Apply(ctx, (&storage.Changeset{}).UpdateVideo(video))
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

// DeleteVideo удаляет ролик владельца вместе со всеми комментариями.
func (s *Service) DeleteVideo(ctx context.Context, actorID, videoID string) error {
	return s.mutate(ctx, "delete_video", []string{videoKey(videoID)}, func() error {
		video, err := s.store.GetVideoByID(ctx, videoID)
		if err != nil {
			return err
		}
		if video.OwnerID != actorID {
			return domain.Forbidden("not authorized to delete this video")
		}
		comments, err := s.store.GetCommentsByVideoID(ctx, videoID)
		if err != nil {
			return err
		}

		cs := (&storage.Changeset{}).UpdateVideo(video).DeleteVideo(videoID)
		for _, c := range comments {
			cs.DeleteComment(c.ID)
		}
		return s.store.Apply(ctx, cs)
	})
}
