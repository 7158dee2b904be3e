package main

import (
	"context"
	"fmt"

	"github.com/UkralStul/video-social-service/internal/auth"
	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/UkralStul/video-social-service/internal/service"
)

// fillWithMockData создаёт демо-пользователей, ролики и связи и печатает токены для входа.
func fillWithMockData(ctx context.Context, svc *service.Service, jwt *auth.Manager) error {
	users := make(map[string]*domain.User)
	for _, name := range []string{"alice", "bob", "carol"} {
		u, err := svc.CreateUser(ctx, &domain.User{
			Username: name,
			Email:    name + "@example.com",
			Bio:      "Демо-пользователь " + name,
		})
		if err != nil {
			return fmt.Errorf("create user %s: %w", name, err)
		}
		users[name] = u
	}

	// 1. Публичный ролик и ролик для подписчиков
	public, err := svc.CreateVideo(ctx, &domain.Video{
		OwnerID:       users["alice"].ID,
		Title:         "Первый ролик",
		Description:   "Публичный ролик для проверки комментариев и реакций.",
		VideoURL:      "https://cdn.example.com/videos/first.mp4",
		PrivacyStatus: domain.PrivacyPublic,
	})
	if err != nil {
		return fmt.Errorf("create public video: %w", err)
	}
	if _, err := svc.CreateVideo(ctx, &domain.Video{
		OwnerID:       users["alice"].ID,
		Title:         "Только для подписчиков",
		VideoURL:      "https://cdn.example.com/videos/followers.mp4",
		PrivacyStatus: domain.PrivacyFollower,
	}); err != nil {
		return fmt.Errorf("create follower video: %w", err)
	}

	// 2. Подписки: bob и carol подписаны на alice
	for _, name := range []string{"bob", "carol"} {
		if _, err := svc.ToggleFollow(ctx, users[name].ID, users["alice"].ID); err != nil {
			return fmt.Errorf("follow: %w", err)
		}
	}

	// 3. Комментарий с ответом
	c, err := svc.PostComment(ctx, users["bob"].ID, public.ID, "Отличный ролик!")
	if err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	if _, err := svc.PostReply(ctx, users["alice"].ID, c.ID, "Спасибо!"); err != nil {
		return fmt.Errorf("post reply: %w", err)
	}

	for name, u := range users {
		token, err := jwt.Issue(u.ID)
		if err != nil {
			return err
		}
		logging.Info().Str("username", name).Str("user_id", u.ID).Str("token", token).Msg("mock user")
	}
	logging.Info().Str("video_id", public.ID).Msg("mock data filled successfully")
	return nil
}
