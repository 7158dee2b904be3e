package service

import (
	"context"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/storage"
	"github.com/google/uuid"
)

// MaxCommentLength - максимальная длина текста комментария в символах.
const MaxCommentLength = 2000

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.Validation("comment text cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return domain.Validation("comment text is too long")
	}
	return nil
}

// PostComment добавляет комментарий верхнего уровня и уведомляет владельца ролика.
func (s *Service) PostComment(ctx context.Context, actorID, videoID, text string) (*domain.Comment, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	var (
		comment *domain.Comment
		cs      *storage.Changeset
	)
	err := s.mutate(ctx, "post_comment", []string{videoKey(videoID)}, func() error {
		if _, err := s.store.GetUserByID(ctx, actorID); err != nil {
			return err
		}
		video, err := s.store.GetVideoByID(ctx, videoID)
		if err != nil {
			return err
		}

		now := s.now()
		comment = &domain.Comment{
			ID:        uuid.NewString(),
			UserID:    actorID,
			VideoID:   video.ID,
			Text:      text,
			Likes:     []string{},
			Replies:   []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		video.Comments = append(video.Comments, comment.ID)

		cs = (&storage.Changeset{}).CreateComment(comment).UpdateVideo(video)
		cs.Notify(s.prepare(video.OwnerID, actorID, domain.NotificationComment,
			Refs{VideoID: &video.ID, CommentID: &comment.ID}, ""))
		return s.store.Apply(ctx, cs)
	})
	if err != nil {
		return nil, err
	}

	s.Dispatch(ctx, cs)
	return comment, nil
}

// PostReply отвечает на комментарий. Ответ наследует ролик родителя.
func (s *Service) PostReply(ctx context.Context, actorID, parentID, text string) (*domain.Comment, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	parent, err := s.store.GetCommentByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	var (
		reply *domain.Comment
		cs    *storage.Changeset
	)
	// Ключ ролика сериализует ответ с удалением ролика.
	err = s.mutate(ctx, "post_reply", []string{commentKey(parentID), videoKey(parent.VideoID)}, func() error {
		if _, err := s.store.GetUserByID(ctx, actorID); err != nil {
			return err
		}
		parent, err := s.store.GetCommentByID(ctx, parentID)
		if err != nil {
			return err
		}

		now := s.now()
		reply = &domain.Comment{
			ID:        uuid.NewString(),
			UserID:    actorID,
			VideoID:   parent.VideoID,
			ParentID:  &parent.ID,
			Text:      text,
			Likes:     []string{},
			Replies:   []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		parent.Replies = append(parent.Replies, reply.ID)

		cs = (&storage.Changeset{}).CreateComment(reply).UpdateComment(parent)
		cs.Notify(s.prepare(parent.UserID, actorID, domain.NotificationReply,
			Refs{VideoID: &parent.VideoID, CommentID: &parent.ID}, ""))
		return s.store.Apply(ctx, cs)
	})
	if err != nil {
		return nil, err
	}

	s.Dispatch(ctx, cs)
	return reply, nil
}

// ToggleCommentLike ставит или снимает лайк. Уведомление - только при постановке.
func (s *Service) ToggleCommentLike(ctx context.Context, actorID, commentID string) (LikeResult, *domain.Comment, error) {
	var (
		result  LikeResult
		comment *domain.Comment
		cs      *storage.Changeset
	)
	err := s.mutate(ctx, "toggle_comment_like", []string{commentKey(commentID)}, func() error {
		var err error
		comment, err = s.store.GetCommentByID(ctx, commentID)
		if err != nil {
			return err
		}

		cs = &storage.Changeset{}
		if slices.Contains(comment.Likes, actorID) {
			comment.Likes = without(comment.Likes, actorID)
			result = Unliked
		} else {
			comment.Likes = append(comment.Likes, actorID)
			result = Liked
			cs.Notify(s.prepare(comment.UserID, actorID, domain.NotificationLike,
				Refs{VideoID: &comment.VideoID, CommentID: &comment.ID}, ""))
		}
		cs.UpdateComment(comment)
		return s.store.Apply(ctx, cs)
	})
	if err != nil {
		return "", nil, err
	}

	s.Dispatch(ctx, cs)
	return result, comment, nil
}

func (s *Service) EditComment(ctx context.Context, actorID, commentID, text string) (*domain.Comment, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	var comment *domain.Comment
	err := s.mutate(ctx, "edit_comment", []string{commentKey(commentID)}, func() error {
		var err error
		comment, err = s.store.GetCommentByID(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.UserID != actorID {
			return domain.Forbidden("unauthorized to update this comment/reply")
		}
		comment.Text = text
		comment.UpdatedAt = s.now()
		return s.store.Apply(ctx, (&storage.Changeset{}).UpdateComment(comment))
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment удаляет комментарий вместе со всеми ответами на него.
// Комментарий верхнего уровня открепляется от ролика, ответ - от родителя.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) error {
	comment, err := s.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actorID {
		return domain.Forbidden("unauthorized to delete this comment/reply")
	}

	keys := []string{commentKey(commentID), videoKey(comment.VideoID)}
	if comment.ParentID != nil {
		keys = append(keys, commentKey(*comment.ParentID))
	}

	return s.mutate(ctx, "delete_comment", keys, func() error {
		comment, err := s.store.GetCommentByID(ctx, commentID)
		if err != nil {
			return err
		}
		all, err := s.store.GetCommentsByVideoID(ctx, comment.VideoID)
		if err != nil {
			return err
		}

		cs := (&storage.Changeset{}).DeleteComment(subtree(comment.ID, all)...)
		if comment.ParentID == nil {
			video, err := s.store.GetVideoByID(ctx, comment.VideoID)
			if err == nil {
				video.Comments = without(video.Comments, comment.ID)
				cs.UpdateVideo(video)
			} else if !isNotFound(err) {
				return err
			}
		} else {
			parent, err := s.store.GetCommentByID(ctx, *comment.ParentID)
			if err == nil {
				parent.Replies = without(parent.Replies, comment.ID)
				cs.UpdateComment(parent)
			} else if !isNotFound(err) {
				return err
			}
		}
		// Проверка версии удаляемого комментария: новый ответ на него повторит попытку.
		cs.UpdateComment(comment)
		return s.store.Apply(ctx, cs)
	})
}

// subtree возвращает rootID и ID всех его потомков.
func subtree(rootID string, all []*domain.Comment) []string {
	children := make(map[string][]string)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	ids := []string{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

// ListVideoComments - комментарии верхнего уровня новыми первыми, с ветками ответов.
func (s *Service) ListVideoComments(ctx context.Context, videoID string) ([]*domain.CommentView, error) {
	if _, err := s.store.GetVideoByID(ctx, videoID); err != nil {
		return nil, err
	}
	all, err := s.store.GetCommentsByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(all))
	byID := make(map[string]*domain.Comment, len(all))
	for _, c := range all {
		authors = append(authors, c.UserID)
		byID[c.ID] = c
	}
	authorInfo, err := s.loaders(ctx).UserSummaries(ctx, authors)
	if err != nil {
		return nil, err
	}

	var build func(c *domain.Comment) *domain.CommentView
	build = func(c *domain.Comment) *domain.CommentView {
		view := &domain.CommentView{Comment: c, Author: authorInfo[c.UserID]}
		for _, id := range c.Replies {
			if r, ok := byID[id]; ok {
				view.Thread = append(view.Thread, build(r))
			}
		}
		return view
	}

	roots := make([]*domain.Comment, 0)
	for _, c := range all {
		if !c.IsReply() {
			roots = append(roots, c)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	views := make([]*domain.CommentView, 0, len(roots))
	for _, c := range roots {
		views = append(views, build(c))
	}
	return views, nil
}

// ToggleVideoReaction: нет реакции - добавить, та же - снять, другая - заменить тип.
func (s *Service) ToggleVideoReaction(ctx context.Context, actorID, videoID string, reaction domain.ReactionType) (ReactionResult, *domain.Video, error) {
	if !reaction.Valid() {
		return "", nil, domain.Validation("invalid reaction type")
	}

	var (
		result ReactionResult
		video  *domain.Video
	)
	err := s.mutate(ctx, "toggle_video_reaction", []string{videoKey(videoID)}, func() error {
		if _, err := s.store.GetUserByID(ctx, actorID); err != nil {
			return err
		}
		var err error
		video, err = s.store.GetVideoByID(ctx, videoID)
		if err != nil {
			return err
		}

		idx := slices.IndexFunc(video.Reactions, func(r domain.Reaction) bool { return r.UserID == actorID })
		switch {
		case idx == -1:
			video.Reactions = append(video.Reactions, domain.Reaction{UserID: actorID, Type: reaction, CreatedAt: s.now()})
			result = ReactionAdded
		case video.Reactions[idx].Type == reaction:
			video.Reactions = slices.Delete(video.Reactions, idx, idx+1)
			result = ReactionRemoved
		default:
			video.Reactions[idx].Type = reaction
			result = ReactionUpdated
		}
		video.ReactionCount = len(video.Reactions)
		return s.store.Apply(ctx, (&storage.Changeset{}).UpdateVideo(video))
	})
	if err != nil {
		return "", nil, err
	}
	return result, video, nil
}
