package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/video-social-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostComment_NotifiesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	fan := f.user(t, "fan")
	video := f.video(t, owner, domain.PrivacyPublic)

	comment, err := f.svc.PostComment(ctx, fan.ID, video.ID, "First comment!")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, video.ID, comment.VideoID)

	v, err := f.store.GetVideoByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{comment.ID}, v.Comments)

	list := f.notifications(t, owner.ID)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationComment, list[0].Type)
	assert.Equal(t, comment.ID, *list[0].CommentID)
	assert.Equal(t, video.ID, *list[0].VideoID)
}

func TestPostComment_OnOwnVideoDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	video := f.video(t, owner, domain.PrivacyPublic)

	_, err := f.svc.PostComment(context.Background(), owner.ID, video.ID, "mine")
	require.NoError(t, err)
	assert.Empty(t, f.notifications(t, owner.ID))
	assert.Empty(t, f.channel.sent())
}

func TestPostComment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	video := f.video(t, owner, domain.PrivacyPublic)

	_, err := f.svc.PostComment(ctx, owner.ID, video.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.PostComment(ctx, owner.ID, video.ID, strings.Repeat("a", MaxCommentLength+1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.PostComment(ctx, owner.ID, "ghost", "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.PostComment(ctx, "ghost", video.ID, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostReply_InheritsVideoAndNotifiesParentAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	author := f.user(t, "author")
	replier := f.user(t, "replier")
	video := f.video(t, owner, domain.PrivacyPublic)

	parent, err := f.svc.PostComment(ctx, author.ID, video.ID, "question?")
	require.NoError(t, err)

	reply, err := f.svc.PostReply(ctx, replier.ID, parent.ID, "answer")
	require.NoError(t, err)
	assert.Equal(t, video.ID, reply.VideoID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	p, err := f.store.GetCommentByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{reply.ID}, p.Replies)

	v, _ := f.store.GetVideoByID(ctx, video.ID)
	assert.Equal(t, []string{parent.ID}, v.Comments)

	list := f.notifications(t, author.ID)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationReply, list[0].Type)
	assert.Equal(t, parent.ID, *list[0].CommentID)

	_, err = f.svc.PostReply(ctx, replier.ID, "ghost", "answer")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostReply_ToOwnCommentDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	video := f.video(t, owner, domain.PrivacyPublic)

	parent, err := f.svc.PostComment(ctx, owner.ID, video.ID, "note")
	require.NoError(t, err)
	_, err = f.svc.PostReply(ctx, owner.ID, parent.ID, "follow-up")
	require.NoError(t, err)
	assert.Empty(t, f.notifications(t, owner.ID))
}

func TestToggleCommentLike_NotifiesOnlyOnLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	fan := f.user(t, "fan")
	video := f.video(t, author, domain.PrivacyPublic)
	comment, err := f.svc.PostComment(ctx, author.ID, video.ID, "like me")
	require.NoError(t, err)

	res, c, err := f.svc.ToggleCommentLike(ctx, fan.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, Liked, res)
	assert.Equal(t, []string{fan.ID}, c.Likes)

	res, c, err = f.svc.ToggleCommentLike(ctx, fan.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, Unliked, res)
	assert.Empty(t, c.Likes)

	list := f.notifications(t, author.ID)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationLike, list[0].Type)
}

func TestToggleCommentLike_OwnCommentDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	video := f.video(t, author, domain.PrivacyPublic)
	comment, err := f.svc.PostComment(ctx, author.ID, video.ID, "self")
	require.NoError(t, err)

	res, _, err := f.svc.ToggleCommentLike(ctx, author.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, Liked, res)
	assert.Empty(t, f.notifications(t, author.ID))
}

func TestToggleCommentLike_ConcurrentDistinctUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	video := f.video(t, author, domain.PrivacyPublic)
	comment, err := f.svc.PostComment(ctx, author.ID, video.ID, "popular")
	require.NoError(t, err)

	fans := make([]*domain.User, 10)
	for i := range fans {
		fans[i] = f.user(t, "fan"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for _, fan := range fans {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _, err := f.svc.ToggleCommentLike(ctx, id, comment.ID)
			assert.NoError(t, err)
		}(fan.ID)
	}
	wg.Wait()

	c, err := f.store.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Len(t, c.Likes, len(fans))
	assert.Len(t, f.notifications(t, author.ID), len(fans))
}

func TestEditComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	other := f.user(t, "other")
	video := f.video(t, author, domain.PrivacyPublic)
	comment, err := f.svc.PostComment(ctx, author.ID, video.ID, "typo")
	require.NoError(t, err)

	_, err = f.svc.EditComment(ctx, other.ID, comment.ID, "hijack")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.now = f.now.Add(time.Minute)
	edited, err := f.svc.EditComment(ctx, author.ID, comment.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Text)
	assert.Equal(t, f.now, edited.UpdatedAt)

	_, err = f.svc.EditComment(ctx, author.ID, comment.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteComment_TopLevelCascadesReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	other := f.user(t, "other")
	video := f.video(t, author, domain.PrivacyPublic)

	root, err := f.svc.PostComment(ctx, author.ID, video.ID, "root")
	require.NoError(t, err)
	reply, err := f.svc.PostReply(ctx, other.ID, root.ID, "reply")
	require.NoError(t, err)
	nested, err := f.svc.PostReply(ctx, author.ID, reply.ID, "nested")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, other.ID, root.ID), domain.ErrForbidden)
	require.NoError(t, f.svc.DeleteComment(ctx, author.ID, root.ID))

	for _, id := range []string{root.ID, reply.ID, nested.ID} {
		_, err := f.store.GetCommentByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	v, _ := f.store.GetVideoByID(ctx, video.ID)
	assert.Empty(t, v.Comments)
}

func TestDeleteComment_ReplyDetachesFromParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	other := f.user(t, "other")
	video := f.video(t, author, domain.PrivacyPublic)

	root, err := f.svc.PostComment(ctx, author.ID, video.ID, "root")
	require.NoError(t, err)
	reply, err := f.svc.PostReply(ctx, other.ID, root.ID, "reply")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteComment(ctx, other.ID, reply.ID))

	p, err := f.store.GetCommentByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Replies)
	v, _ := f.store.GetVideoByID(ctx, video.ID)
	assert.Equal(t, []string{root.ID}, v.Comments)
}

func TestListVideoComments_NewestFirstWithThreads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	fan := f.user(t, "fan")
	video := f.video(t, owner, domain.PrivacyPublic)

	older, err := f.svc.PostComment(ctx, fan.ID, video.ID, "older")
	require.NoError(t, err)
	f.now = f.now.Add(time.Second)
	newer, err := f.svc.PostComment(ctx, owner.ID, video.ID, "newer")
	require.NoError(t, err)
	reply, err := f.svc.PostReply(ctx, owner.ID, older.ID, "thanks")
	require.NoError(t, err)

	views, err := f.svc.ListVideoComments(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, older.ID, views[1].ID)
	require.NotNil(t, views[1].Author)
	assert.Equal(t, "fan", views[1].Author.Username)
	require.Len(t, views[1].Thread, 1)
	assert.Equal(t, reply.ID, views[1].Thread[0].ID)
	assert.Equal(t, "owner", views[1].Thread[0].Author.Username)

	_, err = f.svc.ListVideoComments(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggleVideoReaction_Scenarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	u1 := f.user(t, "u1")

	v := f.video(t, owner, domain.PrivacyPublic)
	res, video, err := f.svc.ToggleVideoReaction(ctx, u1.ID, v.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, ReactionAdded, res)
	require.Len(t, video.Reactions, 1)
	assert.Equal(t, u1.ID, video.Reactions[0].UserID)
	assert.Equal(t, domain.ReactionLike, video.Reactions[0].Type)
	assert.Equal(t, 1, video.ReactionCount)

	res, video, err = f.svc.ToggleVideoReaction(ctx, u1.ID, v.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, ReactionRemoved, res)
	assert.Empty(t, video.Reactions)
	assert.Equal(t, 0, video.ReactionCount)

	fresh := f.video(t, owner, domain.PrivacyPublic)
	res, _, err = f.svc.ToggleVideoReaction(ctx, u1.ID, fresh.ID, domain.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, ReactionAdded, res)
	res, video, err = f.svc.ToggleVideoReaction(ctx, u1.ID, fresh.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, ReactionUpdated, res)
	require.Len(t, video.Reactions, 1)
	assert.Equal(t, domain.ReactionLike, video.Reactions[0].Type)
	assert.Equal(t, 1, video.ReactionCount)

	_, _, err = f.svc.ToggleVideoReaction(ctx, u1.ID, fresh.ID, domain.ReactionType("wow"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, _, err = f.svc.ToggleVideoReaction(ctx, u1.ID, "ghost", domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Реакции не порождают уведомлений
	assert.Empty(t, f.notifications(t, owner.ID))
}

func TestToggleVideoReaction_CountMatchesUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	video := f.video(t, owner, domain.PrivacyPublic)

	types := []domain.ReactionType{domain.ReactionLike, domain.ReactionLove, domain.ReactionHaha, domain.ReactionAngry, domain.ReactionSad}
	actors := make([]*domain.User, 8)
	for i := range actors {
		actors[i] = f.user(t, "actor"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for i, a := range actors {
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func(id string, rt domain.ReactionType) {
				defer wg.Done()
				_, _, err := f.svc.ToggleVideoReaction(ctx, id, video.ID, rt)
				assert.NoError(t, err)
			}(a.ID, types[(i+j)%len(types)])
		}
	}
	wg.Wait()

	v, err := f.store.GetVideoByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, len(v.Reactions), v.ReactionCount)

	seen := make(map[string]bool)
	for _, r := range v.Reactions {
		assert.False(t, seen[r.UserID], "duplicate reaction for %s", r.UserID)
		seen[r.UserID] = true
	}
}
