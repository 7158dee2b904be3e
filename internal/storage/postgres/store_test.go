package postgres

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/UkralStul/video-social-service/internal/domain"
	"github.com/UkralStul/video-social-service/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore подключается к базе из DATABASE_URL; без неё тесты пропускаются.
func newTestStore(t *testing.T) *Store {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is not set")
	}
	store, err := New(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store *Store, name string) *domain.User {
	suffix := uuid.NewString()[:8]
	u, err := store.CreateUser(context.Background(), &domain.User{
		Username: name + "-" + suffix,
		Email:    name + "-" + suffix + "@example.com",
	})
	require.NoError(t, err)
	return u
}

func TestStore_GetUser_InvalidID(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetUserByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Apply_CompareAndSwap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	a, err := store.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	b, err := store.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	stale := a.Clone()

	a.Following = append(a.Following, b.ID)
	b.Followers = append(b.Followers, a.ID)
	require.NoError(t, store.Apply(ctx, (&storage.Changeset{}).UpdateUser(a, b)))

	stale.Bio = "lost update"
	err = store.Apply(ctx, (&storage.Changeset{}).UpdateUser(stale))
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := store.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, got.Following)
	assert.Empty(t, got.Bio)
	assert.Equal(t, int64(1), got.Version)
}

func TestStore_CommentsAndNotifications(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	video, err := store.CreateVideo(ctx, &domain.Video{OwnerID: alice.ID, Title: "clip", Description: "d"})
	require.NoError(t, err)

	c := &domain.Comment{ID: uuid.NewString(), UserID: bob.ID, VideoID: video.ID, Text: "hello"}
	video.Comments = append(video.Comments, c.ID)
	n := &domain.Notification{RecipientID: alice.ID, SenderID: bob.ID, Type: domain.NotificationComment, VideoID: &video.ID, CommentID: &c.ID}
	require.NoError(t, store.Apply(ctx, (&storage.Changeset{}).CreateComment(c).UpdateVideo(video).Notify(n)))

	comments, err := store.GetCommentsByVideoID(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	list, err := store.GetNotificationsByRecipient(ctx, alice.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationComment, list[0].Type)

	require.NoError(t, store.DeleteNotification(ctx, list[0].ID))
	assert.ErrorIs(t, store.DeleteNotification(ctx, list[0].ID), domain.ErrNotFound)
}

func TestStore_CreateUser_Duplicate(t *testing.T) {
	store := newTestStore(t)
	alice := createUser(t, store, "alice")

	_, err := store.CreateUser(context.Background(), &domain.User{Username: alice.Username, Email: alice.Username + "-2@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = store.CreateUser(context.Background(), &domain.User{Username: alice.Username + "-2", Email: alice.Email})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStore_Notifications_SameTimestampAndUnknownCursor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	at := time.Now().UTC().Truncate(time.Millisecond)

	cs := &storage.Changeset{}
	var want []*domain.Notification
	for i := 0; i < 4; i++ {
		n := &domain.Notification{ID: uuid.NewString(), RecipientID: alice.ID, SenderID: bob.ID, Type: domain.NotificationLike, CreatedAt: at}
		cs.Notify(n)
		want = append(want, n)
	}
	require.NoError(t, store.Apply(ctx, cs))
	slices.SortFunc(want, storage.NewestFirst)

	var seen []string
	var cursor *string
	for {
		page, err := store.GetNotificationsByRecipient(ctx, alice.ID, storage.PaginationArgs{Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, n := range page {
			seen = append(seen, n.ID)
		}
		cursor = &page[len(page)-1].ID
	}
	ids := make([]string, 0, len(want))
	for _, n := range want {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, ids, seen)

	for _, missing := range []string{uuid.NewString(), "not-a-uuid"} {
		page, err := store.GetNotificationsByRecipient(ctx, alice.ID, storage.PaginationArgs{Cursor: &missing})
		require.NoError(t, err)
		assert.Empty(t, page)
	}
}

func TestStore_FindFeedVideos_WithoutViewer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")

	public, err := store.CreateVideo(ctx, &domain.Video{OwnerID: alice.ID, Title: "clip", PrivacyStatus: domain.PrivacyPublic})
	require.NoError(t, err)
	_, err = store.CreateVideo(ctx, &domain.Video{OwnerID: alice.ID, Title: "hidden", PrivacyStatus: domain.PrivacyPrivate})
	require.NoError(t, err)

	videos, err := store.FindFeedVideos(ctx, storage.FeedQuery{
		OwnerIDs: []string{alice.ID},
		Visible:  []domain.PrivacyStatus{domain.PrivacyPublic},
	})
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, public.ID, videos[0].ID)

	videos, err = store.FindFeedVideos(ctx, storage.FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, videos)
}
