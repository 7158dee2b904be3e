package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NotFound("video", "v-1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "video with id v-1 not found", err.Error())

	wrapped := fmt.Errorf("load: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestError_UnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("load user", cause)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load user: connection refused", err.Error())
}

func TestUser_CloneDoesNotShareSlices(t *testing.T) {
	u := &User{ID: "u1", Followers: []string{"a"}, Following: []string{"b"}}
	c := u.Clone()
	c.Followers[0] = "changed"
	c.Following = append(c.Following, "c")

	assert.Equal(t, []string{"a"}, u.Followers)
	assert.Equal(t, []string{"b"}, u.Following)
}

func TestEnums_Valid(t *testing.T) {
	assert.True(t, PrivacyFollower.Valid())
	assert.False(t, PrivacyStatus("followers").Valid())
	assert.True(t, ReactionSad.Valid())
	assert.False(t, ReactionType("wow").Valid())
	assert.True(t, NotificationFollow.Valid())
	assert.False(t, NotificationType("mention").Valid())
}
