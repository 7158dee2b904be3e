package service

type FollowResult string

const (
	Followed   FollowResult = "FOLLOWED"
	Unfollowed FollowResult = "UNFOLLOWED"
)

type LikeResult string

const (
	Liked   LikeResult = "LIKED"
	Unliked LikeResult = "UNLIKED"
)

type ReactionResult string

const (
	ReactionAdded   ReactionResult = "ADDED"
	ReactionUpdated ReactionResult = "UPDATED"
	ReactionRemoved ReactionResult = "REMOVED"
)

type SaveResult string

const (
	Saved   SaveResult = "SAVED"
	Unsaved SaveResult = "UNSAVED"
)
