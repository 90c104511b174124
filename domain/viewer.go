package domain

import "context"

// Viewer is the signed-in user looking at a post.
type Viewer struct {
	Username string
}

// IdentitySource reports the current viewer, if any. It is read-only.
type IdentitySource interface {
	Viewer(ctx context.Context) (Viewer, bool)
}

// Notifier is a fire-and-forget channel for short user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

const NoticeSignInToVote = "You'll need to sign in to vote!"
