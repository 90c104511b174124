package domain

import "context"

// PostSelection is a single slot holding the post a viewer picked from a list,
// consumed by the detail view as a seed. Each Store overwrites the slot; it never expires.
type PostSelection interface {
	Store(ctx context.Context, p Post) error
	// Load returns ok=false when the slot is empty.
	Load(ctx context.Context) (p Post, ok bool, err error)
	Clear(ctx context.Context) error
}

// Navigator moves the viewer to the detail view of a post.
type Navigator interface {
	NavigateToPost(ctx context.Context, id int64) error
}
