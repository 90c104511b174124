package domain

import (
	"context"
	"time"
)

// Post is representing one feed submission
type Post struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Image     string      `json:"image"`
	Username  string      `json:"username"` // author
	CreatedAt time.Time   `json:"created_at"`
	Subreddit []Subreddit `json:"subreddit"`
	Comments  []Comment   `json:"comments"`
	Score     int64       `json:"score"` // last synced tally
}

// Subreddit is the topic a post was submitted to
type Subreddit struct {
	ID    int64  `json:"id"`
	Topic string `json:"topic"`
}

// Topic returns the first subreddit topic, or "" when the post has none.
func (p *Post) Topic() string {
	if len(p.Subreddit) == 0 {
		return ""
	}
	return p.Subreddit[0].Topic
}

// PostRepository defines the contract for post data persistence
type PostRepository interface {
	// Fetch retrieves a page of posts ordered by creation time.
	// cursor: encoded creation time of the last post of the previous page, "" for the first page.
	Fetch(ctx context.Context, cursor string, num int64) ([]Post, error)

	// GetByID retrieves a single post by its ID.
	// Returns ErrNotFound if the post doesn't exist.
	GetByID(ctx context.Context, id int64) (Post, error)

	// FetchIDs returns post ids greater than cursor, used to warm the bloom filter.
	FetchIDs(ctx context.Context, cursor, limit int64) ([]int64, error)

	// UpdateScores writes synced tallies, keyed by post id.
	UpdateScores(ctx context.Context, scores map[int64]int64) error
}

type PostUsecase interface {
	Fetch(ctx context.Context, cursor string, num int64) ([]Post, string, error)
	// GetByID serves the detail view; a matching selected post is used without a fetch.
	GetByID(ctx context.Context, id int64) (Post, error)
	// Load reads a post from storage, bypassing the selection slot.
	Load(ctx context.Context, id int64) (Post, error)
	InitBloomFilter(ctx context.Context) error
	// RefreshBloomFilter adds posts stored since the last sync to the bloom filter.
	RefreshBloomFilter(ctx context.Context) (int, error)
}
