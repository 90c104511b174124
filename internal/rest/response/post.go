package response

import "github.com/Guyuepp/reddit-post-votes/domain"

const DateTimeFormat = "2006-01-02 15:04:05"

type Subreddit struct {
	Topic string `json:"topic"`
}

type Post struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Image     string      `json:"image"`
	Username  string      `json:"username"`
	CreatedAt string      `json:"created_at"`
	Subreddit []Subreddit `json:"subreddit"`
	Comments  []Comment   `json:"comments"`
	Score     int64       `json:"score"`
}

// NewPostFromDomain: Domain -> Response
func NewPostFromDomain(p *domain.Post) Post {
	res := Post{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Image:     p.Image,
		Username:  p.Username,
		CreatedAt: p.CreatedAt.Format(DateTimeFormat),
		Subreddit: make([]Subreddit, len(p.Subreddit)),
		Comments:  make([]Comment, len(p.Comments)),
		Score:     p.Score,
	}
	for i := range p.Subreddit {
		res.Subreddit[i] = Subreddit{Topic: p.Subreddit[i].Topic}
	}
	for i := range p.Comments {
		res.Comments[i] = NewCommentFromDomain(&p.Comments[i])
	}
	return res
}
