package model

import (
	"time"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

type Post struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"type:varchar(300);not null"`
	Body        string     `gorm:"type:longtext"`
	Image       string     `gorm:"type:varchar(1024)"`
	Username    string     `gorm:"type:varchar(64);not null"`
	SubredditID int64      `gorm:"column:subreddit_id"`
	Subreddit   *Subreddit `gorm:"foreignKey:SubredditID"`
	Score       int64      `gorm:"default:0"`
	CreatedAt   time.Time  `gorm:"type:datetime"`
}

func (Post) TableName() string {
	return "post"
}

func (m *Post) ToDomain() domain.Post {
	p := domain.Post{
		ID:        m.ID,
		Title:     m.Title,
		Body:      m.Body,
		Image:     m.Image,
		Username:  m.Username,
		CreatedAt: m.CreatedAt,
		Subreddit: []domain.Subreddit{},
		Comments:  []domain.Comment{},
		Score:     m.Score,
	}
	if m.Subreddit != nil {
		p.Subreddit = append(p.Subreddit, m.Subreddit.ToDomain())
	}
	return p
}

type Subreddit struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Topic string `gorm:"type:varchar(64);not null;uniqueIndex"`
}

func (Subreddit) TableName() string {
	return "subreddit"
}

func (m *Subreddit) ToDomain() domain.Subreddit {
	return domain.Subreddit{
		ID:    m.ID,
		Topic: m.Topic,
	}
}
