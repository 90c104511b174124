package model

import (
	"time"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

type Vote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	PostID    int64     `gorm:"column:post_id;not null;uniqueIndex:uk_post_user"`
	Username  string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_post_user"`
	Upvote    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"type:datetime"`
	UpdatedAt time.Time `gorm:"type:datetime"`
}

func (Vote) TableName() string {
	return "vote"
}

func (m *Vote) ToDomain() domain.Vote {
	return domain.Vote{
		ID:        m.ID,
		PostID:    m.PostID,
		Username:  m.Username,
		Upvote:    m.Upvote,
		CreatedAt: m.CreatedAt,
	}
}

func NewVoteFromDomain(v *domain.Vote) *Vote {
	return &Vote{
		ID:        v.ID,
		PostID:    v.PostID,
		Username:  v.Username,
		Upvote:    v.Upvote,
		CreatedAt: v.CreatedAt,
	}
}
