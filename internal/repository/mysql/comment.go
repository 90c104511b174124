package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/repository/mysql/model"
)

type commentRepository struct {
	DB *gorm.DB
}

var _ domain.CommentRepository = (*commentRepository)(nil)

func NewCommentRepository(db *gorm.DB) *commentRepository {
	return &commentRepository{
		DB: db,
	}
}

func (c *commentRepository) FetchByPosts(ctx context.Context, postIDs []int64) ([]domain.Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	var comments []model.Comment
	err := c.DB.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	res := make([]domain.Comment, len(comments))
	for i := range comments {
		res[i] = comments[i].ToDomain()
	}
	return res, nil
}
