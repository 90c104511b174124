package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/repository/mysql/model"
)

type voteRepository struct {
	DB *gorm.DB
}

// mysql层只负责数据库操作
var _ domain.VoteDBRepository = (*voteRepository)(nil)

// NewVoteDBRepository 创建数据库操作层
func NewVoteDBRepository(db *gorm.DB) *voteRepository {
	return &voteRepository{db}
}

// FetchByPost 按插入顺序返回投票, Tally 的平局规则依赖该顺序
func (m *voteRepository) FetchByPost(ctx context.Context, postID int64) ([]domain.Vote, error) {
	var votes []model.Vote
	err := m.DB.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}

	res := make([]domain.Vote, len(votes))
	for i := range votes {
		res[i] = votes[i].ToDomain()
	}
	return res, nil
}

// Upsert 同一 (post_id, username) 只保留一条, 重复投票只更新方向
// 冲突更新时 LastInsertId 不是已有行的 id, 因此不回写 v
func (m *voteRepository) Upsert(ctx context.Context, v *domain.Vote) error {
	voteModel := model.NewVoteFromDomain(v)
	if voteModel.CreatedAt.IsZero() {
		voteModel.CreatedAt = time.Now()
	}

	result := m.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"upvote", "updated_at"}),
	}).Create(voteModel)
	return result.Error
}
