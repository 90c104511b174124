package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

const KeySelectedPost = "post:selected"

// selectionSlot keeps the selected post under a single key shared by all instances.
type selectionSlot struct {
	client *redis.Client
}

var _ domain.PostSelection = (*selectionSlot)(nil)

func NewSelectionSlot(client *redis.Client) *selectionSlot {
	return &selectionSlot{client: client}
}

func (s *selectionSlot) Store(ctx context.Context, p domain.Post) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, KeySelectedPost, data, 0).Err()
}

func (s *selectionSlot) Load(ctx context.Context) (domain.Post, bool, error) {
	data, err := s.client.Get(ctx, KeySelectedPost).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Post{}, false, nil
	} else if err != nil {
		return domain.Post{}, false, err
	}

	var p domain.Post
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Post{}, false, err
	}
	return p, true, nil
}

func (s *selectionSlot) Clear(ctx context.Context) error {
	return s.client.Del(ctx, KeySelectedPost).Err()
}
