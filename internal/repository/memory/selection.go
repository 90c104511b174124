// Package memory holds in-process implementations of domain stores.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

// SelectionSlot is a process-local single-post slot.
type SelectionSlot struct {
	mu   sync.RWMutex
	post domain.Post
	set  bool
}

var _ domain.PostSelection = (*SelectionSlot)(nil)

func NewSelectionSlot() *SelectionSlot {
	return &SelectionSlot{}
}

func (s *SelectionSlot) Store(_ context.Context, p domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.post = clonePost(p)
	s.set = true
	return nil
}

func (s *SelectionSlot) Load(_ context.Context) (domain.Post, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return domain.Post{}, false, nil
	}
	return clonePost(s.post), true, nil
}

func (s *SelectionSlot) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.post = domain.Post{}
	s.set = false
	return nil
}

// readers get their own slices
func clonePost(p domain.Post) domain.Post {
	p.Subreddit = slices.Clone(p.Subreddit)
	p.Comments = slices.Clone(p.Comments)
	return p
}
