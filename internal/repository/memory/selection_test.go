package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/repository/memory"
)

func TestSelectionSlot(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSelectionSlot()

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	first := domain.Post{ID: 1, Title: "first", Comments: []domain.Comment{{ID: 1, Text: "hi"}}}
	second := domain.Post{ID: 2, Title: "second"}
	require.NoError(t, s.Store(ctx, first))
	require.NoError(t, s.Store(ctx, second))

	got, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second, got)

	require.NoError(t, s.Clear(ctx))
	_, ok, _ = s.Load(ctx)
	assert.False(t, ok)
}

func TestSelectionSlotCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSelectionSlot()

	p := domain.Post{ID: 1, Comments: []domain.Comment{{ID: 1, Text: "hi"}}}
	require.NoError(t, s.Store(ctx, p))
	p.Comments[0].Text = "changed"

	got, _, _ := s.Load(ctx)
	assert.Equal(t, "hi", got.Comments[0].Text)

	got.Comments[0].Text = "changed again"
	again, _, _ := s.Load(ctx)
	assert.Equal(t, "hi", again.Comments[0].Text)
}

func TestSelectionSlotConcurrent(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSelectionSlot()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Store(ctx, domain.Post{ID: int64(i + 1)})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = s.Load(ctx)
		}()
	}
	wg.Wait()

	got, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Positive(t, got.ID)
}
