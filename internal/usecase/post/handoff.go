package post

import (
	"context"
	"fmt"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

// Handoff passes a post picked from a list to its detail view so the detail
// view can render without fetching it again.
type Handoff struct {
	selection domain.PostSelection
	navigator domain.Navigator
}

func NewHandoff(s domain.PostSelection, n domain.Navigator) *Handoff {
	return &Handoff{
		selection: s,
		navigator: n,
	}
}

// SelectPost overwrites the selection slot with p, then navigates to p's detail view.
func (h *Handoff) SelectPost(ctx context.Context, p domain.Post) error {
	if p.ID <= 0 {
		return domain.ErrBadParamInput
	}
	if err := h.selection.Store(ctx, p); err != nil {
		return fmt.Errorf("store selected post %d: %w", p.ID, err)
	}
	return h.navigator.NavigateToPost(ctx, p.ID)
}
