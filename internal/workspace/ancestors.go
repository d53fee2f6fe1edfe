package workspace

import (
	"context"
	"fmt"
	"workspace-server/internal/models"
)

// ancestorChain returns startID followed by every node above it, nearest
// first, ending with the root. Each hop is one parent lookup. A node seen
// twice means the tree is corrupt; a missing hop means a concurrent delete.
func (s *Service) ancestorChain(ctx context.Context, ownerID int64, startID string) ([]string, error) {
	var chain []string
	seen := make(map[string]struct{})

	cur := &startID
	for cur != nil {
		id := *cur
		if _, dup := seen[id]; dup {
			return nil, s.internal(ctx, "ancestors", ownerID, fmt.Errorf("parent cycle through node %s", id))
		}
		seen[id] = struct{}{}

		parentID, found, err := s.store.GetParentID(ctx, id)
		if err != nil {
			return nil, s.storeErr(ctx, "ancestors", ownerID, err)
		}
		if !found {
			return nil, notFound("node %s no longer exists", id)
		}
		chain = append(chain, id)
		cur = parentID
	}

	return chain, nil
}

// ancestorsOf is the chain above n, excluding n itself.
func (s *Service) ancestorsOf(ctx context.Context, n *models.Node) ([]string, error) {
	if n.ParentID == nil {
		return nil, nil
	}
	return s.ancestorChain(ctx, n.OwnerID, *n.ParentID)
}
