package workspace

import (
	"context"
	"fmt"
	"workspace-server/internal/models"
)

type subtree struct {
	FileIDs   []string
	FolderIDs []string
}

// collectSubtree walks root breadth-first, asking the store for the children
// of up to batchSize folders per round trip. root itself is included.
func (s *Service) collectSubtree(ctx context.Context, root *models.Node) (*subtree, error) {
	st := &subtree{}
	if !root.IsFolder {
		st.FileIDs = []string{root.ID}
		return st, nil
	}

	st.FolderIDs = []string{root.ID}
	seen := map[string]struct{}{root.ID: {}}
	queue := []string{root.ID}

	for len(queue) > 0 {
		n := min(s.batchSize, len(queue))
		batch := queue[:n]
		queue = queue[n:]

		children, err := s.store.ListChildren(ctx, root.OwnerID, batch)
		if err != nil {
			return nil, s.storeErr(ctx, "subtree", root.OwnerID, err)
		}
		for _, c := range children {
			if _, dup := seen[c.ID]; dup {
				return nil, s.internal(ctx, "subtree", root.OwnerID, fmt.Errorf("node %s reached twice", c.ID))
			}
			seen[c.ID] = struct{}{}
			if c.IsFolder {
				st.FolderIDs = append(st.FolderIDs, c.ID)
				queue = append(queue, c.ID)
			} else {
				st.FileIDs = append(st.FileIDs, c.ID)
			}
		}
	}

	return st, nil
}
