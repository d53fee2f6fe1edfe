package workspace

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"workspace-server/internal/models"
)

// ownerIndex is every row of one owner, grouped by parent.
type ownerIndex struct {
	byID     map[string]*models.Node
	children map[string][]*models.Node
	root     *models.Node
}

func indexNodes(nodes []models.Node) *ownerIndex {
	idx := &ownerIndex{
		byID:     make(map[string]*models.Node, len(nodes)),
		children: make(map[string][]*models.Node),
	}
	for i := range nodes {
		n := &nodes[i]
		idx.byID[n.ID] = n
		if n.ParentID == nil {
			if n.IsFolder {
				idx.root = n
			}
			continue
		}
		idx.children[*n.ParentID] = append(idx.children[*n.ParentID], n)
	}
	for _, kids := range idx.children {
		slices.SortFunc(kids, func(a, b *models.Node) int {
			if a.IsFolder != b.IsFolder {
				if a.IsFolder {
					return -1
				}
				return 1
			}
			return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
		})
	}
	return idx
}

func (s *Service) loadIndex(ctx context.Context, op string, ownerID int64) (*ownerIndex, error) {
	nodes, err := s.store.ListOwnerNodes(ctx, ownerID, true)
	if err != nil {
		return nil, s.storeErr(ctx, op, ownerID, err)
	}
	if len(nodes) == 0 {
		return nil, notFound("workspace is empty")
	}
	return indexNodes(nodes), nil
}

// Tree returns the nested workspace below rootID, or below the owner's root
// when rootID is nil.
func (s *Service) Tree(ctx context.Context, ownerID int64, rootID *string) (*TreeNode, error) {
	const op = "tree"

	idx, err := s.loadIndex(ctx, op, ownerID)
	if err != nil {
		return nil, err
	}

	start := idx.root
	if rootID != nil {
		start = idx.byID[*rootID]
	}
	if start == nil {
		return nil, notFound("workspace root not found")
	}
	if !start.IsFolder {
		return nil, notFound("node %s is not a folder", start.ID)
	}

	seen := make(map[string]struct{})
	tree, err := idx.build(start, seen)
	if err != nil {
		return nil, s.internal(ctx, op, ownerID, err)
	}
	return tree, nil
}

func (idx *ownerIndex) build(n *models.Node, seen map[string]struct{}) (*TreeNode, error) {
	if _, dup := seen[n.ID]; dup {
		return nil, fmt.Errorf("node %s reached twice", n.ID)
	}
	seen[n.ID] = struct{}{}

	t := &TreeNode{
		ID:        n.ID,
		ParentID:  n.ParentID,
		Name:      n.Name,
		Type:      TypeFile,
		Size:      n.Size,
		CanRename: n.CanRename,
		CanDelete: n.CanDelete,
		CanMove:   n.CanMove,
		CanMoveIn: n.CanMoveIn,
	}
	if !n.IsFolder {
		t.Content = n.Content
		return t, nil
	}

	t.Type = TypeFolder
	t.Children = make([]*TreeNode, 0, len(idx.children[n.ID]))
	for _, c := range idx.children[n.ID] {
		child, err := idx.build(c, seen)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, child)
	}
	return t, nil
}
