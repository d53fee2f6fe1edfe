package workspace

import (
	"context"
	"slices"
	"workspace-server/internal/database"
)

// Move reparents itemID under newParentID. Folders both above the old and
// the new location keep their size; the rest of either chain changes by the
// item's size.
func (s *Service) Move(ctx context.Context, ownerID int64, itemID, newParentID string) (*NodeSummary, error) {
	const op = "move"

	item, err := s.ownedNode(ctx, op, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.CanMove {
		return nil, forbidden("this item cannot be moved")
	}
	if item.IsRoot() {
		return nil, invalidInput("the workspace root cannot be moved")
	}
	if newParentID == "" {
		return nil, invalidInput("destination folder is required")
	}

	dest, err := s.ownedNode(ctx, op, ownerID, newParentID)
	if err != nil {
		return nil, err
	}
	if !dest.IsFolder {
		return nil, invalidInput("destination must be a folder")
	}
	if !dest.CanMoveIn {
		return nil, forbidden("items cannot be moved into this folder")
	}
	if dest.ID == item.ID {
		return nil, invalidInput("an item cannot be moved into itself")
	}

	newChain, err := s.ancestorChain(ctx, ownerID, dest.ID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(newChain, item.ID) {
		return nil, invalidInput("a folder cannot be moved into its own subfolder")
	}

	if err := s.ensureNameFree(ctx, op, ownerID, dest.ID, item.Name, item.ID); err != nil {
		return nil, err
	}

	oldChain, err := s.ancestorsOf(ctx, item)
	if err != nil {
		return nil, err
	}

	destID := dest.ID
	item.ParentID = &destID
	summary := summarize(item)
	c := &database.Commit{
		Moves:      []database.MoveNodeParams{{ID: item.ID, ParentID: dest.ID}},
		SizeDeltas: moveDeltas(oldChain, newChain, item.Size).list(),
		Event:      event(ownerID, EventNodeMoved, summary),
	}
	if err := s.commit(ctx, op, ownerID, c); err != nil {
		return nil, err
	}
	return summary, nil
}
