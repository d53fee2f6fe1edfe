package workspace

import (
	"context"
	"workspace-server/internal/database"
)

// Lookup resolves criteria to exactly one node id of the owner.
func (s *Service) Lookup(ctx context.Context, ownerID int64, c LookupCriteria) (string, error) {
	const op = "lookup"

	if c.Name == "" && c.IsFolder == nil && c.CanDelete == nil {
		return "", invalidInput("at least one lookup criterion is required")
	}

	ids, err := s.store.FindNodes(ctx, ownerID, database.NodeFilter{
		Name:      c.Name,
		IsFolder:  c.IsFolder,
		CanDelete: c.CanDelete,
	})
	if err != nil {
		return "", s.storeErr(ctx, op, ownerID, err)
	}

	switch len(ids) {
	case 0:
		return "", notFound("no node matches the given criteria")
	case 1:
		return ids[0], nil
	default:
		return "", conflict("%d nodes match the given criteria", len(ids))
	}
}
