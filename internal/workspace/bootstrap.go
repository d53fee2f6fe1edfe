package workspace

import (
	"context"
	"workspace-server/internal/database"
)

const (
	welcomeFileName     = "welcome.py"
	exercisesFolderName = "Exercises"
)

var welcomeContent = []byte("print('Hello world !')")

// PlanBootstrap builds the commit that gives a new owner a root folder, a
// welcome file and a locked exercises folder. Registration applies it in
// the same transaction that creates the user.
func (s *Service) PlanBootstrap(ctx context.Context, ownerID int64, rootName string) (*database.Commit, error) {
	const op = "bootstrap"

	if err := validateName(rootName); err != nil {
		return nil, err
	}

	ids := make([]string, 3)
	for i := range ids {
		id, err := s.generateUniqueID(ctx)
		if err != nil {
			return nil, s.internal(ctx, op, ownerID, err)
		}
		ids[i] = id
	}
	rootID, welcomeID, exercisesID := ids[0], ids[1], ids[2]
	size := int64(len(welcomeContent))

	return &database.Commit{
		Inserts: []database.CreateNodeParams{
			{
				ID: rootID, OwnerID: ownerID, Name: rootName, IsFolder: true, Size: size,
				CanMoveIn: true,
			},
			{
				ID: welcomeID, OwnerID: ownerID, ParentID: &rootID, Name: welcomeFileName,
				Content: welcomeContent, Size: size,
				CanRename: true, CanDelete: true, CanMove: true, CanMoveIn: true,
			},
			{
				ID: exercisesID, OwnerID: ownerID, ParentID: &rootID, Name: exercisesFolderName,
				IsFolder: true,
			},
		},
		Event: event(ownerID, EventWorkspaceReady, &NodeSummary{ID: rootID, Name: rootName, IsFolder: true}),
	}, nil
}

// Bootstrap creates the starter workspace for an owner that has none yet.
func (s *Service) Bootstrap(ctx context.Context, ownerID int64, rootName string) (*NodeSummary, error) {
	const op = "bootstrap"

	root, err := s.store.GetRootNode(ctx, ownerID)
	if err != nil {
		return nil, s.storeErr(ctx, op, ownerID, err)
	}
	if root != nil {
		return nil, conflict("workspace already exists")
	}

	c, err := s.PlanBootstrap(ctx, ownerID, rootName)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, op, ownerID, c); err != nil {
		return nil, err
	}
	ins := c.Inserts[0]
	return &NodeSummary{ID: ins.ID, Name: ins.Name, IsFolder: true}, nil
}
