package workspace

import (
	"context"
	"workspace-server/internal/database"
	"workspace-server/internal/models"
)

// Store is the persistence the tree operations run against. Lookups return
// (nil, nil) for missing rows. ApplyCommit must apply the whole commit or
// nothing.
type Store interface {
	NodeExists(ctx context.Context, id string) (bool, error)
	GetNodeByID(ctx context.Context, id string) (*models.Node, error)
	GetNodeContent(ctx context.Context, id string) ([]byte, error)
	GetRootNode(ctx context.Context, ownerID int64) (*models.Node, error)
	FindChildByName(ctx context.Context, ownerID int64, parentID string, name string, excludeID string) (*models.Node, error)
	ListChildren(ctx context.Context, ownerID int64, parentIDs []string) ([]models.Node, error)
	GetParentID(ctx context.Context, id string) (parentID *string, found bool, err error)
	ListOwnerNodes(ctx context.Context, ownerID int64, withContent bool) ([]models.Node, error)
	FindNodes(ctx context.Context, ownerID int64, f database.NodeFilter) ([]string, error)
	ApplyCommit(ctx context.Context, c *database.Commit) (*database.Event, error)
}

// Notifier receives every committed journal event for live delivery.
type Notifier interface {
	PublishEvent(userID int64, eventData []byte)
}

var _ Store = (*database.Store)(nil)
