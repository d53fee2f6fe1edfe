package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"workspace-server/internal/models"

	"github.com/jackc/pgx/v5"
)

const nodeColumns = `id, owner_id, parent_id, name, is_folder, size,
	can_rename, can_delete, can_move, can_move_in, created_at, modified_at`

func scanNode(row pgx.Row, node *models.Node, extra ...any) error {
	dest := []any{
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.IsFolder,
		&node.Size,
		&node.CanRename,
		&node.CanDelete,
		&node.CanMove,
		&node.CanMoveIn,
		&node.CreatedAt,
		&node.ModifiedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func collectNodes(rows pgx.Rows, withContent bool) ([]models.Node, error) {
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		var err error
		if withContent {
			err = scanNode(rows, &node, &node.Content)
		} else {
			err = scanNode(rows, &node)
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if nodes == nil {
		return []models.Node{}, nil
	}

	return nodes, nil
}

func (q *Queries) NodeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetNodeByID returns the node regardless of its owner, without content.
// A missing node yields (nil, nil).
func (q *Queries) GetNodeByID(ctx context.Context, id string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`

	var node models.Node
	err := scanNode(q.db.QueryRow(ctx, query, id), &node)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &node, nil
}

func (q *Queries) GetNodeContent(ctx context.Context, id string) ([]byte, error) {
	var content []byte
	err := q.db.QueryRow(ctx, `SELECT content FROM nodes WHERE id = $1`, id).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	return content, nil
}

func (q *Queries) GetRootNode(ctx context.Context, ownerID int64) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + `
		FROM nodes
		WHERE owner_id = $1 AND parent_id IS NULL AND is_folder`

	var node models.Node
	err := scanNode(q.db.QueryRow(ctx, query, ownerID), &node)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &node, nil
}

// FindChildByName looks up a sibling named name under parentID. excludeID,
// when set, is ignored so a node never collides with itself.
func (q *Queries) FindChildByName(ctx context.Context, ownerID int64, parentID string, name string, excludeID string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + `
		FROM nodes
		WHERE owner_id = $1 AND parent_id = $2 AND name = $3 AND id <> $4
		LIMIT 1`

	var node models.Node
	err := scanNode(q.db.QueryRow(ctx, query, ownerID, parentID, name, excludeID), &node)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &node, nil
}

// ListChildren returns the direct children of every id in parentIDs.
func (q *Queries) ListChildren(ctx context.Context, ownerID int64, parentIDs []string) ([]models.Node, error) {
	if len(parentIDs) == 0 {
		return []models.Node{}, nil
	}
	query := `SELECT ` + nodeColumns + `
		FROM nodes
		WHERE owner_id = $1 AND parent_id = ANY($2)
		ORDER BY is_folder DESC, name`

	rows, err := q.db.Query(ctx, query, ownerID, parentIDs)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows, false)
}

// GetParentID reports the parent of id. found is false when id does not exist.
func (q *Queries) GetParentID(ctx context.Context, id string) (parentID *string, found bool, err error) {
	err = q.db.QueryRow(ctx, `SELECT parent_id FROM nodes WHERE id = $1`, id).Scan(&parentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return parentID, true, nil
}

func (q *Queries) ListOwnerNodes(ctx context.Context, ownerID int64, withContent bool) ([]models.Node, error) {
	cols := nodeColumns
	if withContent {
		cols += ", content"
	}
	query := `SELECT ` + cols + `
		FROM nodes
		WHERE owner_id = $1
		ORDER BY is_folder DESC, name`

	rows, err := q.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows, withContent)
}

// NodeFilter narrows FindNodes. Nil fields are not filtered on.
type NodeFilter struct {
	Name      string
	IsFolder  *bool
	CanDelete *bool
}

func (q *Queries) FindNodes(ctx context.Context, ownerID int64, f NodeFilter) ([]string, error) {
	conds := []string{"owner_id = $1"}
	args := []any{ownerID}
	if f.Name != "" {
		args = append(args, f.Name)
		conds = append(conds, fmt.Sprintf("name = $%d", len(args)))
	}
	if f.IsFolder != nil {
		args = append(args, *f.IsFolder)
		conds = append(conds, fmt.Sprintf("is_folder = $%d", len(args)))
	}
	if f.CanDelete != nil {
		args = append(args, *f.CanDelete)
		conds = append(conds, fmt.Sprintf("can_delete = $%d", len(args)))
	}

	query := `SELECT id FROM nodes WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id`
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
