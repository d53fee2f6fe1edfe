package models

import "time"

type Node struct {
	ID         string    `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	ParentID   *string   `json:"parent_id"`
	Name       string    `json:"name"`
	IsFolder   bool      `json:"is_folder"`
	Content    []byte    `json:"-"`
	Size       int64     `json:"size"`
	CanRename  bool      `json:"can_rename"`
	CanDelete  bool      `json:"can_delete"`
	CanMove    bool      `json:"can_move"`
	CanMoveIn  bool      `json:"can_move_in"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// IsRoot reports whether the node is the top of its owner's workspace.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}
