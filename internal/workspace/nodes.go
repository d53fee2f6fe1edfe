package workspace

import (
	"context"
	"workspace-server/internal/database"
	"workspace-server/internal/models"
)

// ownedNode loads id and checks it belongs to ownerID.
func (s *Service) ownedNode(ctx context.Context, op string, ownerID int64, id string) (*models.Node, error) {
	node, err := s.store.GetNodeByID(ctx, id)
	if err != nil {
		return nil, s.storeErr(ctx, op, ownerID, err)
	}
	if node == nil {
		return nil, notFound("node %s not found", id)
	}
	if node.OwnerID != ownerID {
		return nil, forbidden("you do not have permission to access this node")
	}
	return node, nil
}

func (s *Service) rootNode(ctx context.Context, op string, ownerID int64) (*models.Node, error) {
	root, err := s.store.GetRootNode(ctx, ownerID)
	if err != nil {
		return nil, s.storeErr(ctx, op, ownerID, err)
	}
	if root == nil {
		return nil, notFound("workspace root not found")
	}
	return root, nil
}

func (s *Service) ensureNameFree(ctx context.Context, op string, ownerID int64, parentID, name, excludeID string) error {
	sibling, err := s.store.FindChildByName(ctx, ownerID, parentID, name, excludeID)
	if err != nil {
		return s.storeErr(ctx, op, ownerID, err)
	}
	if sibling != nil {
		return conflict("an item named %q already exists in this folder", name)
	}
	return nil
}

func summarize(n *models.Node) *NodeSummary {
	return &NodeSummary{ID: n.ID, Name: n.Name, IsFolder: n.IsFolder, ParentID: n.ParentID}
}

// Create adds a file or folder and grows every folder above it by the
// file's size.
func (s *Service) Create(ctx context.Context, ownerID int64, p CreateParams) (*NodeSummary, error) {
	const op = "create"

	var parent *models.Node
	var err error
	if p.ParentID == nil {
		parent, err = s.rootNode(ctx, op, ownerID)
	} else {
		parent, err = s.ownedNode(ctx, op, ownerID, *p.ParentID)
	}
	if err != nil {
		return nil, err
	}
	if !parent.IsFolder {
		return nil, invalidInput("parent must be a folder")
	}
	if err := validateName(p.Name); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, op, ownerID, parent.ID, p.Name, ""); err != nil {
		return nil, err
	}

	var content []byte
	if !p.IsFolder {
		content = p.Content
		if content == nil {
			content = []byte{}
		}
	}
	size := int64(len(content))

	deltas := newSizeDeltas()
	if size > 0 {
		chain, err := s.ancestorChain(ctx, ownerID, parent.ID)
		if err != nil {
			return nil, err
		}
		deltas.addChain(chain, size)
	}

	id, err := s.generateUniqueID(ctx)
	if err != nil {
		return nil, s.internal(ctx, op, ownerID, err)
	}

	parentID := parent.ID
	summary := &NodeSummary{ID: id, Name: p.Name, IsFolder: p.IsFolder, ParentID: &parentID}
	c := &database.Commit{
		Inserts: []database.CreateNodeParams{{
			ID:        id,
			OwnerID:   ownerID,
			ParentID:  &parentID,
			Name:      p.Name,
			IsFolder:  p.IsFolder,
			Content:   content,
			Size:      size,
			CanRename: !p.Locked,
			CanDelete: !p.Locked,
			CanMove:   !p.Locked,
			CanMoveIn: !p.Locked,
		}},
		SizeDeltas: deltas.list(),
		Event:      event(ownerID, EventNodeCreated, summary),
	}
	if err := s.commit(ctx, op, ownerID, c); err != nil {
		return nil, err
	}
	return summary, nil
}

// Delete removes a node with its whole subtree and shrinks every folder
// above it by the node's size.
func (s *Service) Delete(ctx context.Context, ownerID int64, id string) (*DeleteResult, error) {
	const op = "delete"

	node, err := s.ownedNode(ctx, op, ownerID, id)
	if err != nil {
		return nil, err
	}
	if node.IsRoot() {
		return nil, invalidInput("the workspace root cannot be deleted")
	}
	if !node.CanDelete {
		return nil, forbidden("this item cannot be deleted")
	}

	st, err := s.collectSubtree(ctx, node)
	if err != nil {
		return nil, err
	}
	chain, err := s.ancestorsOf(ctx, node)
	if err != nil {
		return nil, err
	}
	deltas := newSizeDeltas()
	deltas.addChain(chain, -node.Size)

	c := &database.Commit{
		SizeDeltas:    deltas.list(),
		DeleteFileIDs: st.FileIDs,
		DeleteDirIDs:  st.FolderIDs,
		Event:         event(ownerID, EventNodeDeleted, summarize(node)),
	}
	if err := s.commit(ctx, op, ownerID, c); err != nil {
		return nil, err
	}

	res := &DeleteResult{
		Message:      "File deleted",
		FilesDeleted: len(st.FileIDs),
		DirsDeleted:  len(st.FolderIDs),
	}
	if node.IsFolder {
		res.Message = "Folder and its contents deleted"
	}
	return res, nil
}

// Rename changes a node's name. Sizes are untouched.
func (s *Service) Rename(ctx context.Context, ownerID int64, id, newName string) (*NodeSummary, error) {
	const op = "rename"

	node, err := s.ownedNode(ctx, op, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := validateName(newName); err != nil {
		return nil, err
	}
	if !node.CanRename {
		return nil, forbidden("this item cannot be renamed")
	}
	if node.ParentID != nil {
		if err := s.ensureNameFree(ctx, op, ownerID, *node.ParentID, newName, node.ID); err != nil {
			return nil, err
		}
	}

	node.Name = newName
	summary := summarize(node)
	c := &database.Commit{
		Renames: []database.RenameNodeParams{{ID: node.ID, Name: newName}},
		Event:   event(ownerID, EventNodeRenamed, summary),
	}
	if err := s.commit(ctx, op, ownerID, c); err != nil {
		return nil, err
	}
	return summary, nil
}

// UpdateContent replaces a file's content and applies the size difference
// to every folder above it.
func (s *Service) UpdateContent(ctx context.Context, ownerID int64, id string, content []byte) (*ContentSummary, error) {
	const op = "update_content"

	node, err := s.ownedNode(ctx, op, ownerID, id)
	if err != nil {
		return nil, err
	}
	if node.IsFolder {
		return nil, invalidInput("folders have no content")
	}
	if content == nil {
		content = []byte{}
	}

	chain, err := s.ancestorsOf(ctx, node)
	if err != nil {
		return nil, err
	}
	deltas := newSizeDeltas()
	deltas.addChain(chain, int64(len(content))-node.Size)

	summary := &ContentSummary{ID: node.ID, Name: node.Name, ParentID: node.ParentID}
	c := &database.Commit{
		ContentUpdates: []database.UpdateContentParams{{ID: node.ID, Content: content}},
		SizeDeltas:     deltas.list(),
		Event:          event(ownerID, EventContentUpdated, summary),
	}
	if err := s.commit(ctx, op, ownerID, c); err != nil {
		return nil, err
	}
	return summary, nil
}
