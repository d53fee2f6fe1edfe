package workspace

import (
	"cmp"
	"context"
	"path"
	"slices"
	"strings"
	"workspace-server/internal/database"
	"workspace-server/internal/models"
)

type uploadFile struct {
	path    string
	dir     string
	name    string
	content []byte
}

// splitUploadPath normalizes a client path to its segments. ok is false for
// paths that are empty, contain NUL or climb with "..".
func splitUploadPath(raw string) (segs []string, ok bool) {
	p := strings.ReplaceAll(raw, "\\", "/")
	if strings.ContainsRune(p, 0) {
		return nil, false
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return nil, false
		}
		segs = append(segs, seg)
	}
	return segs, len(segs) > 0
}

func pathDepth(p string) int {
	return strings.Count(p, "/")
}

// Upload materializes a batch of files, creating the directories their paths
// imply under the target folder. Files whose name is already taken are
// skipped, never overwritten.
func (s *Service) Upload(ctx context.Context, ownerID int64, parentID *string, entries []UploadEntry) (*UploadResult, error) {
	const op = "upload"

	if len(entries) == 0 {
		return nil, invalidInput("no files provided")
	}
	if len(entries) > s.maxFiles {
		return nil, invalidInput("too many files: %d (maximum %d)", len(entries), s.maxFiles)
	}

	var target *models.Node
	var err error
	if parentID == nil {
		target, err = s.rootNode(ctx, op, ownerID)
	} else {
		target, err = s.ownedNode(ctx, op, ownerID, *parentID)
	}
	if err != nil {
		return nil, err
	}
	if !target.IsFolder {
		return nil, invalidInput("upload target must be a folder")
	}
	if !target.CanMoveIn {
		return nil, forbidden("items cannot be added to this folder")
	}

	res := &UploadResult{
		ParentID: target.ID,
		Created:  []UploadedFile{},
		Skipped:  []string{},
		Invalid:  []string{},
	}

	var files []uploadFile
	dirSet := make(map[string]struct{})
	for _, e := range entries {
		segs, ok := splitUploadPath(e.Path)
		if !ok || e.Err != nil || slices.ContainsFunc(segs, func(seg string) bool { return validateName(seg) != nil }) {
			res.Invalid = append(res.Invalid, e.Path)
			continue
		}
		content := e.Content
		if content == nil {
			content = []byte{}
		}
		f := uploadFile{
			path:    strings.Join(segs, "/"),
			dir:     strings.Join(segs[:len(segs)-1], "/"),
			name:    segs[len(segs)-1],
			content: content,
		}
		files = append(files, f)
		for i := 1; i < len(segs); i++ {
			dirSet[strings.Join(segs[:i], "/")] = struct{}{}
		}
	}
	if len(files) == 0 {
		return nil, invalidInput("no valid files to upload")
	}

	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	slices.SortFunc(dirs, func(a, b string) int {
		return cmp.Or(cmp.Compare(pathDepth(a), pathDepth(b)), strings.Compare(a, b))
	})

	c := &database.Commit{}

	// dirIDs maps a relative directory path to its folder id. A path missing
	// from the map is blocked by a file of the same name.
	dirIDs := map[string]string{"": target.ID}
	created := make(map[string]bool)
	// planned holds parentID/name of every node this batch inserts.
	planned := make(map[string]struct{})
	for _, d := range dirs {
		parentPath, name := path.Split(d)
		parentPath = strings.TrimSuffix(parentPath, "/")
		pid, ok := dirIDs[parentPath]
		if !ok {
			continue
		}

		if !created[pid] {
			existing, err := s.store.FindChildByName(ctx, ownerID, pid, name, "")
			if err != nil {
				return nil, s.storeErr(ctx, op, ownerID, err)
			}
			if existing != nil {
				if existing.IsFolder {
					dirIDs[d] = existing.ID
				}
				continue
			}
		}

		id, err := s.generateUniqueID(ctx)
		if err != nil {
			return nil, s.internal(ctx, op, ownerID, err)
		}
		parent := pid
		c.Inserts = append(c.Inserts, database.CreateNodeParams{
			ID: id, OwnerID: ownerID, ParentID: &parent, Name: name, IsFolder: true,
			CanRename: true, CanDelete: true, CanMove: true, CanMoveIn: true,
		})
		dirIDs[d] = id
		created[id] = true
		planned[pid+"/"+name] = struct{}{}
	}

	deltas := newSizeDeltas()
	var total int64
	for _, f := range files {
		dirID, ok := dirIDs[f.dir]
		if !ok {
			res.Skipped = append(res.Skipped, f.path)
			continue
		}
		key := dirID + "/" + f.name
		if _, dup := planned[key]; dup {
			res.Skipped = append(res.Skipped, f.path)
			continue
		}
		if !created[dirID] {
			existing, err := s.store.FindChildByName(ctx, ownerID, dirID, f.name, "")
			if err != nil {
				return nil, s.storeErr(ctx, op, ownerID, err)
			}
			if existing != nil {
				res.Skipped = append(res.Skipped, f.path)
				continue
			}
		}
		planned[key] = struct{}{}

		id, err := s.generateUniqueID(ctx)
		if err != nil {
			return nil, s.internal(ctx, op, ownerID, err)
		}
		dir := dirID
		size := int64(len(f.content))
		c.Inserts = append(c.Inserts, database.CreateNodeParams{
			ID: id, OwnerID: ownerID, ParentID: &dir, Name: f.name, Content: f.content, Size: size,
			CanRename: true, CanDelete: true, CanMove: true, CanMoveIn: true,
		})
		res.Created = append(res.Created, UploadedFile{Path: f.path, ID: id})

		// Every directory on the way down, target included.
		p := f.dir
		for {
			deltas.add(dirIDs[p], size)
			if p == "" {
				break
			}
			p, _ = path.Split(p)
			p = strings.TrimSuffix(p, "/")
		}
		total += size
	}

	if len(res.Created) == 0 {
		return res, nil
	}

	above, err := s.ancestorsOf(ctx, target)
	if err != nil {
		return nil, err
	}
	deltas.addChain(above, total)

	// Sizes of new folders go straight into their insert rows; only
	// pre-existing folders need a delta.
	sizes := deltas.list()
	c.SizeDeltas = sizes[:0]
	for _, d := range sizes {
		if created[d.NodeID] {
			for i := range c.Inserts {
				if c.Inserts[i].ID == d.NodeID {
					c.Inserts[i].Size = d.Delta
				}
			}
			continue
		}
		c.SizeDeltas = append(c.SizeDeltas, d)
	}
	c.Event = event(ownerID, EventNodesUploaded, map[string]any{
		"parentId": target.ID,
		"created":  len(res.Created),
		"skipped":  len(res.Skipped),
	})

	if err := s.commit(ctx, op, ownerID, c); err != nil {
		return nil, err
	}
	return res, nil
}
