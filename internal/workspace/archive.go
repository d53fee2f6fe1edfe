package workspace

import (
	"bytes"
	"context"
	"fmt"
	"workspace-server/internal/models"

	"github.com/klauspost/compress/zip"
)

const (
	contentTypeOctetStream = "application/octet-stream"
	contentTypeZip         = "application/zip"
)

// Download exports a file as-is or a folder as a zip archive holding every
// descendant file at its path relative to the folder.
func (s *Service) Download(ctx context.Context, ownerID int64, id *string) (*Download, error) {
	const op = "download"

	var node *models.Node
	var err error
	if id == nil {
		node, err = s.rootNode(ctx, op, ownerID)
	} else {
		node, err = s.store.GetNodeByID(ctx, *id)
		if err != nil {
			return nil, s.storeErr(ctx, op, ownerID, err)
		}
		if node == nil || node.OwnerID != ownerID {
			return nil, notFound("node not found")
		}
	}
	if err != nil {
		return nil, err
	}

	if !node.IsFolder {
		content, err := s.store.GetNodeContent(ctx, node.ID)
		if err != nil {
			return nil, s.storeErr(ctx, op, ownerID, err)
		}
		return &Download{
			Filename:    sanitizeFilename(node.Name),
			ContentType: contentTypeOctetStream,
			Data:        content,
		}, nil
	}

	idx, err := s.loadIndex(ctx, op, ownerID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := idx.writeZip(zw, node.ID, "", make(map[string]struct{})); err != nil {
		return nil, s.internal(ctx, op, ownerID, err)
	}
	if err := zw.Close(); err != nil {
		return nil, s.internal(ctx, op, ownerID, err)
	}

	name := node.Name
	if name == "" {
		name = "workspace"
	}
	return &Download{
		Filename:    sanitizeFilename(name) + ".zip",
		ContentType: contentTypeZip,
		Data:        buf.Bytes(),
	}, nil
}

func (idx *ownerIndex) writeZip(zw *zip.Writer, folderID, prefix string, seen map[string]struct{}) error {
	if _, dup := seen[folderID]; dup {
		return fmt.Errorf("node %s reached twice", folderID)
	}
	seen[folderID] = struct{}{}

	for _, c := range idx.children[folderID] {
		rel := prefix + c.Name
		if c.IsFolder {
			if err := idx.writeZip(zw, c.ID, rel+"/", seen); err != nil {
				return err
			}
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     rel,
			Method:   zip.Deflate,
			Modified: c.ModifiedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", rel, err)
		}
		if _, err := w.Write(c.Content); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", rel, err)
		}
	}
	return nil
}
