package workspace

// NodeSummary is what mutating operations report back and journal.
type NodeSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	IsFolder bool    `json:"isFolder"`
	ParentID *string `json:"parentId"`
}

type CreateParams struct {
	Name     string
	IsFolder bool
	// ParentID nil places the node directly under the owner's root.
	ParentID *string
	Content  []byte
	// Locked clears every permission flag on the new node.
	Locked bool
}

type ContentSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

type DeleteResult struct {
	Message      string `json:"message"`
	FilesDeleted int    `json:"filesDeleted"`
	DirsDeleted  int    `json:"foldersDeleted"`
}

// UploadEntry is one file of an upload batch. Err marks entries whose
// content could not be decoded by the caller; they are reported as invalid.
type UploadEntry struct {
	Path    string
	Content []byte
	Err     error
}

type UploadedFile struct {
	Path string `json:"path"`
	ID   string `json:"id"`
}

type UploadResult struct {
	ParentID string         `json:"parentId"`
	Created  []UploadedFile `json:"created"`
	Skipped  []string       `json:"skipped"`
	Invalid  []string       `json:"invalid"`
}

// TreeNode is one node of a reconstructed workspace tree.
type TreeNode struct {
	ID        string      `json:"id"`
	ParentID  *string     `json:"parentId"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Size      int64       `json:"size"`
	Content   []byte      `json:"content,omitempty"`
	CanRename bool        `json:"canRename"`
	CanDelete bool        `json:"canDelete"`
	CanMove   bool        `json:"canMove"`
	CanMoveIn bool        `json:"canMoveIn"`
	Children  []*TreeNode `json:"children,omitzero"`
}

const (
	TypeFolder = "folder"
	TypeFile   = "file"
)

// Download is an exported file or zip archive, ready to stream.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// LookupCriteria selects a single node by exact attributes.
type LookupCriteria struct {
	Name      string
	IsFolder  *bool
	CanDelete *bool
}
