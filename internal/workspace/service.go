package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"workspace-server/internal/database"

	"github.com/jaevor/go-nanoid"
)

const (
	DefaultSubtreeBatchSize = 25
	DefaultUploadMaxFiles   = 500

	nodeIDLength = 21
	idRetries    = 10
)

// Journal event types.
const (
	EventNodeCreated    = "node_created"
	EventNodeDeleted    = "node_deleted"
	EventNodeRenamed    = "node_renamed"
	EventNodeMoved      = "node_moved"
	EventContentUpdated = "node_content_updated"
	EventNodesUploaded  = "nodes_uploaded"
	EventWorkspaceReady = "workspace_bootstrapped"
)

type Options struct {
	SubtreeBatchSize int
	UploadMaxFiles   int
	Notifier         Notifier
	Logger           *slog.Logger
}

// Service runs every tree mutation and read for one workspace owner at a
// time. It holds no per-owner state; all consistency comes from the store
// applying each commit atomically.
type Service struct {
	store    Store
	notifier Notifier
	log      *slog.Logger

	batchSize int
	maxFiles  int
	newID     func() string
}

func NewService(store Store, opts Options) (*Service, error) {
	generateID, err := nanoid.Standard(nodeIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	s := &Service{
		store:     store,
		notifier:  opts.Notifier,
		log:       opts.Logger,
		batchSize: opts.SubtreeBatchSize,
		maxFiles:  opts.UploadMaxFiles,
		newID:     generateID,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultSubtreeBatchSize
	}
	if s.maxFiles <= 0 {
		s.maxFiles = DefaultUploadMaxFiles
	}
	return s, nil
}

func (s *Service) generateUniqueID(ctx context.Context) (string, error) {
	for i := 0; i < idRetries; i++ {
		id := s.newID()
		exists, err := s.store.NodeExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", idRetries)
}

// storeErr classifies a failure coming back from the store. Constraint
// violations surface as their own kinds; everything else is logged and
// reported as internal.
func (s *Service) storeErr(ctx context.Context, op string, ownerID int64, err error) error {
	var wsErr *Error
	switch {
	case errors.As(err, &wsErr):
		return err
	case errors.Is(err, database.ErrDuplicateNodeName):
		return &Error{Kind: ErrConflict, Message: "a node with the same name already exists in this folder", Err: err}
	case errors.Is(err, database.ErrNodeNotFound):
		return &Error{Kind: ErrNotFound, Message: "node not found", Err: err}
	}
	s.log.ErrorContext(ctx, "workspace store failure", "op", op, "owner", ownerID, "error", err)
	return &Error{Kind: ErrInternal, Message: "internal server error", Err: err}
}

func (s *Service) internal(ctx context.Context, op string, ownerID int64, err error) error {
	s.log.ErrorContext(ctx, "workspace invariant violated", "op", op, "owner", ownerID, "error", err)
	return &Error{Kind: ErrInternal, Message: "internal server error", Err: err}
}

// commit applies c and hands the resulting journal entry to the notifier.
func (s *Service) commit(ctx context.Context, op string, ownerID int64, c *database.Commit) error {
	ev, err := s.store.ApplyCommit(ctx, c)
	if err != nil {
		return s.storeErr(ctx, op, ownerID, err)
	}
	s.log.DebugContext(ctx, "workspace commit applied", "op", op, "owner", ownerID,
		"inserts", len(c.Inserts), "size_deltas", len(c.SizeDeltas),
		"deleted", len(c.DeleteFileIDs)+len(c.DeleteDirIDs))

	if ev != nil && s.notifier != nil {
		data, err := json.Marshal(ev)
		if err != nil {
			s.log.WarnContext(ctx, "failed to marshal workspace event", "op", op, "error", err)
			return nil
		}
		s.notifier.PublishEvent(ownerID, data)
	}
	return nil
}

func event(ownerID int64, eventType string, payload any) *database.EventRecord {
	return &database.EventRecord{UserID: ownerID, EventType: eventType, Payload: payload}
}
