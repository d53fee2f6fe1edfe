package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"workspace-server/internal/database"
	"workspace-server/internal/models"
)

// memStore is an in-memory Store. ApplyCommit works on a copy and swaps it
// in only when every change succeeded, like the Postgres transaction does.
type memStore struct {
	mu       sync.Mutex
	nodes    map[string]models.Node
	events   []database.Event
	failNext error
	commits  int
}

func newMemStore() *memStore {
	return &memStore{nodes: make(map[string]models.Node)}
}

func cloneNode(n models.Node) models.Node {
	if n.ParentID != nil {
		p := *n.ParentID
		n.ParentID = &p
	}
	if n.Content != nil {
		n.Content = slices.Clone(n.Content)
	}
	return n
}

func (m *memStore) put(n models.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[n.ID] = cloneNode(n)
}

func (m *memStore) get(id string) (models.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	return cloneNode(n), ok
}

func (m *memStore) snapshot() map[string]models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Node, len(m.nodes))
	for id, n := range m.nodes {
		out[id] = cloneNode(n)
	}
	return out
}

func (m *memStore) NodeExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[id]
	return ok, nil
}

func (m *memStore) GetNodeByID(_ context.Context, id string) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, nil
	}
	n = cloneNode(n)
	n.Content = nil
	return &n, nil
}

func (m *memStore) GetNodeContent(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, database.ErrNodeNotFound
	}
	return slices.Clone(n.Content), nil
}

func (m *memStore) GetRootNode(_ context.Context, ownerID int64) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.OwnerID == ownerID && n.ParentID == nil && n.IsFolder {
			n = cloneNode(n)
			n.Content = nil
			return &n, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindChildByName(_ context.Context, ownerID int64, parentID, name, excludeID string) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.OwnerID == ownerID && n.ParentID != nil && *n.ParentID == parentID && n.Name == name && n.ID != excludeID {
			n = cloneNode(n)
			n.Content = nil
			return &n, nil
		}
	}
	return nil, nil
}

func sortNodes(nodes []models.Node) {
	slices.SortFunc(nodes, func(a, b models.Node) int {
		if a.IsFolder != b.IsFolder {
			if a.IsFolder {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func (m *memStore) ListChildren(_ context.Context, ownerID int64, parentIDs []string) ([]models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Node{}
	for _, n := range m.nodes {
		if n.OwnerID == ownerID && n.ParentID != nil && slices.Contains(parentIDs, *n.ParentID) {
			n = cloneNode(n)
			n.Content = nil
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out, nil
}

func (m *memStore) GetParentID(_ context.Context, id string) (*string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, false, nil
	}
	return cloneNode(n).ParentID, true, nil
}

func (m *memStore) ListOwnerNodes(_ context.Context, ownerID int64, withContent bool) ([]models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Node{}
	for _, n := range m.nodes {
		if n.OwnerID != ownerID {
			continue
		}
		n = cloneNode(n)
		if !withContent {
			n.Content = nil
		}
		out = append(out, n)
	}
	sortNodes(out)
	return out, nil
}

func (m *memStore) FindNodes(_ context.Context, ownerID int64, f database.NodeFilter) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for _, n := range m.nodes {
		if n.OwnerID != ownerID ||
			(f.Name != "" && n.Name != f.Name) ||
			(f.IsFolder != nil && n.IsFolder != *f.IsFolder) ||
			(f.CanDelete != nil && n.CanDelete != *f.CanDelete) {
			continue
		}
		ids = append(ids, n.ID)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memStore) ApplyCommit(_ context.Context, c *database.Commit) (*database.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}

	next := make(map[string]models.Node, len(m.nodes))
	for id, n := range m.nodes {
		next[id] = cloneNode(n)
	}
	now := time.Now()

	for _, p := range c.Inserts {
		if _, dup := next[p.ID]; dup {
			return nil, fmt.Errorf("insert %s: %w", p.ID, database.ErrDuplicateNodeName)
		}
		next[p.ID] = cloneNode(models.Node{
			ID: p.ID, OwnerID: p.OwnerID, ParentID: p.ParentID, Name: p.Name, IsFolder: p.IsFolder,
			Content: p.Content, Size: p.Size, CanRename: p.CanRename, CanDelete: p.CanDelete,
			CanMove: p.CanMove, CanMoveIn: p.CanMoveIn, CreatedAt: now, ModifiedAt: now,
		})
	}
	update := func(id string, fn func(n *models.Node) bool) error {
		n, ok := next[id]
		if !ok || !fn(&n) {
			return fmt.Errorf("update %s: %w", id, database.ErrNodeNotFound)
		}
		n.ModifiedAt = now
		next[id] = n
		return nil
	}
	for _, r := range c.Renames {
		if err := update(r.ID, func(n *models.Node) bool { n.Name = r.Name; return true }); err != nil {
			return nil, err
		}
	}
	for _, mv := range c.Moves {
		if err := update(mv.ID, func(n *models.Node) bool { p := mv.ParentID; n.ParentID = &p; return true }); err != nil {
			return nil, err
		}
	}
	for _, u := range c.ContentUpdates {
		err := update(u.ID, func(n *models.Node) bool {
			if n.IsFolder {
				return false
			}
			n.Content = slices.Clone(u.Content)
			n.Size = int64(len(u.Content))
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	for _, d := range c.SizeDeltas {
		if d.Delta == 0 {
			continue
		}
		n, ok := next[d.NodeID]
		if !ok || !n.IsFolder {
			return nil, fmt.Errorf("size %s: %w", d.NodeID, database.ErrNodeNotFound)
		}
		n.Size += d.Delta
		if n.Size < 0 {
			return nil, fmt.Errorf("size %s: negative size %d", d.NodeID, n.Size)
		}
		next[d.NodeID] = n
	}
	for _, id := range c.DeleteFileIDs {
		if n, ok := next[id]; ok && !n.IsFolder {
			delete(next, id)
		}
	}
	for _, id := range c.DeleteDirIDs {
		if n, ok := next[id]; ok && n.IsFolder {
			delete(next, id)
		}
	}
	cascadeDeletes(next)

	if err := checkConstraints(next); err != nil {
		return nil, err
	}
	m.nodes = next
	m.commits++

	if c.Event == nil {
		return nil, nil
	}
	payload, err := json.Marshal(map[string]any{"event_type": c.Event.EventType, "payload": c.Event.Payload})
	if err != nil {
		return nil, err
	}
	ev := database.Event{
		ID:        int64(len(m.events) + 1),
		EventType: c.Event.EventType,
		EventTime: now,
		Payload:   payload,
	}
	m.events = append(m.events, ev)
	return &ev, nil
}

// cascadeDeletes drops rows whose parent is gone, like ON DELETE CASCADE.
func cascadeDeletes(nodes map[string]models.Node) {
	for changed := true; changed; {
		changed = false
		for id, n := range nodes {
			if n.ParentID == nil {
				continue
			}
			if _, ok := nodes[*n.ParentID]; !ok {
				delete(nodes, id)
				changed = true
			}
		}
	}
}

func checkConstraints(nodes map[string]models.Node) error {
	type key struct {
		owner  int64
		parent string
		name   string
	}
	seen := make(map[key]struct{})
	roots := make(map[int64]struct{})
	for _, n := range nodes {
		if n.ParentID == nil {
			if _, dup := roots[n.OwnerID]; dup {
				return fmt.Errorf("second root for owner %d: %w", n.OwnerID, database.ErrDuplicateNodeName)
			}
			roots[n.OwnerID] = struct{}{}
			continue
		}
		k := key{n.OwnerID, *n.ParentID, n.Name}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("name %q: %w", n.Name, database.ErrDuplicateNodeName)
		}
		seen[k] = struct{}{}
	}
	return nil
}

var errInjected = errors.New("injected store failure")

type recordingNotifier struct {
	mu     sync.Mutex
	events []json.RawMessage
	owners []int64
}

func (r *recordingNotifier) PublishEvent(userID int64, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, userID)
	r.events = append(r.events, data)
}
