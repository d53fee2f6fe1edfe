package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type CreateNodeParams struct {
	ID        string
	OwnerID   int64
	ParentID  *string
	Name      string
	IsFolder  bool
	Content   []byte
	Size      int64
	CanRename bool
	CanDelete bool
	CanMove   bool
	CanMoveIn bool
}

type RenameNodeParams struct {
	ID   string
	Name string
}

type MoveNodeParams struct {
	ID       string
	ParentID string
}

type UpdateContentParams struct {
	ID      string
	Content []byte
}

type SizeDelta struct {
	NodeID string
	Delta  int64
}

type EventRecord struct {
	UserID    int64
	EventType string
	Payload   interface{}
}

// Commit is every row change a single workspace operation makes. It is
// applied all-or-nothing, in field order: inserts, renames, moves, content
// updates, size deltas, file deletes, folder deletes, then the journal event.
type Commit struct {
	Inserts        []CreateNodeParams
	Renames        []RenameNodeParams
	Moves          []MoveNodeParams
	ContentUpdates []UpdateContentParams
	SizeDeltas     []SizeDelta
	DeleteFileIDs  []string
	DeleteDirIDs   []string
	Event          *EventRecord
}

// IsEmpty reports whether applying c would change nothing.
func (c *Commit) IsEmpty() bool {
	return len(c.Inserts) == 0 && len(c.Renames) == 0 && len(c.Moves) == 0 &&
		len(c.ContentUpdates) == 0 && len(c.SizeDeltas) == 0 &&
		len(c.DeleteFileIDs) == 0 && len(c.DeleteDirIDs) == 0
}

type queuedStmt struct {
	desc        string
	mustTouch   bool
	returnsRows bool
}

// ApplyCommit sends the whole commit as one pgx batch. It must run inside a
// transaction (see Store.ApplyCommit) for the all-or-nothing guarantee.
func (q *Queries) ApplyCommit(ctx context.Context, c *Commit) (*Event, error) {
	b := &pgx.Batch{}
	var stmts []queuedStmt
	queue := func(desc string, mustTouch bool, sql string, args ...any) {
		b.Queue(sql, args...)
		stmts = append(stmts, queuedStmt{desc: desc, mustTouch: mustTouch})
	}

	for _, n := range c.Inserts {
		queue("insert "+n.ID, false, `
			INSERT INTO nodes (id, owner_id, parent_id, name, is_folder, content, size,
				can_rename, can_delete, can_move, can_move_in, created_at, modified_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
			n.ID, n.OwnerID, n.ParentID, n.Name, n.IsFolder, n.Content, n.Size,
			n.CanRename, n.CanDelete, n.CanMove, n.CanMoveIn)
	}
	for _, r := range c.Renames {
		queue("rename "+r.ID, true,
			`UPDATE nodes SET name = $1, modified_at = now() WHERE id = $2`, r.Name, r.ID)
	}
	for _, m := range c.Moves {
		queue("move "+m.ID, true,
			`UPDATE nodes SET parent_id = $1, modified_at = now() WHERE id = $2`, m.ParentID, m.ID)
	}
	for _, u := range c.ContentUpdates {
		queue("content "+u.ID, true,
			`UPDATE nodes SET content = $1, size = $2, modified_at = now() WHERE id = $3 AND NOT is_folder`,
			u.Content, int64(len(u.Content)), u.ID)
	}
	for _, d := range c.SizeDeltas {
		if d.Delta == 0 {
			continue
		}
		queue("size "+d.NodeID, true,
			`UPDATE nodes SET size = size + $1 WHERE id = $2 AND is_folder`, d.Delta, d.NodeID)
	}
	if len(c.DeleteFileIDs) > 0 {
		queue("delete files", false, `DELETE FROM nodes WHERE id = ANY($1) AND NOT is_folder`, c.DeleteFileIDs)
	}
	if len(c.DeleteDirIDs) > 0 {
		queue("delete folders", false, `DELETE FROM nodes WHERE id = ANY($1) AND is_folder`, c.DeleteDirIDs)
	}

	var payload []byte
	if c.Event != nil {
		var err error
		payload, err = json.Marshal(map[string]interface{}{
			"event_type": c.Event.EventType,
			"payload":    c.Event.Payload,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
		b.Queue(`INSERT INTO event_journal (user_id, event_type, payload) VALUES ($1, $2, $3)
			RETURNING id, event_type, event_time, payload`,
			c.Event.UserID, c.Event.EventType, payload)
		stmts = append(stmts, queuedStmt{desc: "journal", returnsRows: true})
	}

	if b.Len() == 0 {
		return nil, nil
	}

	br := q.db.SendBatch(ctx, b)
	var event *Event
	for _, st := range stmts {
		if st.returnsRows {
			var ev Event
			if err := br.QueryRow().Scan(&ev.ID, &ev.EventType, &ev.EventTime, &ev.Payload); err != nil {
				br.Close()
				return nil, fmt.Errorf("%s: %w", st.desc, err)
			}
			event = &ev
			continue
		}
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return nil, fmt.Errorf("%s: %w", st.desc, translateError(err))
		}
		if st.mustTouch && tag.RowsAffected() == 0 {
			br.Close()
			return nil, fmt.Errorf("%s: %w", st.desc, ErrNodeNotFound)
		}
	}
	if err := br.Close(); err != nil {
		return nil, translateError(err)
	}

	return event, nil
}
