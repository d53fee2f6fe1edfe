package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	DefaultEventPageSize = 100
	MaxEventPageSize     = 500
)

// Event is one row of the per-user journal. Payload holds the
// {"event_type", "payload"} envelope written by ApplyCommit.
type Event struct {
	ID        int64           `json:"id" db:"id"`
	EventType string          `json:"event_type" db:"event_type"`
	EventTime time.Time       `json:"event_time" db:"event_time"`
	Payload   json.RawMessage `json:"payload" db:"payload" swaggertype:"object"`
}

// EventPage selects journal rows newer than SinceID, oldest first. Limit is
// clamped to MaxEventPageSize; zero means DefaultEventPageSize. An empty
// Types matches every event type.
type EventPage struct {
	SinceID int64
	Limit   int
	Types   []string
}

func (p EventPage) limit() int {
	switch {
	case p.Limit <= 0:
		return DefaultEventPageSize
	case p.Limit > MaxEventPageSize:
		return MaxEventPageSize
	}
	return p.Limit
}

func (q *Queries) ListEvents(ctx context.Context, userID int64, p EventPage) ([]Event, error) {
	query := `SELECT id, event_type, event_time, payload
		FROM event_journal
		WHERE user_id = $1 AND id > $2`
	args := []any{userID, p.SinceID, p.limit()}
	if len(p.Types) > 0 {
		query += ` AND event_type = ANY($4)`
		args = append(args, p.Types)
	}
	query += ` ORDER BY id LIMIT $3`

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	events, err := pgx.CollectRows(rows, pgx.RowToStructByName[Event])
	if err != nil {
		return nil, err
	}
	if events == nil {
		return []Event{}, nil
	}
	return events, nil
}
