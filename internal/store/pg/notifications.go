package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

func (s *Store) CreateStoredNotification(ctx context.Context, n *store.StoredNotification) error {
	if n.ID == uuid.Nil {
		n.ID = store.GenID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = nowUTC()
	}

	payload, err := marshalJSONB(n.Payload)
	if err != nil {
		return fmt.Errorf("encoding notification payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stored_notifications (id, task_id, payload, created_at, read_at, session_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.TaskID, payload, n.CreatedAt, nilTime(n.ReadAt), n.SessionID,
	)
	if err != nil {
		return fmt.Errorf("insert stored notification: %w", err)
	}
	return nil
}

// PullStoredNotifications returns up to limit unread notifications for a
// session and marks them read in the same call, so a notification is
// delivered to exactly one poller.
func (s *Store) PullStoredNotifications(ctx context.Context, sessionID string, limit int) ([]*store.StoredNotification, error) {
	if limit <= 0 {
		limit = 50
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pull stored notifications: begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, task_id, payload, created_at, read_at, session_id
		FROM stored_notifications
		WHERE session_id = $1 AND read_at IS NULL
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pull stored notifications: select: %w", err)
	}

	var (
		out []*store.StoredNotification
		ids []any
	)
	for rows.Next() {
		var (
			n       store.StoredNotification
			payload []byte
			readAt  sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.TaskID, &payload, &n.CreatedAt, &readAt, &n.SessionID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning stored notification: %w", err)
		}
		if err := unmarshalJSONMap(payload, &n.Payload); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decoding notification payload: %w", err)
		}
		out = append(out, &n)
		ids = append(ids, n.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(out) == 0 {
		return out, tx.Commit()
	}

	now := nowUTC()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE stored_notifications SET read_at = $1 WHERE id = $2`, now, id,
		); err != nil {
			return nil, fmt.Errorf("marking stored notification read: %w", err)
		}
	}
	for _, n := range out {
		n.ReadAt = &now
	}

	return out, tx.Commit()
}
