package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

type taskRow struct {
	ID          uuid.UUID
	Name        string
	Description sql.NullString
	Kind        string
	FireAt      sql.NullTime
	Cron        sql.NullString
	Timezone    sql.NullString
	NextFireAt  sql.NullTime

	CallbackKind   string
	CallbackConfig []byte
	Payload        []byte

	Status string

	MaxRetries        int
	RetryDelaySeconds int
	CurrentRetryCount int

	LastFiredAt sql.NullTime
	FireCount   int64

	CreatedBy string
	Tags      []byte

	LockedAt sql.NullTime
	LockedBy sql.NullString

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *taskRow) toTask() (*store.Task, error) {
	t := &store.Task{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description.String,
		Kind:              store.TaskKind(r.Kind),
		Cron:              r.Cron.String,
		Timezone:          r.Timezone.String,
		CallbackKind:      store.CallbackKind(r.CallbackKind),
		Status:            store.TaskStatus(r.Status),
		MaxRetries:        r.MaxRetries,
		RetryDelaySeconds: r.RetryDelaySeconds,
		CurrentRetryCount: r.CurrentRetryCount,
		FireCount:         r.FireCount,
		CreatedBy:         r.CreatedBy,
		Tags:              scanStringArray(r.Tags),
		LockedBy:          r.LockedBy.String,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.FireAt.Valid {
		t.FireAt = &r.FireAt.Time
	}
	if r.NextFireAt.Valid {
		t.NextFireAt = &r.NextFireAt.Time
	}
	if r.LastFiredAt.Valid {
		t.LastFiredAt = &r.LastFiredAt.Time
	}
	if r.LockedAt.Valid {
		t.LockedAt = &r.LockedAt.Time
	}
	if err := unmarshalJSONStrMap(r.CallbackConfig, &t.CallbackConfig); err != nil {
		return nil, fmt.Errorf("decoding callback_config: %w", err)
	}
	if err := unmarshalJSONMap(r.Payload, &t.Payload); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return t, nil
}

const taskColumns = `id, name, description, kind, fire_at, cron, timezone, next_fire_at,
	callback_kind, callback_config, payload, status, max_retries, retry_delay_seconds,
	current_retry_count, last_fired_at, fire_count, created_by, tags, locked_at, locked_by,
	created_at, updated_at`

func scanTaskRow(scan func(dest ...any) error) (*store.Task, error) {
	var r taskRow
	err := scan(
		&r.ID, &r.Name, &r.Description, &r.Kind, &r.FireAt, &r.Cron, &r.Timezone, &r.NextFireAt,
		&r.CallbackKind, &r.CallbackConfig, &r.Payload, &r.Status, &r.MaxRetries, &r.RetryDelaySeconds,
		&r.CurrentRetryCount, &r.LastFiredAt, &r.FireCount, &r.CreatedBy, &r.Tags, &r.LockedAt, &r.LockedBy,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r.toTask()
}

func (s *Store) CreateTask(ctx context.Context, t *store.Task) error {
	if t.ID == uuid.Nil {
		t.ID = store.GenID()
	}
	now := nowUTC()
	t.CreatedAt, t.UpdatedAt = now, now

	cbConfig, err := marshalJSONB(t.CallbackConfig)
	if err != nil {
		return fmt.Errorf("encoding callback_config: %w", err)
	}
	payload, err := marshalJSONB(t.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, name, description, kind, fire_at, cron, timezone, next_fire_at,
			callback_kind, callback_config, payload, status, max_retries, retry_delay_seconds,
			current_retry_count, last_fired_at, fire_count, created_by, tags, locked_at, locked_by,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21,
			$22, $23
		)`,
		t.ID, t.Name, nilStr(t.Description), string(t.Kind), nilTime(t.FireAt), nilStr(t.Cron), nilStr(t.Timezone), nilTime(t.NextFireAt),
		string(t.CallbackKind), cbConfig, payload, string(t.Status), t.MaxRetries, t.RetryDelaySeconds,
		t.CurrentRetryCount, nilTime(t.LastFiredAt), t.FireCount, t.CreatedBy, pqStringArray(t.Tags), nilTime(t.LockedAt), nilStr(t.LockedBy),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID, sessionID string) (*store.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	args := []any{id}
	if sessionID != "" {
		query += ` AND created_by = $2`
		args = append(args, sessionID)
	}
	row := s.db.QueryRowContext(ctx, query, args...)
	t, err := scanTaskRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, f store.ListFilter) ([]*store.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	i := 1

	if f.SessionID != "" {
		query += fmt.Sprintf(" AND created_by = $%d", i)
		args = append(args, f.SessionID)
		i++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, string(f.Status))
		i++
	}
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", i)
		args = append(args, string(f.Kind))
		i++
	}
	if len(f.Tags) > 0 {
		query += fmt.Sprintf(" AND tags @> $%d::text[]", i)
		args = append(args, pqStringArray(f.Tags))
		i++
	}

	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d", i)
	args = append(args, limit)
	i++

	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", i)
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*store.Task
	for rows.Next() {
		t, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountActiveTasks(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE created_by = $1 AND status IN ($2, $3)`,
		sessionID, string(store.StatusActive), string(store.StatusPaused),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active tasks: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status store.TaskStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

// UpdateTaskForResume reactivates a paused task, recomputing next_fire_at
// (for recurring tasks) or leaving fire_at untouched (for one-shots), and
// clears any stale lease without touching fire_count.
func (s *Store) UpdateTaskForResume(ctx context.Context, id uuid.UUID, nextFireAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = $1, next_fire_at = $2, locked_at = NULL, locked_by = NULL, updated_at = $3
		WHERE id = $4`,
		string(store.StatusActive), nilTime(nextFireAt), nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update task for resume: %w", err)
	}
	return nil
}

// DueTasks implements the due_tasks predicate: status=active AND
// locked_at IS NULL AND ((kind=one_shot AND fire_at<=now) OR
// (kind=recurring AND next_fire_at<=now)), ordered ascending by
// coalesce(next_fire_at, fire_at).
func (s *Store) DueTasks(ctx context.Context, now time.Time, limit int) ([]*store.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = $1 AND locked_at IS NULL
		  AND (
		    (kind = $2 AND fire_at <= $3) OR
		    (kind = $4 AND next_fire_at <= $3)
		  )
		ORDER BY COALESCE(next_fire_at, fire_at) ASC
		LIMIT $5`,
		string(store.StatusActive), string(store.KindOneShot), now, string(store.KindRecurring), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("due tasks: %w", err)
	}
	defer rows.Close()

	var out []*store.Task
	for rows.Next() {
		t, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning due task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AcquireLease is the sole cross-process coordination primitive: the
// UPDATE's WHERE clause re-checks locked_at IS NULL AND status=active in the
// same statement that sets them, so two workers racing on the same row can
// never both succeed.
func (s *Store) AcquireLease(ctx context.Context, id uuid.UUID, workerID string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET locked_at = $1, locked_by = $2, updated_at = $1
		WHERE id = $3 AND locked_at IS NULL AND status = $4`,
		now, workerID, id, string(store.StatusActive),
	)
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lease rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *Store) ReleaseLease(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET locked_at = NULL, locked_by = NULL, updated_at = $1 WHERE id = $2`,
		nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

func (s *Store) AdvanceOneShotCompleted(ctx context.Context, id uuid.UUID, firedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = $1, last_fired_at = $2, fire_count = fire_count + 1,
			locked_at = NULL, locked_by = NULL, updated_at = $2
		WHERE id = $3`,
		string(store.StatusCompleted), firedAt, id,
	)
	if err != nil {
		return fmt.Errorf("advance one-shot completed: %w", err)
	}
	return nil
}

func (s *Store) AdvanceRecurring(ctx context.Context, id uuid.UUID, firedAt time.Time, next time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET next_fire_at = $1, fire_count = fire_count + 1, last_fired_at = $2,
			locked_at = NULL, locked_by = NULL, updated_at = $2
		WHERE id = $3`,
		next, firedAt, id,
	)
	if err != nil {
		return fmt.Errorf("advance recurring: %w", err)
	}
	return nil
}

func (s *Store) FailRecurringAdvance(ctx context.Context, id uuid.UUID, executionID uuid.UUID, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fail recurring advance: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = $1, locked_at = NULL, locked_by = NULL, updated_at = $2 WHERE id = $3`,
		string(store.StatusFailed), nowUTC(), id,
	); err != nil {
		return fmt.Errorf("fail recurring advance: update task: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE executions SET error_message = $1 WHERE id = $2`,
		reason, executionID,
	); err != nil {
		return fmt.Errorf("fail recurring advance: update execution: %w", err)
	}

	return tx.Commit()
}

// RetryOrFail clears the lease and increments current_retry_count; once the
// incremented count exceeds max_retries the task transitions to failed,
// otherwise it stays active for the next due_tasks pass to retry it (at
// next_fire_at / fire_at as already scheduled, unmodified here).
func (s *Store) RetryOrFail(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			current_retry_count = current_retry_count + 1,
			locked_at = NULL, locked_by = NULL, updated_at = $1,
			status = CASE WHEN current_retry_count + 1 > max_retries THEN $2 ELSE status END
		WHERE id = $3`,
		nowUTC(), string(store.StatusFailed), id,
	)
	if err != nil {
		return fmt.Errorf("retry or fail: %w", err)
	}
	if _, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("retry or fail rows affected: %w", err)
	}
	return nil
}

// ReapStaleLeases clears the lease on any row held longer than lockTimeout,
// recovering tasks orphaned by a worker that crashed mid-dispatch.
func (s *Store) ReapStaleLeases(ctx context.Context, lockTimeout time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-lockTimeout)
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET locked_at = NULL, locked_by = NULL, updated_at = $1
		WHERE locked_at IS NOT NULL AND locked_at < $2`,
		now, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reap stale leases: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reap stale leases rows affected: %w", err)
	}
	return int(n), nil
}
