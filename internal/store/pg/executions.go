package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

func (s *Store) CreateExecution(ctx context.Context, e *store.Execution) error {
	if e.ID == uuid.Nil {
		e.ID = store.GenID()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = nowUTC()
	}

	payload, err := marshalJSONB(e.RequestPayload)
	if err != nil {
		return fmt.Errorf("encoding request_payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (
			id, task_id, started_at, finished_at, status, response_code, response_body,
			error_message, duration_ms, retry_number, request_url, request_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.TaskID, e.StartedAt, nilTime(e.FinishedAt), string(e.Status), e.ResponseCode, nilStr(e.ResponseBody),
		nilStr(e.ErrorMessage), e.DurationMs, e.RetryNumber, e.RequestURL, payload,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// FinishExecution transitions a running execution to a terminal status,
// the one legal transition an Execution ever makes.
func (s *Store) FinishExecution(ctx context.Context, e *store.Execution) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE executions SET
			finished_at = $1, status = $2, response_code = $3, response_body = $4,
			error_message = $5, duration_ms = $6
		WHERE id = $7`,
		nilTime(e.FinishedAt), string(e.Status), e.ResponseCode, nilStr(e.ResponseBody),
		nilStr(e.ErrorMessage), e.DurationMs, e.ID,
	)
	if err != nil {
		return fmt.Errorf("finish execution: %w", err)
	}
	return nil
}

func (s *Store) LastExecutionID(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM executions WHERE task_id = $1 ORDER BY started_at DESC LIMIT 1`,
		taskID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("last execution id: %w", err)
	}
	return id, nil
}

func (s *Store) ListExecutions(ctx context.Context, taskID uuid.UUID, limit int) ([]*store.Execution, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, started_at, finished_at, status, response_code, response_body,
			error_message, duration_ms, retry_number, request_url, request_payload
		FROM executions WHERE task_id = $1 ORDER BY started_at DESC LIMIT $2`,
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var out []*store.Execution
	for rows.Next() {
		e, err := scanExecutionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExecutionRow(scan func(dest ...any) error) (*store.Execution, error) {
	var (
		e            store.Execution
		finishedAt   sql.NullTime
		responseCode sql.NullInt32
		responseBody sql.NullString
		errorMessage sql.NullString
		durationMs   sql.NullInt64
		payload      []byte
	)
	err := scan(
		&e.ID, &e.TaskID, &e.StartedAt, &finishedAt, &e.Status, &responseCode, &responseBody,
		&errorMessage, &durationMs, &e.RetryNumber, &e.RequestURL, &payload,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		e.FinishedAt = &finishedAt.Time
	}
	if responseCode.Valid {
		v := int(responseCode.Int32)
		e.ResponseCode = &v
	}
	e.ResponseBody = responseBody.String
	e.ErrorMessage = errorMessage.String
	if durationMs.Valid {
		e.DurationMs = &durationMs.Int64
	}
	if err := unmarshalJSONMap(payload, &e.RequestPayload); err != nil {
		return nil, fmt.Errorf("decoding request_payload: %w", err)
	}
	return &e, nil
}
