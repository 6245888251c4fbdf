package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// StoreDispatcher writes a StoredNotification instead of reaching out over
// the network, for sessions that poll for due callbacks rather than
// receiving a push.
type StoreDispatcher struct {
	Repo store.Repository
}

func (d *StoreDispatcher) Dispatch(ctx context.Context, task *store.Task, fireIndex int64, scheduledFor, firedAt time.Time) Result {
	sessionID := task.CallbackConfig["session_id"]
	if sessionID == "" {
		sessionID = task.CreatedBy
	}

	envelope := BuildEnvelope(task, fireIndex, scheduledFor, firedAt)
	payload := map[string]any{
		"task_id":       envelope.TaskID,
		"task_name":     envelope.TaskName,
		"task_kind":     envelope.TaskKind,
		"scheduled_for": envelope.ScheduledFor,
		"fired_at":      envelope.FiredAt,
		"fire_index":    envelope.FireIndex,
		"payload":       envelope.Payload,
	}

	n := &store.StoredNotification{
		ID:        store.GenID(),
		TaskID:    task.ID,
		Payload:   payload,
		CreatedAt: firedAt,
		SessionID: sessionID,
	}

	if err := d.Repo.CreateStoredNotification(ctx, n); err != nil {
		return Result{Success: false, ErrorMessage: fmt.Sprintf("StoreError: %v", err)}
	}
	return Result{Success: true}
}
