package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows list_tasks results. Zero values mean "no filter".
type ListFilter struct {
	SessionID string
	Status    TaskStatus
	Kind      TaskKind
	Tags      []string
	Limit     int
	Offset    int
}

// Repository is the typed, durable store over Tasks, Executions, and
// StoredNotifications. Implementations must make AcquireLease and
// ReapStaleLeases atomic compare-and-set operations — they are the only
// cross-process coordination primitive in the system.
type Repository interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id uuid.UUID, sessionID string) (*Task, error)
	ListTasks(ctx context.Context, f ListFilter) ([]*Task, error)
	CountActiveTasks(ctx context.Context, sessionID string) (int, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status TaskStatus) error
	UpdateTaskForResume(ctx context.Context, id uuid.UUID, nextFireAt *time.Time) error

	// DueTasks returns up to limit tasks matching the due_tasks predicate:
	// status=active AND locked_at IS NULL AND
	// ((kind=one_shot AND fire_at<=now) OR (kind=recurring AND next_fire_at<=now)),
	// ordered ascending by coalesce(next_fire_at, fire_at).
	DueTasks(ctx context.Context, now time.Time, limit int) ([]*Task, error)

	// AcquireLease atomically sets locked_at/locked_by iff the row still has
	// locked_at IS NULL AND status=active. Returns false if another worker
	// already won the race.
	AcquireLease(ctx context.Context, id uuid.UUID, workerID string, now time.Time) (bool, error)
	ReleaseLease(ctx context.Context, id uuid.UUID) error

	// AdvanceOneShotCompleted finalizes a one-shot task after a successful
	// fire: status=completed, last_fired_at=now, fire_count+=1, lease cleared.
	AdvanceOneShotCompleted(ctx context.Context, id uuid.UUID, firedAt time.Time) error

	// AdvanceRecurring advances a recurring task after a successful fire:
	// next_fire_at=next, fire_count+=1, last_fired_at=now, lease cleared.
	AdvanceRecurring(ctx context.Context, id uuid.UUID, firedAt time.Time, next time.Time) error

	// FailRecurringAdvance marks a recurring task failed because next_after
	// could not compute a next fire time after a successful dispatch. The
	// lease is cleared; reason is recorded on the most recent Execution's
	// error_message.
	FailRecurringAdvance(ctx context.Context, id uuid.UUID, executionID uuid.UUID, reason string) error

	// RetryOrFail clears the lease without advancing fire_at/next_fire_at,
	// increments current_retry_count, and transitions to failed once the
	// count exceeds max_retries.
	RetryOrFail(ctx context.Context, id uuid.UUID) error

	// ReapStaleLeases clears locked_at/locked_by on rows whose locked_at is
	// older than lockTimeout. Returns the number of rows reaped.
	ReapStaleLeases(ctx context.Context, lockTimeout time.Duration, now time.Time) (int, error)

	CreateExecution(ctx context.Context, e *Execution) error
	FinishExecution(ctx context.Context, e *Execution) error
	LastExecutionID(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error)
	ListExecutions(ctx context.Context, taskID uuid.UUID, limit int) ([]*Execution, error)

	CreateStoredNotification(ctx context.Context, n *StoredNotification) error
	PullStoredNotifications(ctx context.Context, sessionID string, limit int) ([]*StoredNotification, error)
}
