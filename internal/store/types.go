// Package store defines the durable task model and the repository contract
// the rest of the scheduling engine consumes. The Postgres implementation
// lives in the pg subpackage; this package is storage-agnostic.
package store

import (
	"time"

	"github.com/google/uuid"
)

// GenID generates a new time-ordered UUID (v7), matching the teacher's
// store.GenNewID() convention.
func GenID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// TaskKind distinguishes a one-shot fire from a recurring schedule.
type TaskKind string

const (
	KindOneShot   TaskKind = "one_shot"
	KindRecurring TaskKind = "recurring"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	StatusActive    TaskStatus = "active"
	StatusPaused    TaskStatus = "paused"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// CallbackKind selects which dispatcher handles a Task's firing.
type CallbackKind string

const (
	CallbackWebhook CallbackKind = "webhook"
	CallbackChat    CallbackKind = "chat"
	CallbackEmail   CallbackKind = "email"
	CallbackStore   CallbackKind = "store"
)

// Task is a durable scheduled unit, one-shot or recurring.
type Task struct {
	ID          uuid.UUID
	Name        string
	Description string

	Kind TaskKind

	FireAt      *time.Time
	Cron        string
	Timezone    string
	NextFireAt  *time.Time

	CallbackKind   CallbackKind
	CallbackConfig map[string]string

	Payload map[string]any

	Status TaskStatus

	MaxRetries        int
	RetryDelaySeconds int
	CurrentRetryCount int

	LastFiredAt *time.Time
	FireCount   int64

	CreatedBy string
	Tags      []string

	LockedAt *time.Time
	LockedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLeasable reports whether the task is eligible for lease acquisition
// under the invariant: status=active AND locked_at is absent.
func (t *Task) IsLeasable() bool {
	return t.Status == StatusActive && t.LockedAt == nil
}

// ExecutionStatus is the terminal (or in-flight) state of one dispatch
// attempt.
type ExecutionStatus string

const (
	ExecRunning ExecutionStatus = "running"
	ExecSuccess ExecutionStatus = "success"
	ExecFailed  ExecutionStatus = "failed"
	ExecTimeout ExecutionStatus = "timeout"
	ExecSkipped ExecutionStatus = "skipped"
)

// Execution is an immutable record of one dispatch attempt. Once created in
// ExecRunning it transitions exactly once, to a terminal status.
type Execution struct {
	ID         uuid.UUID
	TaskID     uuid.UUID
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     ExecutionStatus

	ResponseCode *int
	ResponseBody string
	ErrorMessage string
	DurationMs   *int64
	RetryNumber  int

	RequestURL     string
	RequestPayload map[string]any
}

// MaxResponseBodyBytes bounds the stored, truncated response body.
const MaxResponseBodyBytes = 1000

// StoredNotification is the payload delivered when callback_kind=store,
// awaiting pull by its owning session.
type StoredNotification struct {
	ID        uuid.UUID
	TaskID    uuid.UUID
	Payload   map[string]any
	CreatedAt time.Time
	ReadAt    *time.Time
	SessionID string
}
