package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// fakeRepo is an in-memory store.Repository instrumented to record which
// lifecycle calls a processed task triggered, mirroring the tools package's
// purpose-built test double.
type fakeRepo struct {
	mu sync.Mutex

	tasks map[uuid.UUID]*store.Task

	leaseResult bool
	leaseErr    error

	createStoredErr error

	createExecutionCalls int
	finishExecutionCalls []*store.Execution
	advanceOneShotCalls  int
	advanceRecurringArgs []time.Time
	failRecurringCalls   int
	retryOrFailCalls     int
	reapCount            int
	reapErr              error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: make(map[uuid.UUID]*store.Task), leaseResult: true}
}

func (f *fakeRepo) CreateTask(ctx context.Context, t *store.Task) error { return nil }
func (f *fakeRepo) GetTask(ctx context.Context, id uuid.UUID, sessionID string) (*store.Task, error) {
	return f.tasks[id], nil
}
func (f *fakeRepo) ListTasks(ctx context.Context, filter store.ListFilter) ([]*store.Task, error) {
	return nil, nil
}
func (f *fakeRepo) CountActiveTasks(ctx context.Context, sessionID string) (int, error) { return 0, nil }
func (f *fakeRepo) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status store.TaskStatus) error {
	return nil
}
func (f *fakeRepo) UpdateTaskForResume(ctx context.Context, id uuid.UUID, nextFireAt *time.Time) error {
	return nil
}
func (f *fakeRepo) DueTasks(ctx context.Context, now time.Time, limit int) ([]*store.Task, error) {
	return nil, nil
}

func (f *fakeRepo) AcquireLease(ctx context.Context, id uuid.UUID, workerID string, now time.Time) (bool, error) {
	return f.leaseResult, f.leaseErr
}
func (f *fakeRepo) ReleaseLease(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeRepo) AdvanceOneShotCompleted(ctx context.Context, id uuid.UUID, firedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceOneShotCalls++
	return nil
}
func (f *fakeRepo) AdvanceRecurring(ctx context.Context, id uuid.UUID, firedAt time.Time, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceRecurringArgs = append(f.advanceRecurringArgs, next)
	return nil
}
func (f *fakeRepo) FailRecurringAdvance(ctx context.Context, id uuid.UUID, executionID uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRecurringCalls++
	return nil
}
func (f *fakeRepo) RetryOrFail(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retryOrFailCalls++
	return nil
}
func (f *fakeRepo) ReapStaleLeases(ctx context.Context, lockTimeout time.Duration, now time.Time) (int, error) {
	return f.reapCount, f.reapErr
}

func (f *fakeRepo) CreateExecution(ctx context.Context, e *store.Execution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createExecutionCalls++
	return nil
}
func (f *fakeRepo) FinishExecution(ctx context.Context, e *store.Execution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishExecutionCalls = append(f.finishExecutionCalls, e)
	return nil
}
func (f *fakeRepo) LastExecutionID(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (f *fakeRepo) ListExecutions(ctx context.Context, taskID uuid.UUID, limit int) ([]*store.Execution, error) {
	return nil, nil
}

func (f *fakeRepo) CreateStoredNotification(ctx context.Context, n *store.StoredNotification) error {
	return f.createStoredErr
}
func (f *fakeRepo) PullStoredNotifications(ctx context.Context, sessionID string, limit int) ([]*store.StoredNotification, error) {
	return nil, nil
}
