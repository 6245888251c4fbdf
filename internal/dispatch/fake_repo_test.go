package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// fakeRepo implements store.Repository with just enough behavior to observe
// what StoreDispatcher writes, in the same spirit as the tools package's
// purpose-built fake.
type fakeRepo struct {
	notifications []*store.StoredNotification
	createErr     error
}

func (f *fakeRepo) CreateTask(ctx context.Context, t *store.Task) error { return nil }
func (f *fakeRepo) GetTask(ctx context.Context, id uuid.UUID, sessionID string) (*store.Task, error) {
	return nil, nil
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
	return false, nil
}
func (f *fakeRepo) ReleaseLease(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeRepo) AdvanceOneShotCompleted(ctx context.Context, id uuid.UUID, firedAt time.Time) error {
	return nil
}
func (f *fakeRepo) AdvanceRecurring(ctx context.Context, id uuid.UUID, firedAt time.Time, next time.Time) error {
	return nil
}
func (f *fakeRepo) FailRecurringAdvance(ctx context.Context, id uuid.UUID, executionID uuid.UUID, reason string) error {
	return nil
}
func (f *fakeRepo) RetryOrFail(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeRepo) ReapStaleLeases(ctx context.Context, lockTimeout time.Duration, now time.Time) (int, error) {
	return 0, nil
}
func (f *fakeRepo) CreateExecution(ctx context.Context, e *store.Execution) error { return nil }
func (f *fakeRepo) FinishExecution(ctx context.Context, e *store.Execution) error { return nil }
func (f *fakeRepo) LastExecutionID(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (f *fakeRepo) ListExecutions(ctx context.Context, taskID uuid.UUID, limit int) ([]*store.Execution, error) {
	return nil, nil
}

func (f *fakeRepo) CreateStoredNotification(ctx context.Context, n *store.StoredNotification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.notifications = append(f.notifications, n)
	return nil
}
func (f *fakeRepo) PullStoredNotifications(ctx context.Context, sessionID string, limit int) ([]*store.StoredNotification, error) {
	return nil, nil
}
