package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/dispatch"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

func storeRegistry(repo store.Repository) *dispatch.Registry {
	return &dispatch.Registry{Store: &dispatch.StoreDispatcher{Repo: repo}}
}

func TestExecutionStatus_ClassifiesSuccessTimeoutAndFailure(t *testing.T) {
	cases := []struct {
		name   string
		result dispatch.Result
		want   store.ExecutionStatus
	}{
		{"success", dispatch.Result{Success: true}, store.ExecSuccess},
		{"timeout", dispatch.Result{Success: false, Timeout: true}, store.ExecTimeout},
		{"ordinary failure", dispatch.Result{Success: false}, store.ExecFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := executionStatus(tc.result); got != tc.want {
				t.Errorf("executionStatus(%+v) = %v, want %v", tc.result, got, tc.want)
			}
		})
	}
}

func newTestWorker(repo store.Repository, registry *dispatch.Registry) *Worker {
	return NewWorker(repo, registry, time.Hour, time.Minute, 10)
}

func oneShotTask() *store.Task {
	return &store.Task{
		ID:           store.GenID(),
		Name:         "reminder",
		Kind:         store.KindOneShot,
		Status:       store.StatusActive,
		CallbackKind: store.CallbackStore,
		FireCount:    0,
	}
}

func TestWorker_ProcessTask_SkipsWhenLeaseLost(t *testing.T) {
	repo := newFakeRepo()
	repo.leaseResult = false
	w := newTestWorker(repo, storeRegistry(repo))

	task := oneShotTask()
	w.processTask(context.Background(), task)

	if repo.createExecutionCalls != 0 {
		t.Errorf("expected no execution created after losing the lease race, got %d", repo.createExecutionCalls)
	}
}

func TestWorker_ProcessTask_OneShotSuccessAdvancesCompleted(t *testing.T) {
	repo := newFakeRepo()
	w := newTestWorker(repo, storeRegistry(repo))

	task := oneShotTask()
	w.processTask(context.Background(), task)

	if repo.createExecutionCalls != 1 {
		t.Fatalf("createExecutionCalls = %d, want 1", repo.createExecutionCalls)
	}
	if len(repo.finishExecutionCalls) != 1 || repo.finishExecutionCalls[0].Status != store.ExecSuccess {
		t.Fatalf("expected one successful finish_execution call, got %+v", repo.finishExecutionCalls)
	}
	if repo.advanceOneShotCalls != 1 {
		t.Errorf("advanceOneShotCalls = %d, want 1", repo.advanceOneShotCalls)
	}
}

func TestWorker_ProcessTask_RecurringSuccessAdvancesNextFire(t *testing.T) {
	repo := newFakeRepo()
	w := newTestWorker(repo, storeRegistry(repo))

	task := &store.Task{
		ID:           store.GenID(),
		Name:         "daily digest",
		Kind:         store.KindRecurring,
		Status:       store.StatusActive,
		Cron:         "0 9 * * *",
		Timezone:     "UTC",
		CallbackKind: store.CallbackStore,
	}
	w.processTask(context.Background(), task)

	if repo.advanceOneShotCalls != 0 {
		t.Errorf("expected no one-shot advance for a recurring task")
	}
	if len(repo.advanceRecurringArgs) != 1 {
		t.Fatalf("advanceRecurringArgs = %v, want one entry", repo.advanceRecurringArgs)
	}
	if !repo.advanceRecurringArgs[0].After(time.Now()) {
		t.Errorf("expected the computed next fire time to be in the future, got %v", repo.advanceRecurringArgs[0])
	}
}

func TestWorker_ProcessTask_FailureTriggersRetryOrFail(t *testing.T) {
	repo := newFakeRepo()
	repo.createStoredErr = context.DeadlineExceeded
	w := newTestWorker(repo, storeRegistry(repo))

	task := oneShotTask()
	w.processTask(context.Background(), task)

	if len(repo.finishExecutionCalls) != 1 || repo.finishExecutionCalls[0].Status != store.ExecFailed {
		t.Fatalf("expected one failed finish_execution call, got %+v", repo.finishExecutionCalls)
	}
	if repo.retryOrFailCalls != 1 {
		t.Errorf("retryOrFailCalls = %d, want 1", repo.retryOrFailCalls)
	}
	if repo.advanceOneShotCalls != 0 {
		t.Errorf("expected no advance on a failed dispatch")
	}
}

func TestWorker_Advance_RecurringInvalidCronFailsTask(t *testing.T) {
	repo := newFakeRepo()
	w := newTestWorker(repo, storeRegistry(repo))

	task := &store.Task{
		ID:       store.GenID(),
		Kind:     store.KindRecurring,
		Cron:     "not-a-cron",
		Timezone: "UTC",
	}
	w.advance(context.Background(), task, store.GenID(), time.Now())

	if repo.failRecurringCalls != 1 {
		t.Errorf("failRecurringCalls = %d, want 1", repo.failRecurringCalls)
	}
	if len(repo.advanceRecurringArgs) != 0 {
		t.Errorf("expected no successful advance when the cron cannot be evaluated")
	}
}

func TestWorker_StartStop_IdempotentAndClean(t *testing.T) {
	repo := newFakeRepo()
	repo.leaseResult = false // avoid processing real work while the loop spins
	w := NewWorker(repo, storeRegistry(repo), 5*time.Millisecond, time.Minute, 10)

	ctx := context.Background()
	w.Start(ctx)
	w.Start(ctx) // second Start must be a no-op, not a second pair of goroutines

	time.Sleep(20 * time.Millisecond)

	w.Stop()
	w.Stop() // second Stop must be a no-op, not a panic on closing a closed channel
}
