package tools

import (
	"context"
	"testing"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

func seedTask(repo *fakeRepo, sessionID string, status store.TaskStatus, kind store.TaskKind) *store.Task {
	task := &store.Task{
		ID:        store.GenID(),
		Name:      "t",
		Kind:      kind,
		Status:    status,
		CreatedBy: sessionID,
		CreatedAt: time.Now().UTC(),
	}
	if kind == store.KindRecurring {
		task.Cron = "0 9 * * *"
		task.Timezone = "UTC"
	}
	repo.tasks[task.ID] = task
	return task
}

func TestGetTask_NotFoundForUnknownID(t *testing.T) {
	tool := &GetTask{Deps: testDeps(newFakeRepo())}
	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": store.GenID().String()})
	if result["success"] != false {
		t.Errorf("expected failure for an unknown id, got %v", result)
	}
}

func TestGetTask_RejectsMalformedID(t *testing.T) {
	tool := &GetTask{Deps: testDeps(newFakeRepo())}
	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": "not-a-uuid"})
	if result["success"] != false {
		t.Errorf("expected failure for a malformed id, got %v", result)
	}
}

func TestGetTask_ReturnsSummary(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusActive, store.KindOneShot)
	tool := &GetTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if result["id"] != task.ID.String() {
		t.Errorf("id = %v, want %v", result["id"], task.ID.String())
	}
}

func TestGetTask_IncludesLastExecutionIDWhenHistoryNotRequested(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusActive, store.KindOneShot)
	exec := &store.Execution{ID: store.GenID(), TaskID: task.ID, Status: store.ExecSuccess, StartedAt: time.Now().UTC()}
	repo.execs[task.ID] = []*store.Execution{exec}
	tool := &GetTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if result["last_execution_id"] != exec.ID.String() {
		t.Errorf("last_execution_id = %v, want %v", result["last_execution_id"], exec.ID.String())
	}
	if _, ok := result["executions"]; ok {
		t.Error("executions should be absent when include_history is not set")
	}
}

func TestGetTask_OmitsLastExecutionIDWhenNoExecutionsExist(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusActive, store.KindOneShot)
	tool := &GetTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if _, ok := result["last_execution_id"]; ok {
		t.Error("last_execution_id should be absent when the task has never run")
	}
}

func TestListTasks_DefaultsToActiveStatusForSession(t *testing.T) {
	repo := newFakeRepo()
	seedTask(repo, "session-1", store.StatusActive, store.KindOneShot)
	seedTask(repo, "session-1", store.StatusPaused, store.KindOneShot)
	seedTask(repo, "session-2", store.StatusActive, store.KindOneShot)

	tool := &ListTasks{Deps: testDeps(repo)}
	result := tool.Execute(context.Background(), "session-1", map[string]any{})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if result["count"] != 1 {
		t.Errorf("count = %v, want 1 (only session-1's active task)", result["count"])
	}
}

func TestCancelTask_RequiresActiveOrPaused(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusCompleted, store.KindOneShot)
	tool := &CancelTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != false {
		t.Errorf("expected rejection of cancelling a completed task, got %v", result)
	}
}

func TestCancelTask_CancelsActiveTask(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusActive, store.KindOneShot)
	tool := &CancelTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if repo.tasks[task.ID].Status != store.StatusCancelled {
		t.Errorf("stored status = %v, want cancelled", repo.tasks[task.ID].Status)
	}
}

func TestPauseTask_RequiresActive(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusPaused, store.KindOneShot)
	tool := &PauseTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != false {
		t.Errorf("expected rejection of pausing an already-paused task, got %v", result)
	}
}

func TestPauseTask_PausesActiveTask(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusActive, store.KindOneShot)
	tool := &PauseTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if repo.tasks[task.ID].Status != store.StatusPaused {
		t.Errorf("stored status = %v, want paused", repo.tasks[task.ID].Status)
	}
}

func TestResumeTask_RequiresPaused(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusActive, store.KindOneShot)
	tool := &ResumeTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != false {
		t.Errorf("expected rejection of resuming an already-active task, got %v", result)
	}
}

func TestResumeTask_OneShotDoesNotComputeNextFireAt(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusPaused, store.KindOneShot)
	tool := &ResumeTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if _, ok := result["next_fire_at"]; ok {
		t.Error("expected no next_fire_at when resuming a one-shot task")
	}
	if repo.tasks[task.ID].Status != store.StatusActive {
		t.Errorf("stored status = %v, want active", repo.tasks[task.ID].Status)
	}
}

func TestResumeTask_RecurringRecomputesNextFireAtWithoutBumpingFireCount(t *testing.T) {
	repo := newFakeRepo()
	task := seedTask(repo, "session-1", store.StatusPaused, store.KindRecurring)
	task.FireCount = 5
	tool := &ResumeTask{Deps: testDeps(repo)}

	result := tool.Execute(context.Background(), "session-1", map[string]any{"id": task.ID.String()})
	if result["success"] != true {
		t.Fatalf("expected success, got %v", result)
	}
	if result["next_fire_at"] == nil {
		t.Error("expected next_fire_at to be recomputed for a recurring task")
	}
	if repo.tasks[task.ID].FireCount != 5 {
		t.Errorf("FireCount = %d, want unchanged at 5 (resume is not a fire event)", repo.tasks[task.ID].FireCount)
	}
}
