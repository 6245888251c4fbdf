package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// PauseTask implements the pause_task operation: valid only when
// status=active.
type PauseTask struct{ Deps *Deps }

func (t *PauseTask) Name() string        { return "pause_task" }
func (t *PauseTask) Description() string { return "Pause an active task so it stops being picked up by the scheduler." }

func (t *PauseTask) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"type": "string"}},
		"required":   []string{"id"},
	}
}

func (t *PauseTask) Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any {
	idStr, _ := args["id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return errResult("InvalidInput", "id must be a valid uuid")
	}

	task, err := t.Deps.Repo.GetTask(ctx, id, sessionID)
	if err != nil {
		return errResult("StoreError", err.Error())
	}
	if task == nil {
		return errResult("NotFound", "task not found")
	}
	if task.Status != store.StatusActive {
		return errResult("IllegalStateTransition", "task must be active to pause, is "+string(task.Status))
	}

	if err := t.Deps.Repo.UpdateTaskStatus(ctx, id, store.StatusPaused); err != nil {
		return errResult("StoreError", err.Error())
	}

	return okResult(map[string]any{"id": id.String(), "status": string(store.StatusPaused)})
}
