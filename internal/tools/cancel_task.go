package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// CancelTask implements the cancel_task operation: valid only from
// {active, paused}.
type CancelTask struct{ Deps *Deps }

func (t *CancelTask) Name() string        { return "cancel_task" }
func (t *CancelTask) Description() string { return "Cancel an active or paused task." }

func (t *CancelTask) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"type": "string"}},
		"required":   []string{"id"},
	}
}

func (t *CancelTask) Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any {
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
	if task.Status != store.StatusActive && task.Status != store.StatusPaused {
		return errResult("IllegalStateTransition", "task must be active or paused to cancel, is "+string(task.Status))
	}

	if err := t.Deps.Repo.UpdateTaskStatus(ctx, id, store.StatusCancelled); err != nil {
		return errResult("StoreError", err.Error())
	}

	return okResult(map[string]any{"id": id.String(), "status": string(store.StatusCancelled)})
}
