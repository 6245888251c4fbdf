package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/timeutil"
)

// ResumeTask implements the resume_task operation: valid only when
// status=paused. Recurring tasks get next_fire_at recomputed from now
// rather than resuming a stale schedule; fire_count is not bumped, since no
// fire happened while paused.
type ResumeTask struct{ Deps *Deps }

func (t *ResumeTask) Name() string        { return "resume_task" }
func (t *ResumeTask) Description() string { return "Resume a paused task." }

func (t *ResumeTask) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"type": "string"}},
		"required":   []string{"id"},
	}
}

func (t *ResumeTask) Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any {
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
	if task.Status != store.StatusPaused {
		return errResult("IllegalStateTransition", "task must be paused to resume, is "+string(task.Status))
	}

	var nextFireAt *time.Time
	if task.Kind == store.KindRecurring {
		loc := resolveLoc(task.Timezone)
		next, err := timeutil.NextAfter(task.Cron, loc, time.Now().UTC())
		if err != nil {
			return errResult("InvalidCron", err.Error())
		}
		nextFireAt = &next
	}

	if err := t.Deps.Repo.UpdateTaskForResume(ctx, id, nextFireAt); err != nil {
		return errResult("StoreError", err.Error())
	}

	result := map[string]any{"id": id.String(), "status": string(store.StatusActive)}
	if nextFireAt != nil {
		result["next_fire_at"] = nextFireAt.UTC().Format(time.RFC3339)
	}
	return okResult(result)
}
