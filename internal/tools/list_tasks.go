package tools

import (
	"context"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListTasks implements the list_tasks operation, scoped to the caller's
// session and defaulting to status=active.
type ListTasks struct{ Deps *Deps }

func (t *ListTasks) Name() string        { return "list_tasks" }
func (t *ListTasks) Description() string { return "List tasks owned by the calling session." }

func (t *ListTasks) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "description": "Defaults to \"active\"."},
			"kind":   map[string]any{"type": "string"},
			"tags":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"limit":  map[string]any{"type": "integer", "description": "Default 50, capped at 200."},
			"offset": map[string]any{"type": "integer"},
		},
	}
}

func (t *ListTasks) Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any {
	f := store.ListFilter{
		SessionID: sessionID,
		Status:    store.StatusActive,
		Limit:     defaultListLimit,
	}
	if s, ok := args["status"].(string); ok && s != "" {
		f.Status = store.TaskStatus(s)
	}
	if k, ok := args["kind"].(string); ok && k != "" {
		f.Kind = store.TaskKind(k)
	}
	f.Tags = stringSlice(args["tags"])

	if v, ok := args["limit"].(float64); ok && v > 0 {
		f.Limit = int(v)
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if v, ok := args["offset"].(float64); ok && v > 0 {
		f.Offset = int(v)
	}

	tasks, err := t.Deps.Repo.ListTasks(ctx, f)
	if err != nil {
		return errResult("StoreError", err.Error())
	}

	out := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskSummary(task))
	}

	return okResult(map[string]any{"tasks": out, "count": len(out)})
}

func taskSummary(task *store.Task) map[string]any {
	m := map[string]any{
		"id":           task.ID.String(),
		"name":         task.Name,
		"kind":         string(task.Kind),
		"status":       string(task.Status),
		"callback_kind": string(task.CallbackKind),
		"fire_count":   task.FireCount,
		"tags":         task.Tags,
		"created_at":   task.CreatedAt.UTC().Format(time.RFC3339),
	}
	if task.FireAt != nil {
		m["fire_at"] = task.FireAt.UTC().Format(time.RFC3339)
	}
	if task.NextFireAt != nil {
		m["next_fire_at"] = task.NextFireAt.UTC().Format(time.RFC3339)
	}
	if task.Cron != "" {
		m["cron"] = task.Cron
		m["timezone"] = task.Timezone
	}
	if task.LastFiredAt != nil {
		m["last_fired_at"] = task.LastFiredAt.UTC().Format(time.RFC3339)
	}
	return m
}
