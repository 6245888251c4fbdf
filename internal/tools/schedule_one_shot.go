package tools

import (
	"context"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/timeutil"
)

// ScheduleOneShot implements the schedule_one_shot operation: resolve a
// one-off fire time from "at" or "in", validate the callback, sanitize the
// payload, enforce the per-session active-task cap, and insert.
type ScheduleOneShot struct{ Deps *Deps }

func (t *ScheduleOneShot) Name() string { return "schedule_one_shot" }

func (t *ScheduleOneShot) Description() string {
	return "Schedule a task to fire exactly once, at an absolute time or after a relative delay."
}

func (t *ScheduleOneShot) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "description": "Human-readable task name."},
			"description": map[string]any{"type": "string"},
			"at":          map[string]any{"type": "string", "description": "Absolute ISO-8601 fire time."},
			"in":          map[string]any{"type": "string", "description": "Relative delay, e.g. \"30m\", \"2h\", \"1d\"."},
			"callback":    map[string]any{"type": "object", "description": "{kind: webhook|chat|email|store, ...}"},
			"payload":     map[string]any{"type": "object"},
			"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"max_retries": map[string]any{"type": "integer"},
		},
		"required": []string{"name", "callback"},
	}
}

func (t *ScheduleOneShot) Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any {
	name, _ := args["name"].(string)
	if name == "" {
		return errResult("InvalidInput", "name is required")
	}

	at, _ := args["at"].(string)
	in, _ := args["in"].(string)
	fireAt, err := timeutil.ParseOneShotTime(at, in, time.Now().UTC())
	if err != nil {
		return errResult("InvalidTime", err.Error())
	}

	callbackKind, callbackConfig, err := parseCallback(args["callback"], t.Deps.URLCfg)
	if err != nil {
		return errResult("UrlRejected", err.Error())
	}

	payload, err := safety.SanitizePayload(args["payload"], t.Deps.MaxPayloadBytes)
	if err != nil {
		return errResult("PayloadInvalid", err.Error())
	}

	count, err := t.Deps.Repo.CountActiveTasks(ctx, sessionID)
	if err != nil {
		return errResult("StoreError", err.Error())
	}
	if count >= t.Deps.MaxActiveTasks {
		return errResult("TooManyActive", "active+paused task cap reached for this session")
	}

	maxRetries := t.Deps.WebhookMaxRetries
	if v, ok := args["max_retries"].(float64); ok && v >= 0 {
		maxRetries = int(v)
	}

	tags := stringSlice(args["tags"])

	task := &store.Task{
		Name:              name,
		Description:       stringOr(args["description"]),
		Kind:              store.KindOneShot,
		FireAt:            &fireAt,
		CallbackKind:      callbackKind,
		CallbackConfig:    callbackConfig,
		Payload:           payload,
		Status:            store.StatusActive,
		MaxRetries:        maxRetries,
		RetryDelaySeconds: t.Deps.RetryDelaySeconds,
		CreatedBy:         sessionID,
		Tags:              tags,
	}

	if err := t.Deps.Repo.CreateTask(ctx, task); err != nil {
		return errResult("StoreError", err.Error())
	}

	return okResult(map[string]any{
		"id":       task.ID.String(),
		"status":   string(task.Status),
		"fire_at":  fireAt.UTC().Format(time.RFC3339),
	})
}

func stringOr(v any) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
