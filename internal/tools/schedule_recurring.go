package tools

import (
	"context"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/timeutil"
)

// ScheduleRecurring implements the schedule_recurring operation: validate
// the cron expression, compute the first next_fire_at, and insert. An
// "enabled": false argument inserts the task already paused (next_fire_at
// left unset, recomputed on resume).
type ScheduleRecurring struct{ Deps *Deps }

func (t *ScheduleRecurring) Name() string { return "schedule_recurring" }

func (t *ScheduleRecurring) Description() string {
	return "Schedule a task to fire repeatedly on a 5-field cron expression in a given timezone."
}

func (t *ScheduleRecurring) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"cron":        map[string]any{"type": "string", "description": "5-field cron expression."},
			"timezone":    map[string]any{"type": "string", "description": "IANA timezone; defaults to UTC."},
			"callback":    map[string]any{"type": "object"},
			"payload":     map[string]any{"type": "object"},
			"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"max_retries": map[string]any{"type": "integer"},
			"enabled":     map[string]any{"type": "boolean", "description": "Defaults to true."},
		},
		"required": []string{"name", "cron", "callback"},
	}
}

func (t *ScheduleRecurring) Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any {
	name, _ := args["name"].(string)
	if name == "" {
		return errResult("InvalidInput", "name is required")
	}

	cron, _ := args["cron"].(string)
	tz, _ := args["timezone"].(string)
	if err := timeutil.ValidateCron(cron, tz); err != nil {
		return errResult("InvalidCron", err.Error())
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

	enabled := true
	if v, ok := args["enabled"].(bool); ok {
		enabled = v
	}

	maxRetries := t.Deps.WebhookMaxRetries
	if v, ok := args["max_retries"].(float64); ok && v >= 0 {
		maxRetries = int(v)
	}

	status := store.StatusActive
	var nextFireAt *time.Time
	if enabled {
		loc := resolveLoc(tz)
		next, err := timeutil.NextAfter(cron, loc, time.Now().UTC())
		if err != nil {
			return errResult("InvalidCron", err.Error())
		}
		nextFireAt = &next
	} else {
		status = store.StatusPaused
	}

	task := &store.Task{
		Name:              name,
		Description:       stringOr(args["description"]),
		Kind:              store.KindRecurring,
		Cron:              cron,
		Timezone:          tzOrUTC(tz),
		NextFireAt:        nextFireAt,
		CallbackKind:      callbackKind,
		CallbackConfig:    callbackConfig,
		Payload:           payload,
		Status:            status,
		MaxRetries:        maxRetries,
		RetryDelaySeconds: t.Deps.RetryDelaySeconds,
		CreatedBy:         sessionID,
		Tags:              stringSlice(args["tags"]),
	}

	if err := t.Deps.Repo.CreateTask(ctx, task); err != nil {
		return errResult("StoreError", err.Error())
	}

	result := map[string]any{
		"id":     task.ID.String(),
		"status": string(task.Status),
	}
	if nextFireAt != nil {
		result["next_fire_at"] = nextFireAt.UTC().Format(time.RFC3339)
	}
	return okResult(result)
}

func tzOrUTC(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}

func resolveLoc(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
