package tools

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const executionHistoryLimit = 10

// GetTask implements the get_task operation, optionally including the last
// ten Executions.
type GetTask struct{ Deps *Deps }

func (t *GetTask) Name() string        { return "get_task" }
func (t *GetTask) Description() string { return "Fetch a single task by id, optionally with its recent execution history." }

func (t *GetTask) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":              map[string]any{"type": "string"},
			"include_history": map[string]any{"type": "boolean"},
		},
		"required": []string{"id"},
	}
}

func (t *GetTask) Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any {
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

	result := taskSummary(task)
	result["description"] = task.Description
	result["max_retries"] = task.MaxRetries
	result["current_retry_count"] = task.CurrentRetryCount

	include, _ := args["include_history"].(bool)
	if !include {
		lastExecID, err := t.Deps.Repo.LastExecutionID(ctx, id)
		if err != nil {
			return errResult("StoreError", err.Error())
		}
		if lastExecID != uuid.Nil {
			result["last_execution_id"] = lastExecID.String()
		}
	}

	if include {
		execs, err := t.Deps.Repo.ListExecutions(ctx, id, executionHistoryLimit)
		if err != nil {
			return errResult("StoreError", err.Error())
		}
		history := make([]map[string]any, 0, len(execs))
		for _, e := range execs {
			entry := map[string]any{
				"id":         e.ID.String(),
				"status":     string(e.Status),
				"started_at": e.StartedAt.UTC().Format(time.RFC3339),
			}
			if e.FinishedAt != nil {
				entry["finished_at"] = e.FinishedAt.UTC().Format(time.RFC3339)
			}
			if e.ResponseCode != nil {
				entry["response_code"] = *e.ResponseCode
			}
			if e.ErrorMessage != "" {
				entry["error"] = e.ErrorMessage
			}
			if e.DurationMs != nil {
				entry["duration_ms"] = *e.DurationMs
			}
			history = append(history, entry)
		}
		result["executions"] = history
	}

	return okResult(result)
}
