// Package tools implements the seven-operation tool surface: validate via
// timeutil/safety, delegate to the store.Repository, and shape the wire
// result. Grounded on the teacher's tools.Tool interface
// (internal/tools/types.go) — Name/Description/Parameters/Execute — adapted
// from an LLM-facing ForLLM/ForUser Result to this domain's
// {success, ...}/{success:false, error} contract, and from implicit
// single-agent ownership to an explicit sessionID threaded through Execute,
// matching the "context": {"sessionId": "..."} envelope the facade parses
// per call.
package tools

import (
	"context"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// Tool is the interface every operation implements. Execute never panics;
// all failures are reported in the returned map under "success":false.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, sessionID string, args map[string]any) map[string]any
}

// Deps bundles the dependencies every operation needs, built once at
// startup and shared across all seven Tool implementations.
type Deps struct {
	Repo              store.Repository
	MaxActiveTasks    int
	MaxPayloadBytes   int
	WebhookMaxRetries int
	RetryDelaySeconds int
	URLCfg            safety.URLValidationConfig
}

func errResult(kind, message string) map[string]any {
	return map[string]any{"success": false, "error": kind + ": " + message}
}

func okResult(fields map[string]any) map[string]any {
	fields["success"] = true
	return fields
}
