package tools

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry holds the seven operations by name, grounded on the teacher's
// tools.Registry (a mutex-protected name-keyed map with a slog-instrumented
// Execute), trimmed to the fixed operation set this surface exposes — there
// is no dynamic Register/Unregister here, since the seven tools are wired
// once at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry(deps *Deps) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range []Tool{
		&ScheduleOneShot{Deps: deps},
		&ScheduleRecurring{Deps: deps},
		&ListTasks{Deps: deps},
		&GetTask{Deps: deps},
		&CancelTask{Deps: deps},
		&PauseTask{Deps: deps},
		&ResumeTask{Deps: deps},
	} {
		r.tools[t.Name()] = t
	}
	return r
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools in a stable order matching the table in
// the tool surface section: schedule first, then read, then lifecycle
// operations.
func (r *Registry) List() []Tool {
	order := []string{
		"schedule_one_shot", "schedule_recurring", "list_tasks", "get_task",
		"cancel_task", "pause_task", "resume_task",
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(order))
	for _, name := range order {
		if t, ok := r.tools[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Execute runs a named tool, returning {"success":false,"error":"..."} for
// an unknown name rather than constructing a Tool.
func (r *Registry) Execute(ctx context.Context, name, sessionID string, args map[string]any) map[string]any {
	tool, ok := r.Get(name)
	if !ok {
		return errResult("InvalidInput", "unknown tool: "+name)
	}

	start := time.Now()
	result := tool.Execute(ctx, sessionID, args)
	slog.Debug("tool executed", "tool", name, "duration_ms", time.Since(start).Milliseconds(), "success", result["success"])
	return result
}
