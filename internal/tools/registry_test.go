package tools

import (
	"context"
	"testing"
)

func TestNewRegistry_RegistersAllSevenOperations(t *testing.T) {
	r := NewRegistry(testDeps(newFakeRepo()))
	want := []string{
		"schedule_one_shot", "schedule_recurring", "list_tasks", "get_task",
		"cancel_task", "pause_task", "resume_task",
	}
	for _, name := range want {
		if _, ok := r.Get(name); !ok {
			t.Errorf("registry is missing tool %q", name)
		}
	}
}

func TestRegistry_List_ReturnsStableOrder(t *testing.T) {
	r := NewRegistry(testDeps(newFakeRepo()))
	want := []string{
		"schedule_one_shot", "schedule_recurring", "list_tasks", "get_task",
		"cancel_task", "pause_task", "resume_task",
	}
	got := r.List()
	if len(got) != len(want) {
		t.Fatalf("len(List()) = %d, want %d", len(got), len(want))
	}
	for i, tool := range got {
		if tool.Name() != want[i] {
			t.Errorf("List()[%d].Name() = %q, want %q", i, tool.Name(), want[i])
		}
	}
}

func TestRegistry_Execute_UnknownToolReturnsError(t *testing.T) {
	r := NewRegistry(testDeps(newFakeRepo()))
	result := r.Execute(context.Background(), "nonexistent_tool", "session-1", map[string]any{})
	if result["success"] != false {
		t.Errorf("expected failure for an unknown tool name, got %v", result)
	}
}

func TestRegistry_Execute_DelegatesToNamedTool(t *testing.T) {
	r := NewRegistry(testDeps(newFakeRepo()))
	result := r.Execute(context.Background(), "schedule_one_shot", "session-1", map[string]any{
		"name":     "reminder",
		"in":       "10m",
		"callback": map[string]any{"kind": "store"},
	})
	if result["success"] != true {
		t.Errorf("expected success delegating to schedule_one_shot, got %v", result)
	}
}
