package store

import (
	"testing"
	"time"
)

func TestTask_IsLeasable(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		locked bool
		want   bool
	}{
		{"active unlocked", StatusActive, false, true},
		{"active locked", StatusActive, true, false},
		{"paused unlocked", StatusPaused, false, false},
		{"completed unlocked", StatusCompleted, false, false},
	}

	for _, tt := range tests {
		task := &Task{Status: tt.status}
		if tt.locked {
			now := time.Now()
			task.LockedAt = &now
		}
		if got := task.IsLeasable(); got != tt.want {
			t.Errorf("%s: IsLeasable() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGenID_ProducesDistinctValues(t *testing.T) {
	a := GenID()
	b := GenID()
	if a == b {
		t.Error("GenID produced the same value twice")
	}
}
