// Package scheduler runs the poll/lease/dispatch/advance state machine
// against the durable store. Grounded on the teacher's cron.Service
// (internal/cron/service.go): an idempotent start/stop state machine driven
// by a time.Ticker loop under a mutex, with execution done outside the
// lock. The in-memory single-process job list is replaced with the
// Postgres due_tasks/acquire_lease protocol so N worker instances can share
// one queue safely.
package scheduler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/dispatch"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/timeutil"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultBatchSize    = 50
	DefaultLockTimeout  = 60 * time.Second
	reapInterval        = 5 * time.Minute
)

// Worker is a state machine with states {stopped, running}. start/stop are
// idempotent, matching the teacher's cron.Service.Start/Stop contract.
type Worker struct {
	ID          string
	Repo        store.Repository
	Registry    *dispatch.Registry
	PollEvery   time.Duration
	BatchSize   int
	LockTimeout time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWorker builds a Worker with an opaque, random worker id.
func NewWorker(repo store.Repository, registry *dispatch.Registry, pollEvery, lockTimeout time.Duration, batchSize int) *Worker {
	if pollEvery <= 0 {
		pollEvery = DefaultPollInterval
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Worker{
		ID:          generateWorkerID(),
		Repo:        repo,
		Registry:    registry,
		PollEvery:   pollEvery,
		BatchSize:   batchSize,
		LockTimeout: lockTimeout,
	}
}

func generateWorkerID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "worker-" + uuid.Must(uuid.NewV7()).String()[:8]
	}
	return "worker-" + hex.EncodeToString(b)
}

// Start launches the poll loop and the stale-lease reaper. Calling Start on
// an already-running Worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})

	w.wg.Add(2)
	go w.pollLoop(ctx, w.stopCh)
	go w.reapLoop(ctx, w.stopCh)

	slog.Info("scheduler worker started", "worker_id", w.ID, "poll_interval", w.PollEvery, "batch_size", w.BatchSize)
}

// Stop halts both loops and blocks until they exit. Calling Stop on an
// already-stopped Worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	slog.Info("scheduler worker stopped", "worker_id", w.ID)
}

func (w *Worker) pollLoop(ctx context.Context, stop chan struct{}) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

func (w *Worker) reapLoop(ctx context.Context, stop chan struct{}) {
	defer w.wg.Done()
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reapOnce(ctx)
		}
	}
}

// pollOnce fetches one batch of due tasks and processes them in due-time
// order; within the batch, tasks run sequentially on this worker, but
// another worker instance may be racing on the same rows via AcquireLease.
func (w *Worker) pollOnce(ctx context.Context) {
	due, err := w.Repo.DueTasks(ctx, time.Now().UTC(), w.BatchSize)
	if err != nil {
		slog.Error("scheduler poll: due_tasks query failed", "worker_id", w.ID, "error", err)
		return
	}

	for _, t := range due {
		w.processTask(ctx, t)
	}
}

func (w *Worker) reapOnce(ctx context.Context) {
	n, err := w.Repo.ReapStaleLeases(ctx, w.LockTimeout, time.Now().UTC())
	if err != nil {
		slog.Error("scheduler reap: failed", "worker_id", w.ID, "error", err)
		return
	}
	if n > 0 {
		slog.Warn("scheduler reap: cleared stale leases", "worker_id", w.ID, "count", n)
	}
}

// processTask runs the lease/dispatch/advance sequence for one candidate
// task. A lost lease race is silent and expected — the due_tasks read is
// not itself a lock, so any number of workers may see the same row.
func (w *Worker) processTask(ctx context.Context, t *store.Task) {
	now := time.Now().UTC()
	acquired, err := w.Repo.AcquireLease(ctx, t.ID, w.ID, now)
	if err != nil {
		slog.Error("scheduler: acquire_lease failed", "worker_id", w.ID, "task_id", t.ID, "error", err)
		return
	}
	if !acquired {
		return
	}

	exec := &store.Execution{
		ID:         store.GenID(),
		TaskID:     t.ID,
		StartedAt:  now,
		Status:     store.ExecRunning,
		RequestURL: t.CallbackConfig["url"],
	}
	if err := w.Repo.CreateExecution(ctx, exec); err != nil {
		slog.Error("scheduler: create_execution failed", "worker_id", w.ID, "task_id", t.ID, "error", err)
		return
	}

	scheduledFor := now
	if t.Kind == store.KindOneShot && t.FireAt != nil {
		scheduledFor = *t.FireAt
	} else if t.Kind == store.KindRecurring && t.NextFireAt != nil {
		scheduledFor = *t.NextFireAt
	}

	dispatchStart := time.Now()
	result := w.Registry.Execute(ctx, t, t.FireCount+1, scheduledFor, now)
	durationMs := time.Since(dispatchStart).Milliseconds()

	finish := &store.Execution{ID: exec.ID, FinishedAt: ptrTime(time.Now().UTC()), DurationMs: &durationMs}
	finish.Status = executionStatus(result)
	if finish.Status != store.ExecSuccess {
		finish.ErrorMessage = result.ErrorMessage
	}
	finish.ResponseCode = result.StatusCode
	finish.ResponseBody = result.Body
	if err := w.Repo.FinishExecution(ctx, finish); err != nil {
		slog.Error("scheduler: finish_execution failed", "worker_id", w.ID, "task_id", t.ID, "error", err)
	}

	if result.Success {
		w.advance(ctx, t, exec.ID, now)
		return
	}

	if err := w.Repo.RetryOrFail(ctx, t.ID); err != nil {
		slog.Error("scheduler: retry_or_fail failed", "worker_id", w.ID, "task_id", t.ID, "error", err)
	}
}

// advance finalizes a successfully-dispatched task: one-shots complete, and
// recurring tasks compute their next fire time. A next_after failure is a
// design-level alarm (the cron expression stopped being computable after
// having validated successfully at creation time) and fails the task rather
// than leaving it permanently locked.
func (w *Worker) advance(ctx context.Context, t *store.Task, execID uuid.UUID, firedAt time.Time) {
	if t.Kind == store.KindOneShot {
		if err := w.Repo.AdvanceOneShotCompleted(ctx, t.ID, firedAt); err != nil {
			slog.Error("scheduler: advance one-shot failed", "worker_id", w.ID, "task_id", t.ID, "error", err)
		}
		return
	}

	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		loc = time.UTC
	}
	next, err := timeutil.NextAfter(t.Cron, loc, firedAt)
	if err != nil {
		reason := fmt.Sprintf("next_after failed after successful dispatch: %v", err)
		slog.Error("scheduler: next_after failed, failing task", "worker_id", w.ID, "task_id", t.ID, "error", err)
		if ferr := w.Repo.FailRecurringAdvance(ctx, t.ID, execID, reason); ferr != nil {
			slog.Error("scheduler: fail_recurring_advance failed", "worker_id", w.ID, "task_id", t.ID, "error", ferr)
		}
		return
	}

	if err := w.Repo.AdvanceRecurring(ctx, t.ID, firedAt, next); err != nil {
		slog.Error("scheduler: advance recurring failed", "worker_id", w.ID, "task_id", t.ID, "error", err)
	}
}

// executionStatus maps a dispatch.Result to the Execution status it
// finalizes to: success, a distinct timeout class, or an ordinary failure.
func executionStatus(result dispatch.Result) store.ExecutionStatus {
	switch {
	case result.Success:
		return store.ExecSuccess
	case result.Timeout:
		return store.ExecTimeout
	default:
		return store.ExecFailed
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
