// Package dispatch implements the four callback dispatchers the worker
// invokes when a task comes due: webhook, chat, email, and store. Each
// conforms to the same (Task, fire metadata) -> Result contract; dispatch
// polymorphism is modeled as a closed tagged variant rather than open
// inheritance, per the design notes.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// ProductSource and ProductVersion stamp the outbound webhook envelope's
// "source"/"version" fields and the User-Agent header.
const (
	ProductSource  = "temporal-agent-mcp"
	ProductVersion = "1.0"
)

// Result is the outcome of one dispatch attempt.
type Result struct {
	Success      bool
	StatusCode   *int
	Body         string
	ErrorMessage string

	// Timeout marks a failure as a timeout-class error (the dispatcher gave
	// up waiting on the remote end) rather than an ordinary transport or
	// application-level failure, so the worker can record
	// store.ExecTimeout instead of store.ExecFailed.
	Timeout bool
}

// Dispatcher fires a task's callback. Implementations must not panic;
// transport/validation failures are reported via Result, never an error
// return, so the worker can always finalize an Execution.
type Dispatcher interface {
	Dispatch(ctx context.Context, task *store.Task, fireIndex int64, scheduledFor, firedAt time.Time) Result
}

// Envelope is the canonical JSON body sent to webhook and chat targets.
type Envelope struct {
	TaskID       string         `json:"task_id"`
	TaskName     string         `json:"task_name"`
	TaskKind     string         `json:"task_kind"`
	ScheduledFor string         `json:"scheduled_for"`
	FiredAt      string         `json:"fired_at"`
	FireIndex    int64          `json:"fire_index"`
	Payload      map[string]any `json:"payload"`
	Source       string         `json:"source"`
	Version      string         `json:"version"`
}

// BuildEnvelope assembles the canonical envelope for a firing.
func BuildEnvelope(task *store.Task, fireIndex int64, scheduledFor, firedAt time.Time) Envelope {
	return Envelope{
		TaskID:       task.ID.String(),
		TaskName:     task.Name,
		TaskKind:     string(task.Kind),
		ScheduledFor: scheduledFor.UTC().Format(time.RFC3339Nano),
		FiredAt:      firedAt.UTC().Format(time.RFC3339Nano),
		FireIndex:    fireIndex,
		Payload:      task.Payload,
		Source:       ProductSource,
		Version:      ProductVersion,
	}
}

// classifySendError turns an error from safety.SecureHTTPSend into a Result.
// SecureHTTPSend's errors already carry their own kind prefix (Timeout,
// RedirectBlocked, UrlRejected, CallbackFailure, DnsFailure); this only
// passes that message through and flags the timeout class so the worker can
// record store.ExecTimeout instead of store.ExecFailed. An error with no
// recognized prefix (which should not occur given SecureHTTPSend's
// contract) is still reported, generically wrapped as CallbackFailure
// rather than mislabeled UrlRejected.
func classifySendError(err error) Result {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "Timeout"):
		return Result{Success: false, ErrorMessage: msg, Timeout: true}
	case strings.HasPrefix(msg, "RedirectBlocked"),
		strings.HasPrefix(msg, "UrlRejected"),
		strings.HasPrefix(msg, "CallbackFailure"),
		strings.HasPrefix(msg, "DnsFailure"):
		return Result{Success: false, ErrorMessage: msg}
	default:
		return Result{Success: false, ErrorMessage: "CallbackFailure: " + msg}
	}
}

// truncateBody caps a stored response body at store.MaxResponseBodyBytes.
func truncateBody(b []byte) string {
	if len(b) > store.MaxResponseBodyBytes {
		return string(b[:store.MaxResponseBodyBytes])
	}
	return string(b)
}

// Registry selects a Dispatcher by callback kind. The set is closed: an
// unknown kind is handled by the caller (Execute), which returns
// {success:false, error:"unknown callback kind"} without ever constructing a
// Dispatcher.
type Registry struct {
	Webhook *WebhookDispatcher
	Chat    *ChatDispatcher
	Email   *EmailDispatcher
	Store   *StoreDispatcher
}

// Execute dispatches task via the registry entry matching its callback
// kind.
func (r *Registry) Execute(ctx context.Context, task *store.Task, fireIndex int64, scheduledFor, firedAt time.Time) Result {
	var d Dispatcher
	switch task.CallbackKind {
	case store.CallbackWebhook:
		d = r.Webhook
	case store.CallbackChat:
		d = r.Chat
	case store.CallbackEmail:
		d = r.Email
	case store.CallbackStore:
		d = r.Store
	default:
		return Result{Success: false, ErrorMessage: "unknown callback kind"}
	}
	return d.Dispatch(ctx, task, fireIndex, scheduledFor, firedAt)
}
