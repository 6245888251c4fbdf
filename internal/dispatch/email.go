package dispatch

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// EmailDispatcher sends a plain-text notification over SMTP. Unlike the
// webhook and chat dispatchers, this one is grounded on net/smtp directly:
// none of the retrieved example repos import a higher-level mail client, and
// the message is a fixed-shape plain-text notification rather than an
// arbitrary outbound HTTP request, so there is no SSRF surface to guard.
type EmailDispatcher struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, task *store.Task, fireIndex int64, scheduledFor, firedAt time.Time) Result {
	to := task.CallbackConfig["to"]
	if to == "" {
		return Result{Success: false, ErrorMessage: "CallbackFailure: email callback missing \"to\" address"}
	}
	subject := task.CallbackConfig["subject"]
	if subject == "" {
		subject = fmt.Sprintf("Task %q fired", task.Name)
	}

	envelope := BuildEnvelope(task, fireIndex, scheduledFor, firedAt)
	body := fmt.Sprintf(
		"Task: %s\nTask ID: %s\nScheduled for: %s\nFired at: %s\nFire index: %d\n",
		task.Name, envelope.TaskID, envelope.ScheduledFor, envelope.FiredAt, envelope.FireIndex,
	)
	if task.Description != "" {
		body += "\n" + task.Description + "\n"
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		d.From, to, subject, body,
	)

	addr := fmt.Sprintf("%s:%s", d.Host, d.Port)
	var auth smtp.Auth
	if d.Username != "" {
		auth = smtp.PlainAuth("", d.Username, d.Password, d.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, d.From, []string{to}, []byte(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			if strings.Contains(err.Error(), "timeout") {
				return Result{Success: false, ErrorMessage: "Timeout: " + err.Error(), Timeout: true}
			}
			return Result{Success: false, ErrorMessage: "CallbackFailure: " + err.Error()}
		}
		return Result{Success: true}
	case <-ctx.Done():
		return Result{Success: false, ErrorMessage: "Timeout: " + ctx.Err().Error(), Timeout: true}
	case <-time.After(d.Timeout):
		return Result{Success: false, ErrorMessage: "Timeout: smtp send exceeded " + d.Timeout.String(), Timeout: true}
	}
}
