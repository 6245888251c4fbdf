package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// ChatDispatcher posts a task firing to a chat incoming-webhook URL. The
// message body is shaped with slack.WebhookMessage (attachment fields,
// channel override) but the actual send goes through safety.SecureHTTPSend
// rather than slack-go's own PostWebhook, so chat callbacks get the same
// SSRF guarantees as plain webhooks instead of a second, unverified
// transport.
type ChatDispatcher struct {
	Signer  *safety.Signer
	URLCfg  safety.URLValidationConfig
	Timeout time.Duration
}

func (d *ChatDispatcher) Dispatch(ctx context.Context, task *store.Task, fireIndex int64, scheduledFor, firedAt time.Time) Result {
	url := task.CallbackConfig["url"]
	envelope := BuildEnvelope(task, fireIndex, scheduledFor, firedAt)

	text := fmt.Sprintf("Task *%s* fired at %s", task.Name, envelope.FiredAt)
	if task.Description != "" {
		text = fmt.Sprintf("%s\n%s", text, task.Description)
	}

	msg := slack.WebhookMessage{
		Text:     text,
		Channel:  task.CallbackConfig["channel"],
		Username: ProductSource,
		Attachments: []slack.Attachment{
			{
				Color: "good",
				Fields: []slack.AttachmentField{
					{Title: "task_id", Value: envelope.TaskID, Short: true},
					{Title: "fire_index", Value: fmt.Sprintf("%d", envelope.FireIndex), Short: true},
					{Title: "scheduled_for", Value: envelope.ScheduledFor, Short: true},
				},
			},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return Result{Success: false, ErrorMessage: fmt.Sprintf("CallbackFailure: encoding chat message: %v", err)}
	}

	timestamp := firedAt.UTC().Format(time.RFC3339Nano)
	signature := d.Signer.Sign(body, timestamp)

	headers := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   fmt.Sprintf("%s/%s", ProductSource, ProductVersion),
		"X-Signature":  signature,
		"X-Task-Id":    task.ID.String(),
		"X-Timestamp":  timestamp,
	}

	res, err := safety.SecureHTTPSend(ctx, "POST", url, headers, body, d.URLCfg, d.Timeout)
	if err != nil {
		return classifySendError(err)
	}

	truncated := truncateBody(res.Body)
	success := res.StatusCode >= 200 && res.StatusCode < 300
	result := Result{
		Success:    success,
		StatusCode: &res.StatusCode,
		Body:       truncated,
	}
	if !success {
		result.ErrorMessage = fmt.Sprintf("CallbackFailure: chat webhook responded %d", res.StatusCode)
	}
	return result
}
