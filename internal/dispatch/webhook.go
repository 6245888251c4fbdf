package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// WebhookDispatcher POSTs the signed canonical envelope to the task's
// configured URL via safety.SecureHTTPSend, which re-validates the URL
// immediately before connecting and pins the connection to the first
// resolved safe IP.
type WebhookDispatcher struct {
	Signer  *safety.Signer
	URLCfg  safety.URLValidationConfig
	Timeout time.Duration
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, task *store.Task, fireIndex int64, scheduledFor, firedAt time.Time) Result {
	url := task.CallbackConfig["url"]
	envelope := BuildEnvelope(task, fireIndex, scheduledFor, firedAt)

	body, err := json.Marshal(envelope)
	if err != nil {
		return Result{Success: false, ErrorMessage: fmt.Sprintf("CallbackFailure: encoding envelope: %v", err)}
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
		result.ErrorMessage = fmt.Sprintf("CallbackFailure: webhook responded %d", res.StatusCode)
	}
	return result
}
