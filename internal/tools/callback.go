package tools

import (
	"fmt"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

// parseCallback validates the "callback" argument shared by
// schedule_one_shot and schedule_recurring: {"kind": "...", ...kind-specific
// fields}. webhook and chat callbacks carry a "url" that is run through the
// full SSRF gauntlet at creation time, not merely at fire time — a task
// with a URL that is already known-unsafe must never be stored.
func parseCallback(raw any, urlCfg safety.URLValidationConfig) (store.CallbackKind, map[string]string, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("callback is required and must be an object")
	}

	kindStr, _ := m["kind"].(string)
	kind := store.CallbackKind(kindStr)
	config := make(map[string]string)

	switch kind {
	case store.CallbackWebhook, store.CallbackChat:
		url, _ := m["url"].(string)
		if url == "" {
			return "", nil, fmt.Errorf("callback.url is required for kind %q", kind)
		}
		if _, err := safety.ValidateWebhookURL(url, urlCfg); err != nil {
			return "", nil, err
		}
		config["url"] = url
		if channel, _ := m["channel"].(string); channel != "" {
			config["channel"] = channel
		}
	case store.CallbackEmail:
		to, _ := m["to"].(string)
		if to == "" {
			return "", nil, fmt.Errorf("callback.to is required for kind %q", kind)
		}
		config["to"] = to
		if subject, _ := m["subject"].(string); subject != "" {
			config["subject"] = subject
		}
	case store.CallbackStore:
		if sessionID, _ := m["session_id"].(string); sessionID != "" {
			config["session_id"] = sessionID
		}
	default:
		return "", nil, fmt.Errorf("callback.kind must be one of webhook, chat, email, store (got %q)", kindStr)
	}

	return kind, config, nil
}
