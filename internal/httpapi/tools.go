package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/tools"
)

// listToolsHandler answers GET /mcp/tools with each operation's name,
// description, and JSON-schema parameters.
type listToolsHandler struct {
	registry *tools.Registry
}

func (h *listToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeToolError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	out := make([]map[string]any, 0, 7)
	for _, t := range h.registry.List() {
		out = append(out, map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Parameters(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

// toolCallRequest is the execute-tool wire shape:
// { "tool": "<name>", "params": {...}, "context": {"sessionId": "..."} }.
type toolCallRequest struct {
	Tool    string         `json:"tool"`
	Params  map[string]any `json:"params"`
	Context map[string]any `json:"context"`
}

// executeToolHandler answers POST /mcp/tools/call, delegating to the
// registry and threading the caller's session id through.
type executeToolHandler struct {
	registry *tools.Registry
	devMode  bool
}

func (h *executeToolHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeToolError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req toolCallRequest
	if err := decodeStrictJSON(w, r, &req); err != nil {
		writeToolError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Tool == "" {
		writeToolError(w, http.StatusBadRequest, "tool is required")
		return
	}

	sessionID := sessionIDFromContext(map[string]any{"context": req.Context})
	args := req.Params
	if args == nil {
		args = make(map[string]any)
	}

	slog.Debug("tool call", "tool", req.Tool, "session", sessionID)

	result := h.registry.Execute(r.Context(), req.Tool, sessionID, args)
	sanitizeStoreError(result, h.devMode)
	writeJSON(w, http.StatusOK, result)
}

// sanitizeStoreError replaces a StoreError's message with the generic
// boundary message outside development mode; every other error kind
// already carries a message safe to show a caller.
func sanitizeStoreError(result map[string]any, devMode bool) {
	if ok, _ := result["success"].(bool); ok {
		return
	}
	msg, _ := result["error"].(string)
	if strings.HasPrefix(msg, "StoreError:") {
		result["error"] = internalMessage(devMode, msg)
	}
}
