package httpapi

import (
	"encoding/json"
	"net/http"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/tools"
)

const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcInternalError  = -32603
)

// protocolVersion is the MCP wire version this server's tools/* surface
// speaks, returned verbatim from initialize.
const protocolVersion = "2024-11-05"

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

// rpcHandler answers POST /mcp/rpc, implementing the three methods this
// surface exposes: initialize, tools/list, tools/call. Tool shapes reuse
// mark3labs/mcp-go's wire types so the JSON on this endpoint matches any
// other MCP-speaking server, the same precedent the bridge tool used for
// consuming an upstream MCP server's tool list.
type rpcHandler struct {
	registry *tools.Registry
	devMode  bool
}

func (h *rpcHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeToolError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req rpcRequest
	if err := decodeStrictJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: rpcParseError, Message: "parse error"}})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcInvalidRequest, Message: "invalid request"}})
		return
	}

	switch req.Method {
	case "initialize":
		h.handleInitialize(w, req)
	case "tools/list":
		h.handleToolsList(w, req)
	case "tools/call":
		h.handleToolsCall(w, r, req)
	default:
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcMethodNotFound, Message: "unknown method: " + req.Method}})
	}
}

func (h *rpcHandler) handleInitialize(w http.ResponseWriter, req rpcRequest) {
	result := map[string]any{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]any{
			"name":    "temporal-agent-mcp",
			"version": "1.0",
		},
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
	}
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (h *rpcHandler) handleToolsList(w http.ResponseWriter, req rpcRequest) {
	list := h.registry.List()
	out := make([]mcpgo.Tool, 0, len(list))
	for _, t := range list {
		out = append(out, mcpgo.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: toInputSchema(t.Parameters()),
		})
	}
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": out}})
}

func (h *rpcHandler) handleToolsCall(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	name, _ := req.Params["name"].(string)
	if name == "" {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcInvalidParams, Message: "name is required"}})
		return
	}
	args, _ := req.Params["arguments"].(map[string]any)
	if args == nil {
		args = make(map[string]any)
	}

	sessionID := anonymousSession
	if ctxRaw, ok := req.Params["context"].(map[string]any); ok {
		sessionID = sessionIDFromContext(map[string]any{"context": ctxRaw})
	}

	result := h.registry.Execute(r.Context(), name, sessionID, args)
	sanitizeStoreError(result, h.devMode)

	success, _ := result["success"].(bool)
	callResult := mcpgo.CallToolResult{IsError: !success}
	if success {
		callResult.Content = []any{mcpgo.TextContent{Type: "text", Text: successText(result)}}
	} else {
		msg, _ := result["error"].(string)
		callResult.Content = []any{mcpgo.TextContent{Type: "text", Text: msg}}
	}

	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: callResult})
}

// toInputSchema adapts a Tool's JSON-Schema-shaped map into mcp-go's typed
// ToolInputSchema, mirroring the bridge tool's inverse conversion
// (inputSchemaToMap) in the teacher.
func toInputSchema(params map[string]any) mcpgo.ToolInputSchema {
	schema := mcpgo.ToolInputSchema{Type: "object"}
	if t, ok := params["type"].(string); ok && t != "" {
		schema.Type = t
	}
	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = props
	}
	if req, ok := params["required"].([]string); ok {
		schema.Required = req
	}
	return schema
}

func successText(result map[string]any) string {
	delete(result, "success")
	buf, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(buf)
}
