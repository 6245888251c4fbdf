// Package httpapi is the thin HTTP/JSON boundary in front of the tool
// registry: a health probe, list-tools, execute-tool, a JSON-RPC 2.0
// endpoint, and a stored-notifications pull endpoint. Grounded on the
// teacher's internal/http package (one handler struct per route, plain
// http.ServeMux, http.MaxBytesReader body caps, a shared writeToolError
// shape) adapted from bearer-token auth to the rate limiter + sanitized
// error policy this boundary requires.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB, per the spec's body size cap

const anonymousSession = "anonymous"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeToolError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// internalMessage returns the generic message the boundary shows for store
// errors and unexpected failures, unless development mode is explicitly
// on, in which case the raw message passes through.
func internalMessage(devMode bool, raw string) string {
	if devMode {
		return raw
	}
	return "An error occurred processing your request"
}

// clientIP extracts the rate limiter's source key: the client IP from the
// trust-proxied header chain, falling back to the connection peer. Never
// derived from anything client-supplied as an identity claim (session id),
// so callers cannot multiply their budget by rotating one.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		return strings.TrimSpace(xrip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// sessionIDFromContext reads the opaque session token out of a tool-call
// envelope's "context": {"sessionId": "..."} object, defaulting to
// "anonymous" when absent, per the glossary definition of session id.
func sessionIDFromContext(raw map[string]any) string {
	ctxRaw, ok := raw["context"].(map[string]any)
	if !ok {
		return anonymousSession
	}
	sid, _ := ctxRaw["sessionId"].(string)
	if sid == "" {
		return anonymousSession
	}
	return sid
}

// sessionIDFromRequest reads the session id from a query parameter or
// header for GET endpoints, defaulting to "anonymous".
func sessionIDFromRequest(r *http.Request) string {
	if sid := r.URL.Query().Get("session_id"); sid != "" {
		return sid
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	return anonymousSession
}

// decodeStrictJSON enforces the spec's strict-JSON parsing: the body must
// decode to exactly one JSON value of the target shape, with no trailing
// bytes after it.
func decodeStrictJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return errTrailingContent
	}
	return nil
}

var errTrailingContent = errors.New("body contains trailing content after the JSON value")
