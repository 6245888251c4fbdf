package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/ratelimit"
)

// withRateLimit enforces the fixed-window limiter ahead of next, stamping
// X-RateLimit-Limit/X-RateLimit-Remaining on every response under the
// wrapped prefix and Retry-After/429 on denial, per the spec's "all
// responses under the /mcp prefix" requirement.
func withRateLimit(limiter *ratelimit.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision := limiter.Allow(clientIP(r))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
			writeToolError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next(w, r)
	}
}

// requireJSONContentType rejects any POST/PUT/PATCH body that doesn't
// declare application/json, per the spec's 415 requirement. Methods with
// no body (GET) pass through untouched.
func requireJSONContentType(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !isJSONContentType(ct) {
				writeToolError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next(w, r)
	}
}

// isJSONContentType accepts "application/json" with or without a charset
// parameter.
func isJSONContentType(ct string) bool {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct)) == "application/json"
}
