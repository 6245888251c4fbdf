package httpapi

import "net/http"

// healthHandler answers the liveness probe unconditionally; it does not
// check store connectivity, since a degraded store should surface through
// the operations that actually touch it rather than take the process out
// of rotation.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
