package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
)

const (
	defaultNotificationPullLimit = 50
	maxNotificationPullLimit     = 200
)

// notificationsHandler answers GET /mcp/notifications, pulling unread
// StoredNotification rows for the caller's session. Pulled rows are
// marked read in the same store transaction, so a retried poll never
// redelivers them.
type notificationsHandler struct {
	repo    store.Repository
	devMode bool
}

func (h *notificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeToolError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := sessionIDFromRequest(r)
	limit := defaultNotificationPullLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxNotificationPullLimit {
		limit = maxNotificationPullLimit
	}

	notifications, err := h.repo.PullStoredNotifications(r.Context(), sessionID, limit)
	if err != nil {
		writeToolError(w, http.StatusInternalServerError, internalMessage(h.devMode, err.Error()))
		return
	}

	out := make([]map[string]any, 0, len(notifications))
	for _, n := range notifications {
		entry := map[string]any{
			"id":         n.ID.String(),
			"task_id":    n.TaskID.String(),
			"payload":    n.Payload,
			"created_at": n.CreatedAt.UTC().Format(time.RFC3339),
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}
