package web

import (
	"net/http"
	"time"

	"studydesk/internal/adapters/backend"
	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/application/orchestrators"
)

const (
	perfWindow = time.Hour
	perfTopN   = 10
)

// handleAdminPanel handles GET /admin. Role is enforced by RequireRole.
func (a *app) handleAdminPanel(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	deps := orchestrators.AdminPanelDeps{Backend: a.backend}
	panel, err := orchestrators.ExecuteLoadAdminPanel(r.Context(), sess.Token, deps)

	data := map[string]any{
		"Users": panel.Users,
		"Exams": panel.Exams,
		"Perf":  a.collector.Snapshot(time.Now().Add(-perfWindow), perfTopN),
	}
	if err != nil {
		data["Degraded"] = backend.UserMessage(err, "Could not load admin data.")
	}
	a.render(w, r, "admin.html", data)
}
