package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"studydesk/internal/domain/account"
	"studydesk/internal/domain/exam"
)

// BackendForRead defines the backend call needed by read-only orchestrators.
type BackendForRead interface {
	Get(ctx context.Context, path string, query url.Values, token string, out any) error
}

// AdminPanelDeps holds dependencies for LoadAdminPanel.
type AdminPanelDeps struct {
	Backend BackendForRead
}

// AdminPanel is the data shown on the admin page.
type AdminPanel struct {
	Users []account.User
	Exams []exam.Exam
}

// ExecuteLoadAdminPanel fetches all users and all exams in parallel.
// If either fetch fails both lists come back empty; the failing endpoint is logged.
// PRE: token is an admin bearer token
// POST: On error, AdminPanel is the zero value
func ExecuteLoadAdminPanel(ctx context.Context, token string, deps AdminPanelDeps) (AdminPanel, error) {
	var panel AdminPanel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := deps.Backend.Get(gctx, "/admin/users", nil, token, &panel.Users); err != nil {
			slog.Warn("admin_panel_fetch_failed", "endpoint", "/admin/users", "error", err.Error())
			return fmt.Errorf("admin users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := deps.Backend.Get(gctx, "/admin/exams", nil, token, &panel.Exams); err != nil {
			slog.Warn("admin_panel_fetch_failed", "endpoint", "/admin/exams", "error", err.Error())
			return fmt.Errorf("admin exams: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return AdminPanel{}, err
	}
	return panel, nil
}
