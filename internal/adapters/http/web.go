package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/adapters/http/perf"
	"studydesk/internal/domain/account"
)

// Backend is the proxy layer the handlers forward to.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, token string, out any) error
	Post(ctx context.Context, path string, body any, token string, out any) error
	Delete(ctx context.Context, path string, token string) (int, error)
}

// Deps holds everything NewMux needs.
type Deps struct {
	Backend       Backend
	Sessions      *middleware.SessionManager
	Collector     *perf.Collector // optional
	CSRF          middleware.CSRFOptions
	Limiter       *middleware.RateLimiter // optional; nil disables per-IP limiting
	SlowRequestMs int                     // middleware.DefaultSlowRequestMs when zero
}

// app carries the per-process dependencies into handlers.
type app struct {
	backend   Backend
	sessions  *middleware.SessionManager
	collector *perf.Collector
	pages     *renderer
}

// NewMux wires HTTP handlers for the app.
// PRE: deps.Backend and deps.Sessions are non-nil; deps.CSRF.Key is 32 bytes
// POST: Returns the fully wrapped handler
func NewMux(deps Deps) (http.Handler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	a := &app{
		backend:   deps.Backend,
		sessions:  deps.Sessions,
		collector: deps.Collector,
		pages:     pages,
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	slowMs := deps.SlowRequestMs
	if slowMs <= 0 {
		slowMs = middleware.DefaultSlowRequestMs
	}

	// Timing -> Recover -> [RateLimit] -> SecurityHeaders -> CSRF -> Auth -> Mux
	chain := []func(http.Handler) http.Handler{
		middleware.Auth(deps.Sessions),
		middleware.CSRF(deps.CSRF),
		middleware.SecurityHeaders,
	}
	if deps.Limiter != nil {
		chain = append(chain, middleware.RateLimit(deps.Limiter))
	}
	chain = append(chain, middleware.Recover, middleware.Timing(deps.Collector, slowMs))
	return middleware.Chain(mux, chain...), nil
}

func (a *app) registerRoutes(mux *http.ServeMux) {
	mux.Handle("GET /static/", http.FileServerFS(staticFiles))
	mux.HandleFunc("GET /healthz", handleHealthz)

	mux.HandleFunc("GET /login", a.handleLoginPage)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /register", a.handleRegisterPage)
	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("GET /logout", a.handleLogout)

	mux.Handle("GET /{$}", middleware.RequireAuth(http.HandlerFunc(a.handleDashboard)))

	examResource.register(mux, a)
	noteResource.register(mux, a)
	reminderResource.register(mux, a)

	adminOnly := middleware.RequireRole(a.sessions, account.RoleAdmin)
	mux.Handle("GET /admin", adminOnly(http.HandlerFunc(a.handleAdminPanel)))
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// landingPath is where an authenticated user is sent by default.
func landingPath(u account.User) string {
	if u.IsAdmin() {
		return "/admin"
	}
	return "/"
}
