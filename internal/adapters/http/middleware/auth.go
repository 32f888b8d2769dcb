package middleware

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"studydesk/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

const sessionName = "studydesk_session"

// Session value keys
const (
	valueToken = "token"
	valueUser  = "user"
)

// DefaultSessionMaxAge is the session lifetime in seconds (24 hours).
const DefaultSessionMaxAge = 86400

func init() {
	gob.Register(account.User{})
	gob.Register(Flash{})
}

// Session is the authenticated state carried by a request.
type Session struct {
	Token string
	User  account.User
}

// SessionOptions configures the file-backed session store.
type SessionOptions struct {
	Dir      string // directory holding one file per session
	HashKey  []byte // 32 or 64 bytes, authenticates the cookie
	BlockKey []byte // 16, 24 or 32 bytes, encrypts the cookie
	MaxAge   int    // seconds; DefaultSessionMaxAge when zero
	Secure   bool   // set the Secure cookie flag
}

// NewFilesystemStore creates a server-side session store keyed by an opaque cookie.
// PRE: opts.HashKey is non-empty
// POST: opts.Dir exists; cookies are HttpOnly, SameSite=Lax, Path=/ and stop
// decoding once older than the max age
func NewFilesystemStore(opts SessionOptions) (*sessions.FilesystemStore, error) {
	if len(opts.HashKey) == 0 {
		return nil, fmt.Errorf("session hash key is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = DefaultSessionMaxAge
	}
	store := sessions.NewFilesystemStore(opts.Dir, opts.HashKey, opts.BlockKey)
	store.MaxLength(1 << 16)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// Options alone leaves the codecs on gorilla's 30 day default.
	store.MaxAge(maxAge)
	return store, nil
}

// SweepSessions removes session files in dir not written for maxAge.
// POST: Returns the number of files removed
func SweepSessions(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read session dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "session_") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("session_sweep_failed", "file", e.Name(), "error", err.Error())
			continue
		}
		removed++
	}
	return removed, nil
}

// RunSessionSweeper calls SweepSessions every interval until ctx is done.
func RunSessionSweeper(ctx context.Context, dir string, maxAge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := SweepSessions(dir, maxAge)
			if err != nil {
				slog.Warn("session_sweep_failed", "error", err.Error())
				continue
			}
			if n > 0 {
				slog.Debug("session_sweep", "removed", n)
			}
		}
	}
}

// SessionManager reads and writes the per-browser session.
type SessionManager struct {
	store sessions.Store
}

// NewSessionManager wraps a gorilla session store.
func NewSessionManager(store sessions.Store) *SessionManager {
	return &SessionManager{store: store}
}

// get returns the request's session, starting a fresh one when the cookie is
// missing, tampered with, or points at an evicted file.
func (m *SessionManager) get(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, sessionName)
	if err != nil {
		slog.Debug("session_reset", "path", r.URL.Path, "error", err.Error())
	}
	if s == nil {
		s = sessions.NewSession(m.store, sessionName)
	}
	if s.Options == nil {
		s.Options = &sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
	}
	return s
}

// Load returns the authenticated session for r.
// POST: ok is true iff both a token and a user record are stored
func (m *SessionManager) Load(r *http.Request) (Session, bool) {
	s := m.get(r)
	token, _ := s.Values[valueToken].(string)
	user, hasUser := s.Values[valueUser].(account.User)
	if token == "" || !hasUser {
		return Session{}, false
	}
	return Session{Token: token, User: user}, true
}

// Login stores the token and user, moving the browser to a new session id.
// PRE: res.Token is non-empty
// POST: Session is saved and the cookie is written to w
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, res account.AuthResult) error {
	s := m.get(r)
	if s.ID != "" {
		// Erase the pre-login file; the fresh cookie below replaces the old one.
		keep := *s.Options
		s.Options.MaxAge = -1
		if err := s.Save(r, discardWriter{}); err != nil {
			slog.Debug("session_rotate_erase_failed", "error", err.Error())
		}
		*s.Options = keep
	}
	s.ID = ""
	s.IsNew = true
	s.Values[valueToken] = res.Token
	s.Values[valueUser] = res.User
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// discardWriter accepts a Save whose cookie is not sent.
type discardWriter struct{}

func (discardWriter) Header() http.Header         { return http.Header{} }
func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (discardWriter) WriteHeader(int)             {}

// Logout clears the session and expires the cookie.
// POST: Stored session file is removed
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	s.Values = make(map[any]any)
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Auth returns middleware that loads the session and sets it in the request context.
// It does NOT block anonymous requests; use RequireAuth or RequireRole for that.
func Auth(m *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := m.Load(r); ok {
				r = r.WithContext(ContextWithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns middleware that redirects anonymous requests to /login.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r.Context()) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that only admits sessions holding role.
// Anonymous requests go to /login; other roles get an "Access denied." flash and go to the dashboard.
func RequireRole(m *SessionManager, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSessionFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if sess.User.Role != role {
				slog.Warn("access_denied", "path", r.URL.Path, "user_id", sess.User.ID, "role", sess.User.Role, "required", role)
				m.AddFlash(w, r, FlashDanger, "Access denied.")
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(Session)
	return sess, ok
}

// IsAuthenticated reports whether the context carries a session token.
func IsAuthenticated(ctx context.Context) bool {
	sess, ok := GetSessionFromContext(ctx)
	return ok && sess.Token != ""
}

// CurrentUser returns the cached user profile of the session.
func CurrentUser(ctx context.Context) (account.User, bool) {
	sess, ok := GetSessionFromContext(ctx)
	if !ok {
		return account.User{}, false
	}
	return sess.User, true
}

// HasRole checks if the current session has the given role.
func HasRole(ctx context.Context, role string) bool {
	sess, ok := GetSessionFromContext(ctx)
	return ok && sess.User.Role == role
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
