package web

import (
	"bytes"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"studydesk/internal/adapters/backend"
	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/adapters/http/perf"
)

// fakeCall is one request received by fakeBackend.
type fakeCall struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   []byte
}

type fakeReply struct {
	status int
	body   string
	delay  time.Duration
}

// fakeBackend is an httptest backend API mounted under /api.
// Unconfigured GETs answer 200 [], everything else 404.
type fakeBackend struct {
	mu      sync.Mutex
	replies map[string]fakeReply
	calls   []fakeCall
	srv     *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{replies: make(map[string]fakeReply)}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	fb.mu.Lock()
	fb.calls = append(fb.calls, fakeCall{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	reply, ok := fb.replies[r.Method+" "+path]
	fb.mu.Unlock()

	if !ok {
		reply = fakeReply{status: http.StatusNotFound, body: `{"message":"not found"}`}
		if r.Method == http.MethodGet {
			reply = fakeReply{status: http.StatusOK, body: `[]`}
		}
	}
	if reply.delay > 0 {
		select {
		case <-time.After(reply.delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	io.WriteString(w, reply.body)
}

// on sets the reply for "METHOD path" (path without the /api prefix).
func (fb *fakeBackend) on(method, path string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.replies[method+" "+path] = fakeReply{status: status, body: body}
}

func (fb *fakeBackend) onSlow(method, path string, delay time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.replies[method+" "+path] = fakeReply{status: http.StatusOK, body: `[]`, delay: delay}
}

// callsTo returns the recorded calls for method and path.
func (fb *fakeBackend) callsTo(method, path string) []fakeCall {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []fakeCall
	for _, c := range fb.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (fb *fakeBackend) callCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.calls)
}

// testSite is the full handler chain served over HTTP with a cookie-keeping client.
type testSite struct {
	t       *testing.T
	srv     *httptest.Server
	client  *http.Client
	backend *fakeBackend
}

func newTestSite(t *testing.T, opts ...backend.Option) *testSite {
	t.Helper()
	fb := newFakeBackend(t)

	store, err := middleware.NewFilesystemStore(middleware.SessionOptions{
		Dir:      t.TempDir(),
		HashKey:  bytes.Repeat([]byte("h"), 32),
		BlockKey: bytes.Repeat([]byte("b"), 32),
	})
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}

	collector := perf.NewCollector(256)
	opts = append([]backend.Option{backend.WithCollector(collector)}, opts...)
	handler, err := NewMux(Deps{
		Backend:   backend.NewClient(fb.srv.URL+"/api", opts...),
		Sessions:  middleware.NewSessionManager(store),
		Collector: collector,
		CSRF:      middleware.CSRFOptions{Key: bytes.Repeat([]byte("c"), 32)},
	})
	if err != nil {
		t.Fatalf("NewMux failed: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &testSite{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		backend: fb,
	}
}

// get performs a GET and returns the response with its body read.
func (s *testSite) get(path string) (*http.Response, string) {
	s.t.Helper()
	resp, err := s.client.Get(s.srv.URL + path)
	if err != nil {
		s.t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

var csrfFieldPattern = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

// csrfToken fetches a form page and extracts its token.
func (s *testSite) csrfToken() string {
	s.t.Helper()
	_, body := s.get("/register")
	m := csrfFieldPattern.FindStringSubmatch(body)
	if m == nil {
		s.t.Fatal("no CSRF field on /register")
	}
	return m[1]
}

// post submits a form with a valid CSRF token.
func (s *testSite) post(path string, form url.Values) *http.Response {
	s.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("gorilla.csrf.Token", s.csrfToken())
	resp, err := s.client.PostForm(s.srv.URL+path, form)
	if err != nil {
		s.t.Fatalf("POST %s failed: %v", path, err)
	}
	resp.Body.Close()
	return resp
}

// loginAs logs in through the real form as a user with the given role.
func (s *testSite) loginAs(role string) {
	s.t.Helper()
	s.backend.on(http.MethodPost, "/auth/login", http.StatusOK,
		`{"token":"tok-`+role+`","user":{"_id":"u-`+role+`","name":"Ada","email":"ada@example.com","role":"`+role+`"}}`)
	resp := s.post("/login", url.Values{"email": {"ada@example.com"}, "password": {"pw"}})
	if resp.StatusCode != http.StatusSeeOther {
		s.t.Fatalf("login status = %d, want 303", resp.StatusCode)
	}
}

func assertRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}
