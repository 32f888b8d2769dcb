//go:build browser

package browser_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"studydesk/internal/adapters/backend"
	web "studydesk/internal/adapters/http"
	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/adapters/http/perf"
	"studydesk/internal/domain/account"
	"studydesk/internal/domain/exam"
)

// fakeAPI is a stateful in-memory backend serving the calls the front end makes.
type fakeAPI struct {
	mu     sync.Mutex
	exams  []exam.Exam
	nextID int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case r.Method == http.MethodPost && path == "/auth/login":
		var creds account.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "TestPass123!" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
			return
		}
		role := account.RoleUser
		if strings.HasPrefix(creds.Email, "admin") {
			role = account.RoleAdmin
		}
		json.NewEncoder(w).Encode(account.AuthResult{
			Token: "tok-" + role,
			User:  account.User{ID: "u-" + role, Name: "Test " + role, Email: creds.Email, Role: role},
		})
	case r.Method == http.MethodGet && (path == "/exams" || path == "/admin/exams"):
		json.NewEncoder(w).Encode(f.exams)
	case r.Method == http.MethodPost && path == "/exams":
		var in exam.CreateInput
		json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		e := exam.Exam{ID: fmt.Sprintf("e%d", f.nextID), Title: in.Title, Subject: in.Subject, Date: in.Date, Priority: in.Priority}
		f.exams = append(f.exams, e)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(e)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/exams/"):
		id := strings.TrimPrefix(path, "/exams/")
		for i, e := range f.exams {
			if e.ID == id {
				f.exams = append(f.exams[:i], f.exams[i+1:]...)
				json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodGet:
		w.Write([]byte("[]"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newTestApp wires the front end against a fake backend and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	api := httptest.NewServer(&fakeAPI{})
	t.Cleanup(api.Close)

	store, err := middleware.NewFilesystemStore(middleware.SessionOptions{
		Dir:      t.TempDir(),
		HashKey:  bytes.Repeat([]byte("h"), 32),
		BlockKey: bytes.Repeat([]byte("b"), 32),
	})
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	collector := perf.NewCollector(1000)
	handler, err := web.NewMux(web.Deps{
		Backend:   backend.NewClient(api.URL+"/api", backend.WithCollector(collector)),
		Sessions:  middleware.NewSessionManager(store),
		Collector: collector,
		CSRF: middleware.CSRFOptions{
			Key: bytes.Repeat([]byte("c"), 32),
			TrustedOrigins: []string{
				fmt.Sprintf("127.0.0.1:%d", port),
				fmt.Sprintf("localhost:%d", port),
			},
		},
	})
	if err != nil {
		t.Fatalf("NewMux failed: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: handler,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
	})

	return &testApp{BaseURL: baseURL, Server: srv, PW: pw, Browser: browser}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login fills the login form and waits for the landing page.
func (a *testApp) login(t *testing.T, page playwright.Page, email, landing string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill("TestPass123!"); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("#loginForm button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+landing, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to %s: %v", landing, err)
	}
}
