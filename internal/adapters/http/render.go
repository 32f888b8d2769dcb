package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/domain/account"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const layoutTemplate = "layout.html"

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// renderer holds one parsed layout+page set per page template.
type renderer struct {
	pages map[string]*template.Template
}

// baseFuncs are request-independent; requestFuncs replace the stubs at execution.
var baseFuncs = template.FuncMap{
	"renderMarkdown": renderMarkdown,
	"add":            func(a, b int) int { return a + b },
	"indent":         func(depth int) string { return strings.Repeat("  ", depth) },
	"csrfField":      func() template.HTML { return "" },
	"currentUser":    func() account.User { return account.User{} },
	"isLoggedIn":     func() bool { return false },
	"isAdmin":        func() bool { return false },
}

func requestFuncs(r *http.Request) template.FuncMap {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	return template.FuncMap{
		"csrfField":   func() template.HTML { return csrf.TemplateField(r) },
		"currentUser": func() account.User { return sess.User },
		"isLoggedIn":  func() bool { return ok },
		"isAdmin":     func() bool { return ok && sess.User.IsAdmin() },
	}
}

func newRenderer() (*renderer, error) {
	names, err := fs.Glob(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	rd := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := path.Base(name)
		if base == layoutTemplate {
			continue
		}
		tpl, err := template.New(layoutTemplate).Funcs(baseFuncs).
			ParseFS(templateFiles, "templates/"+layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", base, err)
		}
		rd.pages[base] = tpl
	}
	return rd, nil
}

// render consumes the session's flashes and writes the page.
// A non-empty data["Degraded"] is shown as an extra danger message.
// PRE: nothing has been written to w
func (a *app) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	base, ok := a.pages.pages[name]
	if !ok {
		internalError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, r, err)
		return
	}
	tpl.Funcs(requestFuncs(r))

	if data == nil {
		data = map[string]any{}
	}
	flashes := a.sessions.Flashes(w, r)
	if msg, _ := data["Degraded"].(string); msg != "" {
		flashes = append(flashes, middleware.Flash{Text: msg, Category: middleware.FlashDanger})
	}
	data["Flashes"] = flashes

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, r, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "path", r.URL.Path, "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
