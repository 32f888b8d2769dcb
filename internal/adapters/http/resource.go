package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"studydesk/internal/adapters/backend"
	"studydesk/internal/adapters/http/middleware"
)

// resource is the guard -> build request -> proxy -> view pipeline shared by
// every backend collection with a list+create page and a per-id delete.
// The browser path and the backend path are the same.
type resource[T any] struct {
	path     string // e.g. "/exams"
	template string
	listKey  string // template data key for the fetched items

	// listQuery builds the GET query; nil means none.
	listQuery func(r *http.Request) url.Values
	// newBody builds the create payload from the parsed form.
	// On error the invalid flash is shown and no backend call is made.
	newBody func(r *http.Request) (any, error)
	// related fetches extra page data concurrently with the list; optional.
	related func(ctx context.Context, b Backend, token string) map[string]any
	// decorate adds page-specific data derived from the request and items; optional.
	decorate func(r *http.Request, items []T, data map[string]any)

	invalid      string
	created      string
	createFailed string
	deleted      string
}

func (res resource[T]) register(mux *http.ServeMux, a *app) {
	mux.Handle("GET "+res.path, middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.list(a, w, r)
	})))
	mux.Handle("POST "+res.path, middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.create(a, w, r)
	})))
	mux.Handle("POST "+res.path+"/{id}", middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.delete(a, w, r)
	})))
}

// list renders the collection; backend failures degrade to an empty list.
func (res resource[T]) list(a *app, w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	var query url.Values
	if res.listQuery != nil {
		query = res.listQuery(r)
	}

	// List and related fetches run concurrently.
	var (
		g       errgroup.Group
		items   []T
		listErr error
		extra   map[string]any
	)
	g.Go(func() error {
		items, listErr = fetchList[T](r.Context(), a.backend, res.path, query, sess.Token)
		return nil
	})
	if res.related != nil {
		g.Go(func() error {
			extra = res.related(r.Context(), a.backend, sess.Token)
			return nil
		})
	}
	g.Wait()

	data := map[string]any{}
	for k, v := range extra {
		data[k] = v
	}
	if listErr != nil {
		data["Degraded"] = backend.UserMessage(listErr, "")
	}
	data[res.listKey] = items
	if res.decorate != nil {
		res.decorate(r, items, data)
	}
	a.render(w, r, res.template, data)
}

// create posts the form to the backend and redirects back to the list.
func (res resource[T]) create(a *app, w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	body, err := res.newBody(r)
	if err != nil {
		slog.Debug("create_rejected", "path", res.path, "error", err.Error())
		a.sessions.AddFlash(w, r, middleware.FlashDanger, res.invalid)
		http.Redirect(w, r, res.path, http.StatusSeeOther)
		return
	}

	if err := a.backend.Post(r.Context(), res.path, body, sess.Token, nil); err != nil {
		a.sessions.AddFlash(w, r, middleware.FlashDanger, backend.UserMessage(err, res.createFailed))
	} else {
		a.sessions.AddFlash(w, r, middleware.FlashSuccess, res.created)
	}
	http.Redirect(w, r, res.path, http.StatusSeeOther)
}

// delete removes one item. Only an exact 200 counts as success.
func (res resource[T]) delete(a *app, w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")

	status, err := a.backend.Delete(r.Context(), res.path+"/"+url.PathEscape(id), sess.Token)
	if err == nil && status == http.StatusOK {
		a.sessions.AddFlash(w, r, middleware.FlashSuccess, res.deleted)
	} else {
		slog.Info("delete_failed", "path", res.path, "id", id, "status", status)
		a.sessions.AddFlash(w, r, middleware.FlashDanger, "Failed to delete.")
	}
	http.Redirect(w, r, res.path, http.StatusSeeOther)
}

// fetchList GETs a JSON array, returning nil items on any failure.
func fetchList[T any](ctx context.Context, b Backend, path string, query url.Values, token string) ([]T, error) {
	var items []T
	if err := b.Get(ctx, path, query, token, &items); err != nil {
		slog.Info("list_degraded", "path", path, "kind", backend.KindOf(err).String())
		return nil, err
	}
	return items, nil
}
