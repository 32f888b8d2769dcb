package middleware

import (
	"log/slog"
	"net/http"
)

// Flash categories
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Text     string
	Category string
}

// AddFlash queues a message on the session and saves it.
// PRE: must be called before the response body is written
// POST: message is stored until the next Flashes call
func (m *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, category, text string) {
	s := m.get(r)
	s.AddFlash(Flash{Text: text, Category: category})
	if err := s.Save(r, w); err != nil {
		slog.Error("flash_save_failed", "path", r.URL.Path, "error", err.Error())
	}
}

// Flashes returns and clears all queued messages.
// PRE: must be called before the response body is written
// POST: queue is empty
func (m *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	s := m.get(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := s.Save(r, w); err != nil {
		slog.Error("flash_save_failed", "path", r.URL.Path, "error", err.Error())
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}
