package orchestrators

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
)

// mockBackend answers calls from canned JSON bodies keyed by path.
type mockBackend struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
	bodies    map[string]any
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		responses: make(map[string]string),
		errs:      make(map[string]error),
		bodies:    make(map[string]any),
	}
}

// Get implements BackendForRead.
// PRE: path is registered in responses or errs
// POST: out is decoded from the canned body
func (m *mockBackend) Get(_ context.Context, path string, _ url.Values, _ string, out any) error {
	return m.answer(path, nil, out)
}

// Post implements BackendForAuth.
// PRE: path is registered in responses or errs
// POST: body is recorded; out is decoded from the canned body
func (m *mockBackend) Post(_ context.Context, path string, body any, _ string, out any) error {
	return m.answer(path, body, out)
}

func (m *mockBackend) answer(path string, body any, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)
	if body != nil {
		m.bodies[path] = body
	}
	if err, ok := m.errs[path]; ok {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(m.responses[path]), out)
}
