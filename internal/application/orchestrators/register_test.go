package orchestrators

import (
	"context"
	"errors"
	"testing"

	"studydesk/internal/adapters/backend"
	"studydesk/internal/domain/account"
)

// TestExecuteRegister_Valid tests a successful registration.
func TestExecuteRegister_Valid(t *testing.T) {
	be := newMockBackend()
	be.responses["/auth/register"] = `{"token":"tok","user":{"id":"u2","name":"Ben","role":"user"}}`

	res, err := ExecuteRegister(context.Background(), RegisterInput{Name: "Ben", Email: "ben@test.com", Password: "pw"}, RegisterDeps{Backend: be})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "tok" || res.User.ID != "u2" {
		t.Errorf("got %+v, want u2 with token", res)
	}
	reg, _ := be.bodies["/auth/register"].(account.Registration)
	if reg.Name != "Ben" || reg.Email != "ben@test.com" || reg.Password != "pw" {
		t.Errorf("sent %+v, want name, email and password", reg)
	}
}

// TestExecuteRegister_MissingFields tests local rejection of incomplete forms.
func TestExecuteRegister_MissingFields(t *testing.T) {
	be := newMockBackend()
	_, err := ExecuteRegister(context.Background(), RegisterInput{Email: "ben@test.com", Password: "pw"}, RegisterDeps{Backend: be})
	if !errors.Is(err, ErrMissingRegistration) {
		t.Fatalf("err = %v, want ErrMissingRegistration", err)
	}
	if len(be.calls) != 0 {
		t.Errorf("got %d backend calls, want 0", len(be.calls))
	}
}

// TestExecuteRegister_Rejected tests that the backend message is preserved.
func TestExecuteRegister_Rejected(t *testing.T) {
	be := newMockBackend()
	be.errs["/auth/register"] = &backend.Error{Kind: backend.KindRejected, Status: 409, Message: "Email already in use"}

	_, err := ExecuteRegister(context.Background(), RegisterInput{Name: "B", Email: "b@test.com", Password: "pw"}, RegisterDeps{Backend: be})
	if got := backend.UserMessage(err, "Registration failed."); got != "Email already in use" {
		t.Errorf("UserMessage = %q, want Email already in use", got)
	}
}
