package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"studydesk/internal/domain/account"
)

// BackendForAuth defines the backend calls needed by Login and Register.
type BackendForAuth interface {
	Post(ctx context.Context, path string, body any, token string, out any) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Backend BackendForAuth
}

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrNoToken            = errors.New("backend returned no token")
)

// ExecuteLogin exchanges credentials for a bearer token and user profile.
// PRE: none
// POST: Returns a token and user on success; backend errors are returned wrapped
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.AuthResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return account.AuthResult{}, ErrMissingCredentials
	}

	var res account.AuthResult
	err := deps.Backend.Post(ctx, "/auth/login", account.Credentials{Email: email, Password: input.Password}, "", &res)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "error", err.Error())
		return account.AuthResult{}, fmt.Errorf("login: %w", err)
	}
	if res.Token == "" {
		slog.Warn("auth_event", "event", "login_failed", "email", email, "reason", "no_token")
		return account.AuthResult{}, ErrNoToken
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "role", res.User.Role)
	return res, nil
}
