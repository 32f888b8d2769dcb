package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"studydesk/internal/domain/account"
)

// RegisterInput carries input for the register orchestrator.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	Backend BackendForAuth
}

var ErrMissingRegistration = errors.New("name, email and password are required")

// ExecuteRegister creates an account on the backend and returns its session credentials.
// PRE: none
// POST: Returns a token and user on success; backend errors are returned wrapped
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (account.AuthResult, error) {
	reg := account.Registration{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
	}
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return account.AuthResult{}, ErrMissingRegistration
	}

	var res account.AuthResult
	if err := deps.Backend.Post(ctx, "/auth/register", reg, "", &res); err != nil {
		slog.Info("auth_event", "event", "register_failed", "email", reg.Email, "error", err.Error())
		return account.AuthResult{}, fmt.Errorf("register: %w", err)
	}
	if res.Token == "" {
		return account.AuthResult{}, ErrNoToken
	}

	slog.Info("auth_event", "event", "register_success", "email", reg.Email)
	return res, nil
}
