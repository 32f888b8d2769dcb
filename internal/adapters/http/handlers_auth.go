package web

import (
	"errors"
	"net/http"

	"studydesk/internal/adapters/backend"
	"studydesk/internal/adapters/http/middleware"
	"studydesk/internal/application/orchestrators"
)

// handleLoginPage handles GET /login. Authenticated users never see the form.
func (a *app) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.CurrentUser(r.Context()); ok {
		http.Redirect(w, r, landingPath(user), http.StatusSeeOther)
		return
	}
	a.render(w, r, "login.html", nil)
}

// handleLogin handles POST /login
func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := orchestrators.LoginInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	deps := orchestrators.LoginDeps{Backend: a.backend}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, deps)
	if err != nil {
		a.sessions.AddFlash(w, r, middleware.FlashDanger, authFailureMessage(err, orchestrators.ErrMissingCredentials, "Email and password are required.", "Login failed."))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := a.sessions.Login(w, r, result); err != nil {
		internalError(w, r, err)
		return
	}
	http.Redirect(w, r, landingPath(result.User), http.StatusSeeOther)
}

// handleRegisterPage handles GET /register
func (a *app) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "register.html", nil)
}

// handleRegister handles POST /register. A new account always lands on the dashboard.
func (a *app) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := orchestrators.RegisterInput{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	deps := orchestrators.RegisterDeps{Backend: a.backend}

	result, err := orchestrators.ExecuteRegister(r.Context(), input, deps)
	if err != nil {
		a.sessions.AddFlash(w, r, middleware.FlashDanger, authFailureMessage(err, orchestrators.ErrMissingRegistration, "Name, email and password are required.", "Registration failed."))
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	if err := a.sessions.Login(w, r, result); err != nil {
		internalError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles GET /logout
func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Logout(w, r); err != nil {
		internalError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// authFailureMessage picks the flash for a failed login or registration.
// Backend messages are shown verbatim.
func authFailureMessage(err, localErr error, localText, fallback string) string {
	if errors.Is(err, localErr) {
		return localText
	}
	return backend.UserMessage(err, fallback)
}
