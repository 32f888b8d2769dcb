package account

import "encoding/json"

// Role constants
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the profile the backend returns alongside a bearer token.
// It is cached in the session for the lifetime of the login.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user holds the admin role.
// INVARIANT: User fields are not mutated
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the name, falling back to the email address.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// UnmarshalJSON accepts both "id" and "_id" as the identifier key.
// PRE: data is a JSON object
// POST: ID is populated from whichever key is present
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var raw struct {
		alias
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	if u.ID == "" {
		u.ID = raw.DocID
	}
	return nil
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the registration request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
