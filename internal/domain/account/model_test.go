package account_test

import (
	"encoding/json"
	"testing"

	"studydesk/internal/domain/account"
)

// TestUser_UnmarshalJSON_IDKeys tests that both identifier spellings decode.
func TestUser_UnmarshalJSON_IDKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "id key", body: `{"id":"u1","name":"Ana","email":"ana@test.com","role":"user"}`, want: "u1"},
		{name: "_id key", body: `{"_id":"u2","name":"Ben","email":"ben@test.com","role":"admin"}`, want: "u2"},
		{name: "id wins over _id", body: `{"id":"u3","_id":"other"}`, want: "u3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u account.User
			if err := json.Unmarshal([]byte(tt.body), &u); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.ID != tt.want {
				t.Errorf("ID = %q, want %q", u.ID, tt.want)
			}
		})
	}
}

// TestUser_UnmarshalJSON_Fields tests that the profile fields survive the alias decode.
func TestUser_UnmarshalJSON_Fields(t *testing.T) {
	var u account.User
	if err := json.Unmarshal([]byte(`{"_id":"u1","name":"Ana","email":"ana@test.com","role":"admin"}`), &u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != "Ana" || u.Email != "ana@test.com" {
		t.Errorf("got %+v, want name and email populated", u)
	}
	if !u.IsAdmin() {
		t.Error("expected IsAdmin() = true for role admin")
	}
}

// TestUser_DisplayName tests the email fallback.
func TestUser_DisplayName(t *testing.T) {
	if got := (account.User{Name: "Ana", Email: "a@test.com"}).DisplayName(); got != "Ana" {
		t.Errorf("DisplayName = %q, want Ana", got)
	}
	if got := (account.User{Email: "a@test.com"}).DisplayName(); got != "a@test.com" {
		t.Errorf("DisplayName = %q, want a@test.com", got)
	}
}

// TestUser_IsAdmin_PlainUser tests that the user role is not admin.
func TestUser_IsAdmin_PlainUser(t *testing.T) {
	if (account.User{Role: account.RoleUser}).IsAdmin() {
		t.Error("expected IsAdmin() = false for role user")
	}
}
