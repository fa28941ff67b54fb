package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/praxis-legal/praxis/internal/shared"
)

type stubRepo struct {
	users map[string]*User
	cases map[string][]string
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (r *stubRepo) AssignedCaseIDs(_ context.Context, userID string) ([]string, error) {
	return r.cases[userID], nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	repo := &stubRepo{users: map[string]*User{
		"amina@praxis.example": {
			ID:           "u1",
			Email:        "amina@praxis.example",
			PasswordHash: hashPassword(t, "correct horse"),
			LawFirmID:    "firm-1",
			IsActive:     true,
		},
	}}
	service := NewService(repo)

	user, err := service.Authenticate(context.Background(), "amina@praxis.example", "correct horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != "u1" || user.LawFirmID != "firm-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	repo := &stubRepo{users: map[string]*User{
		"amina@praxis.example": {
			ID:           "u1",
			Email:        "amina@praxis.example",
			PasswordHash: hashPassword(t, "correct horse"),
			IsActive:     true,
		},
		"retired@praxis.example": {
			ID:           "u2",
			Email:        "retired@praxis.example",
			PasswordHash: hashPassword(t, "correct horse"),
			IsActive:     false,
		},
	}}
	service := NewService(repo)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@praxis.example", "correct horse"},
		{"wrong password", "amina@praxis.example", "incorrect horse"},
		{"inactive user", "retired@praxis.example", "correct horse"},
	}
	for _, tc := range cases {
		if _, err := service.Authenticate(context.Background(), tc.email, tc.password); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("%s: error = %v, want ErrInvalidCredentials", tc.name, err)
		}
	}
}

func TestAssignedCases(t *testing.T) {
	repo := &stubRepo{cases: map[string][]string{"u1": {"case-1", "case-2"}}}
	service := NewService(repo)

	ids, err := service.AssignedCases(context.Background(), "u1")
	if err != nil {
		t.Fatalf("assigned cases: %v", err)
	}
	if len(ids) != 2 || ids[0] != "case-1" {
		t.Fatalf("unexpected case ids: %v", ids)
	}
}
